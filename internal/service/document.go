package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"briefcase/internal/encryption"
	"briefcase/internal/lifecycle"
	"briefcase/internal/logging"
	"briefcase/internal/model"
)

const pkg = "service/"

var ErrReaderNil = errors.New("reader is nil")

// Lifecycle is the subset of the lifecycle engine the document use cases need.
type Lifecycle interface {
	Create(ctx context.Context, p lifecycle.CreateParams) (*model.Document, error)
	AuthorizeAndRead(ctx context.Context, identity, id int64, now time.Time) (*model.Document, error)
	SweepExpired(ctx context.Context, now time.Time) (int64, error)
	ListFor(ctx context.Context, identity int64) (*model.Inbox, error)
	Now() time.Time
}

// Cipher protects payloads at rest.
type Cipher interface {
	Encrypt(plaintext []byte) ([]byte, error)
	Decrypt(blob []byte) ([]byte, error)
}

// UploadInput is a plaintext file addressed to a recipient.
type UploadInput struct {
	SenderID      int64
	RecipientID   int64
	Filename      string
	Content       io.Reader
	ViewLimit     *int
	ExpiresInDays *int
}

// Download is a decrypted document ready to stream to its requester.
type Download struct {
	DocumentID int64
	Filename   string
	Content    []byte
}

// DocumentService defines the document use cases.
type DocumentService interface {
	// Upload encrypts the content and hands it to the lifecycle engine.
	Upload(ctx context.Context, in UploadInput) (*model.Document, error)

	// List sweeps stale documents, then returns what identity sent and received.
	List(ctx context.Context, identity int64) (*model.Inbox, error)

	// Download authorizes and accounts one read, then decrypts the payload.
	Download(ctx context.Context, identity, id int64) (*Download, error)
}

type documentService struct {
	engine Lifecycle
	cipher Cipher
	log    *logrus.Entry
}

func NewDocumentService(engine Lifecycle, cipher Cipher, log logrus.FieldLogger) DocumentService {
	return &documentService{
		engine: engine,
		cipher: cipher,
		log:    logging.Component(log, "document_service"),
	}
}

func (s *documentService) Upload(ctx context.Context, in UploadInput) (*model.Document, error) {
	op := pkg + "Upload"

	if in.Content == nil {
		return nil, ErrReaderNil
	}
	filename := cleanFilename(in.Filename)
	if filename == "" {
		return nil, fmt.Errorf("%s: filename is required: %w", op, model.ErrInvalidParams)
	}

	plaintext, err := io.ReadAll(in.Content)
	if err != nil {
		return nil, fmt.Errorf("%s: read content: %w", op, err)
	}

	ciphertext, err := s.cipher.Encrypt(plaintext)
	if err != nil {
		return nil, fmt.Errorf("%s: encrypt: %w", op, err)
	}

	doc, err := s.engine.Create(ctx, lifecycle.CreateParams{
		SenderID:    in.SenderID,
		RecipientID: in.RecipientID,
		Filename:    filename,
		Ciphertext:  ciphertext,
		ViewLimit:   in.ViewLimit,
		TTLDays:     in.ExpiresInDays,
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return doc, nil
}

func (s *documentService) List(ctx context.Context, identity int64) (*model.Inbox, error) {
	op := pkg + "List"

	if _, err := s.engine.SweepExpired(ctx, s.engine.Now()); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	inbox, err := s.engine.ListFor(ctx, identity)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return inbox, nil
}

func (s *documentService) Download(ctx context.Context, identity, id int64) (*Download, error) {
	op := pkg + "Download"

	doc, err := s.engine.AuthorizeAndRead(ctx, identity, id, s.engine.Now())
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	plaintext, err := s.cipher.Decrypt(doc.Ciphertext)
	if err != nil {
		if errors.Is(err, encryption.ErrMalformedCiphertext) {
			s.log.WithFields(logrus.Fields{
				"op":          op,
				"document_id": id,
			}).WithError(err).Error("stored ciphertext failed integrity check")
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &Download{DocumentID: doc.ID, Filename: doc.Filename, Content: plaintext}, nil
}

// cleanFilename drops any directory part a client sent along with the name.
func cleanFilename(name string) string {
	name = strings.TrimSpace(strings.ReplaceAll(name, `\`, "/"))
	if name == "" {
		return ""
	}
	base := path.Base(name)
	if base == "." || base == "/" || base == ".." {
		return ""
	}
	return base
}
