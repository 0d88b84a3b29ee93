// Package lifecycle decides whether a document is still deliverable to a requester.
// It owns creation, view accounting, expiry detection and soft deletion; callers
// never touch view_count or deleted directly.
package lifecycle

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"path"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"briefcase/internal/logging"
	"briefcase/internal/metrics"
	"briefcase/internal/model"
	"briefcase/internal/repository"
	"briefcase/internal/storage"
)

const pkg = "lifecycle/"

// blobPrefix is the object key prefix for ciphertexts kept in the blob store.
const blobPrefix = "documents"

var errNoBlobStore = errors.New("payload is stored externally but no blob store is configured")

// CreateParams describes a new document. Non-positive ViewLimit or TTLDays mean "unset".
type CreateParams struct {
	SenderID    int64
	RecipientID int64
	Filename    string
	Ciphertext  []byte
	ViewLimit   *int
	TTLDays     *int
}

// Engine is safe for concurrent use; per-document atomicity comes from the repository.
type Engine struct {
	docs    repository.DocumentRepository
	users   repository.UserRepository
	blobs   storage.Storage
	metrics *metrics.Metrics
	log     *logrus.Entry
	tracer  trace.Tracer
	clock   func() time.Time
}

type Option func(*Engine)

// WithBlobStore keeps ciphertexts in s instead of the document row.
func WithBlobStore(s storage.Storage) Option {
	return func(e *Engine) { e.blobs = s }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(e *Engine) { e.metrics = m }
}

func WithLogger(log logrus.FieldLogger) Option {
	return func(e *Engine) { e.log = logging.Component(log, "lifecycle") }
}

// WithClock replaces time.Now for creation timestamps and listing flags.
func WithClock(clock func() time.Time) Option {
	return func(e *Engine) { e.clock = clock }
}

func NewEngine(docs repository.DocumentRepository, users repository.UserRepository, opts ...Option) *Engine {
	e := &Engine{
		docs:   docs,
		users:  users,
		log:    logging.Component(nil, "lifecycle"),
		tracer: otel.Tracer("briefcase/lifecycle"),
		clock:  time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Now is the engine clock.
func (e *Engine) Now() time.Time { return e.clock() }

// Create persists a new active document with view_count 0.
func (e *Engine) Create(ctx context.Context, p CreateParams) (*model.Document, error) {
	op := pkg + "Create"
	ctx, span := e.tracer.Start(ctx, "lifecycle.Create", trace.WithAttributes(
		attribute.Int64("document.sender_id", p.SenderID),
		attribute.Int64("document.recipient_id", p.RecipientID),
	))
	defer span.End()

	ok, err := e.users.Exists(ctx, p.RecipientID)
	if err != nil {
		return nil, e.fail(span, fmt.Errorf("%s: %w", op, err))
	}
	if !ok {
		return nil, e.fail(span, fmt.Errorf("%s: recipient %d: %w", op, p.RecipientID, model.ErrRecipientNotFound))
	}

	now := e.clock().UTC()
	doc := &model.Document{
		Filename:    p.Filename,
		Ciphertext:  p.Ciphertext,
		SenderID:    p.SenderID,
		RecipientID: p.RecipientID,
		CreatedAt:   now,
	}
	if p.ViewLimit != nil && *p.ViewLimit > 0 {
		limit := *p.ViewLimit
		doc.ViewLimit = &limit
	}
	if p.TTLDays != nil && *p.TTLDays > 0 {
		expires := now.AddDate(0, 0, *p.TTLDays)
		doc.ExpiresAt = &expires
	}

	if e.blobs != nil {
		key := path.Join(blobPrefix, uuid.NewString()+".bin")
		if _, err := e.blobs.Put(ctx, key, bytes.NewReader(p.Ciphertext), storage.PutObjectOptions{
			Size:        int64(len(p.Ciphertext)),
			ContentType: "application/octet-stream",
		}); err != nil {
			return nil, e.fail(span, fmt.Errorf("%s: store payload: %w", op, err))
		}
		doc.StoragePath = key
		doc.Ciphertext = nil
	}

	stored, err := e.docs.Create(ctx, doc)
	if err != nil {
		if doc.StoragePath != "" {
			if delErr := e.blobs.Delete(ctx, doc.StoragePath); delErr != nil {
				e.log.WithError(delErr).WithField("key", doc.StoragePath).Error("payload rollback failed")
			}
		}
		return nil, e.fail(span, fmt.Errorf("%s: %w", op, err))
	}

	span.SetAttributes(attribute.Int64("document.id", stored.ID))
	e.metrics.DocumentCreated()
	e.log.WithFields(logrus.Fields{
		"document_id":  stored.ID,
		"sender_id":    stored.SenderID,
		"recipient_id": stored.RecipientID,
		"external":     stored.StoragePath != "",
	}).Info("document created")
	return stored, nil
}

// AuthorizeAndRead checks access and accounts for one read in a single atomic step.
// On success the returned document carries its ciphertext. Deletions caused by
// expiry or an exhausted limit are persisted even though the call fails.
func (e *Engine) AuthorizeAndRead(ctx context.Context, identity, id int64, now time.Time) (*model.Document, error) {
	op := pkg + "AuthorizeAndRead"
	ctx, span := e.tracer.Start(ctx, "lifecycle.AuthorizeAndRead", trace.WithAttributes(
		attribute.Int64("document.id", id),
		attribute.Int64("identity", identity),
	))
	defer span.End()

	var deletedFor string
	doc, err := e.docs.Transition(ctx, id, func(d *model.Document) error {
		if d.Deleted {
			return model.ErrDocumentNotFound
		}
		if !d.IsParty(identity) {
			return model.ErrForbidden
		}
		if d.IsExpired(now) {
			d.Deleted = true
			deletedFor = metrics.DeletedExpired
			return model.ErrExpired
		}
		if d.IsLimitReached() {
			d.Deleted = true
			deletedFor = metrics.DeletedLimitReached
			return model.ErrLimitReached
		}
		if identity == d.RecipientID {
			d.ViewCount++
			if d.IsLimitReached() {
				d.Deleted = true
				deletedFor = metrics.DeletedLimitReached
			}
		}
		return nil
	})

	log := e.log.WithFields(logrus.Fields{"document_id": id, "identity": identity})
	if deletedFor != "" && doc != nil && doc.Deleted {
		e.metrics.Deleted(deletedFor, 1)
		log.WithField("reason", deletedFor).Info("document deleted")
	}

	if err != nil {
		e.metrics.Read(readOutcome(err))
		if isLifecycleFailure(err) {
			span.SetAttributes(attribute.String("read.outcome", readOutcome(err)))
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		return nil, e.fail(span, fmt.Errorf("%s: %w", op, err))
	}

	if doc.StoragePath != "" {
		if e.blobs == nil {
			e.metrics.Read(metrics.ReadError)
			return nil, e.fail(span, fmt.Errorf("%s: %w", op, errNoBlobStore))
		}
		data, err := storage.ReadAll(ctx, e.blobs, doc.StoragePath)
		if err != nil {
			e.metrics.Read(metrics.ReadError)
			log.WithError(err).WithField("key", doc.StoragePath).Error("payload fetch failed after view was counted")
			return nil, e.fail(span, fmt.Errorf("%s: fetch payload: %w", op, err))
		}
		doc.Ciphertext = data
	}

	e.metrics.Read(metrics.ReadOK)
	span.SetAttributes(
		attribute.String("read.outcome", metrics.ReadOK),
		attribute.Int("document.view_count", doc.ViewCount),
	)
	log.WithField("view_count", doc.ViewCount).Debug("document read")
	return doc, nil
}

// SweepExpired soft-deletes every live document that is expired at now or has
// exhausted its view limit. Safe to run concurrently with reads and with itself.
func (e *Engine) SweepExpired(ctx context.Context, now time.Time) (int64, error) {
	op := pkg + "SweepExpired"
	ctx, span := e.tracer.Start(ctx, "lifecycle.SweepExpired")
	defer span.End()

	n, err := e.docs.SoftDeleteStale(ctx, now)
	if err != nil {
		return 0, e.fail(span, fmt.Errorf("%s: %w", op, err))
	}

	span.SetAttributes(attribute.Int64("documents.deleted", n))
	if n > 0 {
		e.metrics.Deleted(metrics.DeletedSweep, n)
		e.log.WithField("count", n).Info("stale documents deleted")
	}
	return n, nil
}

// ListFor returns the live documents identity sent and received, flagged against
// the engine clock. A document sent to oneself appears in both lists.
func (e *Engine) ListFor(ctx context.Context, identity int64) (*model.Inbox, error) {
	op := pkg + "ListFor"
	ctx, span := e.tracer.Start(ctx, "lifecycle.ListFor", trace.WithAttributes(
		attribute.Int64("identity", identity),
	))
	defer span.End()

	views, err := e.docs.ListActiveFor(ctx, identity)
	if err != nil {
		return nil, e.fail(span, fmt.Errorf("%s: %w", op, err))
	}

	now := e.clock()
	inbox := &model.Inbox{
		Sent:     make([]model.DocumentView, 0),
		Received: make([]model.DocumentView, 0),
	}
	for _, v := range views {
		v.IsExpired = v.ExpiresAt != nil && !v.ExpiresAt.After(now)
		v.IsLimitReached = v.ViewLimit != nil && v.ViewCount >= *v.ViewLimit
		if v.SenderID == identity {
			inbox.Sent = append(inbox.Sent, v)
		}
		if v.RecipientID == identity {
			inbox.Received = append(inbox.Received, v)
		}
	}
	return inbox, nil
}

func (e *Engine) fail(span trace.Span, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	return err
}

func isLifecycleFailure(err error) bool {
	return errors.Is(err, model.ErrDocumentNotFound) ||
		errors.Is(err, model.ErrForbidden) ||
		errors.Is(err, model.ErrExpired) ||
		errors.Is(err, model.ErrLimitReached)
}

func readOutcome(err error) string {
	switch {
	case errors.Is(err, model.ErrDocumentNotFound):
		return metrics.ReadNotFound
	case errors.Is(err, model.ErrForbidden):
		return metrics.ReadForbidden
	case errors.Is(err, model.ErrExpired):
		return metrics.ReadExpired
	case errors.Is(err, model.ErrLimitReached):
		return metrics.ReadLimitReached
	default:
		return metrics.ReadError
	}
}
