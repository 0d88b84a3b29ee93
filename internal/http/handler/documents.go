package handler

import (
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"

	"briefcase/internal/http/middleware"
	"briefcase/internal/service"
)

type uploadResponse struct {
	Message    string `json:"message"`
	DocumentID int64  `json:"document_id"`
	Filename   string `json:"filename"`
}

// UploadDocument accepts multipart/form-data with fields file, recipient_id and the
// optional view_limit and expires_in_days.
func UploadDocument(svc service.DocumentService, log logrus.FieldLogger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		sender, ok := middleware.UserID(c)
		if !ok {
			return fiber.ErrUnauthorized
		}

		fh, err := c.FormFile("file")
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "FILE_REQUIRED", "file is required")
		}

		recipient, err := strconv.ParseInt(strings.TrimSpace(c.FormValue("recipient_id")), 10, 64)
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_RECIPIENT", "recipient_id must be an integer")
		}
		viewLimit, err := optionalInt(c.FormValue("view_limit"))
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_VIEW_LIMIT", "view_limit must be an integer")
		}
		expiresIn, err := optionalInt(c.FormValue("expires_in_days"))
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_EXPIRY", "expires_in_days must be an integer")
		}

		f, err := fh.Open()
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "FILE_OPEN_ERROR", "cannot open uploaded file")
		}
		defer f.Close()

		doc, err := svc.Upload(c.UserContext(), service.UploadInput{
			SenderID:      sender,
			RecipientID:   recipient,
			Filename:      fh.Filename,
			Content:       f,
			ViewLimit:     viewLimit,
			ExpiresInDays: expiresIn,
		})
		if err != nil {
			return writeServiceError(c, log, err)
		}

		return c.Status(fiber.StatusCreated).JSON(uploadResponse{
			Message:    "File uploaded successfully",
			DocumentID: doc.ID,
			Filename:   doc.Filename,
		})
	}
}

// ListDocuments returns the caller's sent and received live documents.
func ListDocuments(svc service.DocumentService, log logrus.FieldLogger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := middleware.UserID(c)
		if !ok {
			return fiber.ErrUnauthorized
		}
		inbox, err := svc.List(c.UserContext(), id)
		if err != nil {
			return writeServiceError(c, log, err)
		}
		return c.JSON(inbox)
	}
}

// DownloadDocument streams the decrypted file as an attachment. Each successful
// call by the recipient consumes one view.
func DownloadDocument(svc service.DocumentService, log logrus.FieldLogger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		identity, ok := middleware.UserID(c)
		if !ok {
			return fiber.ErrUnauthorized
		}

		id, err := strconv.ParseInt(c.Params("id"), 10, 64)
		if err != nil || id <= 0 {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}

		dl, err := svc.Download(c.UserContext(), identity, id)
		if err != nil {
			return writeServiceError(c, log, err)
		}

		c.Attachment(dl.Filename)
		return c.Send(dl.Content)
	}
}

// optionalInt parses an optional form value. Empty means unset.
func optionalInt(v string) (*int, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return nil, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return nil, err
	}
	return &n, nil
}
