package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"briefcase/internal/database"
	"briefcase/internal/model"
	"briefcase/internal/repository"
)

const documentColumns = `id, filename, ciphertext, storage_path, sender_id, recipient_id,
		view_limit, view_count, expires_at, created_at, deleted`

// DocumentPostgres is a PostgreSQL implementation of repository.DocumentRepository.
// Transition serializes on the document row with SELECT ... FOR UPDATE.
type DocumentPostgres struct {
	db *sqlx.DB
}

// NewDocumentPostgres creates a new DocumentPostgres repository.
func NewDocumentPostgres(db *sqlx.DB) *DocumentPostgres {
	return &DocumentPostgres{db: db}
}

var _ repository.DocumentRepository = (*DocumentPostgres)(nil)

// Create inserts a new document row and returns the stored record.
func (r *DocumentPostgres) Create(ctx context.Context, doc *model.Document) (*model.Document, error) {
	const op = "documentPostgres/Create"
	const q = `
		INSERT INTO documents (filename, ciphertext, storage_path, sender_id, recipient_id,
			view_limit, view_count, expires_at, created_at, deleted)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING ` + documentColumns

	var row documentRow
	err := r.db.GetContext(ctx, &row, q,
		doc.Filename,
		nullableBytes(doc.Ciphertext),
		nullableString(doc.StoragePath),
		doc.SenderID,
		doc.RecipientID,
		doc.ViewLimit,
		doc.ViewCount,
		doc.ExpiresAt,
		doc.CreatedAt,
		doc.Deleted,
	)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return row.toModel(), nil
}

// Transition locks the row, applies fn and persists view_count/deleted in the same transaction.
func (r *DocumentPostgres) Transition(ctx context.Context, id int64, fn repository.TransitionFunc) (*model.Document, error) {
	const op = "documentPostgres/Transition"
	const qSelect = `
		SELECT ` + documentColumns + `
		FROM documents
		WHERE id = $1
		FOR UPDATE`
	const qUpdate = `UPDATE documents SET view_count = $2, deleted = $3 WHERE id = $1`

	var (
		out   *model.Document
		fnErr error
	)
	err := database.WithTx(ctx, r.db, nil, func(ctx context.Context, tx *sqlx.Tx) error {
		var row documentRow
		if err := tx.GetContext(ctx, &row, qSelect, id); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return model.ErrDocumentNotFound
			}
			return err
		}

		doc := row.toModel()
		viewCount, deleted := doc.ViewCount, doc.Deleted
		fnErr = fn(doc)

		if doc.ViewCount != viewCount || doc.Deleted != deleted {
			if _, err := tx.ExecContext(ctx, qUpdate, id, doc.ViewCount, doc.Deleted); err != nil {
				return err
			}
		}
		out = doc
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return out, fnErr
}

// SoftDeleteStale flips deleted on every live row that is expired or at its limit.
func (r *DocumentPostgres) SoftDeleteStale(ctx context.Context, now time.Time) (int64, error) {
	const op = "documentPostgres/SoftDeleteStale"
	const q = `
		UPDATE documents
		SET deleted = true
		WHERE NOT deleted
		  AND ((expires_at IS NOT NULL AND expires_at <= $1)
		    OR (view_limit IS NOT NULL AND view_count >= view_limit))`

	res, err := r.db.ExecContext(ctx, q, now)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return n, nil
}

// ListActiveFor returns live documents sent or received by identity, newest first.
func (r *DocumentPostgres) ListActiveFor(ctx context.Context, identity int64) ([]model.DocumentView, error) {
	const op = "documentPostgres/ListActiveFor"
	const q = `
		SELECT
			d.id AS id,
			d.filename AS filename,
			d.sender_id AS sender_id,
			s.username AS sender_username,
			d.recipient_id AS recipient_id,
			rc.username AS recipient_username,
			d.view_limit AS view_limit,
			d.view_count AS view_count,
			d.expires_at AS expires_at,
			d.created_at AS created_at
		FROM documents d
		JOIN users s ON s.id = d.sender_id
		JOIN users rc ON rc.id = d.recipient_id
		WHERE NOT d.deleted
		  AND (d.sender_id = $1 OR d.recipient_id = $1)
		ORDER BY d.created_at DESC, d.id DESC`

	rows := make([]documentViewRow, 0)
	if err := r.db.SelectContext(ctx, &rows, q, identity); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	out := make([]model.DocumentView, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toModel())
	}
	return out, nil
}
