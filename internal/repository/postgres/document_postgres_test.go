package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"briefcase/internal/model"
)

var documentRowColumns = []string{
	"id", "filename", "ciphertext", "storage_path", "sender_id", "recipient_id",
	"view_limit", "view_count", "expires_at", "created_at", "deleted",
}

func newMockDB(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	t.Cleanup(func() { db.Close() })
	return sqlx.NewDb(db, "sqlmock"), mock
}

func intPtr(v int) *int { return &v }

func TestDocumentPostgres_Create(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewDocumentPostgres(db)
	ctx := context.Background()

	now := time.Now().UTC()
	expires := now.Add(24 * time.Hour)
	doc := &model.Document{
		Filename:    "report.pdf",
		Ciphertext:  []byte("0123456789abcdef0123456789abcdef"),
		SenderID:    1,
		RecipientID: 2,
		ViewLimit:   intPtr(3),
		ExpiresAt:   &expires,
		CreatedAt:   now,
	}

	rows := sqlmock.NewRows(documentRowColumns).
		AddRow(int64(7), doc.Filename, doc.Ciphertext, nil, int64(1), int64(2), int64(3), int64(0), expires, now, false)

	mock.ExpectQuery("INSERT INTO documents").
		WithArgs(doc.Filename, doc.Ciphertext, nil, int64(1), int64(2), int64(3), int64(0), expires, now, false).
		WillReturnRows(rows)

	result, err := repo.Create(ctx, doc)

	require.NoError(t, err)
	assert.Equal(t, int64(7), result.ID)
	assert.Equal(t, "", result.StoragePath)
	require.NotNil(t, result.ViewLimit)
	assert.Equal(t, 3, *result.ViewLimit)
	require.NotNil(t, result.ExpiresAt)
	assert.True(t, expires.Equal(*result.ExpiresAt))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDocumentPostgres_CreateExternalPayload(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewDocumentPostgres(db)

	now := time.Now().UTC()
	doc := &model.Document{
		Filename:    "notes.txt",
		StoragePath: "documents/abc.bin",
		SenderID:    1,
		RecipientID: 2,
		CreatedAt:   now,
	}

	rows := sqlmock.NewRows(documentRowColumns).
		AddRow(int64(8), doc.Filename, nil, doc.StoragePath, int64(1), int64(2), nil, int64(0), nil, now, false)

	mock.ExpectQuery("INSERT INTO documents").
		WithArgs(doc.Filename, nil, doc.StoragePath, int64(1), int64(2), nil, int64(0), nil, now, false).
		WillReturnRows(rows)

	result, err := repo.Create(context.Background(), doc)

	require.NoError(t, err)
	assert.Equal(t, "documents/abc.bin", result.StoragePath)
	assert.Nil(t, result.Ciphertext)
	assert.Nil(t, result.ViewLimit)
	assert.Nil(t, result.ExpiresAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDocumentPostgres_CreateError(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewDocumentPostgres(db)

	mock.ExpectQuery("INSERT INTO documents").WillReturnError(errors.New("fk violation"))

	result, err := repo.Create(context.Background(), &model.Document{Filename: "a", SenderID: 1, RecipientID: 99})

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "documentPostgres/Create")
	assert.Nil(t, result)
}

func TestDocumentPostgres_Transition(t *testing.T) {
	ctx := context.Background()
	created := time.Now().UTC().Add(-time.Hour)
	selectForUpdate := "SELECT (.+) FROM documents WHERE id = \\$1 FOR UPDATE"
	update := "UPDATE documents SET view_count = \\$2, deleted = \\$3 WHERE id = \\$1"

	liveRow := func() *sqlmock.Rows {
		return sqlmock.NewRows(documentRowColumns).
			AddRow(int64(1), "a.txt", []byte("ciphertext-bytes"), nil, int64(10), int64(20), int64(2), int64(1), nil, created, false)
	}

	t.Run("persists changes and commits", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewDocumentPostgres(db)

		mock.ExpectBegin()
		mock.ExpectQuery(selectForUpdate).WithArgs(int64(1)).WillReturnRows(liveRow())
		mock.ExpectExec(update).WithArgs(int64(1), int64(2), true).WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		doc, err := repo.Transition(ctx, 1, func(d *model.Document) error {
			d.ViewCount++
			d.Deleted = true
			return nil
		})

		require.NoError(t, err)
		assert.Equal(t, 2, doc.ViewCount)
		assert.True(t, doc.Deleted)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("skips update when nothing changed", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewDocumentPostgres(db)

		mock.ExpectBegin()
		mock.ExpectQuery(selectForUpdate).WithArgs(int64(1)).WillReturnRows(liveRow())
		mock.ExpectCommit()

		doc, err := repo.Transition(ctx, 1, func(d *model.Document) error { return nil })

		require.NoError(t, err)
		assert.Equal(t, 1, doc.ViewCount)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("commits state change and returns callback error", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewDocumentPostgres(db)

		mock.ExpectBegin()
		mock.ExpectQuery(selectForUpdate).WithArgs(int64(1)).WillReturnRows(liveRow())
		mock.ExpectExec(update).WithArgs(int64(1), int64(1), true).WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		doc, err := repo.Transition(ctx, 1, func(d *model.Document) error {
			d.Deleted = true
			return model.ErrExpired
		})

		assert.ErrorIs(t, err, model.ErrExpired)
		require.NotNil(t, doc)
		assert.True(t, doc.Deleted)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("not found rolls back", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewDocumentPostgres(db)

		mock.ExpectBegin()
		mock.ExpectQuery(selectForUpdate).WithArgs(int64(404)).
			WillReturnRows(sqlmock.NewRows(documentRowColumns))
		mock.ExpectRollback()

		called := false
		doc, err := repo.Transition(ctx, 404, func(d *model.Document) error {
			called = true
			return nil
		})

		assert.ErrorIs(t, err, model.ErrDocumentNotFound)
		assert.Nil(t, doc)
		assert.False(t, called)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("update failure rolls back", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewDocumentPostgres(db)

		mock.ExpectBegin()
		mock.ExpectQuery(selectForUpdate).WithArgs(int64(1)).WillReturnRows(liveRow())
		mock.ExpectExec(update).WillReturnError(errors.New("connection reset"))
		mock.ExpectRollback()

		doc, err := repo.Transition(ctx, 1, func(d *model.Document) error {
			d.ViewCount++
			return nil
		})

		assert.Error(t, err)
		assert.Contains(t, err.Error(), "connection reset")
		assert.Nil(t, doc)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestDocumentPostgres_SoftDeleteStale(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewDocumentPostgres(db)
	now := time.Now().UTC()

	t.Run("success", func(t *testing.T) {
		mock.ExpectExec("UPDATE documents SET deleted = true WHERE NOT deleted").
			WithArgs(now).
			WillReturnResult(sqlmock.NewResult(0, 3))

		n, err := repo.SoftDeleteStale(context.Background(), now)

		assert.NoError(t, err)
		assert.Equal(t, int64(3), n)
	})

	t.Run("error", func(t *testing.T) {
		mock.ExpectExec("UPDATE documents SET deleted = true WHERE NOT deleted").
			WithArgs(now).
			WillReturnError(errors.New("boom"))

		n, err := repo.SoftDeleteStale(context.Background(), now)

		assert.Error(t, err)
		assert.Zero(t, n)
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDocumentPostgres_ListActiveFor(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewDocumentPostgres(db)
	now := time.Now().UTC()

	columns := []string{
		"id", "filename", "sender_id", "sender_username", "recipient_id", "recipient_username",
		"view_limit", "view_count", "expires_at", "created_at",
	}

	t.Run("success", func(t *testing.T) {
		rows := sqlmock.NewRows(columns).
			AddRow(int64(2), "b.txt", int64(1), "alice", int64(2), "bob", nil, int64(0), nil, now).
			AddRow(int64(1), "a.txt", int64(2), "bob", int64(1), "alice", int64(1), int64(0), now.Add(time.Hour), now.Add(-time.Minute))

		mock.ExpectQuery("SELECT (.+) FROM documents d JOIN users s (.+) WHERE NOT d.deleted").
			WithArgs(int64(1)).
			WillReturnRows(rows)

		views, err := repo.ListActiveFor(context.Background(), 1)

		require.NoError(t, err)
		require.Len(t, views, 2)
		assert.Equal(t, "alice", views[0].SenderUsername)
		assert.Equal(t, "bob", views[0].RecipientUsername)
		assert.Nil(t, views[0].ViewLimit)
		require.NotNil(t, views[1].ViewLimit)
		assert.Equal(t, 1, *views[1].ViewLimit)
		assert.NotNil(t, views[1].ExpiresAt)
	})

	t.Run("empty", func(t *testing.T) {
		mock.ExpectQuery("SELECT (.+) FROM documents d").
			WithArgs(int64(3)).
			WillReturnRows(sqlmock.NewRows(columns))

		views, err := repo.ListActiveFor(context.Background(), 3)

		require.NoError(t, err)
		assert.NotNil(t, views)
		assert.Empty(t, views)
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}
