package postgres

import (
	"time"

	"briefcase/internal/model"
)

type documentRow struct {
	ID          int64      `db:"id"`
	Filename    string     `db:"filename"`
	Ciphertext  []byte     `db:"ciphertext"`
	StoragePath *string    `db:"storage_path"`
	SenderID    int64      `db:"sender_id"`
	RecipientID int64      `db:"recipient_id"`
	ViewLimit   *int       `db:"view_limit"`
	ViewCount   int        `db:"view_count"`
	ExpiresAt   *time.Time `db:"expires_at"`
	CreatedAt   time.Time  `db:"created_at"`
	Deleted     bool       `db:"deleted"`
}

func (r documentRow) toModel() *model.Document {
	d := &model.Document{
		ID:          r.ID,
		Filename:    r.Filename,
		Ciphertext:  r.Ciphertext,
		SenderID:    r.SenderID,
		RecipientID: r.RecipientID,
		ViewLimit:   r.ViewLimit,
		ViewCount:   r.ViewCount,
		ExpiresAt:   r.ExpiresAt,
		CreatedAt:   r.CreatedAt,
		Deleted:     r.Deleted,
	}
	if r.StoragePath != nil {
		d.StoragePath = *r.StoragePath
	}
	return d
}

type documentViewRow struct {
	ID                int64      `db:"id"`
	Filename          string     `db:"filename"`
	SenderID          int64      `db:"sender_id"`
	SenderUsername    string     `db:"sender_username"`
	RecipientID       int64      `db:"recipient_id"`
	RecipientUsername string     `db:"recipient_username"`
	ViewLimit         *int       `db:"view_limit"`
	ViewCount         int        `db:"view_count"`
	ExpiresAt         *time.Time `db:"expires_at"`
	CreatedAt         time.Time  `db:"created_at"`
}

func (r documentViewRow) toModel() model.DocumentView {
	return model.DocumentView{
		ID:                r.ID,
		Filename:          r.Filename,
		SenderID:          r.SenderID,
		SenderUsername:    r.SenderUsername,
		RecipientID:       r.RecipientID,
		RecipientUsername: r.RecipientUsername,
		ViewLimit:         r.ViewLimit,
		ViewCount:         r.ViewCount,
		ExpiresAt:         r.ExpiresAt,
		CreatedAt:         r.CreatedAt,
	}
}

type userRow struct {
	ID           int64     `db:"id"`
	Email        string    `db:"email"`
	Username     string    `db:"username"`
	PasswordHash string    `db:"password_hash"`
	CreatedAt    time.Time `db:"created_at"`
}

func (r userRow) toModel() *model.User {
	return &model.User{
		ID:           r.ID,
		Email:        r.Email,
		Username:     r.Username,
		PasswordHash: r.PasswordHash,
		CreatedAt:    r.CreatedAt,
	}
}

func nullableString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// nullableBytes maps an absent payload to SQL NULL. A nil slice is otherwise sent as an
// empty bytea and would satisfy the ciphertext-or-storage_path check.
func nullableBytes(b []byte) any {
	if len(b) == 0 {
		return nil
	}
	return b
}
