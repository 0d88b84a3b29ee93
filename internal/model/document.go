package model

import "time"

// Document is a delivered file between exactly one sender and one recipient.
// Only ViewCount and Deleted change after creation.
type Document struct {
	ID       int64  `json:"id"`
	Filename string `json:"filename"`
	// Ciphertext is IV || AES-CBC body. Empty in the row when StoragePath is set;
	// the lifecycle engine fills it before handing the document out.
	Ciphertext  []byte     `json:"-"`
	StoragePath string     `json:"-"`
	SenderID    int64      `json:"sender_id"`
	RecipientID int64      `json:"recipient_id"`
	ViewLimit   *int       `json:"view_limit"`
	ViewCount   int        `json:"view_count"`
	ExpiresAt   *time.Time `json:"expires_at"`
	CreatedAt   time.Time  `json:"created_at"`
	Deleted     bool       `json:"-"`
}

// IsParty reports whether identity is the sender or the recipient.
func (d *Document) IsParty(identity int64) bool {
	return identity == d.SenderID || identity == d.RecipientID
}

// IsExpired reports whether the expiry has passed at now. The boundary counts as expired.
func (d *Document) IsExpired(now time.Time) bool {
	return d.ExpiresAt != nil && !d.ExpiresAt.After(now)
}

// IsLimitReached reports whether the recipient has used up the view limit.
func (d *Document) IsLimitReached() bool {
	return d.ViewLimit != nil && d.ViewCount >= *d.ViewLimit
}

// DocumentView is the listing projection of a live document.
type DocumentView struct {
	ID                int64      `json:"id"`
	Filename          string     `json:"filename"`
	SenderID          int64      `json:"sender_id"`
	SenderUsername    string     `json:"sender_username"`
	RecipientID       int64      `json:"recipient_id"`
	RecipientUsername string     `json:"recipient_username"`
	ViewLimit         *int       `json:"view_limit"`
	ViewCount         int        `json:"view_count"`
	ExpiresAt         *time.Time `json:"expires_at"`
	CreatedAt         time.Time  `json:"created_at"`
	IsExpired         bool       `json:"is_expired"`
	IsLimitReached    bool       `json:"is_limit_reached"`
}

// Inbox groups the documents an identity sent and received.
type Inbox struct {
	Sent     []DocumentView `json:"sent"`
	Received []DocumentView `json:"received"`
}
