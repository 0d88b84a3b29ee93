// Package memory is an in-process store for running without PostgreSQL.
// All state is lost on restart.
package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"briefcase/internal/model"
	"briefcase/internal/repository"
)

const pkg = "memory/"

// Store owns users and documents behind one mutex. Documents and Users are views on it.
type Store struct {
	mu       sync.Mutex
	docs     map[int64]*model.Document
	users    map[int64]*model.User
	nextDoc  int64
	nextUser int64
	now      func() time.Time
}

func New() *Store {
	return &Store{
		docs:  make(map[int64]*model.Document),
		users: make(map[int64]*model.User),
		now:   time.Now,
	}
}

// PingContext always succeeds; it lets the store stand in for a database in health checks.
func (s *Store) PingContext(context.Context) error { return nil }

func (s *Store) Documents() *Documents { return &Documents{s: s} }

func (s *Store) Users() *Users { return &Users{s: s} }

// Documents implements repository.DocumentRepository.
type Documents struct {
	s *Store
}

var _ repository.DocumentRepository = (*Documents)(nil)

func (r *Documents) Create(_ context.Context, doc *model.Document) (*model.Document, error) {
	op := pkg + "Documents.Create"

	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.users[doc.SenderID]; !ok {
		return nil, fmt.Errorf("%s: sender %d: %w", op, doc.SenderID, model.ErrUserNotFound)
	}
	if _, ok := r.s.users[doc.RecipientID]; !ok {
		return nil, fmt.Errorf("%s: recipient %d: %w", op, doc.RecipientID, model.ErrUserNotFound)
	}

	r.s.nextDoc++
	stored := cloneDocument(doc)
	stored.ID = r.s.nextDoc
	if stored.CreatedAt.IsZero() {
		stored.CreatedAt = r.s.now().UTC()
	}
	r.s.docs[stored.ID] = stored
	return cloneDocument(stored), nil
}

func (r *Documents) Transition(_ context.Context, id int64, fn repository.TransitionFunc) (*model.Document, error) {
	op := pkg + "Documents.Transition"

	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	stored, ok := r.s.docs[id]
	if !ok {
		return nil, fmt.Errorf("%s: %w", op, model.ErrDocumentNotFound)
	}

	doc := cloneDocument(stored)
	fnErr := fn(doc)
	stored.ViewCount = doc.ViewCount
	stored.Deleted = doc.Deleted
	return doc, fnErr
}

func (r *Documents) SoftDeleteStale(_ context.Context, now time.Time) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	var n int64
	for _, d := range r.s.docs {
		if d.Deleted {
			continue
		}
		if d.IsExpired(now) || d.IsLimitReached() {
			d.Deleted = true
			n++
		}
	}
	return n, nil
}

func (r *Documents) ListActiveFor(_ context.Context, identity int64) ([]model.DocumentView, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	out := make([]model.DocumentView, 0)
	for _, d := range r.s.docs {
		if d.Deleted || !d.IsParty(identity) {
			continue
		}
		out = append(out, model.DocumentView{
			ID:                d.ID,
			Filename:          d.Filename,
			SenderID:          d.SenderID,
			SenderUsername:    r.s.usernameLocked(d.SenderID),
			RecipientID:       d.RecipientID,
			RecipientUsername: r.s.usernameLocked(d.RecipientID),
			ViewLimit:         cloneInt(d.ViewLimit),
			ViewCount:         d.ViewCount,
			ExpiresAt:         cloneTime(d.ExpiresAt),
			CreatedAt:         d.CreatedAt,
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}

// Users implements repository.UserRepository.
type Users struct {
	s *Store
}

var _ repository.UserRepository = (*Users)(nil)

func (r *Users) Create(_ context.Context, u *model.User) (*model.User, error) {
	op := pkg + "Users.Create"

	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, existing := range r.s.users {
		if strings.EqualFold(existing.Email, u.Email) {
			return nil, fmt.Errorf("%s: email %q already registered", op, u.Email)
		}
	}

	r.s.nextUser++
	stored := *u
	stored.ID = r.s.nextUser
	if stored.CreatedAt.IsZero() {
		stored.CreatedAt = r.s.now().UTC()
	}
	r.s.users[stored.ID] = &stored
	out := stored
	return &out, nil
}

func (r *Users) FindByID(_ context.Context, id int64) (*model.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	u, ok := r.s.users[id]
	if !ok {
		return nil, fmt.Errorf("%s: %w", pkg+"Users.FindByID", model.ErrUserNotFound)
	}
	out := *u
	return &out, nil
}

func (r *Users) FindByEmail(_ context.Context, email string) (*model.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, u := range r.s.users {
		if strings.EqualFold(u.Email, email) {
			out := *u
			return &out, nil
		}
	}
	return nil, fmt.Errorf("%s: %w", pkg+"Users.FindByEmail", model.ErrUserNotFound)
}

func (r *Users) ListExcept(_ context.Context, id int64) ([]model.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	out := make([]model.User, 0, len(r.s.users))
	for _, u := range r.s.users {
		if u.ID != id {
			out = append(out, *u)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Username < out[j].Username })
	return out, nil
}

func (r *Users) Exists(_ context.Context, id int64) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	_, ok := r.s.users[id]
	return ok, nil
}

func (s *Store) usernameLocked(id int64) string {
	if u, ok := s.users[id]; ok {
		return u.Username
	}
	return ""
}

func cloneDocument(d *model.Document) *model.Document {
	c := *d
	if d.Ciphertext != nil {
		c.Ciphertext = append([]byte(nil), d.Ciphertext...)
	}
	c.ViewLimit = cloneInt(d.ViewLimit)
	c.ExpiresAt = cloneTime(d.ExpiresAt)
	return &c
}

func cloneInt(p *int) *int {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func cloneTime(p *time.Time) *time.Time {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
