package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"miniapp-shop/internal/domain"
)

type memRepo struct {
	sessions   map[string]domain.Session
	collisions int
	deleted    []string
}

func newMemRepo() *memRepo {
	return &memRepo{sessions: map[string]domain.Session{}}
}

func (m *memRepo) Create(_ context.Context, s domain.Session) error {
	if m.collisions > 0 {
		m.collisions--
		return domain.ErrAlreadyExists
	}
	m.sessions[s.Token] = s
	return nil
}

func (m *memRepo) Get(_ context.Context, token string) (*domain.Session, error) {
	s, ok := m.sessions[token]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &s, nil
}

func (m *memRepo) SetLang(_ context.Context, token, lang string) error {
	s, ok := m.sessions[token]
	if !ok {
		return domain.ErrNotFound
	}
	s.Lang = lang
	m.sessions[token] = s
	return nil
}

func (m *memRepo) Delete(_ context.Context, token string) error {
	m.deleted = append(m.deleted, token)
	delete(m.sessions, token)
	return nil
}

func (m *memRepo) DeleteExpired(_ context.Context, now time.Time) (int64, error) {
	var n int64
	for k, s := range m.sessions {
		if s.Expired(now) {
			delete(m.sessions, k)
			n++
		}
	}
	return n, nil
}

func TestResolveIssuesWhenMissing(t *testing.T) {
	repo := newMemRepo()
	svc := New(repo, time.Hour)

	sess, created, err := svc.Resolve(context.Background(), "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !created {
		t.Fatalf("expected a new session")
	}
	if _, err := uuid.Parse(sess.ShopperID); err != nil {
		t.Fatalf("shopper id is not a uuid: %q", sess.ShopperID)
	}
	if sess.Token == "" || sess.CSRFToken == "" || sess.Token == sess.CSRFToken {
		t.Fatalf("unexpected tokens %+v", sess)
	}

	again, created, err := svc.Resolve(context.Background(), sess.Token)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if created || again.ShopperID != sess.ShopperID {
		t.Fatalf("expected existing session to be reused, got created=%v %+v", created, again)
	}
}

func TestResolveReplacesExpired(t *testing.T) {
	repo := newMemRepo()
	svc := New(repo, time.Hour)
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }

	old, err := svc.Issue(context.Background())
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	now = now.Add(2 * time.Hour)

	fresh, created, err := svc.Resolve(context.Background(), old.Token)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !created || fresh.Token == old.Token {
		t.Fatalf("expected replacement session")
	}
	if len(repo.deleted) != 1 || repo.deleted[0] != old.Token {
		t.Fatalf("expired session should be deleted, got %v", repo.deleted)
	}
}

func TestLookupUnknownToken(t *testing.T) {
	svc := New(newMemRepo(), time.Hour)
	if _, err := svc.Lookup(context.Background(), "nope"); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

func TestIssueRetriesOnCollision(t *testing.T) {
	repo := newMemRepo()
	repo.collisions = 2
	svc := New(repo, time.Hour)
	if _, err := svc.Issue(context.Background()); err != nil {
		t.Fatalf("expected success after retries, got %v", err)
	}

	repo.collisions = issueAttempts
	if _, err := svc.Issue(context.Background()); !errors.Is(err, domain.ErrAlreadyExists) {
		t.Fatalf("expected ErrAlreadyExists after exhausting attempts, got %v", err)
	}
}

func TestSetLanguage(t *testing.T) {
	repo := newMemRepo()
	svc := New(repo, time.Hour)
	sess, err := svc.Issue(context.Background())
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if sess.Lang != "ru" {
		t.Fatalf("new sessions should default to ru, got %q", sess.Lang)
	}

	if err := svc.SetLanguage(context.Background(), sess.Token, "uz"); err != nil {
		t.Fatalf("SetLanguage: %v", err)
	}
	if got := repo.sessions[sess.Token].Lang; got != "uz" {
		t.Fatalf("expected stored lang uz, got %q", got)
	}

	if err := svc.SetLanguage(context.Background(), sess.Token, "en"); !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for unsupported language, got %v", err)
	}
	if got := repo.sessions[sess.Token].Lang; got != "uz" {
		t.Fatalf("rejected language must not be stored, got %q", got)
	}
}
