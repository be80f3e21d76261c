package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"miniapp-shop/internal/domain"
	"miniapp-shop/internal/locale"
)

var ErrInvalidToken = errors.New("invalid token")

const issueAttempts = 3

type sessionRepo interface {
	Create(ctx context.Context, s domain.Session) error
	Get(ctx context.Context, token string) (*domain.Session, error)
	SetLang(ctx context.Context, token, lang string) error
	Delete(ctx context.Context, token string) error
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

type Service struct {
	repo sessionRepo
	ttl  time.Duration
	now  func() time.Time
}

func New(repo sessionRepo, ttl time.Duration) *Service {
	if ttl <= 0 {
		ttl = 30 * 24 * time.Hour
	}
	return &Service{repo: repo, ttl: ttl, now: time.Now}
}

// Resolve returns the session for the cookie token, issuing a fresh one when
// the token is empty, unknown or expired. The bool reports whether a new
// session was created and the cookie must be (re)set.
func (s *Service) Resolve(ctx context.Context, token string) (*domain.Session, bool, error) {
	if token != "" {
		sess, err := s.Lookup(ctx, token)
		if err == nil {
			return sess, false, nil
		}
		if !errors.Is(err, ErrInvalidToken) {
			return nil, false, err
		}
	}
	sess, err := s.Issue(ctx)
	if err != nil {
		return nil, false, err
	}
	return sess, true, nil
}

// Lookup returns ErrInvalidToken for unknown or expired tokens. Expired rows are removed.
func (s *Service) Lookup(ctx context.Context, token string) (*domain.Session, error) {
	sess, err := s.repo.Get(ctx, token)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, ErrInvalidToken
		}
		return nil, err
	}
	if sess.Expired(s.now()) {
		if err := s.repo.Delete(ctx, token); err != nil && !errors.Is(err, domain.ErrNotFound) {
			return nil, err
		}
		return nil, ErrInvalidToken
	}
	return sess, nil
}

func (s *Service) Issue(ctx context.Context) (*domain.Session, error) {
	for attempt := 0; attempt < issueAttempts; attempt++ {
		token, err := randomToken()
		if err != nil {
			return nil, err
		}
		csrf, err := randomToken()
		if err != nil {
			return nil, err
		}
		sess := domain.Session{
			Token:     token,
			ShopperID: uuid.NewString(),
			CSRFToken: csrf,
			Lang:      locale.Default,
			ExpiresAt: s.now().Add(s.ttl),
		}
		err = s.repo.Create(ctx, sess)
		if errors.Is(err, domain.ErrAlreadyExists) {
			continue
		}
		if err != nil {
			return nil, err
		}
		return &sess, nil
	}
	return nil, domain.ErrAlreadyExists
}

// SetLanguage stores the interface language of the session.
func (s *Service) SetLanguage(ctx context.Context, token, lang string) error {
	if !locale.Supported(lang) {
		return fmt.Errorf("%w: language %q", domain.ErrInvalidInput, lang)
	}
	return s.repo.SetLang(ctx, token, lang)
}

func (s *Service) PurgeExpired(ctx context.Context) (int64, error) {
	return s.repo.DeleteExpired(ctx, s.now())
}

func (s *Service) TTL() time.Duration {
	return s.ttl
}
