// Package tokens implements single-use, expiring credentials: an opaque
// random string bound to a row of some payload type. Possession of the
// string is the credential; redeeming it deletes the row.
package tokens

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

var (
	ErrTokenNotFound = errors.New("token not found")
	ErrTokenExpired  = errors.New("token has expired")
)

// Credential is implemented by models embedding models.OneTimeToken.
type Credential interface {
	Stamp(token string, expiresAt time.Time)
	Secret() string
	Expired(now time.Time) bool
}

// Store issues and redeems credentials of model type T.
type Store[T any, PT interface {
	*T
	Credential
}] struct {
	db       *gorm.DB
	ttl      time.Duration
	now      func() time.Time
	newToken func() string
}

func NewStore[T any, PT interface {
	*T
	Credential
}](db *gorm.DB, ttl time.Duration) *Store[T, PT] {
	return &Store[T, PT]{
		db:       db,
		ttl:      ttl,
		now:      func() time.Time { return time.Now().UTC() },
		newToken: uuid.NewString,
	}
}

// WithTx returns a copy of the store bound to tx.
func (s *Store[T, PT]) WithTx(tx *gorm.DB) *Store[T, PT] {
	c := *s
	c.db = tx
	return &c
}

// WithClock returns a copy of the store reading time from now.
func (s *Store[T, PT]) WithClock(now func() time.Time) *Store[T, PT] {
	c := *s
	c.now = func() time.Time { return now().UTC() }
	return &c
}

func (s *Store[T, PT]) TTL() time.Duration {
	return s.ttl
}

// Issue stamps rec with a fresh token and expiry and inserts it.
func (s *Store[T, PT]) Issue(ctx context.Context, rec PT) error {
	rec.Stamp(s.newToken(), s.now().Add(s.ttl))
	if err := s.db.WithContext(ctx).Create(rec).Error; err != nil {
		return fmt.Errorf("issuing token: %w", err)
	}
	return nil
}

// Lookup finds an unexpired credential without consuming it. An expired
// credential is returned together with ErrTokenExpired.
func (s *Store[T, PT]) Lookup(ctx context.Context, token string, preload ...string) (PT, error) {
	if token == "" {
		return nil, ErrTokenNotFound
	}

	q := s.db.WithContext(ctx)
	for _, assoc := range preload {
		q = q.Preload(assoc)
	}

	var rec T
	if err := q.Where("token = ?", token).First(&rec).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTokenNotFound
		}
		return nil, fmt.Errorf("looking up token: %w", err)
	}

	cred := PT(&rec)
	if cred.Expired(s.now()) {
		return cred, ErrTokenExpired
	}
	return cred, nil
}

// Redeem consumes the credential and returns it. Only one caller can redeem
// a given token: the delete must remove exactly one row. Expired tokens are
// deleted and reported as ErrTokenExpired.
func (s *Store[T, PT]) Redeem(ctx context.Context, token string, preload ...string) (PT, error) {
	cred, err := s.Lookup(ctx, token, preload...)
	if errors.Is(err, ErrTokenExpired) {
		if delErr := s.consume(ctx, token); delErr != nil && !errors.Is(delErr, ErrTokenNotFound) {
			return nil, delErr
		}
		return nil, ErrTokenExpired
	}
	if err != nil {
		return nil, err
	}

	if err := s.consume(ctx, token); err != nil {
		return nil, err
	}
	return cred, nil
}

// PurgeExpired deletes every expired credential and returns how many went.
func (s *Store[T, PT]) PurgeExpired(ctx context.Context) (int64, error) {
	res := s.db.WithContext(ctx).Where("expires_at <= ?", s.now()).Delete(new(T))
	if res.Error != nil {
		return 0, fmt.Errorf("purging expired tokens: %w", res.Error)
	}
	return res.RowsAffected, nil
}

func (s *Store[T, PT]) consume(ctx context.Context, token string) error {
	res := s.db.WithContext(ctx).Where("token = ?", token).Delete(new(T))
	if res.Error != nil {
		return fmt.Errorf("consuming token: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrTokenNotFound
	}
	return nil
}
