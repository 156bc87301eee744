package biometric

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	biometricerrors "performa/internal/biometric/errors"

	"github.com/go-webauthn/webauthn/webauthn"
	"github.com/redis/go-redis/v9"
)

const SessionTTL = 5 * time.Minute

// ceremony is what survives between the begin and finish halves of a
// registration or login.
type ceremony struct {
	UserID    string               `json:"userId"`
	CompanyID string               `json:"companyId"`
	Session   webauthn.SessionData `json:"session"`
}

type SessionStore interface {
	Save(ctx context.Context, kind, key string, c ceremony) error
	// Take returns the ceremony and removes it, so a challenge is answered once.
	Take(ctx context.Context, kind, key string) (ceremony, error)
}

type redisSessionStore struct {
	rdb redis.Cmdable
	ttl time.Duration
}

func NewSessionStore(rdb redis.Cmdable) SessionStore {
	return &redisSessionStore{rdb: rdb, ttl: SessionTTL}
}

func sessionKey(kind, key string) string {
	return "webauthn:" + kind + ":" + key
}

func (s *redisSessionStore) Save(ctx context.Context, kind, key string, c ceremony) error {
	payload, err := json.Marshal(c)
	if err != nil {
		return err
	}
	return s.rdb.Set(ctx, sessionKey(kind, key), payload, s.ttl).Err()
}

func (s *redisSessionStore) Take(ctx context.Context, kind, key string) (ceremony, error) {
	raw, err := s.rdb.GetDel(ctx, sessionKey(kind, key)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return ceremony{}, biometricerrors.ErrSessionExpired
		}
		return ceremony{}, err
	}

	var c ceremony
	if err := json.Unmarshal(raw, &c); err != nil {
		return ceremony{}, biometricerrors.ErrSessionExpired
	}
	return c, nil
}
