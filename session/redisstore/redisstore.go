// Package redisstore keeps the session slot in Redis for deployments where
// several processes act on behalf of the same signed-in user.
package redisstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/agrinos/plantclassifier/session"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

var _ session.Store = (*Store)(nil)

type Store struct {
	client redis.UniversalClient
	key    string
	ttl    time.Duration
	log    zerolog.Logger
}

type Option func(*Store)

// WithTTL expires the slot after ttl. Zero keeps it until cleared.
func WithTTL(ttl time.Duration) Option {
	return func(s *Store) {
		s.ttl = ttl
	}
}

func WithLogger(l zerolog.Logger) Option {
	return func(s *Store) {
		s.log = l
	}
}

func New(client redis.UniversalClient, baseURL string, opts ...Option) *Store {
	s := &Store{
		client: client,
		key:    Key(baseURL),
		log:    zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Key is the Redis key of the slot for the origin of baseURL.
func Key(baseURL string) string {
	return session.StorageKey + ":" + session.OriginKey(baseURL)
}

func (s *Store) Read(ctx context.Context) (*session.Session, bool) {
	data, err := s.client.Get(ctx, s.key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			s.log.Warn().Err(err).Str("key", s.key).Msg("session read failed, treating as signed out")
		}
		return nil, false
	}
	sess, err := session.Decode(data)
	if err != nil {
		s.log.Warn().Err(err).Str("key", s.key).Msg("session record corrupt, treating as signed out")
		return nil, false
	}
	return sess, true
}

func (s *Store) Write(ctx context.Context, sess *session.Session) error {
	data, err := session.Encode(sess)
	if err != nil {
		return err
	}
	if err := s.client.Set(ctx, s.key, data, s.ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

func (s *Store) Clear(ctx context.Context) error {
	if err := s.client.Del(ctx, s.key).Err(); err != nil {
		return fmt.Errorf("redis del: %w", err)
	}
	return nil
}
