package session

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisProvider keeps session data in a Redis hash per browser; the
// browser only holds the session id cookie.
type RedisProvider struct {
	client  redis.Cmdable
	idleTTL time.Duration
	secure  bool
}

// NewRedisProvider builds a provider. idleTTL bounds how long an untouched
// hash survives in Redis; zero keeps it until cleared.
func NewRedisProvider(client redis.Cmdable, idleTTL time.Duration, secure bool) *RedisProvider {
	return &RedisProvider{client: client, idleTTL: idleTTL, secure: secure}
}

// ConnectRedis parses a redis:// URL and checks the server answers.
func ConnectRedis(ctx context.Context, redisURL string) (*redis.Client, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("redis url: %w", err)
	}
	client := redis.NewClient(opt)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}
	log.Printf("✅ Redis session storage connected (%s)", opt.Addr)
	return client, nil
}

func (p *RedisProvider) Open(w http.ResponseWriter, r *http.Request) (Store, error) {
	sid := sessionID(w, r, p.secure)
	return &redisStore{
		ctx:     r.Context(),
		client:  p.client,
		key:     redisKey(sid),
		idleTTL: p.idleTTL,
		w:       w,
		r:       r,
		secure:  p.secure,
	}, nil
}

func redisKey(sid string) string {
	return fmt.Sprintf("console:session:%s", sid)
}

type redisStore struct {
	ctx     context.Context
	client  redis.Cmdable
	key     string
	idleTTL time.Duration

	w      http.ResponseWriter
	r      *http.Request
	secure bool
}

func (s *redisStore) Get(key string) (string, bool) {
	v, err := s.client.HGet(s.ctx, s.key, key).Result()
	if err != nil {
		if err != redis.Nil {
			log.Printf("⚠️  Redis session read failed (%s): %v", key, err)
		}
		return "", false
	}
	return v, v != ""
}

func (s *redisStore) Set(key, value string) error {
	if err := s.client.HSet(s.ctx, s.key, key, value).Err(); err != nil {
		return fmt.Errorf("redis hset: %w", err)
	}
	if s.idleTTL > 0 {
		if err := s.client.Expire(s.ctx, s.key, s.idleTTL).Err(); err != nil {
			return fmt.Errorf("redis expire: %w", err)
		}
	}
	return nil
}

func (s *redisStore) Clear() error {
	if err := s.client.Del(s.ctx, s.key).Err(); err != nil {
		return fmt.Errorf("redis del: %w", err)
	}
	return nil
}

func (s *redisStore) Renew() error {
	old := s.key
	s.key = redisKey(issueSessionID(s.w, s.r, s.secure))
	if err := s.client.Del(s.ctx, old).Err(); err != nil {
		return fmt.Errorf("redis del: %w", err)
	}
	return nil
}
