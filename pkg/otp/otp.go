// Package otp keeps phone one-time passwords in Redis. A code lives for a short TTL, tolerates a
// few wrong guesses and is deleted on first successful use.
package otp

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	umUtils "github.com/newsreel/cms-backend/pkg/user-management/utils"
	"github.com/redis/go-redis/v9"
)

const (
	DEFAULT_KEY_PREFIX   = "otp:phone"
	DEFAULT_CODE_LENGTH  = 6
	DEFAULT_TTL          = 5 * time.Minute
	DEFAULT_MAX_ATTEMPTS = 3

	fieldCode     = "code"
	fieldAttempts = "attempts"
)

// incrementAttemptsScript bumps the attempt counter only while the code still exists, so a key
// that expired or was consumed is never recreated without a TTL.
var incrementAttemptsScript = redis.NewScript(`
if redis.call('EXISTS', KEYS[1]) == 0 then
	return -1
end
return redis.call('HINCRBY', KEYS[1], ARGV[1], 1)
`)

var (
	ErrCodeNotFound      = errors.New("no valid code for this phone number")
	ErrInvalidCode       = errors.New("invalid code")
	ErrTooManyAttempts   = errors.New("too many wrong attempts, request a new code")
	ErrMissingIdentifier = errors.New("phone number is required")
)

type RedisConfig struct {
	Addr     string `json:"addr" yaml:"addr"`
	Password string `json:"password" yaml:"password"`
	DB       int    `json:"db" yaml:"db"`
}

type Config struct {
	KeyPrefix   string        `json:"key_prefix" yaml:"key_prefix"`
	CodeLength  int           `json:"code_length" yaml:"code_length"`
	TTL         time.Duration `json:"ttl" yaml:"ttl"`
	MaxAttempts int           `json:"max_attempts" yaml:"max_attempts"`
}

// NewRedisClient connects and pings the server.
func NewRedisClient(conf RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         conf.Addr,
		Password:     conf.Password,
		DB:           conf.DB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}
	return client, nil
}

type Store struct {
	client *redis.Client
	conf   Config
}

func NewStore(client *redis.Client, conf Config) *Store {
	if strings.TrimSpace(conf.KeyPrefix) == "" {
		conf.KeyPrefix = DEFAULT_KEY_PREFIX
	}
	if conf.CodeLength <= 0 {
		conf.CodeLength = DEFAULT_CODE_LENGTH
	}
	if conf.TTL <= 0 {
		conf.TTL = DEFAULT_TTL
	}
	if conf.MaxAttempts <= 0 {
		conf.MaxAttempts = DEFAULT_MAX_ATTEMPTS
	}
	return &Store{client: client, conf: conf}
}

func (s *Store) TTL() time.Duration {
	return s.conf.TTL
}

// Issue creates a fresh code for phone, replacing any earlier one.
func (s *Store) Issue(ctx context.Context, phone string) (string, error) {
	key, err := s.key(phone)
	if err != nil {
		return "", err
	}
	code, err := umUtils.GenerateOTPCode(s.conf.CodeLength)
	if err != nil {
		return "", err
	}

	pipe := s.client.TxPipeline()
	pipe.Del(ctx, key)
	pipe.HSet(ctx, key, map[string]any{
		fieldCode:     code,
		fieldAttempts: "0",
	})
	pipe.Expire(ctx, key, s.conf.TTL)
	if _, err := pipe.Exec(ctx); err != nil {
		return "", fmt.Errorf("redis store otp: %w", err)
	}
	return code, nil
}

// Verify consumes the code on a match. A wrong code counts as an attempt and the code is
// dropped once the attempts are used up.
func (s *Store) Verify(ctx context.Context, phone string, code string) error {
	key, err := s.key(phone)
	if err != nil {
		return err
	}

	values, err := s.client.HGetAll(ctx, key).Result()
	if err != nil {
		return fmt.Errorf("redis hgetall otp: %w", err)
	}
	stored := values[fieldCode]
	if stored == "" {
		return ErrCodeNotFound
	}

	if subtle.ConstantTimeCompare([]byte(stored), []byte(strings.TrimSpace(code))) == 1 {
		deleted, err := s.client.Del(ctx, key).Result()
		if err != nil {
			return fmt.Errorf("redis delete otp: %w", err)
		}
		if deleted == 0 {
			// consumed by a concurrent request
			return ErrCodeNotFound
		}
		return nil
	}

	attempts, err := s.incrementAttempts(ctx, key)
	if err != nil {
		return err
	}
	if attempts >= int64(s.conf.MaxAttempts) {
		if err := s.client.Del(ctx, key).Err(); err != nil {
			return fmt.Errorf("redis delete otp: %w", err)
		}
		return ErrTooManyAttempts
	}
	return ErrInvalidCode
}

func (s *Store) incrementAttempts(ctx context.Context, key string) (int64, error) {
	attempts, err := incrementAttemptsScript.Run(ctx, s.client, []string{key}, fieldAttempts).Int64()
	if err != nil {
		return 0, fmt.Errorf("redis increment otp attempts: %w", err)
	}
	if attempts < 0 {
		return 0, ErrCodeNotFound
	}
	return attempts, nil
}

// Attempts returns the wrong guesses recorded for the current code.
func (s *Store) Attempts(ctx context.Context, phone string) (int, error) {
	key, err := s.key(phone)
	if err != nil {
		return 0, err
	}
	raw, err := s.client.HGet(ctx, key, fieldAttempts).Result()
	if errors.Is(err, redis.Nil) {
		return 0, ErrCodeNotFound
	}
	if err != nil {
		return 0, err
	}
	return strconv.Atoi(raw)
}

func (s *Store) key(phone string) (string, error) {
	phone = umUtils.SanitizePhoneNumber(phone)
	if phone == "" {
		return "", ErrMissingIdentifier
	}
	return s.conf.KeyPrefix + ":" + phone, nil
}
