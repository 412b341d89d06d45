package app

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	timeFormat  = "2006-01-02 15:04:05"
	tokenPrefix = "sk-eavi-"
)

// AdminToken is a provisioned staff credential as stored in redis.
type AdminToken struct {
	Token     string `json:"token"`
	Owner     string `json:"owner"`
	CreatedAt string `json:"created_dttm_utc"`
	Revoked   bool   `json:"revoked"`
}

// TokenManager provisions and revokes the admin tokens that Auth
// validates. Both sides share the same key template.
type TokenManager struct {
	redis       *redis.Client
	keyTemplate string
}

func NewTokenManager(config *Config) (*TokenManager, error) {
	opt, err := redis.ParseURL(config.Auth.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis URL: %w", err)
	}

	client := redis.NewClient(opt)
	if err := client.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return &TokenManager{
		redis:       client,
		keyTemplate: config.Auth.TokenKeyTemplate,
	}, nil
}

func generateToken() (string, error) {
	randomBytes := make([]byte, 12)
	if _, err := rand.Read(randomBytes); err != nil {
		return "", fmt.Errorf("failed to generate random bytes: %w", err)
	}

	return tokenPrefix + hex.EncodeToString(randomBytes), nil
}

func (tm *TokenManager) key(token string) string {
	return strings.NewReplacer("{token}", token).Replace(tm.keyTemplate)
}

// CreateToken mints a fresh token for the named staff member.
func (tm *TokenManager) CreateToken(ctx context.Context, owner string) (*AdminToken, error) {
	token, err := generateToken()
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC().Format(timeFormat)
	err = tm.redis.HSet(ctx, tm.key(token), map[string]interface{}{
		"owner":            owner,
		"created_dttm_utc": now,
		"revoked":          "false",
	}).Err()
	if err != nil {
		return nil, fmt.Errorf("failed to store token: %w", err)
	}

	return &AdminToken{
		Token:     token,
		Owner:     owner,
		CreatedAt: now,
	}, nil
}

// RevokeToken flags a token so Auth rejects it. The record stays in
// redis for auditing.
func (tm *TokenManager) RevokeToken(ctx context.Context, token string) error {
	key := tm.key(token)

	fields, err := tm.redis.HGetAll(ctx, key).Result()
	if err != nil {
		return fmt.Errorf("failed to look up token: %w", err)
	}
	if len(fields) == 0 {
		return fmt.Errorf("token not found")
	}

	return tm.redis.HSet(ctx, key, "revoked", "true").Err()
}

// ListTokens scans every provisioned token. Admin tokens number in the
// dozens so the scan is fine here.
func (tm *TokenManager) ListTokens(ctx context.Context) ([]AdminToken, error) {
	pattern := tm.key("*")
	prefix := tm.key("")

	iter := tm.redis.Scan(ctx, 0, pattern, 0).Iterator()

	var tokens []AdminToken
	for iter.Next(ctx) {
		key := iter.Val()

		fields, err := tm.redis.HGetAll(ctx, key).Result()
		if err != nil {
			continue
		}

		tokens = append(tokens, AdminToken{
			Token:     strings.TrimPrefix(key, prefix),
			Owner:     fields["owner"],
			CreatedAt: fields["created_dttm_utc"],
			Revoked:   fields["revoked"] == "true",
		})
	}

	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("failed to scan tokens: %w", err)
	}

	return tokens, nil
}

func (tm *TokenManager) Close() error {
	if tm.redis != nil {
		return tm.redis.Close()
	}
	return nil
}
