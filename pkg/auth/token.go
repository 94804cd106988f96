package auth

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"sync"
)

const (
	// TokenPrefix identifies SimplyCRM API tokens.
	TokenPrefix = "scrm_"
	// tokenBytes is the random payload size (256 bits).
	tokenBytes = 32
)

// ErrTokenNotFound is returned when no active token matches.
var ErrTokenNotFound = errors.New("token not found")

// GenerateToken creates a new API token and returns the plaintext token
// together with its hash. The plaintext is shown once and never stored.
func GenerateToken() (token string, tokenHash string, err error) {
	randomBytes := make([]byte, tokenBytes)
	if _, err := rand.Read(randomBytes); err != nil {
		return "", "", fmt.Errorf("failed to generate random bytes: %w", err)
	}

	token = TokenPrefix + base64.RawURLEncoding.EncodeToString(randomBytes)
	return token, HashToken(token), nil
}

// HashToken computes the SHA-256 digest used for storage and lookup.
func HashToken(token string) string {
	digest := sha256.Sum256([]byte(token))
	return hex.EncodeToString(digest[:])
}

// ValidateTokenFormat checks that token is well formed before any lookup.
func ValidateTokenFormat(token string) error {
	if !strings.HasPrefix(token, TokenPrefix) {
		return fmt.Errorf("token must start with %q", TokenPrefix)
	}
	encoded := strings.TrimPrefix(token, TokenPrefix)
	if encoded == "" {
		return errors.New("token is too short")
	}
	if _, err := base64.RawURLEncoding.DecodeString(encoded); err != nil {
		return fmt.Errorf("invalid token encoding: %w", err)
	}
	return nil
}

// TokenRegistry resolves a token hash to the owning user id.
type TokenRegistry interface {
	UserIDByTokenHash(ctx context.Context, tokenHash string) (int64, error)
}

// MemoryTokenRegistry is an in-memory TokenRegistry.
type MemoryTokenRegistry struct {
	mu     sync.RWMutex
	byHash map[string]int64
}

// NewMemoryTokenRegistry creates an empty registry.
func NewMemoryTokenRegistry() *MemoryTokenRegistry {
	return &MemoryTokenRegistry{byHash: make(map[string]int64)}
}

// Register binds a token hash to a user id.
func (r *MemoryTokenRegistry) Register(tokenHash string, userID int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byHash[tokenHash] = userID
}

// Revoke removes a token hash.
func (r *MemoryTokenRegistry) Revoke(tokenHash string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.byHash, tokenHash)
}

// UserIDByTokenHash implements TokenRegistry.
func (r *MemoryTokenRegistry) UserIDByTokenHash(_ context.Context, tokenHash string) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	userID, ok := r.byHash[tokenHash]
	if !ok {
		return 0, ErrTokenNotFound
	}
	return userID, nil
}
