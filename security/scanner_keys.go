package security

import (
	"context"
	"fmt"
	"ticket-ledger/internal/status"
	"ticket-ledger/utils"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/bcrypt"
)

// ScannerKeyStore issues and verifies gate-scanner credentials. A scanner
// key lets entrance hardware mark tickets used over the API without holding
// the organizer's session. Secrets are stored bcrypt-hashed; the plaintext
// is returned once at issue time and never kept.
type ScannerKeyStore struct {
	redis *redis.Client
}

func NewScannerKeyStore(redisClient *redis.Client) *ScannerKeyStore {
	return &ScannerKeyStore{redis: redisClient}
}

func scannerKey(ledgerID string) string {
	return fmt.Sprintf("scanner:%s", ledgerID)
}

// Issue creates a new scanner key for the ledger and returns its id and
// one-time plaintext secret.
func (s *ScannerKeyStore) Issue(ctx context.Context, ledgerID string) (string, string, error) {
	secret, err := utils.GenerateCode(16)
	if err != nil {
		return "", "", err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(secret), bcrypt.DefaultCost)
	if err != nil {
		return "", "", err
	}

	keyID := uuid.NewString()
	if err := s.redis.HSet(ctx, scannerKey(ledgerID), keyID, string(hash)).Err(); err != nil {
		return "", "", err
	}
	return keyID, secret, nil
}

// Verify checks a scanner credential against the stored hash.
func (s *ScannerKeyStore) Verify(ctx context.Context, ledgerID, keyID, secret string) error {
	hash, err := s.redis.HGet(ctx, scannerKey(ledgerID), keyID).Result()
	if err == redis.Nil {
		return status.ErrScannerKeyInvalid
	} else if err != nil {
		return err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(secret)); err != nil {
		return status.ErrScannerKeyInvalid
	}
	return nil
}

// Revoke deletes a scanner key.
func (s *ScannerKeyStore) Revoke(ctx context.Context, ledgerID, keyID string) error {
	return s.redis.HDel(ctx, scannerKey(ledgerID), keyID).Err()
}
