package security_test

import (
	"testing"

	"github.com/derebetadesse/pharmacloud-backend/pkg/config"
	"github.com/derebetadesse/pharmacloud-backend/pkg/security"
)

func TestHashAndVerifySecret(t *testing.T) {
	cfg := config.PasswordConfig{
		ArgonMemoryKB:    32768,
		ArgonTime:        1,
		ArgonParallelism: 1,
		ArgonSaltLen:     16,
		ArgonKeyLen:      32,
	}

	hash, err := security.HashSecret("very-secure-api-key", cfg)
	if err != nil {
		t.Fatalf("HashSecret returned error: %v", err)
	}
	if hash == "" {
		t.Fatal("HashSecret returned empty string")
	}

	ok, err := security.VerifySecret("very-secure-api-key", hash)
	if err != nil {
		t.Fatalf("VerifySecret returned error for valid hash: %v", err)
	}
	if !ok {
		t.Fatal("VerifySecret failed for the correct secret")
	}

	ok, err = security.VerifySecret("bogus-key", hash)
	if err != nil {
		t.Fatalf("VerifySecret returned error for invalid secret: %v", err)
	}
	if ok {
		t.Fatal("VerifySecret returned true for incorrect secret")
	}
}

func TestVerifySecretBadHash(t *testing.T) {
	if _, err := security.VerifySecret("irrelevant", "not-a-hash"); err == nil {
		t.Fatal("expected error for malformed hash")
	}
}

func TestGenerateAPIKey(t *testing.T) {
	key, err := security.GenerateAPIKey(32)
	if err != nil {
		t.Fatalf("GenerateAPIKey returned error: %v", err)
	}
	if len(key) != 32 {
		t.Fatalf("expected 32 characters, got %d", len(key))
	}

	other, err := security.GenerateAPIKey(32)
	if err != nil {
		t.Fatalf("GenerateAPIKey returned error: %v", err)
	}
	if key == other {
		t.Fatal("two generated keys should not collide")
	}

	if _, err := security.GenerateAPIKey(0); err == nil {
		t.Fatal("expected error for non-positive length")
	}
}
