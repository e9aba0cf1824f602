package security_test

import (
	"strings"
	"testing"

	"github.com/quadmarket/quadmarket-backend/pkg/config"
	"github.com/quadmarket/quadmarket-backend/pkg/security"
)

func testOTPConfig() config.OTPConfig {
	return config.OTPConfig{
		Digits:     6,
		ArgonMemKB: 32768,
		ArgonTime:  1,
		ArgonLanes: 1,
		ArgonSalt:  16,
		ArgonKey:   32,
	}
}

func TestGenerateCodeShape(t *testing.T) {
	for i := 0; i < 20; i++ {
		code, err := security.GenerateCode(6)
		if err != nil {
			t.Fatalf("GenerateCode returned error: %v", err)
		}
		if len(code) != 6 {
			t.Fatalf("expected 6 digits, got %q", code)
		}
		if strings.Trim(code, "0123456789") != "" {
			t.Fatalf("expected numeric code, got %q", code)
		}
	}
}

func TestGenerateCodeRejectsBadLength(t *testing.T) {
	if _, err := security.GenerateCode(0); err == nil {
		t.Fatal("expected error for zero length")
	}
	if _, err := security.GenerateCode(64); err == nil {
		t.Fatal("expected error for oversized length")
	}
}

func TestHashAndVerifyCode(t *testing.T) {
	cfg := testOTPConfig()

	hash, err := security.HashCode("493027", cfg)
	if err != nil {
		t.Fatalf("HashCode returned error: %v", err)
	}
	if hash == "" {
		t.Fatal("HashCode returned empty string")
	}

	ok, err := security.VerifyCode("493027", hash)
	if err != nil {
		t.Fatalf("VerifyCode returned error for valid hash: %v", err)
	}
	if !ok {
		t.Fatal("VerifyCode failed for the correct code")
	}

	ok, err = security.VerifyCode("493028", hash)
	if err != nil {
		t.Fatalf("VerifyCode returned error for wrong code: %v", err)
	}
	if ok {
		t.Fatal("VerifyCode returned true for an incorrect code")
	}
}

func TestVerifyCodeBadHash(t *testing.T) {
	if _, err := security.VerifyCode("irrelevant", "not-a-hash"); err == nil {
		t.Fatal("expected error for malformed hash")
	}
}
