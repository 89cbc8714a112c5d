package identity_test

import (
	"strings"
	"testing"
	"time"

	"github.com/ClipXonchain/proofledger/internal/identity"
)

func newIssuer(t *testing.T) *identity.TokenIssuer {
	t.Helper()
	iss, err := identity.NewTokenIssuer([]byte("test-signing-key"), "https://registry.test", time.Hour)
	if err != nil {
		t.Fatal(err)
	}
	return iss
}

func TestIssueAndVerify(t *testing.T) {
	iss := newIssuer(t)

	tok, err := iss.Issue("0xalice")
	if err != nil {
		t.Fatal(err)
	}

	claims, err := iss.Verify(tok)
	if err != nil {
		t.Fatal(err)
	}
	if claims.Address != "0xalice" {
		t.Errorf("address = %q, want 0xalice", claims.Address)
	}
	if claims.Issuer != "https://registry.test" {
		t.Errorf("issuer = %q", claims.Issuer)
	}
}

func TestIssue_rejectsEmptyAddress(t *testing.T) {
	iss := newIssuer(t)
	if _, err := iss.Issue(""); err == nil {
		t.Error("expected error for empty address")
	}
}

func TestVerify_rejectsWrongKey(t *testing.T) {
	iss := newIssuer(t)
	other, err := identity.NewTokenIssuer([]byte("other-key"), "https://registry.test", time.Hour)
	if err != nil {
		t.Fatal(err)
	}

	tok, err := other.Issue("0xalice")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := iss.Verify(tok); err == nil {
		t.Error("expected verification failure for token signed with a different key")
	}
}

func TestVerify_rejectsTamperedToken(t *testing.T) {
	iss := newIssuer(t)

	tok, err := iss.Issue("0xalice")
	if err != nil {
		t.Fatal(err)
	}

	parts := strings.Split(tok, ".")
	if len(parts) != 3 {
		t.Fatalf("unexpected token shape: %q", tok)
	}
	tampered := parts[0] + "." + parts[1] + "." + strings.Repeat("A", len(parts[2]))

	if _, err := iss.Verify(tampered); err == nil {
		t.Error("expected verification failure for tampered signature")
	}
}

func TestNewTokenIssuer_requiresKey(t *testing.T) {
	if _, err := identity.NewTokenIssuer(nil, "https://registry.test", time.Hour); err == nil {
		t.Error("expected error for empty key")
	}
}
