package main

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func TestSessionIssueAndVerify(t *testing.T) {
	s := newTestServer(t)

	token, err := s.sessions.issue("0123456789")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	if err := s.sessions.verify("0123456789", token); err != nil {
		t.Fatalf("verify: %v", err)
	}
}

func TestSessionVerifyWrongUser(t *testing.T) {
	s := newTestServer(t)

	token, err := s.sessions.issue("0123456789")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	if err := s.sessions.verify("9876543210", token); !errors.Is(err, errInvalidSession) {
		t.Fatalf("expected errInvalidSession for foreign token, got %v", err)
	}
}

func TestSessionVerifyTamperedToken(t *testing.T) {
	s := newTestServer(t)

	token, err := s.sessions.issue("0123456789")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	tampered := token[:len(token)-2] + "xx"
	if tampered == token {
		tampered = token[:len(token)-2] + "yy"
	}
	if err := s.sessions.verify("0123456789", tampered); !errors.Is(err, errInvalidSession) {
		t.Fatalf("expected errInvalidSession for tampered token, got %v", err)
	}

	if err := s.sessions.verify("0123456789", "not-a-jwt"); !errors.Is(err, errInvalidSession) {
		t.Fatalf("expected errInvalidSession for garbage token, got %v", err)
	}
}

func TestSessionReloginInvalidatesOldToken(t *testing.T) {
	s := newTestServer(t)

	oldToken, err := s.sessions.issue("0123456789")
	if err != nil {
		t.Fatalf("first issue: %v", err)
	}
	if _, err := s.sessions.issue("0123456789"); err != nil {
		t.Fatalf("second issue: %v", err)
	}

	if err := s.sessions.verify("0123456789", oldToken); !errors.Is(err, errInvalidSession) {
		t.Fatalf("expected rotated secret to reject old token, got %v", err)
	}
}

func TestSessionIssueRejectsEmptyID(t *testing.T) {
	s := newTestServer(t)

	if _, err := s.sessions.issue("  "); !errors.Is(err, errInvalidSession) {
		t.Fatalf("expected errInvalidSession, got %v", err)
	}
}

func TestSessionVerifyExpiredToken(t *testing.T) {
	s := newTestServer(t)
	s.sessions.tokenTTL = -time.Minute

	token, err := s.sessions.issue("0123456789")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if !strings.Contains(token, ".") {
		t.Fatalf("unexpected token shape: %q", token)
	}

	if err := s.sessions.verify("0123456789", token); !errors.Is(err, errInvalidSession) {
		t.Fatalf("expected errInvalidSession for expired token, got %v", err)
	}
}
