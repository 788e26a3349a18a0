package main

import (
	"path/filepath"
	"testing"
	"time"
)

func newTestServer(t *testing.T) *server {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "portal-test.db")
	p, err := newPersistence(dbPath)
	if err != nil {
		t.Fatalf("newPersistence: %v", err)
	}

	zone, err := newZoneService(p)
	if err != nil {
		t.Fatalf("newZoneService: %v", err)
	}

	cfg := config{
		ParentDomain:  "u-tokyo.app",
		NameServers:   []string{"ns1.u-tokyo.app", "ns2.u-tokyo.app"},
		DefaultTTL:    30,
		SessionSecret: "test-session-secret",
		SessionTTL:    time.Hour,
		CacheTTL:      time.Minute,
		CacheCleanup:  time.Minute,
	}

	owners := newOwnershipStore(p, cfg.CacheTTL, cfg.CacheCleanup)

	return &server{
		cfg:      cfg,
		persist:  p,
		owners:   owners,
		zone:     zone,
		rec:      newReconciler(owners, zone, cfg.ParentDomain, cfg.DefaultTTL),
		prov:     &provisioner{persist: p},
		sessions: newSessionService(p, cfg.SessionSecret, cfg.SessionTTL),
		start:    time.Now().Add(-time.Second),
	}
}

func mustProvision(t *testing.T, s *server, name string) string {
	t.Helper()

	id, err := s.prov.createSubdomain(name, "0123456789")
	if err != nil {
		t.Fatalf("createSubdomain(%q): %v", name, err)
	}
	return id
}
