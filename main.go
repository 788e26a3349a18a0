package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
)

func main() {
	cfg := loadConfig()

	if cfg.LogJSON {
		logrus.SetFormatter(&logrus.JSONFormatter{})
	}
	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = logrus.InfoLevel
	}
	logrus.SetLevel(level)

	srv, err := newServer(cfg)
	if err != nil {
		logrus.Fatalf("startup failed: %v", err)
	}

	errCh := make(chan error, 3)
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() { errCh <- srv.runHTTP(ctx) }()
	go func() { errCh <- srv.runDNS(ctx, "udp") }()
	go func() { errCh <- srv.runDNS(ctx, "tcp") }()

	logrus.WithFields(logrus.Fields{
		"http":   cfg.HTTPListen,
		"dns":    cfg.DNSUDPListen,
		"parent": cfg.ParentDomain,
	}).Info("subdomain portal started")

	select {
	case <-ctx.Done():
		logrus.Info("shutdown signal received")
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logrus.Fatalf("fatal server error: %v", err)
		}
	}
}

// newServer wires the long-lived resources once and passes them into each
// component explicitly.
func newServer(cfg config) (*server, error) {
	persist, err := newPersistence(cfg.DBPath)
	if err != nil {
		return nil, err
	}

	zone, err := newZoneService(persist)
	if err != nil {
		return nil, err
	}

	owners := newOwnershipStore(persist, cfg.CacheTTL, cfg.CacheCleanup)

	return &server{
		cfg:      cfg,
		persist:  persist,
		owners:   owners,
		zone:     zone,
		rec:      newReconciler(owners, zone, cfg.ParentDomain, cfg.DefaultTTL),
		prov:     &provisioner{persist: persist},
		sessions: newSessionService(persist, cfg.SessionSecret, cfg.SessionTTL),
		start:    time.Now().UTC(),
	}, nil
}
