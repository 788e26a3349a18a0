package main

import (
	"context"
	"encoding/base64"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/miekg/dns"
	"github.com/sirupsen/logrus"
)

func (s *server) runHTTP(ctx context.Context) error {
	httpServer := &http.Server{
		Addr:              s.cfg.HTTPListen,
		Handler:           s.newRouter(),
		ReadHeaderTimeout: 2 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = httpServer.Shutdown(shutdownCtx)
	}()

	return httpServer.ListenAndServe()
}

func (s *server) newRouter() http.Handler {
	r := chi.NewRouter()
	r.Get("/healthz", s.handleHealth)
	r.Get("/login", s.handleLogin)
	r.Get("/auth", s.handleAuthCallback)
	r.Get("/dns-query", s.handleDoH)
	r.Post("/dns-query", s.handleDoH)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/domain-info/{domainID}", s.handleDomainInfo)
		r.Get("/list-records/{domainID}", s.handleListRecords)
		r.Get("/get-records/{domainID}/{name}/{type}", s.handleGetRecords)
		r.Post("/update-records/{domainID}/{name}/{type}", s.handleUpdateRecords)
		r.Post("/delete-records/{domainID}/{name}/{type}", s.handleDeleteRecords)
	})

	r.Post("/internal/create-domain", s.handleCreateDomain)
	return r
}

// apiError maps every failure to HTTP 400 with a stringified error; the
// API does not distinguish not-found from forbidden from bad input.
func (s *server) apiError(w http.ResponseWriter, r *http.Request, err error) {
	logrus.WithFields(logrus.Fields{"path": r.URL.Path, "error": err}).Warn("request failed")
	writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
}

func (s *server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"ok":         true,
		"parent":     s.cfg.ParentDomain,
		"uptime_sec": int(time.Since(s.start).Seconds()),
	})
}

func (s *server) handleDomainInfo(w http.ResponseWriter, r *http.Request) {
	subs, err := s.owners.listBaseSubdomains(chi.URLParam(r, "domainID"))
	if err != nil {
		s.apiError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"subdomains": subs})
}

func (s *server) handleListRecords(w http.ResponseWriter, r *http.Request) {
	records, err := s.rec.listAllRecords(chi.URLParam(r, "domainID"))
	if err != nil {
		s.apiError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"records": records})
}

func (s *server) handleGetRecords(w http.ResponseWriter, r *http.Request) {
	sets, err := s.rec.recordsByType(chi.URLParam(r, "domainID"), chi.URLParam(r, "type"), chi.URLParam(r, "name"))
	if err != nil {
		s.apiError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"records": s.rec.formatRecords(sets)})
}

func (s *server) handleUpdateRecords(w http.ResponseWriter, r *http.Request) {
	err := s.rec.upsertRecord(
		chi.URLParam(r, "domainID"),
		chi.URLParam(r, "type"),
		chi.URLParam(r, "name"),
		r.URL.Query().Get("data"),
	)
	if err != nil {
		s.apiError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

func (s *server) handleDeleteRecords(w http.ResponseWriter, r *http.Request) {
	err := s.rec.deleteRecord(
		chi.URLParam(r, "domainID"),
		chi.URLParam(r, "type"),
		chi.URLParam(r, "name"),
	)
	if err != nil {
		s.apiError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

func (s *server) handleCreateDomain(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("user_id")
	userToken := r.URL.Query().Get("user_token")
	name := r.URL.Query().Get("name")

	if err := s.sessions.verify(userID, userToken); err != nil {
		s.apiError(w, r, err)
		return
	}

	id, err := s.prov.createSubdomain(name, userID)
	if err != nil {
		s.apiError(w, r, err)
		return
	}

	logrus.WithFields(logrus.Fields{"subdomain": name, "user": userID}).Info("subdomain provisioned")
	writeJSON(w, http.StatusOK, map[string]string{"id": id})
}

func (s *server) handleDoH(w http.ResponseWriter, r *http.Request) {
	var payload []byte

	switch r.Method {
	case http.MethodGet:
		q := strings.TrimSpace(r.URL.Query().Get("dns"))
		if q == "" {
			http.Error(w, "missing dns query parameter", http.StatusBadRequest)
			return
		}

		decoded, err := base64.RawURLEncoding.DecodeString(q)
		if err != nil {
			http.Error(w, "invalid base64url dns parameter", http.StatusBadRequest)
			return
		}
		payload = decoded
	case http.MethodPost:
		body, err := io.ReadAll(io.LimitReader(r.Body, 1<<16))
		if err != nil {
			http.Error(w, "failed to read request body", http.StatusBadRequest)
			return
		}
		if len(body) == 0 {
			http.Error(w, "empty request body", http.StatusBadRequest)
			return
		}
		payload = body
	default:
		w.Header().Set("Allow", "GET, POST")
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	if len(payload) > dns.MaxMsgSize {
		http.Error(w, "dns message too large", http.StatusRequestEntityTooLarge)
		return
	}

	var req dns.Msg
	if err := req.Unpack(payload); err != nil {
		http.Error(w, "invalid dns message", http.StatusBadRequest)
		return
	}

	resp := s.resolveDNS(&req)
	wire, err := resp.Pack()
	if err != nil {
		http.Error(w, "failed to encode dns response", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/dns-message")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(wire)
}
