package main

import (
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

func loadConfig() config {
	if err := godotenv.Load(); err != nil {
		logrus.Debug("no .env file found, relying on environment variables")
	}

	sessionSecret := strings.TrimSpace(os.Getenv("SESSION_SECRET"))
	if sessionSecret == "" {
		logrus.Warn("SESSION_SECRET is empty, using an insecure default")
		sessionSecret = "insecure-dev-session-secret"
	}

	cfg := config{
		HTTPListen:   envOrDefault("HTTP_LISTEN", ":8080"),
		DNSUDPListen: envOrDefault("DNS_UDP_LISTEN", ":53"),
		DNSTCPListen: envOrDefault("DNS_TCP_LISTEN", ":53"),
		DBPath:       envOrDefault("DB_PATH", "subdomains.db"),

		ParentDomain: strings.Trim(strings.ToLower(envOrDefault("PARENT_DOMAIN", "u-tokyo.app")), "."),
		NameServers:  splitCSV(os.Getenv("NAME_SERVERS")),
		DefaultTTL:   envOrDefaultUint32("DEFAULT_TTL", 3600),

		LogLevel: envOrDefault("LOG_LEVEL", "info"),
		LogJSON:  envOrDefaultBool("LOG_JSON", false),

		SessionSecret: sessionSecret,
		SessionTTL:    envOrDefaultDuration("SESSION_TTL", 12*time.Hour),

		CacheTTL:     envOrDefaultDuration("CACHE_TTL", 5*time.Minute),
		CacheCleanup: envOrDefaultDuration("CACHE_CLEANUP", 10*time.Minute),

		OAuthAuthorizeURL: strings.TrimSpace(os.Getenv("OAUTH_AUTHORIZE_URL")),
		OAuthTokenURL:     strings.TrimSpace(os.Getenv("OAUTH_TOKEN_URL")),
		OAuthUserInfoURL:  strings.TrimSpace(os.Getenv("OAUTH_USERINFO_URL")),
		OAuthClientID:     strings.TrimSpace(os.Getenv("OAUTH_CLIENT_ID")),
		OAuthClientSecret: strings.TrimSpace(os.Getenv("OAUTH_CLIENT_SECRET")),
		OAuthRedirectURL:  strings.TrimSpace(os.Getenv("OAUTH_REDIRECT_URL")),
		OAuthIDField:      envOrDefault("OAUTH_ID_FIELD", "utokyo_id"),
		OAuthHTTPClient: &http.Client{
			Timeout: 5 * time.Second,
		},
	}

	if err := validator.New().Struct(cfg); err != nil {
		logrus.Fatalf("configuration validation error: %v", err)
	}

	return cfg
}

func splitCSV(v string) []string {
	v = strings.TrimSpace(v)
	if v == "" {
		return nil
	}

	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}

	return out
}

func envOrDefault(key, fallback string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	return v
}

func envOrDefaultUint32(key string, fallback uint32) uint32 {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}

	n, err := strconv.ParseUint(v, 10, 32)
	if err != nil || n == 0 {
		return fallback
	}

	return uint32(n)
}

func envOrDefaultBool(key string, fallback bool) bool {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}

	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}

	return b
}

func envOrDefaultDuration(key string, fallback time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}

	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return fallback
	}

	return d
}
