package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
)

var errInvalidSession = errors.New("invalid session")

// sessionService issues and verifies the user_id/user_token pair set after
// a delegated identity-provider login. The token is an HS256 JWT carrying
// the university ID and a per-login secret; the secret is stored bcrypt-
// hashed on the user document.
type sessionService struct {
	persist  *persistence
	secret   []byte
	tokenTTL time.Duration
}

func newSessionService(p *persistence, secret string, tokenTTL time.Duration) *sessionService {
	return &sessionService{
		persist:  p,
		secret:   []byte(secret),
		tokenTTL: tokenTTL,
	}
}

// issue upserts the user document with a fresh secret and returns a signed
// session token. Re-login rotates the secret, invalidating older tokens.
func (s *sessionService) issue(utokyoID string) (string, error) {
	utokyoID = strings.TrimSpace(utokyoID)
	if utokyoID == "" {
		return "", errInvalidSession
	}

	userSecret := uuid.NewString()
	hash, err := bcrypt.GenerateFromPassword([]byte(userSecret), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash user secret: %w", err)
	}
	if err := s.persist.upsertUser(utokyoID, string(hash)); err != nil {
		return "", err
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": utokyoID,
		"sid": userSecret,
		"exp": time.Now().Add(s.tokenTTL).Unix(),
	})
	return token.SignedString(s.secret)
}

func (s *sessionService) verify(utokyoID, tokenString string) error {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil || !token.Valid {
		return errInvalidSession
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return errInvalidSession
	}
	sub, _ := claims["sub"].(string)
	sid, _ := claims["sid"].(string)
	if sub == "" || sid == "" || sub != strings.TrimSpace(utokyoID) {
		return errInvalidSession
	}

	user, err := s.persist.getUser(sub)
	if err != nil {
		return errInvalidSession
	}
	if bcrypt.CompareHashAndPassword([]byte(user.UserSecret), []byte(sid)) != nil {
		return errInvalidSession
	}
	return nil
}

const stateCookie = "auth_state"

func (s *server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if s.cfg.OAuthAuthorizeURL == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "login is not configured"})
		return
	}

	state := uuid.NewString()
	http.SetCookie(w, &http.Cookie{
		Name:     stateCookie,
		Value:    state,
		Path:     "/",
		MaxAge:   600,
		HttpOnly: true,
	})

	q := url.Values{}
	q.Set("response_type", "code")
	q.Set("client_id", s.cfg.OAuthClientID)
	q.Set("redirect_uri", s.cfg.OAuthRedirectURL)
	q.Set("state", state)

	http.Redirect(w, r, s.cfg.OAuthAuthorizeURL+"?"+q.Encode(), http.StatusFound)
}

func (s *server) handleAuthCallback(w http.ResponseWriter, r *http.Request) {
	stateParam := r.URL.Query().Get("state")
	cookie, err := r.Cookie(stateCookie)
	if err != nil || stateParam == "" || cookie.Value != stateParam {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "state mismatch"})
		return
	}

	code := r.URL.Query().Get("code")
	if code == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "missing code"})
		return
	}

	utokyoID, err := s.resolveIdentity(code)
	if err != nil {
		logrus.WithField("error", err).Warn("identity provider exchange failed")
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	token, err := s.sessions.issue(utokyoID)
	if err != nil {
		logrus.WithField("error", err).Warn("session issue failed")
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	expires := time.Now().Add(s.cfg.SessionTTL)
	http.SetCookie(w, &http.Cookie{Name: "user_id", Value: utokyoID, Path: "/", Expires: expires})
	http.SetCookie(w, &http.Cookie{Name: "user_token", Value: token, Path: "/", Expires: expires, HttpOnly: true})
	http.SetCookie(w, &http.Cookie{Name: stateCookie, Value: "", Path: "/", MaxAge: -1})

	http.Redirect(w, r, "/", http.StatusFound)
}

// resolveIdentity exchanges the authorization code and reads the university
// ID from the provider's userinfo document.
func (s *server) resolveIdentity(code string) (string, error) {
	form := url.Values{}
	form.Set("grant_type", "authorization_code")
	form.Set("code", code)
	form.Set("client_id", s.cfg.OAuthClientID)
	form.Set("client_secret", s.cfg.OAuthClientSecret)
	form.Set("redirect_uri", s.cfg.OAuthRedirectURL)

	resp, err := s.cfg.OAuthHTTPClient.PostForm(s.cfg.OAuthTokenURL, form)
	if err != nil {
		return "", fmt.Errorf("token exchange: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return "", fmt.Errorf("token exchange rejected: status=%d", resp.StatusCode)
	}

	var tokenResp struct {
		AccessToken string `json:"access_token"`
	}
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&tokenResp); err != nil {
		return "", fmt.Errorf("decode token response: %w", err)
	}
	if tokenResp.AccessToken == "" {
		return "", errors.New("identity provider returned no access token")
	}

	req, err := http.NewRequest(http.MethodGet, s.cfg.OAuthUserInfoURL, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+tokenResp.AccessToken)

	infoResp, err := s.cfg.OAuthHTTPClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("userinfo fetch: %w", err)
	}
	defer infoResp.Body.Close()
	if infoResp.StatusCode >= 300 {
		return "", fmt.Errorf("userinfo rejected: status=%d", infoResp.StatusCode)
	}

	var info map[string]any
	if err := json.NewDecoder(io.LimitReader(infoResp.Body, 1<<20)).Decode(&info); err != nil {
		return "", fmt.Errorf("decode userinfo: %w", err)
	}

	id, _ := info[s.cfg.OAuthIDField].(string)
	if strings.TrimSpace(id) == "" {
		return "", fmt.Errorf("userinfo has no %s field", s.cfg.OAuthIDField)
	}
	return strings.TrimSpace(id), nil
}
