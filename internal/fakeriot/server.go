package fakeriot

import (
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/okian/rrtrack/internal/domain/model"
)

const (
	sessionCookie   = "asid"
	tokenPrefix     = "at-"
	entitlePrefix   = "ent-"
	redirectURI     = "https://playvalorant.com/opt_in"
	authFailure     = "auth_failure"
	defaultEndIndex = 20
)

// Server implements the upstream endpoints.
type Server struct {
	cfg       Config
	gen       *Generator
	router    chi.Router
	failsLeft atomic.Int64

	mu       sync.Mutex
	sessions map[string]bool
	lastXFF  string
}

// NewServer creates a fake game service.
func NewServer(cfg Config) *Server {
	s := &Server{
		cfg:      cfg,
		gen:      NewGenerator(cfg),
		sessions: make(map[string]bool),
	}
	s.failsLeft.Store(int64(cfg.FailFetches))

	r := chi.NewRouter()
	r.Post("/api/v1/authorization", s.handleAuthCookies)
	r.Put("/api/v1/authorization", s.handleAuth)
	r.Post("/api/token/v1", s.handleEntitlements)
	r.Post("/userinfo", s.handleUserInfo)
	r.Get("/mmr/v1/players/{puuid}/competitiveupdates", s.handleCompetitiveUpdates)
	s.router = r
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		s.mu.Lock()
		s.lastXFF = xff
		s.mu.Unlock()
	}
	s.router.ServeHTTP(w, r)
}

// LastForwardedFor returns the most recent X-Forwarded-For value seen.
func (s *Server) LastForwardedFor() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastXFF
}

// Subject returns the player uuid the fake assigns to username.
func Subject(username string) string {
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(strings.ToLower(username))).String()
}

func (s *Server) handleAuthCookies(w http.ResponseWriter, r *http.Request) {
	sid := uuid.NewString()
	s.mu.Lock()
	s.sessions[sid] = true
	s.mu.Unlock()
	http.SetCookie(w, &http.Cookie{Name: sessionCookie, Value: sid, Path: "/"})
	writeJSON(w, http.StatusOK, map[string]string{"type": "auth"})
}

type authRequest struct {
	Type     string `json:"type"`
	Username string `json:"username"`
	Password string `json:"password"`
}

func (s *Server) handleAuth(w http.ResponseWriter, r *http.Request) {
	c, err := r.Cookie(sessionCookie)
	if err != nil || !s.hasSession(c.Value) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "missing_session"})
		return
	}
	var req authRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Type != "auth" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid_request"})
		return
	}
	if !s.accepts(req.Username, req.Password) {
		writeJSON(w, http.StatusOK, map[string]string{"type": "auth", "error": authFailure})
		return
	}

	fragment := url.Values{}
	fragment.Set("access_token", tokenPrefix+Subject(req.Username))
	fragment.Set("token_type", "Bearer")
	fragment.Set("expires_in", "3600")
	writeJSON(w, http.StatusOK, map[string]any{
		"type": "response",
		"response": map[string]any{
			"mode":       "fragment",
			"parameters": map[string]string{"uri": redirectURI + "#" + fragment.Encode()},
		},
	})
}

func (s *Server) handleEntitlements(w http.ResponseWriter, r *http.Request) {
	sub, ok := bearerSubject(r)
	if !ok {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "invalid_token"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"entitlements_token": entitlePrefix + sub})
}

func (s *Server) handleUserInfo(w http.ResponseWriter, r *http.Request) {
	sub, ok := bearerSubject(r)
	if !ok {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "invalid_token"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"sub": sub})
}

type competitiveUpdates struct {
	Version int                   `json:"Version"`
	Subject string                `json:"Subject"`
	Matches []model.RawMatchEvent `json:"Matches"`
}

func (s *Server) handleCompetitiveUpdates(w http.ResponseWriter, r *http.Request) {
	if s.failsLeft.Add(-1) >= 0 {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"errorCode": "SCHEDULED_DOWNTIME"})
		return
	}
	puuid := chi.URLParam(r, "puuid")
	sub, ok := bearerSubject(r)
	if !ok || sub != puuid || r.Header.Get("X-Riot-Entitlements-JWT") != entitlePrefix+sub {
		writeJSON(w, http.StatusBadRequest, map[string]string{"errorCode": "BAD_CLAIMS"})
		return
	}
	end := defaultEndIndex
	if v := r.URL.Query().Get("endIndex"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeJSON(w, http.StatusBadRequest, map[string]string{"errorCode": "INVALID_INDEX"})
			return
		}
		end = n
	}
	writeJSON(w, http.StatusOK, competitiveUpdates{
		Version: 1,
		Subject: puuid,
		Matches: s.gen.History(puuid, end),
	})
}

func (s *Server) hasSession(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sessions[id]
}

func (s *Server) accepts(username, password string) bool {
	if username == "" || password == "" || password == RejectedPassword {
		return false
	}
	if len(s.cfg.Accounts) == 0 {
		return true
	}
	want, ok := s.cfg.Accounts[username]
	return ok && want == password
}

func bearerSubject(r *http.Request) (string, bool) {
	token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
	if !ok {
		return "", false
	}
	return strings.CutPrefix(token, tokenPrefix)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
