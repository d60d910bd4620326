package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/okian/rrtrack/internal/domain/failure"
	"github.com/okian/rrtrack/internal/domain/model"
	"github.com/okian/rrtrack/pkg/logger"
)

const messageInvalidRequest = "Invalid request"

// matchesRequest mirrors the OpenAPI schema for POST /matches.
type matchesRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Region   string `json:"region"`
}

func (m matchesRequest) validate() error {
	switch {
	case strings.TrimSpace(m.Username) == "":
		return errors.New("missing username")
	case m.Password == "":
		return errors.New("missing password")
	case strings.TrimSpace(m.Region) == "":
		return errors.New("missing region")
	}
	return nil
}

// MatchesHandler handles match history requests.
type MatchesHandler struct {
	deps         Dependencies
	maxBodyBytes int64
	logger       logger.Logger
}

// NewMatchesHandler creates a new matches handler.
func NewMatchesHandler(deps Dependencies, maxBodyBytes int64, l logger.Logger) *MatchesHandler {
	return &MatchesHandler{deps: deps, maxBodyBytes: maxBodyBytes, logger: l}
}

// HandlePostMatches handles POST /matches requests. Lookup failures are
// reported with HTTP 200 and a user-facing message.
func (h *MatchesHandler) HandlePostMatches(w http.ResponseWriter, r *http.Request) {
	const op = "api.post_matches"
	ctx := r.Context()

	r.Body = http.MaxBytesReader(w, r.Body, h.maxBodyBytes)
	var req matchesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.reject(r, op, fmt.Errorf("%w: %w", ErrBadRequest, err))
		writeFailure(w, http.StatusBadRequest, messageInvalidRequest)
		return
	}
	if err := req.validate(); err != nil {
		h.reject(r, op, fmt.Errorf("%w: %w", ErrBadRequest, err))
		writeFailure(w, http.StatusBadRequest, messageInvalidRequest)
		return
	}

	creds := model.Credentials{
		Username: strings.TrimSpace(req.Username),
		Password: req.Password,
		Region:   strings.TrimSpace(req.Region),
	}
	records, err := h.deps.Matches(ctx, creds, ClientAddr(r))
	if err != nil {
		writeFailure(w, http.StatusOK, failure.Message(err))
		return
	}
	if records == nil {
		records = []model.MatchRecord{}
	}
	writeJSON(w, http.StatusOK, envelope{Success: true, Message: records})
}

func (h *MatchesHandler) reject(r *http.Request, op string, err error) {
	h.logger.Debug(r.Context(), "rejecting request",
		logger.String("op", op),
		logger.String("request_id", middleware.GetReqID(r.Context())),
		logger.Error(err),
	)
}
