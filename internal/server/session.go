package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"requira/internal/models"
)

type sessionKey struct{}

// WithSession returns a copy of ctx carrying session
func WithSession(ctx context.Context, session *models.Session) context.Context {
	return context.WithValue(ctx, sessionKey{}, session)
}

// SessionFrom returns the session stored in ctx, if any
func SessionFrom(ctx context.Context) (*models.Session, bool) {
	session, ok := ctx.Value(sessionKey{}).(*models.Session)
	return session, ok && session != nil
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if len(header) < len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return ""
	}
	return strings.TrimSpace(header[len(prefix):])
}

// authed resolves the bearer token into a session and stores it in the
// request context before calling next
func (s *Server) authed(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session, err := s.svc.Auth.Session(r.Context(), bearerToken(r))
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		next(w, r.WithContext(WithSession(r.Context(), session)))
	}
}

// requestSession returns the session authed stored for r. A request that
// reaches a handler without one is answered with 401.
func (s *Server) requestSession(w http.ResponseWriter, r *http.Request) (*models.Session, bool) {
	session, ok := SessionFrom(r.Context())
	if !ok {
		s.writeError(w, r, models.ErrUnauthenticated)
		return nil, false
	}
	return session, true
}

// statusFor maps the error taxonomy onto HTTP status codes
func statusFor(err error) int {
	var maxErr *http.MaxBytesError
	switch {
	case errors.As(err, &maxErr):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, models.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, models.ErrUnauthenticated), errors.Is(err, models.ErrInvalidCredentials):
		return http.StatusUnauthorized
	case errors.Is(err, models.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, models.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, models.ErrAlreadyRegistered),
		errors.Is(err, models.ErrInvalidTransition),
		errors.Is(err, models.ErrConversationLocked),
		errors.Is(err, models.ErrTurnInProgress):
		return http.StatusConflict
	case errors.Is(err, models.ErrRateLimited):
		return http.StatusTooManyRequests
	case errors.Is(err, models.ErrQuotaExhausted):
		return http.StatusPaymentRequired
	case errors.Is(err, models.ErrTextService), errors.Is(err, models.ErrMalformedResponse):
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	message := models.UserMessage(err)
	if status == http.StatusInternalServerError {
		s.logger.Printf("server: %s %s failed: %v", r.Method, r.URL.Path, err)
		message = "internal server error"
	}
	if status == http.StatusRequestEntityTooLarge {
		message = "payload exceeds limit"
	}
	writeJSON(w, status, errorResponse{Error: message})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

// decodeJSON reads a size-limited JSON body into v
func (s *Server) decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	if r.Body == nil {
		return models.NewValidationError("empty body")
	}
	reader := http.MaxBytesReader(w, r.Body, s.settings.MaxBodyBytes)
	defer reader.Close()
	body, err := io.ReadAll(reader)
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return err
		}
		return models.NewValidationError("unable to read body")
	}
	if err := json.Unmarshal(body, v); err != nil {
		return models.NewValidationError("invalid JSON")
	}
	return nil
}
