package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"

	"classroom-service/internal/domain"
	"github.com/go-chi/chi/v5"
)

type errorBody struct {
	Error    string            `json:"error"`
	Message  string            `json:"message,omitempty"`
	Fields   map[string]string `json:"fields,omitempty"`
	LoginURL string            `json:"loginUrl,omitempty"`
	Current  any               `json:"current,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// errorResponse maps a use-case error to its status code and body.
func errorResponse(err error) (int, errorBody) {
	var verr *domain.ValidationError
	switch {
	case errors.As(err, &verr):
		return http.StatusUnprocessableEntity, errorBody{Error: verr.Code, Message: verr.Message, Fields: verr.Fields}
	case errors.Is(err, domain.ErrInvalidCredentials):
		return http.StatusUnauthorized, errorBody{Error: "invalid_credentials", Message: err.Error()}
	case errors.Is(err, domain.ErrSessionNotFound):
		return http.StatusUnauthorized, errorBody{Error: "unauthorized", Message: "authentication required"}
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound, errorBody{Error: "not_found", Message: err.Error()}
	case errors.Is(err, domain.ErrConflict):
		return http.StatusConflict, errorBody{Error: "conflict", Message: err.Error()}
	default:
		return http.StatusInternalServerError, errorBody{Error: "internal", Message: "internal server error"}
	}
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, body := errorResponse(err)
	if status >= http.StatusInternalServerError {
		log.Printf("%s %s: %v", r.Method, r.URL.Path, err)
	}
	writeJSON(w, status, body)
}

func decodeJSON(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return &domain.ValidationError{
			Code:    domain.CodeInvalid,
			Message: fmt.Sprintf("malformed JSON body: %v", err),
		}
	}
	return nil
}

func idParam(r *http.Request, name string) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%s %q: %w", name, chi.URLParam(r, name), domain.ErrNotFound)
	}
	return id, nil
}
