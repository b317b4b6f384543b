package api

import (
	"encoding/json"
	stderrors "errors"
	"net/http"
	"net/url"
	"strconv"

	"github.com/mgrendahl/tackle/pkg/auth"
	"github.com/mgrendahl/tackle/pkg/errors"
	"github.com/mgrendahl/tackle/pkg/observability"
	"github.com/mgrendahl/tackle/pkg/session"
	"github.com/mgrendahl/tackle/pkg/store"
)

// maxBodyBytes bounds JSON request bodies. CSV imports use their own
// larger limit.
const maxBodyBytes = 1 << 20

// envelope is the uniform response shape. Exactly one of Data or Error
// is set.
type envelope struct {
	Data  any       `json:"data,omitempty"`
	Error *apiError `json:"error,omitempty"`
}

type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// respond writes data inside the success envelope.
func respond(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	// An encode failure here means the connection is gone; the status
	// line is already on the wire.
	_ = json.NewEncoder(w).Encode(envelope{Data: data})
}

// respondError maps err to an HTTP status and writes the error
// envelope. Unclassified errors become an opaque 500; the real error
// goes to the log, not the client.
func (s *Server) respondError(w http.ResponseWriter, r *http.Request, err error) {
	status, code := statusFor(err)
	msg := errors.UserMessage(err)
	if status == http.StatusInternalServerError {
		s.logger.Error("request failed", "method", r.Method, "path", r.URL.Path, "err", err)
		msg = "internal error"
	}
	observability.HTTP().OnError(r.Context(), r.Method, r.URL.Path, err)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(envelope{Error: &apiError{Code: string(code), Message: msg}})
}

// statusFor maps an error to its HTTP status and wire code. An explicit
// application code wins over sentinel causes further down the chain, so
// a not-found wrapped as invalid input stays a 400.
func statusFor(err error) (int, errors.Code) {
	if code := errors.GetCode(err); code != "" {
		switch code {
		case errors.ErrCodeInvalidInput, errors.ErrCodeInvalidEmail, errors.ErrCodeInvalidStatus,
			errors.ErrCodeInvalidStage, errors.ErrCodeInvalidTemplate, errors.ErrCodeInvalidWidget,
			errors.ErrCodeInvalidPath, errors.ErrCodeUnsupported:
			return http.StatusBadRequest, code
		case errors.ErrCodeNotFound, errors.ErrCodeRecordNotFound, errors.ErrCodeFileNotFound,
			errors.ErrCodeSessionNotFound:
			return http.StatusNotFound, code
		case errors.ErrCodeConflict, errors.ErrCodeDuplicateEmail:
			return http.StatusConflict, code
		case errors.ErrCodeUnauthorized, errors.ErrCodeSessionExpired:
			return http.StatusUnauthorized, code
		case errors.ErrCodeForbidden:
			return http.StatusForbidden, code
		case errors.ErrCodeRateLimited:
			return http.StatusTooManyRequests, code
		case errors.ErrCodeNetwork:
			return http.StatusBadGateway, code
		case errors.ErrCodeTimeout:
			return http.StatusGatewayTimeout, code
		}
		return http.StatusInternalServerError, errors.ErrCodeInternal
	}

	switch {
	case stderrors.Is(err, store.ErrNotFound):
		return http.StatusNotFound, errors.ErrCodeRecordNotFound
	case stderrors.Is(err, store.ErrConflict):
		return http.StatusConflict, errors.ErrCodeConflict
	case stderrors.Is(err, session.ErrNotFound):
		return http.StatusNotFound, errors.ErrCodeSessionNotFound
	case stderrors.Is(err, session.ErrExpired):
		return http.StatusUnauthorized, errors.ErrCodeSessionExpired
	case stderrors.Is(err, session.ErrInvalidState):
		return http.StatusForbidden, errors.ErrCodeForbidden
	case stderrors.Is(err, auth.ErrAccessDenied):
		return http.StatusForbidden, errors.ErrCodeForbidden
	case stderrors.Is(err, auth.ErrUnauthorized):
		return http.StatusUnauthorized, errors.ErrCodeUnauthorized
	case stderrors.Is(err, auth.ErrNetwork):
		return http.StatusBadGateway, errors.ErrCodeNetwork
	}
	return http.StatusInternalServerError, errors.ErrCodeInternal
}

// decodeJSON reads a JSON request body into v.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidInput, err, "malformed request body")
	}
	return nil
}

// queryInt parses a non-negative integer query parameter, 0 when absent
// or malformed.
func queryInt(q url.Values, key string) int {
	n, err := strconv.Atoi(q.Get(key))
	if err != nil || n < 0 {
		return 0
	}
	return n
}

// queryBool is true for "1" or "true".
func queryBool(q url.Values, key string) bool {
	v := q.Get(key)
	return v == "1" || v == "true"
}
