package httpx

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"

	"github.com/ariefcatur/go-storefront-orders/internal/apperr"
)

type message struct {
	Message string `json:"message"`
}

type validationBody struct {
	Message     string `json:"message"`
	StockErrors any    `json:"stockErrors,omitempty"`
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeMessage(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, message{Message: msg})
}

// writeError maps an apperr kind to a status code. Internal detail is only logged.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	var ae *apperr.Error
	if !errors.As(err, &ae) {
		ae = apperr.Internal("unexpected", err)
	}
	switch ae.Kind {
	case apperr.KindValidation:
		writeJSON(w, http.StatusBadRequest, validationBody{Message: ae.Msg, StockErrors: ae.Details})
	case apperr.KindNotFound:
		writeMessage(w, http.StatusNotFound, ae.Msg)
	case apperr.KindForbidden:
		writeMessage(w, http.StatusForbidden, ae.Msg)
	case apperr.KindConflict:
		writeMessage(w, http.StatusConflict, ae.Msg)
	default:
		log.Error().Err(err).Str("req_id", middleware.GetReqID(r.Context())).
			Str("method", r.Method).Str("path", r.URL.Path).Msg("request_failed")
		writeMessage(w, http.StatusInternalServerError, "Server error")
	}
}

const maxBody = 1 << 20

func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBody))
	if err := dec.Decode(v); err != nil {
		return apperr.Validation("invalid json", nil)
	}
	return nil
}
