// internal/httpapi/respond.go
//
// JSON plumbing shared by every handler: response envelope, request
// decoding with payload validation, and the apperr → HTTP mapping.
//
// Notes
// -----
// • Internal and ContextMissing details never reach the client; the
//   full chain goes to the log and the body carries a generic message.
package httpapi

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/keelhq/tenantcore/internal/apperr"
)

var validate = validator.New()

// errorBody is the uniform error envelope.
type errorBody struct {
	Error errorDetail `json:"error"`
}

type errorDetail struct {
	Kind    string            `json:"kind"`
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if v != nil {
		_ = json.NewEncoder(w).Encode(v)
	}
}

func writeError(w http.ResponseWriter, err error) {
	kind := apperr.KindOf(err)
	if kind == apperr.Internal || kind == apperr.ContextMissing {
		zap.S().Errorw("request failed", "kind", kind.String(), "error", err)
	}
	writeJSON(w, kind.HTTPStatus(), errorBody{Error: errorDetail{
		Kind:    kind.String(),
		Message: apperr.MessageOf(err),
		Fields:  apperr.FieldsOf(err),
	}})
}

// decode unmarshals the request body into dst and runs struct
// validation.  Tag failures come back as a ValidationError with one
// entry per offending field.
func decode(r *http.Request, dst any) error {
	defer func() { _, _ = io.Copy(io.Discard, r.Body) }()
	dec := json.NewDecoder(io.LimitReader(r.Body, 1<<20))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return apperr.Wrap(apperr.ValidationError, "malformed JSON body", err)
	}
	if err := validate.Struct(dst); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			fields := make(map[string]string, len(verrs))
			for _, fe := range verrs {
				fields[fe.Field()] = fe.Tag()
			}
			return apperr.Invalid("invalid payload", fields)
		}
		return apperr.Wrap(apperr.ValidationError, "invalid payload", err)
	}
	return nil
}
