package httpapi

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"go.uber.org/zap"
)

// Error codes of the {error, detail} response body.
const (
	codeBadRequest       = "bad_request"
	codeNotFound         = "not_found"
	codeValidation       = "validation_failed"
	codePersistence      = "persistence_failed"
	codeWorkflow         = "workflow_failed"
	codeWrongStep        = "wrong_step"
	codeInvalidSignature = "invalid_signature"
	codeSubmissionFailed = "submission_failed"
	codeAlreadySubmitted = "already_submitted"
)

const maxBodyBytes = 1 << 20

type errorBody struct {
	Error  string            `json:"error"`
	Detail string            `json:"detail,omitempty"`
	Fields map[string]string `json:"fields,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, detail string) {
	writeJSON(w, status, errorBody{Error: code, Detail: detail})
}

// writeValidation answers 422 with the field errors of one wizard step;
// detail names the step.
func writeValidation(w http.ResponseWriter, detail string, fields map[string]string) {
	writeJSON(w, http.StatusUnprocessableEntity, errorBody{Error: codeValidation, Detail: detail, Fields: fields})
}

// decodeJSON reads a JSON body into dst. An empty body leaves dst untouched
// when allowEmpty is set.
func decodeJSON(r *http.Request, dst interface{}, allowEmpty bool) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		if allowEmpty && errors.Is(err, io.EOF) {
			return nil
		}
		return err
	}
	return nil
}

func (s *Server) internalError(w http.ResponseWriter, r *http.Request, code string, err error) {
	s.log.Errorw("Request failed",
		"method", r.Method,
		"path", r.URL.Path,
		"error", err,
	)
	writeError(w, http.StatusInternalServerError, code, err.Error())
}

func nopLogger() *zap.SugaredLogger { return zap.NewNop().Sugar() }
