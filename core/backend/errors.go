package backend

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/goccy/go-json"

	"github.com/lib/pq"

	"github.com/openhire/openhire/core/csql"
	"github.com/openhire/openhire/core/logger"
)

// the backend's failure kinds. Handlers translate them into status
// codes; the models never write responses themselves.
var (
	// errInvalidInput maps to 400. The caller must correct the request.
	errInvalidInput = errors.New("invalid input")
	// errUnauthenticated maps to 401. The client must re-authenticate.
	errUnauthenticated = errors.New("unauthenticated")
	// errNotFound maps to 404.
	errNotFound = errors.New("not found")
	// errDuplicate maps to 400, the requested key already exists.
	errDuplicate = errors.New("duplicate")
)

type errorResponse struct {
	Error struct {
		Message string `json:"message"`
		Status  int    `json:"status"`
	} `json:"error"`
}

// writeError writes the JSON error envelope for the given status code.
func writeError(w http.ResponseWriter, status int, message string) {
	response := errorResponse{}
	response.Error.Message = message
	response.Error.Status = status
	jsonData, _ := json.Marshal(response)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(jsonData)
}

// writeModelError translates a model failure into a client response.
func writeModelError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, csql.ErrNoRows) || errors.Is(err, errNotFound):
		writeError(w, http.StatusNotFound, "not found")
	case errors.Is(err, csql.ErrNoData) || errors.Is(err, errInvalidInput) || errors.Is(err, errDuplicate):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, errUnauthenticated):
		writeError(w, http.StatusUnauthorized, err.Error())
	default:
		logger.FromContext(r.Context()).WithError(err).Errorln("internal error on", r.Method, r.URL.Path)
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

// translateDBError maps postgres constraint violations to the
// backend's failure kinds. Everything else passes through unchanged.
func translateDBError(err error) error {
	var pqError *pq.Error
	if errors.As(err, &pqError) {
		switch pqError.Code.Name() {
		case "unique_violation":
			return fmt.Errorf("%w: %s", errDuplicate, pqError.Constraint)
		case "foreign_key_violation":
			return errNotFound
		case "check_violation":
			return fmt.Errorf("%w: %s", errInvalidInput, pqError.Constraint)
		}
	}
	return err
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, object interface{}) {
	jsonData, err := json.Marshal(object)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(jsonData)
}
