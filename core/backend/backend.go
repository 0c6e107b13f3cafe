package backend

import (
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/goccy/go-json"

	"github.com/gorilla/mux"

	"github.com/openhire/openhire/core"
	"github.com/openhire/openhire/core/access"
	"github.com/openhire/openhire/core/backend/schemas"
	"github.com/openhire/openhire/core/csql"
	"github.com/openhire/openhire/core/logger"
	"github.com/openhire/openhire/core/schema"
)

// the request body schemas, see schemas/
const (
	schemaAuthToken     = "https://openhire.io/schemas/authToken.json"
	schemaAuthRegister  = "https://openhire.io/schemas/authRegister.json"
	schemaCompanyNew    = "https://openhire.io/schemas/companyNew.json"
	schemaCompanyUpdate = "https://openhire.io/schemas/companyUpdate.json"
	schemaJobNew        = "https://openhire.io/schemas/jobNew.json"
	schemaJobUpdate     = "https://openhire.io/schemas/jobUpdate.json"
	schemaUserNew       = "https://openhire.io/schemas/userNew.json"
	schemaUserUpdate    = "https://openhire.io/schemas/userUpdate.json"
)

// Backend is the job-board rest backend
type Backend struct {
	db        *csql.DB
	router    *mux.Router
	notifier  core.Notifier
	tokens    *access.TokenMiddlewareBuilder
	validator *schema.Validator
}

// Builder is a builder helper for the Backend
type Builder struct {
	// DB is a postgres database. This is mandatory.
	DB *csql.DB
	// Router is a mux router. This is mandatory.
	Router *mux.Router
	// TokenKey is the HS256 signing key for authentication tokens,
	// loaded at process start and immutable thereafter. This is mandatory.
	TokenKey []byte
	// TokenValidity is the lifetime of issued tokens. This is optional.
	TokenValidity time.Duration
	// Notifier receives resource mutation notifications. This is optional.
	Notifier core.Notifier
}

// New realizes the actual backend. It creates the sql relations (if they
// do not exist) and adds the actual routes to the router
func New(bb *Builder) *Backend {

	if bb.DB == nil {
		panic("DB is missing")
	}
	if bb.Router == nil {
		panic("Router is missing")
	}
	if len(bb.TokenKey) == 0 {
		panic("TokenKey is missing")
	}

	validator, err := schema.NewValidatorFromFS(schemas.FS)
	if err != nil {
		panic(fmt.Errorf("cannot compile request schemas: %w", err))
	}

	b := &Backend{
		db:       bb.DB,
		router:   bb.Router,
		notifier: bb.Notifier,
		tokens: &access.TokenMiddlewareBuilder{
			Key:      bb.TokenKey,
			Validity: bb.TokenValidity,
		},
		validator: validator,
	}

	b.createTables()

	logger.AddRequestID(b.router)
	b.router.Use(access.NewTokenMiddleware(b.tokens))

	b.handleAuthRoutes(b.router)
	b.handleCompanyRoutes(b.router)
	b.handleJobRoutes(b.router)
	b.handleUserRoutes(b.router)
	return b
}

func (b *Backend) createTables() {
	s := b.db.Schema
	_, err := b.db.Exec(`
CREATE TABLE IF NOT EXISTS ` + s + `.companies (
  handle VARCHAR(25) PRIMARY KEY CHECK (handle = lower(handle)),
  name TEXT UNIQUE NOT NULL,
  description TEXT NOT NULL,
  num_employees INTEGER CHECK (num_employees >= 0),
  logo_url TEXT
);
CREATE TABLE IF NOT EXISTS ` + s + `.jobs (
  id SERIAL PRIMARY KEY,
  title TEXT NOT NULL,
  salary INTEGER CHECK (salary >= 0),
  equity NUMERIC CHECK (equity <= 1.0),
  company_handle VARCHAR(25) NOT NULL
    REFERENCES ` + s + `.companies ON DELETE CASCADE
);
CREATE TABLE IF NOT EXISTS ` + s + `.users (
  username VARCHAR(25) PRIMARY KEY,
  password TEXT NOT NULL,
  first_name TEXT NOT NULL,
  last_name TEXT NOT NULL,
  email TEXT NOT NULL CHECK (position('@' IN email) > 1),
  is_admin BOOLEAN NOT NULL DEFAULT FALSE
);
CREATE TABLE IF NOT EXISTS ` + s + `.applications (
  username VARCHAR(25) REFERENCES ` + s + `.users ON DELETE CASCADE,
  job_id INTEGER REFERENCES ` + s + `.jobs ON DELETE CASCADE,
  PRIMARY KEY (username, job_id)
);`)
	if err != nil {
		panic(err)
	}
}

// decodeBody reads the request body, validates it against the given
// schema and unmarshals it. Any failure is an errInvalidInput.
func (b *Backend) decodeBody(r *http.Request, schemaID string, into interface{}) error {
	// in-process requests may carry no body reader at all
	if r.Body == nil {
		return fmt.Errorf("%w: empty body", errInvalidInput)
	}
	body, err := io.ReadAll(r.Body)
	if err != nil {
		return fmt.Errorf("%w: cannot read body", errInvalidInput)
	}
	if len(body) == 0 {
		return fmt.Errorf("%w: empty body", errInvalidInput)
	}
	if err := b.validator.ValidateBytes(body, schemaID); err != nil {
		return fmt.Errorf("%w: %s", errInvalidInput, err)
	}
	if err := json.Unmarshal(body, into); err != nil {
		return fmt.Errorf("%w: %s", errInvalidInput, err)
	}
	return nil
}

// intParameter reads an optional integer query parameter. An absent or
// empty parameter yields nil, a non-integer value is an errInvalidInput.
func intParameter(q url.Values, key string) (*int, error) {
	value := q.Get(key)
	if value == "" {
		return nil, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return nil, fmt.Errorf("%w: %s must be an integer", errInvalidInput, key)
	}
	return &n, nil
}

// notify sends a resource mutation to the notifier, if one is installed
func (b *Backend) notify(resource string, operation core.Operation, payload interface{}) {
	if b.notifier == nil {
		return
	}
	jsonData, err := json.Marshal(payload)
	if err != nil {
		logger.Default().WithError(err).Errorln("cannot marshal notification payload for", resource)
		return
	}
	b.notifier.Notify(resource, operation, jsonData)
}
