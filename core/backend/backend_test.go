package backend

import (
	"net/http"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openhire/openhire/core"
	"github.com/openhire/openhire/core/access"
	"github.com/openhire/openhire/core/backend/schemas"
	"github.com/openhire/openhire/core/client"
	"github.com/openhire/openhire/core/logger"
	"github.com/openhire/openhire/core/schema"
)

// newTestBackend wires routes and middleware without a database. The
// tests in this file only exercise paths that fail before any query
// runs: guard chain denials, schema validation and parameter parsing.
func newTestBackend(t *testing.T) *Backend {
	validator, err := schema.NewValidatorFromFS(schemas.FS)
	require.NoError(t, err)

	router := mux.NewRouter()
	b := &Backend{
		router:    router,
		tokens:    &access.TokenMiddlewareBuilder{Key: []byte("test-key")},
		validator: validator,
	}
	logger.AddRequestID(router)
	router.Use(access.NewTokenMiddleware(b.tokens))
	b.handleAuthRoutes(router)
	b.handleCompanyRoutes(router)
	b.handleJobRoutes(router)
	b.handleUserRoutes(router)
	return b
}

func (b *Backend) testToken(t *testing.T, actor access.Actor) string {
	token, err := b.tokens.IssueToken(actor)
	require.NoError(t, err)
	return token
}

func TestGuardedRoutes(t *testing.T) {
	b := newTestBackend(t)

	anon := client.NewWithRouter(b.router)
	u3 := anon.WithToken(b.testToken(t, access.Actor{Username: "u3"}))

	cases := []struct {
		name   string
		c      client.Client
		run    func(c client.Client) (int, error)
		status int
	}{
		{"create company anonymous", anon,
			func(c client.Client) (int, error) {
				return c.RawPost("/companies", map[string]string{"handle": "x", "name": "X", "description": "d"}, nil)
			}, http.StatusUnauthorized},
		{"create company non-admin", u3,
			func(c client.Client) (int, error) {
				return c.RawPost("/companies", map[string]string{"handle": "x", "name": "X", "description": "d"}, nil)
			}, http.StatusForbidden},
		{"delete company non-admin", u3,
			func(c client.Client) (int, error) { return c.RawDelete("/companies/x") }, http.StatusForbidden},
		{"create job anonymous", anon,
			func(c client.Client) (int, error) {
				return c.RawPost("/jobs", map[string]string{"title": "t", "companyHandle": "x"}, nil)
			}, http.StatusUnauthorized},
		{"patch job non-admin", u3,
			func(c client.Client) (int, error) {
				return c.RawPatch("/jobs/1", map[string]string{"title": "t"}, nil)
			}, http.StatusForbidden},
		{"list users anonymous", anon,
			func(c client.Client) (int, error) { return c.RawGet("/users", nil) }, http.StatusUnauthorized},
		{"list users non-admin", u3,
			func(c client.Client) (int, error) { return c.RawGet("/users", nil) }, http.StatusForbidden},
		{"read foreign user", u3,
			func(c client.Client) (int, error) { return c.RawGet("/users/u1", nil) }, http.StatusForbidden},
		{"patch foreign user", u3,
			func(c client.Client) (int, error) {
				return c.RawPatch("/users/u1", map[string]string{"firstName": "F"}, nil)
			}, http.StatusForbidden},
		{"apply for foreign user", u3,
			func(c client.Client) (int, error) { return c.RawPost("/users/u1/jobs/1", nil, nil) }, http.StatusForbidden},
		{"patch user anonymous", anon,
			func(c client.Client) (int, error) {
				return c.RawPatch("/users/u1", map[string]string{"firstName": "F"}, nil)
			}, http.StatusUnauthorized},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			status, err := tc.run(tc.c)
			assert.Error(t, err)
			assert.Equal(t, tc.status, status)
		})
	}
}

func TestRequestValidation(t *testing.T) {
	b := newTestBackend(t)
	admin := client.NewWithRouter(b.router).WithToken(b.testToken(t, access.Actor{Username: "boss", IsAdmin: true}))

	cases := []struct {
		name string
		run  func() (int, error)
	}{
		{"company without handle", func() (int, error) {
			return admin.RawPost("/companies", map[string]string{"name": "X", "description": "d"}, nil)
		}},
		{"company with unknown field", func() (int, error) {
			return admin.RawPost("/companies", map[string]interface{}{
				"handle": "x", "name": "X", "description": "d", "revenue": 1}, nil)
		}},
		{"company with wrong type", func() (int, error) {
			return admin.RawPost("/companies", map[string]interface{}{
				"handle": "x", "name": "X", "description": "d", "numEmployees": "many"}, nil)
		}},
		{"company patch of the handle", func() (int, error) {
			return admin.RawPatch("/companies/x", map[string]string{"handle": "y"}, nil)
		}},
		{"company patch without data", func() (int, error) {
			return admin.RawPatch("/companies/x", map[string]string{}, nil)
		}},
		{"job without company", func() (int, error) {
			return admin.RawPost("/jobs", map[string]interface{}{"title": "t"}, nil)
		}},
		{"job with excessive equity", func() (int, error) {
			return admin.RawPost("/jobs", map[string]interface{}{
				"title": "t", "companyHandle": "x", "equity": 1.5}, nil)
		}},
		{"job patch of the company", func() (int, error) {
			return admin.RawPatch("/jobs/1", map[string]string{"companyHandle": "y"}, nil)
		}},
		{"user patch of the admin flag", func() (int, error) {
			return admin.RawPatch("/users/boss", map[string]interface{}{"isAdmin": true}, nil)
		}},
		{"user patch without data", func() (int, error) {
			return admin.RawPatch("/users/boss", map[string]string{}, nil)
		}},
		{"registration with short password", func() (int, error) {
			return admin.RawPost("/auth/register", map[string]string{
				"username": "u9", "password": "abc", "firstName": "F", "lastName": "L", "email": "u9@x.io"}, nil)
		}},
		{"token request without body", func() (int, error) {
			return admin.RawPost("/auth/token", nil, nil)
		}},
		{"company patch without body", func() (int, error) {
			return admin.RawPatch("/companies/x", nil, nil)
		}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			status, err := tc.run()
			assert.Error(t, err)
			assert.Equal(t, http.StatusBadRequest, status)
		})
	}
}

func TestListParameterValidation(t *testing.T) {
	b := newTestBackend(t)
	anon := client.NewWithRouter(b.router)

	status, err := anon.RawGet("/companies?minEmployees=abc", nil)
	assert.Error(t, err)
	assert.Equal(t, http.StatusBadRequest, status)

	status, err = anon.RawGet("/companies?minEmployees=3&maxEmployees=1", nil)
	assert.Error(t, err)
	assert.Equal(t, http.StatusBadRequest, status)

	status, err = anon.RawGet("/jobs?minSalary=lots", nil)
	assert.Error(t, err)
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestJobIDMustBeNumeric(t *testing.T) {
	b := newTestBackend(t)
	anon := client.NewWithRouter(b.router)

	status, err := anon.RawGet("/jobs/not-a-number", nil)
	assert.Error(t, err)
	assert.Equal(t, http.StatusNotFound, status)
}

type recordingNotifier struct {
	resources  []string
	operations []core.Operation
	payloads   [][]byte
}

func (n *recordingNotifier) Notify(resource string, operation core.Operation, payload []byte) {
	n.resources = append(n.resources, resource)
	n.operations = append(n.operations, operation)
	n.payloads = append(n.payloads, payload)
}

func TestNotify(t *testing.T) {
	b := newTestBackend(t)

	// without a notifier nothing happens
	b.notify("company", core.OperationCreate, map[string]string{"handle": "x"})

	recorder := &recordingNotifier{}
	b.notifier = recorder
	b.notify("company", core.OperationCreate, map[string]string{"handle": "x"})
	b.notify("job", core.OperationDelete, map[string]int{"id": 4})

	require.Len(t, recorder.resources, 2)
	assert.Equal(t, []string{"company", "job"}, recorder.resources)
	assert.Equal(t, []core.Operation{core.OperationCreate, core.OperationDelete}, recorder.operations)
	assert.JSONEq(t, `{"handle":"x"}`, string(recorder.payloads[0]))
}
