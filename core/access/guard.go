package access

import (
	"net/http"

	"github.com/goccy/go-json"

	"github.com/gorilla/mux"
)

// Decision is the tagged outcome of a policy evaluation.
type Decision int

const (
	// Allow means the actor may proceed
	Allow Decision = iota
	// Unauthenticated means the request carries no usable identity. Maps to 401.
	Unauthenticated
	// UnauthorizedRole means the identity is present but lacks privilege. Maps to 403.
	UnauthorizedRole
)

func (d Decision) String() string {
	switch d {
	case Allow:
		return "allow"
	case Unauthenticated:
		return "unauthenticated"
	case UnauthorizedRole:
		return "unauthorized role"
	}
	return "unknown"
}

// StatusCode returns the HTTP status code for a failing decision,
// http.StatusOK for Allow.
func (d Decision) StatusCode() int {
	switch d {
	case Unauthenticated:
		return http.StatusUnauthorized
	case UnauthorizedRole:
		return http.StatusForbidden
	}
	return http.StatusOK
}

// Policy decides whether an actor may proceed with a request. The owner
// argument is the username of the resource owner as extracted from the
// request path; policies that do not care about ownership ignore it.
//
// Policies are pure: they read the actor and nothing else, and they
// never mutate persisted state.
type Policy func(actor Actor, owner string) Decision

// Authenticated allows any actor with a username.
func Authenticated(actor Actor, owner string) Decision {
	if actor.Anonymous() {
		return Unauthenticated
	}
	return Allow
}

// Admin allows actors with the admin flag. An anonymous actor is
// unauthenticated, an authenticated non-admin lacks the role.
func Admin(actor Actor, owner string) Decision {
	if actor.Anonymous() {
		return Unauthenticated
	}
	if !actor.IsAdmin {
		return UnauthorizedRole
	}
	return Allow
}

// OwnerOrAdmin allows admins and the owner of the requested resource.
//
// The admin check comes first: an admin acting on somebody else's
// resource is always allowed, a username mismatch is not an error in
// that case.
func OwnerOrAdmin(actor Actor, owner string) Decision {
	if actor.Anonymous() {
		return Unauthenticated
	}
	if actor.IsAdmin {
		return Allow
	}
	if actor.Username != owner {
		return UnauthorizedRole
	}
	return Allow
}

// Evaluate runs the policies in their declared order against the actor.
// The first policy that does not allow short-circuits the chain.
func Evaluate(actor Actor, owner string, policies ...Policy) Decision {
	for _, policy := range policies {
		if decision := policy(actor, owner); decision != Allow {
			return decision
		}
	}
	return Allow
}

// writeDecision writes a failing decision in the same JSON error
// envelope the resource handlers use, so that clients see one error
// shape for 401/403 and 400/404 alike.
func writeDecision(w http.ResponseWriter, decision Decision) {
	response := struct {
		Error struct {
			Message string `json:"message"`
			Status  int    `json:"status"`
		} `json:"error"`
	}{}
	response.Error.Message = decision.String()
	response.Error.Status = decision.StatusCode()
	jsonData, _ := json.Marshal(response)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(decision.StatusCode())
	w.Write(jsonData)
}

// Guarded wraps a handler with a policy chain. The resource owner is
// taken from the route variable ownerVar; pass an empty string for
// endpoints without an owner. On failure the handler does not run and
// the decision is translated to 401 or 403.
func Guarded(ownerVar string, h http.HandlerFunc, policies ...Policy) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		owner := ""
		if ownerVar != "" {
			owner = mux.Vars(r)[ownerVar]
		}
		actor := ActorFromContext(r.Context())
		decision := Evaluate(actor, owner, policies...)
		if decision != Allow {
			writeDecision(w, decision)
			return
		}
		h(w, r)
	}
}
