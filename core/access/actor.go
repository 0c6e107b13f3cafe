/*Package access provides utilities for access control
 */
package access

import (
	"context"
)

// contextKey is the type for context keys. Go linter does not like plain strings
type contextKey string

// the predefined context key
const (
	contextKeyActor contextKey = "_actor_"
)

/*Actor is a context object which stores the identity and privilege
level of the requester.

An empty username means the request is anonymous. IsAdmin carries no
meaning for anonymous actors.

Actors are added to a request context with

  ctx = ContextWithActor(ctx, actor)

and retrieved with

  actor := ActorFromContext(ctx)

The actor is added to the context by the token middleware, based on the
bearer token of the HTTP request. The middleware is tolerant: a missing
or invalid token yields an anonymous actor rather than a failed request,
so that public endpoints work without any policies while guarded
endpoints can still tell "could not identify you" apart from "you are
not allowed".
*/
type Actor struct {
	Username string `json:"username"`
	IsAdmin  bool   `json:"is_admin"`
}

// Anonymous returns true if the actor has no usable identity.
func (a Actor) Anonymous() bool {
	return a.Username == ""
}

// ContextWithActor returns a new context with this actor added to it
func ContextWithActor(ctx context.Context, actor Actor) context.Context {
	return context.WithValue(ctx, contextKeyActor, actor)
}

// ActorFromContext retrieves the actor from the context. If no actor
// was added to the context, it returns the anonymous actor.
func ActorFromContext(ctx context.Context) Actor {
	actor, ok := ctx.Value(contextKeyActor).(Actor)
	if ok {
		return actor
	}
	return Actor{}
}
