package access

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/gorilla/mux"

	"github.com/openhire/openhire/core/logger"
)

// CookieName is the name of the cookie that may carry the token as an
// alternative to the Authorization header, for the benefit of simple
// frontend development.
const CookieName = "Openhire-JWT"

type tokenClaims struct {
	Username string `json:"username"`
	IsAdmin  bool   `json:"is_admin"`
	jwt.StandardClaims
}

// TokenMiddlewareBuilder is a helper builder for the token middleware
type TokenMiddlewareBuilder struct {
	// Key is the HS256 signing key. It is loaded once at process start
	// and immutable thereafter.
	Key []byte
	// Validity is the lifetime of issued tokens. Optional, defaults to
	// 24 hours.
	Validity time.Duration
}

// IssueToken signs a token for the given actor.
func (tmb *TokenMiddlewareBuilder) IssueToken(actor Actor) (string, error) {
	if len(tmb.Key) == 0 {
		return "", errors.New("token key is missing")
	}
	validity := tmb.Validity
	if validity == 0 {
		validity = 24 * time.Hour
	}
	now := time.Now()
	claims := tokenClaims{
		Username: actor.Username,
		IsAdmin:  actor.IsAdmin,
		StandardClaims: jwt.StandardClaims{
			IssuedAt:  now.Unix(),
			ExpiresAt: now.Add(validity).Unix(),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(tmb.Key)
}

// NewTokenMiddleware returns a middleware handler that derives the
// request actor from a JWT bearer token.
//
// Tokens are accepted as "Authorization: Bearer" header or as
// Openhire-JWT cookie.
//
// The middleware is deliberately tolerant: a missing, malformed or
// expired token yields an anonymous actor and the request proceeds.
// Rejecting the request is left to the policy that actually requires
// an identity, which keeps "could not identify you" separate from
// "you are not allowed".
func NewTokenMiddleware(tmb *TokenMiddlewareBuilder) mux.MiddlewareFunc {
	if len(tmb.Key) == 0 {
		panic("token key is missing")
	}
	key := tmb.Key

	keyLookup := func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return key, nil
	}

	return func(h http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !ActorFromContext(r.Context()).Anonymous() { // already authenticated?
				h.ServeHTTP(w, r)
				return
			}

			rlog := logger.FromContext(r.Context())

			tokenString := ""
			bearer := r.Header.Get("Authorization")
			if len(bearer) > 0 && bearer != "null" {
				if len(bearer) >= 8 && strings.ToLower(bearer[:7]) == "bearer " {
					tokenString = bearer[7:]
				} else {
					tokenString = bearer
				}
			} else if cookie, _ := r.Cookie(CookieName); cookie != nil {
				tokenString = cookie.Value
			}
			if len(tokenString) == 0 {
				h.ServeHTTP(w, r) // no token no actor, moving on
				return
			}

			claims := tokenClaims{}
			token, err := jwt.ParseWithClaims(tokenString, &claims, keyLookup)
			if err != nil || !token.Valid || claims.Username == "" {
				rlog.WithError(err).Debugln("unusable bearer token, proceeding anonymously")
				h.ServeHTTP(w, r)
				return
			}

			actor := Actor{Username: claims.Username, IsAdmin: claims.IsAdmin}
			ctx := ContextWithActor(r.Context(), actor)
			ctx, _ = logger.ContextWithLoggerIdentity(ctx, actor.Username)
			h.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
