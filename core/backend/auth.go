package backend

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/openhire/openhire/core"
	"github.com/openhire/openhire/core/access"
	"github.com/openhire/openhire/core/logger"
)

func (b *Backend) handleAuthRoutes(router *mux.Router) {
	rlog := logger.Default()
	rlog.Infoln("auth")
	rlog.Infoln("  handle route: /auth/token POST")
	rlog.Infoln("  handle route: /auth/register POST")

	// both routes are public, the guard chain does not apply
	router.HandleFunc("/auth/token", b.authTokenHandler).Methods(http.MethodPost)
	router.HandleFunc("/auth/register", b.authRegisterHandler).Methods(http.MethodPost)
}

func (b *Backend) authTokenHandler(w http.ResponseWriter, r *http.Request) {
	var credentials struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := b.decodeBody(r, schemaAuthToken, &credentials); err != nil {
		writeModelError(w, r, err)
		return
	}
	user, err := b.userAuthenticate(credentials.Username, credentials.Password)
	if err != nil {
		writeModelError(w, r, err)
		return
	}
	token, err := b.tokens.IssueToken(access.Actor{Username: user.Username, IsAdmin: user.IsAdmin})
	if err != nil {
		writeModelError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"token": token})
}

func (b *Backend) authRegisterHandler(w http.ResponseWriter, r *http.Request) {
	var registration UserNew
	if err := b.decodeBody(r, schemaAuthRegister, &registration); err != nil {
		writeModelError(w, r, err)
		return
	}
	registration.IsAdmin = false // self-registration never grants admin

	user, err := b.userInsert(registration)
	if err != nil {
		writeModelError(w, r, err)
		return
	}
	token, err := b.tokens.IssueToken(access.Actor{Username: user.Username, IsAdmin: user.IsAdmin})
	if err != nil {
		writeModelError(w, r, err)
		return
	}
	b.notify("user", core.OperationCreate, user)
	writeJSON(w, http.StatusCreated, map[string]interface{}{"token": token})
}
