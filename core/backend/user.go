package backend

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"
	"golang.org/x/crypto/bcrypt"

	"github.com/openhire/openhire/core"
	"github.com/openhire/openhire/core/access"
	"github.com/openhire/openhire/core/csql"
	"github.com/openhire/openhire/core/logger"
)

// the work factor for bcrypt password hashing
const bcryptCost = 12

// User is a registered user of the job board
type User struct {
	Username  string `json:"username"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
	IsAdmin   bool   `json:"isAdmin"`
	// Applications holds the ids of the jobs the user applied to.
	// It is only included in single-user responses.
	Applications []int `json:"applications,omitempty"`
}

// UserNew is a user creation request
type UserNew struct {
	Username  string `json:"username"`
	Password  string `json:"password"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
	IsAdmin   bool   `json:"isAdmin"`
}

// UserUpdate is a sparse update, nil fields stay unchanged. The
// username and the admin flag cannot be patched.
type UserUpdate struct {
	Password  *string `json:"password"`
	FirstName *string `json:"firstName"`
	LastName  *string `json:"lastName"`
	Email     *string `json:"email"`
}

// userTranslation maps the JSON field names to storage column names.
// Untranslated fields use their own name as column name.
var userTranslation = map[string]string{
	"firstName": "first_name",
	"lastName":  "last_name",
}

func (u UserUpdate) updates(hashedPassword string) *csql.Updates {
	updates := &csql.Updates{}
	if u.Password != nil {
		updates.Set("password", hashedPassword)
	}
	if u.FirstName != nil {
		updates.Set("firstName", *u.FirstName)
	}
	if u.LastName != nil {
		updates.Set("lastName", *u.LastName)
	}
	if u.Email != nil {
		updates.Set("email", *u.Email)
	}
	return updates
}

const userColumns = `username, first_name, last_name, email, is_admin`

func scanUser(row scanner) (User, error) {
	var u User
	err := row.Scan(&u.Username, &u.FirstName, &u.LastName, &u.Email, &u.IsAdmin)
	return u, err
}

func (b *Backend) userInsert(n UserNew) (User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(n.Password), bcryptCost)
	if err != nil {
		return User{}, err
	}
	query := fmt.Sprintf(`INSERT INTO %s.users (username, password, first_name, last_name, email, is_admin)
VALUES ($1, $2, $3, $4, $5, $6) RETURNING `+userColumns+`;`, b.db.Schema)
	created, err := scanUser(b.db.QueryRow(query, n.Username, string(hash), n.FirstName, n.LastName, n.Email, n.IsAdmin))
	if err != nil {
		return User{}, translateDBError(err)
	}
	return created, nil
}

// userAuthenticate verifies username and password. On any mismatch it
// fails with errUnauthenticated, without revealing which part was wrong.
func (b *Backend) userAuthenticate(username, password string) (User, error) {
	query := fmt.Sprintf(`SELECT password, `+userColumns+` FROM %s.users WHERE username = $1;`, b.db.Schema)
	var hash string
	var u User
	err := b.db.QueryRow(query, username).Scan(&hash, &u.Username, &u.FirstName, &u.LastName, &u.Email, &u.IsAdmin)
	if err == csql.ErrNoRows {
		return User{}, fmt.Errorf("%w: invalid username/password", errUnauthenticated)
	}
	if err != nil {
		return User{}, err
	}
	if bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) != nil {
		return User{}, fmt.Errorf("%w: invalid username/password", errUnauthenticated)
	}
	return u, nil
}

func (b *Backend) userList() ([]User, error) {
	query := fmt.Sprintf(`SELECT `+userColumns+` FROM %s.users ORDER BY username;`, b.db.Schema)
	rows, err := b.db.Query(query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := []User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

func (b *Backend) userGet(username string) (User, error) {
	query := fmt.Sprintf(`SELECT `+userColumns+` FROM %s.users WHERE username = $1;`, b.db.Schema)
	u, err := scanUser(b.db.QueryRow(query, username))
	if err != nil {
		return User{}, err
	}
	applicationsQuery := fmt.Sprintf(`SELECT job_id FROM %s.applications WHERE username = $1 ORDER BY job_id;`, b.db.Schema)
	rows, err := b.db.Query(applicationsQuery, username)
	if err != nil {
		return User{}, err
	}
	defer rows.Close()
	for rows.Next() {
		var jobID int
		if err := rows.Scan(&jobID); err != nil {
			return User{}, err
		}
		u.Applications = append(u.Applications, jobID)
	}
	return u, rows.Err()
}

func (b *Backend) userUpdate(username string, u UserUpdate) (User, error) {
	hashedPassword := ""
	if u.Password != nil {
		hash, err := bcrypt.GenerateFromPassword([]byte(*u.Password), bcryptCost)
		if err != nil {
			return User{}, err
		}
		hashedPassword = string(hash)
	}
	clauses, params, err := csql.UpdateClause(u.updates(hashedPassword), userTranslation)
	if err != nil {
		return User{}, err
	}
	query := fmt.Sprintf(`UPDATE %s.users SET `, b.db.Schema) +
		strings.Join(clauses, ",") +
		` WHERE username = $` + strconv.Itoa(len(params)+1) +
		` RETURNING ` + userColumns + `;`
	params = append(params, username)
	user, err := scanUser(b.db.QueryRow(query, params...))
	if err != nil {
		return User{}, translateDBError(err)
	}
	return user, nil
}

func (b *Backend) userDelete(username string) error {
	query := fmt.Sprintf(`DELETE FROM %s.users WHERE username = $1 RETURNING username;`, b.db.Schema)
	var deleted string
	return b.db.QueryRow(query, username).Scan(&deleted)
}

// userApply records an application of the user to the job
func (b *Backend) userApply(username string, jobID int) error {
	query := fmt.Sprintf(`INSERT INTO %s.applications (username, job_id) VALUES ($1, $2);`, b.db.Schema)
	if _, err := b.db.Exec(query, username, jobID); err != nil {
		return translateDBError(err)
	}
	return nil
}

func (b *Backend) handleUserRoutes(router *mux.Router) {
	rlog := logger.Default()
	rlog.Infoln("user")
	rlog.Infoln("  handle routes: /users GET, POST")
	rlog.Infoln("  handle routes: /users/{username} GET, PATCH, DELETE")
	rlog.Infoln("  handle routes: /users/{username}/jobs/{id} POST")

	router.HandleFunc("/users", access.Guarded("", b.userCreateHandler, access.Admin)).Methods(http.MethodPost)
	router.HandleFunc("/users", access.Guarded("", b.userListHandler, access.Admin)).Methods(http.MethodGet)
	router.HandleFunc("/users/{username}", access.Guarded("username", b.userGetHandler, access.OwnerOrAdmin)).Methods(http.MethodGet)
	router.HandleFunc("/users/{username}", access.Guarded("username", b.userUpdateHandler, access.OwnerOrAdmin)).Methods(http.MethodPatch)
	router.HandleFunc("/users/{username}", access.Guarded("username", b.userDeleteHandler, access.OwnerOrAdmin)).Methods(http.MethodDelete)
	router.HandleFunc("/users/{username}/jobs/{id}", access.Guarded("username", b.userApplyHandler, access.OwnerOrAdmin)).Methods(http.MethodPost)
}

func (b *Backend) userCreateHandler(w http.ResponseWriter, r *http.Request) {
	var user UserNew
	if err := b.decodeBody(r, schemaUserNew, &user); err != nil {
		writeModelError(w, r, err)
		return
	}
	created, err := b.userInsert(user)
	if err != nil {
		writeModelError(w, r, err)
		return
	}
	token, err := b.tokens.IssueToken(access.Actor{Username: created.Username, IsAdmin: created.IsAdmin})
	if err != nil {
		writeModelError(w, r, err)
		return
	}
	b.notify("user", core.OperationCreate, created)
	writeJSON(w, http.StatusCreated, map[string]interface{}{"user": created, "token": token})
}

func (b *Backend) userListHandler(w http.ResponseWriter, r *http.Request) {
	users, err := b.userList()
	if err != nil {
		writeModelError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"users": users})
}

func (b *Backend) userGetHandler(w http.ResponseWriter, r *http.Request) {
	user, err := b.userGet(mux.Vars(r)["username"])
	if err != nil {
		writeModelError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"user": user})
}

func (b *Backend) userUpdateHandler(w http.ResponseWriter, r *http.Request) {
	var update UserUpdate
	if err := b.decodeBody(r, schemaUserUpdate, &update); err != nil {
		writeModelError(w, r, err)
		return
	}
	user, err := b.userUpdate(mux.Vars(r)["username"], update)
	if err != nil {
		writeModelError(w, r, err)
		return
	}
	b.notify("user", core.OperationUpdate, user)
	writeJSON(w, http.StatusOK, map[string]interface{}{"user": user})
}

func (b *Backend) userDeleteHandler(w http.ResponseWriter, r *http.Request) {
	username := mux.Vars(r)["username"]
	if err := b.userDelete(username); err != nil {
		writeModelError(w, r, err)
		return
	}
	b.notify("user", core.OperationDelete, map[string]string{"username": username})
	writeJSON(w, http.StatusOK, map[string]interface{}{"deleted": username})
}

func (b *Backend) userApplyHandler(w http.ResponseWriter, r *http.Request) {
	username := mux.Vars(r)["username"]
	id, err := jobID(r)
	if err == nil {
		err = b.userApply(username, id)
	}
	if err != nil {
		writeModelError(w, r, err)
		return
	}
	b.notify("application", core.OperationApply, map[string]interface{}{"username": username, "jobId": id})
	writeJSON(w, http.StatusCreated, map[string]interface{}{"applied": id})
}
