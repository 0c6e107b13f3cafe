package backend

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"

	"github.com/openhire/openhire/core"
	"github.com/openhire/openhire/core/access"
	"github.com/openhire/openhire/core/csql"
	"github.com/openhire/openhire/core/logger"
)

// Company is a company offering jobs
type Company struct {
	Handle       string  `json:"handle"`
	Name         string  `json:"name"`
	Description  string  `json:"description"`
	NumEmployees *int    `json:"numEmployees"`
	LogoURL      *string `json:"logoUrl"`
	// Jobs is only included in single-company responses
	Jobs []Job `json:"jobs,omitempty"`
}

// CompanyUpdate is a sparse update, nil fields stay unchanged
type CompanyUpdate struct {
	Name         *string `json:"name"`
	Description  *string `json:"description"`
	NumEmployees *int    `json:"numEmployees"`
	LogoURL      *string `json:"logoUrl"`
}

// companyTranslation maps the JSON field names to storage column
// names. Untranslated fields use their own name as column name.
var companyTranslation = map[string]string{
	"numEmployees": "num_employees",
	"logoUrl":      "logo_url",
}

func (u CompanyUpdate) updates() *csql.Updates {
	updates := &csql.Updates{}
	if u.Name != nil {
		updates.Set("name", *u.Name)
	}
	if u.Description != nil {
		updates.Set("description", *u.Description)
	}
	if u.NumEmployees != nil {
		updates.Set("numEmployees", *u.NumEmployees)
	}
	if u.LogoURL != nil {
		updates.Set("logoUrl", *u.LogoURL)
	}
	return updates
}

const companyColumns = `handle, name, description, num_employees, logo_url`

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanCompany(row scanner) (Company, error) {
	var c Company
	err := row.Scan(&c.Handle, &c.Name, &c.Description, &c.NumEmployees, &c.LogoURL)
	return c, err
}

func (b *Backend) companyInsert(c Company) (Company, error) {
	query := fmt.Sprintf(`INSERT INTO %s.companies (handle, name, description, num_employees, logo_url)
VALUES ($1, $2, $3, $4, $5) RETURNING `+companyColumns+`;`, b.db.Schema)
	created, err := scanCompany(b.db.QueryRow(query, c.Handle, c.Name, c.Description, c.NumEmployees, c.LogoURL))
	if err != nil {
		return Company{}, translateDBError(err)
	}
	return created, nil
}

func (b *Backend) companyList(filter csql.Filter) ([]Company, error) {
	conditions, params := filter.Clause(0)
	query := fmt.Sprintf(`SELECT `+companyColumns+` FROM %s.companies`, b.db.Schema)
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY name;"

	rows, err := b.db.Query(query, params...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	companies := []Company{}
	for rows.Next() {
		c, err := scanCompany(rows)
		if err != nil {
			return nil, err
		}
		companies = append(companies, c)
	}
	return companies, rows.Err()
}

func (b *Backend) companyGet(handle string) (Company, error) {
	query := fmt.Sprintf(`SELECT `+companyColumns+` FROM %s.companies WHERE handle = $1;`, b.db.Schema)
	c, err := scanCompany(b.db.QueryRow(query, handle))
	if err != nil {
		return Company{}, err
	}
	jobs, err := b.jobListForCompany(handle)
	if err != nil {
		return Company{}, err
	}
	c.Jobs = jobs
	return c, nil
}

func (b *Backend) companyUpdate(handle string, u CompanyUpdate) (Company, error) {
	clauses, params, err := csql.UpdateClause(u.updates(), companyTranslation)
	if err != nil {
		return Company{}, err
	}
	query := fmt.Sprintf(`UPDATE %s.companies SET `, b.db.Schema) +
		strings.Join(clauses, ",") +
		` WHERE handle = $` + strconv.Itoa(len(params)+1) +
		` RETURNING ` + companyColumns + `;`
	params = append(params, handle)
	c, err := scanCompany(b.db.QueryRow(query, params...))
	if err != nil {
		return Company{}, translateDBError(err)
	}
	return c, nil
}

func (b *Backend) companyDelete(handle string) error {
	query := fmt.Sprintf(`DELETE FROM %s.companies WHERE handle = $1 RETURNING handle;`, b.db.Schema)
	var deleted string
	return b.db.QueryRow(query, handle).Scan(&deleted)
}

func (b *Backend) handleCompanyRoutes(router *mux.Router) {
	rlog := logger.Default()
	rlog.Infoln("company")
	rlog.Infoln("  handle routes: /companies GET, POST")
	rlog.Infoln("  handle routes: /companies/{handle} GET, PATCH, DELETE")

	router.HandleFunc("/companies", access.Guarded("", b.companyCreateHandler, access.Admin)).Methods(http.MethodPost)
	router.HandleFunc("/companies", b.companyListHandler).Methods(http.MethodGet)
	router.HandleFunc("/companies/{handle}", b.companyGetHandler).Methods(http.MethodGet)
	router.HandleFunc("/companies/{handle}", access.Guarded("", b.companyUpdateHandler, access.Admin)).Methods(http.MethodPatch)
	router.HandleFunc("/companies/{handle}", access.Guarded("", b.companyDeleteHandler, access.Admin)).Methods(http.MethodDelete)
}

func (b *Backend) companyCreateHandler(w http.ResponseWriter, r *http.Request) {
	var company Company
	if err := b.decodeBody(r, schemaCompanyNew, &company); err != nil {
		writeModelError(w, r, err)
		return
	}
	created, err := b.companyInsert(company)
	if err != nil {
		writeModelError(w, r, err)
		return
	}
	b.notify("company", core.OperationCreate, created)
	writeJSON(w, http.StatusCreated, map[string]interface{}{"company": created})
}

func (b *Backend) companyListHandler(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := csql.Filter{
		Contains:       q.Get("name"),
		ContainsColumn: "name",
		MinimumColumn:  "num_employees",
		MaximumColumn:  "num_employees",
	}
	var err error
	if filter.Minimum, err = intParameter(q, "minEmployees"); err != nil {
		writeModelError(w, r, err)
		return
	}
	if filter.Maximum, err = intParameter(q, "maxEmployees"); err != nil {
		writeModelError(w, r, err)
		return
	}
	if filter.Minimum != nil && filter.Maximum != nil && *filter.Minimum > *filter.Maximum {
		writeError(w, http.StatusBadRequest, "minEmployees cannot be greater than maxEmployees")
		return
	}

	companies, err := b.companyList(filter)
	if err != nil {
		writeModelError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"companies": companies})
}

func (b *Backend) companyGetHandler(w http.ResponseWriter, r *http.Request) {
	company, err := b.companyGet(mux.Vars(r)["handle"])
	if err != nil {
		writeModelError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"company": company})
}

func (b *Backend) companyUpdateHandler(w http.ResponseWriter, r *http.Request) {
	var update CompanyUpdate
	if err := b.decodeBody(r, schemaCompanyUpdate, &update); err != nil {
		writeModelError(w, r, err)
		return
	}
	company, err := b.companyUpdate(mux.Vars(r)["handle"], update)
	if err != nil {
		writeModelError(w, r, err)
		return
	}
	b.notify("company", core.OperationUpdate, company)
	writeJSON(w, http.StatusOK, map[string]interface{}{"company": company})
}

func (b *Backend) companyDeleteHandler(w http.ResponseWriter, r *http.Request) {
	handle := mux.Vars(r)["handle"]
	if err := b.companyDelete(handle); err != nil {
		writeModelError(w, r, err)
		return
	}
	b.notify("company", core.OperationDelete, map[string]string{"handle": handle})
	writeJSON(w, http.StatusOK, map[string]interface{}{"deleted": handle})
}
