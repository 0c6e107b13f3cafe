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

// Job is a job opening at a company
type Job struct {
	ID            int      `json:"id"`
	Title         string   `json:"title"`
	Salary        *int     `json:"salary"`
	Equity        *float64 `json:"equity"`
	CompanyHandle string   `json:"companyHandle"`
}

// JobUpdate is a sparse update, nil fields stay unchanged. The id and
// the company handle of a job cannot be changed.
type JobUpdate struct {
	Title  *string  `json:"title"`
	Salary *int     `json:"salary"`
	Equity *float64 `json:"equity"`
}

// all job update fields translate to their own name, the translation
// table stays empty
var jobTranslation = map[string]string{}

func (u JobUpdate) updates() *csql.Updates {
	updates := &csql.Updates{}
	if u.Title != nil {
		updates.Set("title", *u.Title)
	}
	if u.Salary != nil {
		updates.Set("salary", *u.Salary)
	}
	if u.Equity != nil {
		updates.Set("equity", *u.Equity)
	}
	return updates
}

const jobColumns = `id, title, salary, equity, company_handle`

func scanJob(row scanner) (Job, error) {
	var j Job
	err := row.Scan(&j.ID, &j.Title, &j.Salary, &j.Equity, &j.CompanyHandle)
	return j, err
}

func (b *Backend) jobInsert(j Job) (Job, error) {
	query := fmt.Sprintf(`INSERT INTO %s.jobs (title, salary, equity, company_handle)
VALUES ($1, $2, $3, $4) RETURNING `+jobColumns+`;`, b.db.Schema)
	created, err := scanJob(b.db.QueryRow(query, j.Title, j.Salary, j.Equity, j.CompanyHandle))
	if err != nil {
		return Job{}, translateDBError(err)
	}
	return created, nil
}

func (b *Backend) jobList(filter csql.Filter) ([]Job, error) {
	conditions, params := filter.Clause(0)
	query := fmt.Sprintf(`SELECT `+jobColumns+` FROM %s.jobs`, b.db.Schema)
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY id;"

	rows, err := b.db.Query(query, params...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	jobs := []Job{}
	for rows.Next() {
		j, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, j)
	}
	return jobs, rows.Err()
}

func (b *Backend) jobListForCompany(handle string) ([]Job, error) {
	query := fmt.Sprintf(`SELECT `+jobColumns+` FROM %s.jobs WHERE company_handle = $1 ORDER BY id;`, b.db.Schema)
	rows, err := b.db.Query(query, handle)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	jobs := []Job{}
	for rows.Next() {
		j, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, j)
	}
	return jobs, rows.Err()
}

func (b *Backend) jobGet(id int) (Job, error) {
	query := fmt.Sprintf(`SELECT `+jobColumns+` FROM %s.jobs WHERE id = $1;`, b.db.Schema)
	return scanJob(b.db.QueryRow(query, id))
}

func (b *Backend) jobUpdate(id int, u JobUpdate) (Job, error) {
	clauses, params, err := csql.UpdateClause(u.updates(), jobTranslation)
	if err != nil {
		return Job{}, err
	}
	query := fmt.Sprintf(`UPDATE %s.jobs SET `, b.db.Schema) +
		strings.Join(clauses, ",") +
		` WHERE id = $` + strconv.Itoa(len(params)+1) +
		` RETURNING ` + jobColumns + `;`
	params = append(params, id)
	j, err := scanJob(b.db.QueryRow(query, params...))
	if err != nil {
		return Job{}, translateDBError(err)
	}
	return j, nil
}

func (b *Backend) jobDelete(id int) error {
	query := fmt.Sprintf(`DELETE FROM %s.jobs WHERE id = $1 RETURNING id;`, b.db.Schema)
	var deleted int
	return b.db.QueryRow(query, id).Scan(&deleted)
}

func (b *Backend) handleJobRoutes(router *mux.Router) {
	rlog := logger.Default()
	rlog.Infoln("job")
	rlog.Infoln("  handle routes: /jobs GET, POST")
	rlog.Infoln("  handle routes: /jobs/{id} GET, PATCH, DELETE")

	router.HandleFunc("/jobs", access.Guarded("", b.jobCreateHandler, access.Admin)).Methods(http.MethodPost)
	router.HandleFunc("/jobs", b.jobListHandler).Methods(http.MethodGet)
	router.HandleFunc("/jobs/{id}", b.jobGetHandler).Methods(http.MethodGet)
	router.HandleFunc("/jobs/{id}", access.Guarded("", b.jobUpdateHandler, access.Admin)).Methods(http.MethodPatch)
	router.HandleFunc("/jobs/{id}", access.Guarded("", b.jobDeleteHandler, access.Admin)).Methods(http.MethodDelete)
}

// jobID extracts the numeric job id from the route. A non-numeric id
// cannot reference any job, hence errNotFound.
func jobID(r *http.Request) (int, error) {
	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		return 0, errNotFound
	}
	return id, nil
}

func (b *Backend) jobCreateHandler(w http.ResponseWriter, r *http.Request) {
	var job Job
	if err := b.decodeBody(r, schemaJobNew, &job); err != nil {
		writeModelError(w, r, err)
		return
	}
	created, err := b.jobInsert(job)
	if err != nil {
		writeModelError(w, r, err)
		return
	}
	b.notify("job", core.OperationCreate, created)
	writeJSON(w, http.StatusCreated, map[string]interface{}{"job": created})
}

func (b *Backend) jobListHandler(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := csql.Filter{
		Contains:       q.Get("title"),
		ContainsColumn: "title",
		MinimumColumn:  "salary",
		// only the literal string "true" activates the equity criterion
		Positive:       q.Get("hasEquity"),
		PositiveColumn: "equity",
	}
	var err error
	if filter.Minimum, err = intParameter(q, "minSalary"); err != nil {
		writeModelError(w, r, err)
		return
	}

	jobs, err := b.jobList(filter)
	if err != nil {
		writeModelError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"jobs": jobs})
}

func (b *Backend) jobGetHandler(w http.ResponseWriter, r *http.Request) {
	id, err := jobID(r)
	if err == nil {
		var job Job
		if job, err = b.jobGet(id); err == nil {
			writeJSON(w, http.StatusOK, map[string]interface{}{"job": job})
			return
		}
	}
	writeModelError(w, r, err)
}

func (b *Backend) jobUpdateHandler(w http.ResponseWriter, r *http.Request) {
	id, err := jobID(r)
	if err != nil {
		writeModelError(w, r, err)
		return
	}
	var update JobUpdate
	if err := b.decodeBody(r, schemaJobUpdate, &update); err != nil {
		writeModelError(w, r, err)
		return
	}
	job, err := b.jobUpdate(id, update)
	if err != nil {
		writeModelError(w, r, err)
		return
	}
	b.notify("job", core.OperationUpdate, job)
	writeJSON(w, http.StatusOK, map[string]interface{}{"job": job})
}

func (b *Backend) jobDeleteHandler(w http.ResponseWriter, r *http.Request) {
	id, err := jobID(r)
	if err == nil {
		err = b.jobDelete(id)
	}
	if err != nil {
		writeModelError(w, r, err)
		return
	}
	b.notify("job", core.OperationDelete, map[string]int{"id": id})
	writeJSON(w, http.StatusOK, map[string]interface{}{"deleted": id})
}
