// Package crudtest provides an in-memory CRUD service for tests, with call
// counters and per-route failure injection.
package crudtest

import (
	"encoding/xml"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sort"
	"strconv"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/fortressi/orgmanager/internal/crud"
)

// Routes as counted by Calls and targeted by Fail.
const (
	RouteGetOrganization      = "GET /organizations/:id"
	RouteUpdateOrganization   = "PUT /organizations/:id"
	RouteDeleteOrganization   = "DELETE /organizations/:id"
	RouteRecreateOrganization = "POST /organizations/compensate"
	RouteGetEmployees         = "GET /organizations/:id/employees"
	RouteBatchUpdate          = "POST /employees/batch/update"
	RouteBatchDelete          = "POST /employees/batch/delete"
	RouteBatchCreate          = "POST /employees/batch/create"
)

type employee struct {
	id     int64
	name   string
	salary int64
	orgID  int64
}

type failure struct {
	nth    int
	status int
	// lose applies the request but drops the connection instead of answering.
	lose bool
}

// Server is a fake CRUD service listening on a local httptest server.
type Server struct {
	*httptest.Server

	mu        sync.Mutex
	orgs      map[int64]crud.Organization
	employees map[int64]employee
	nextEmpID int64
	calls     map[string]int
	failures  map[string]failure
	keptAlive bool
}

// NewServer starts a fake CRUD service that is closed when t finishes.
func NewServer(t testing.TB) *Server {
	t.Helper()
	gin.SetMode(gin.TestMode)

	s := &Server{
		orgs:      make(map[int64]crud.Organization),
		employees: make(map[int64]employee),
		nextEmpID: 1000,
		calls:     make(map[string]int),
		failures:  make(map[string]failure),
	}

	engine := gin.New()
	engine.Use(s.intercept)
	engine.GET("/organizations/:id", s.getOrganization)
	engine.PUT("/organizations/:id", s.updateOrganization)
	engine.DELETE("/organizations/:id", s.deleteOrganization)
	engine.POST("/organizations/compensate", s.recreateOrganization)
	engine.GET("/organizations/:id/employees", s.getEmployees)
	engine.POST("/employees/batch/update", s.batchUpdate)
	engine.POST("/employees/batch/delete", s.batchDelete)
	engine.POST("/employees/batch/create", s.batchCreate)

	s.Server = httptest.NewServer(engine)
	t.Cleanup(s.Close)
	return s
}

// Config returns a client configuration pointing at the fake without read
// retries.
func (s *Server) Config() crud.Config {
	return crud.Config{BaseURL: s.URL}
}

// AddOrganization stores org as is.
func (s *Server) AddOrganization(org crud.Organization) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.orgs[org.ID] = normalize(org)
}

// AddEmployee creates an employee of organization orgID and returns its id.
func (s *Server) AddEmployee(orgID int64, name string, salary int64) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.insertEmployee(orgID, name, salary)
}

// Organization returns the stored organization id.
func (s *Server) Organization(id int64) (crud.Organization, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	org, ok := s.orgs[id]
	return org, ok
}

// Employees returns the employees of organization orgID ordered by id.
func (s *Server) Employees(orgID int64) []crud.Employee {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.employeesOf(orgID)
}

// Fail makes the nth call (1-based) to route answer with status. An nth of 0
// fails every call.
func (s *Server) Fail(route string, nth, status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[route] = failure{nth: nth, status: status}
}

// Disconnect makes the nth call to route drop the connection without an
// answer.
func (s *Server) Disconnect(route string, nth int) {
	s.Fail(route, nth, 0)
}

// LoseResponse makes the nth call to route take effect and then drop the
// connection, as if the answer was lost in transit.
func (s *Server) LoseResponse(route string, nth int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[route] = failure{nth: nth, lose: true}
}

// Calls returns how many requests route has received.
func (s *Server) Calls(route string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[route]
}

// TotalCalls returns the number of requests received on any route.
func (s *Server) TotalCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	total := 0
	for _, n := range s.calls {
		total += n
	}
	return total
}

// ClosedConnections reports whether every request asked for its connection
// to be closed.
func (s *Server) ClosedConnections() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return !s.keptAlive
}

func (s *Server) intercept(c *gin.Context) {
	route := c.Request.Method + " " + c.FullPath()

	s.mu.Lock()
	s.calls[route]++
	n := s.calls[route]
	f, failing := s.failures[route]
	if !c.Request.Close {
		s.keptAlive = true
	}
	s.mu.Unlock()

	if !failing || (f.nth != 0 && f.nth != n) {
		c.Next()
		return
	}

	if f.lose {
		w := c.Writer
		c.Writer = &discardWriter{ResponseWriter: w, header: make(http.Header)}
		c.Next()
		c.Writer = w
		hangUp(c)
		return
	}
	if f.status == 0 {
		hangUp(c)
		return
	}
	c.XML(f.status, crud.AppError{Code: f.status, Message: fmt.Sprintf("injected failure on %s", route)})
	c.Abort()
}

func hangUp(c *gin.Context) {
	conn, _, err := c.Writer.Hijack()
	if err == nil {
		_ = conn.Close()
	}
	c.Abort()
}

// discardWriter swallows the handler's answer so the connection can be
// dropped afterwards.
type discardWriter struct {
	gin.ResponseWriter
	header http.Header
}

func (w *discardWriter) Header() http.Header { return w.header }
func (w *discardWriter) WriteHeader(int) {}
func (w *discardWriter) WriteHeaderNow() {}
func (w *discardWriter) Write(b []byte) (int, error) { return len(b), nil }
func (w *discardWriter) WriteString(s string) (int, error) { return len(s), nil }

func (s *Server) getOrganization(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	s.mu.Lock()
	org, found := s.orgs[id]
	s.mu.Unlock()
	if !found {
		notFound(c, "organization", id)
		return
	}
	c.XML(http.StatusOK, org)
}

func (s *Server) updateOrganization(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req crud.OrganizationRequest
	if !bind(c, &req) {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	org, found := s.orgs[id]
	if !found {
		notFound(c, "organization", id)
		return
	}
	org.Name = req.Name
	org.Coordinates = req.Coordinates
	org.AnnualTurnover = req.AnnualTurnover
	org.FullName = req.FullName
	org.Type = req.Type
	org.OfficialAddress = req.OfficialAddress
	s.orgs[id] = org
	c.XML(http.StatusOK, org)
}

func (s *Server) deleteOrganization(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, found := s.orgs[id]; !found {
		notFound(c, "organization", id)
		return
	}
	delete(s.orgs, id)
	for empID, e := range s.employees {
		if e.orgID == id {
			delete(s.employees, empID)
		}
	}
	c.Status(http.StatusOK)
}

func (s *Server) recreateOrganization(c *gin.Context) {
	var org crud.Organization
	if !bind(c, &org) {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, found := s.orgs[org.ID]; found {
		c.XML(http.StatusConflict, crud.AppError{
			Code:    http.StatusConflict,
			Message: fmt.Sprintf("organization %d already exists", org.ID),
		})
		return
	}
	org = normalize(org)
	s.orgs[org.ID] = org
	c.XML(http.StatusOK, org)
}

func (s *Server) getEmployees(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, found := s.orgs[id]; !found {
		notFound(c, "organization", id)
		return
	}
	c.XML(http.StatusOK, crud.EmployeeList{Employees: s.employeesOf(id)})
}

func (s *Server) batchUpdate(c *gin.Context) {
	var req crud.EmployeeSpecList
	if !bind(c, &req) {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, spec := range req.Employees {
		if _, found := s.employees[spec.ID]; !found {
			notFound(c, "employee", spec.ID)
			return
		}
		if _, found := s.orgs[spec.OrganizationID]; !found {
			notFound(c, "organization", spec.OrganizationID)
			return
		}
	}

	updated := make([]crud.Employee, 0, len(req.Employees))
	for _, spec := range req.Employees {
		e := employee{id: spec.ID, name: spec.Name, salary: spec.Salary, orgID: spec.OrganizationID}
		s.employees[e.id] = e
		updated = append(updated, s.render(e))
	}
	c.XML(http.StatusOK, crud.EmployeeList{Employees: updated})
}

func (s *Server) batchDelete(c *gin.Context) {
	var req crud.IDList
	if !bind(c, &req) {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range req.IDs {
		delete(s.employees, id)
	}
	c.Status(http.StatusOK)
}

func (s *Server) batchCreate(c *gin.Context) {
	var req crud.EmployeeSpecList
	if !bind(c, &req) {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, spec := range req.Employees {
		if _, found := s.orgs[spec.OrganizationID]; !found {
			notFound(c, "organization", spec.OrganizationID)
			return
		}
	}

	created := make([]crud.Employee, 0, len(req.Employees))
	for _, spec := range req.Employees {
		id := s.insertEmployee(spec.OrganizationID, spec.Name, spec.Salary)
		created = append(created, s.render(s.employees[id]))
	}
	c.XML(http.StatusOK, crud.EmployeeList{Employees: created})
}

// Callers must hold s.mu.
func (s *Server) insertEmployee(orgID int64, name string, salary int64) int64 {
	s.nextEmpID++
	s.employees[s.nextEmpID] = employee{id: s.nextEmpID, name: name, salary: salary, orgID: orgID}
	return s.nextEmpID
}

// Callers must hold s.mu.
func (s *Server) employeesOf(orgID int64) []crud.Employee {
	var list []crud.Employee
	for _, e := range s.employees {
		if e.orgID == orgID {
			list = append(list, s.render(e))
		}
	}
	sort.Slice(list, func(i, j int) bool { return list[i].ID < list[j].ID })
	return list
}

// Callers must hold s.mu.
func (s *Server) render(e employee) crud.Employee {
	out := crud.Employee{ID: e.id, Name: e.name, Salary: e.salary}
	if org, ok := s.orgs[e.orgID]; ok {
		out.Organization = &org
	}
	return out
}

// normalize sets XMLName the way a decoded organization carries it, so stored
// and decoded snapshots compare equal.
func normalize(org crud.Organization) crud.Organization {
	org.XMLName = xml.Name{Local: "organization"}
	return org
}

func pathID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.XML(http.StatusBadRequest, crud.AppError{Code: http.StatusBadRequest, Message: err.Error()})
		return 0, false
	}
	return id, true
}

func bind(c *gin.Context, v any) bool {
	if err := xml.NewDecoder(c.Request.Body).Decode(v); err != nil {
		c.XML(http.StatusBadRequest, crud.AppError{Code: http.StatusBadRequest, Message: err.Error()})
		return false
	}
	return true
}

func notFound(c *gin.Context, kind string, id int64) {
	c.XML(http.StatusNotFound, crud.AppError{
		Code:    http.StatusNotFound,
		Message: fmt.Sprintf("%s %d not found", kind, id),
	})
}
