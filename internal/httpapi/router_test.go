package httpapi

import (
	"context"
	"encoding/xml"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fortressi/orgmanager/internal/crud"
	"github.com/fortressi/orgmanager/internal/crud/crudtest"
	"github.com/fortressi/orgmanager/internal/gateway"
)

type fakeOps struct {
	acquireCalls []int64
	fireCalls    []int64
	err          error
}

func (f *fakeOps) Acquire(_ context.Context, acquirerID, acquiredID int64) (*gateway.Acquiring, error) {
	f.acquireCalls = append(f.acquireCalls, acquirerID, acquiredID)
	if f.err != nil {
		return nil, f.err
	}
	return &gateway.Acquiring{
		AcquirerOrganization:   crud.Organization{ID: acquirerID, Name: "A", AnnualTurnover: 150},
		AcquiredOrganization:   crud.Organization{ID: acquiredID, Name: "B", AnnualTurnover: 50},
		NumberOfEmployeesMoved: 2,
	}, nil
}

func (f *fakeOps) FireAll(_ context.Context, orgID int64) (*gateway.FireResponse, error) {
	f.fireCalls = append(f.fireCalls, orgID)
	if f.err != nil {
		return nil, f.err
	}
	return &gateway.FireResponse{EmployeeCount: 4}, nil
}

func serve(t *testing.T, router http.Handler, method, path string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(method, path, nil))
	return rec
}

func decodeAppError(t *testing.T, rec *httptest.ResponseRecorder) crud.AppError {
	t.Helper()
	var appErr crud.AppError
	require.NoError(t, xml.Unmarshal(rec.Body.Bytes(), &appErr))
	return appErr
}

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	m.Run()
}

func TestAcquireRoute(t *testing.T) {
	ops := &fakeOps{}
	router := NewRouter(Config{}, ops, zerolog.Nop())

	rec := serve(t, router, http.MethodPost, "/orgmanager/api/v1/acquire/1/2")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "application/xml")
	assert.Equal(t, []int64{1, 2}, ops.acquireCalls)
	assert.Contains(t, rec.Body.String(), "<acquiring><acquirerOrganization><id>1</id>")
	assert.Contains(t, rec.Body.String(), "<numberOfEmployeesMoved>2</numberOfEmployeesMoved></acquiring>")
}

func TestFireRoute(t *testing.T) {
	ops := &fakeOps{}
	router := NewRouter(Config{BasePath: "/api"}, ops, zerolog.Nop())

	rec := serve(t, router, http.MethodPost, "/api/fire/all/9")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "<employeeCount>4</employeeCount>", rec.Body.String())
	assert.Equal(t, []int64{9}, ops.fireCalls)
}

func TestBadPathParameters(t *testing.T) {
	tests := []struct {
		name string
		path string
	}{
		{name: "not a number", path: "/orgmanager/api/v1/acquire/x/2"},
		{name: "zero id", path: "/orgmanager/api/v1/acquire/1/0"},
		{name: "negative id", path: "/orgmanager/api/v1/fire/all/-3"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ops := &fakeOps{}
			rec := serve(t, NewRouter(Config{}, ops, zerolog.Nop()), http.MethodPost, tt.path)

			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Equal(t, http.StatusBadRequest, decodeAppError(t, rec).Code)
			assert.Empty(t, ops.acquireCalls)
			assert.Empty(t, ops.fireCalls)
		})
	}
}

func TestErrorMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantMsg    string
	}{
		{
			name:       "validation",
			err:        &gateway.ValidationError{Message: "Organization can not acquire itself"},
			wantStatus: http.StatusBadRequest,
			wantMsg:    "Organization can not acquire itself",
		},
		{
			name: "saga failure",
			err: &gateway.ServiceError{
				Action:   "Acquiring",
				Category: gateway.CategoryAPI,
				Err:      &crud.APIError{Op: "DELETE /organizations/2", StatusCode: 500, Body: "boom"},
			},
			wantStatus: http.StatusInternalServerError,
			wantMsg:    "Exception due to API communication error:\nAcquiring failed",
		},
		{
			name:       "unexpected",
			err:        errors.New("surprise"),
			wantStatus: http.StatusInternalServerError,
			wantMsg:    "surprise",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := NewRouter(Config{}, &fakeOps{err: tt.err}, zerolog.Nop())
			rec := serve(t, router, http.MethodPost, "/orgmanager/api/v1/acquire/1/2")

			assert.Equal(t, tt.wantStatus, rec.Code)
			appErr := decodeAppError(t, rec)
			assert.Equal(t, tt.wantStatus, appErr.Code)
			assert.Contains(t, appErr.Message, tt.wantMsg)
		})
	}
}

func TestHealthAndCORS(t *testing.T) {
	router := NewRouter(Config{CORSOrigins: []string{"http://localhost:5173"}}, &fakeOps{}, zerolog.Nop())

	rec := serve(t, router, http.MethodGet, "/healthz")
	assert.Equal(t, http.StatusOK, rec.Code)

	req := httptest.NewRequest(http.MethodOptions, "/orgmanager/api/v1/fire/all/1", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "http://localhost:5173", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestEndToEnd(t *testing.T) {
	srv := crudtest.NewServer(t)
	srv.AddOrganization(crud.Organization{ID: 1, Name: "A", AnnualTurnover: 100, Type: crud.Government})
	srv.AddOrganization(crud.Organization{ID: 2, Name: "B", AnnualTurnover: 50, Type: crud.Commercial})
	srv.AddEmployee(2, "e1", 10)

	service, err := gateway.NewService(crud.NewClient(srv.Config()), zerolog.Nop())
	require.NoError(t, err)
	router := NewRouter(Config{}, service, zerolog.Nop())

	rec := serve(t, router, http.MethodPost, "/orgmanager/api/v1/acquire/2/2")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Zero(t, srv.TotalCalls())

	rec = serve(t, router, http.MethodPost, "/orgmanager/api/v1/acquire/1/2")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), "<annualTurnover>150</annualTurnover>")
	assert.Contains(t, rec.Body.String(), "<numberOfEmployeesMoved>1</numberOfEmployeesMoved>")

	rec = serve(t, router, http.MethodPost, "/orgmanager/api/v1/fire/all/1")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "<employeeCount>1</employeeCount>", rec.Body.String())

	rec = serve(t, router, http.MethodPost, "/orgmanager/api/v1/fire/all/2")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, decodeAppError(t, rec).Message, "Exception due to API communication error")
}
