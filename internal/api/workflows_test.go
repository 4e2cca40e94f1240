package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"procureflow/backend/internal/logging"
	"procureflow/backend/internal/repository"
	"procureflow/backend/internal/services"
	"procureflow/backend/pkg/models"
)

func newTestAPI() (*echo.Echo, *services.WorkflowService) {
	svc := services.NewWorkflowService(
		repository.NewMemoryWorkflowStore(),
		repository.NewMemoryRequisitionStore(),
		logging.NewLogger(),
	)

	e := echo.New()
	g := e.Group("/api/v1")
	g.Use(TenantMiddleware)
	NewServer(svc).RegisterRoutes(g)
	return e, svc
}

func doJSON(e *echo.Echo, method, path, tenant, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if tenant != "" {
		req.Header.Set(TenantHeader, tenant)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestCreateWorkflowEndpoint(t *testing.T) {
	e, _ := newTestAPI()

	rec := doJSON(e, http.MethodPost, "/api/v1/workflows", "tenant-1",
		`{"created_by":"user-1","name":"Purchasing"}`)

	require.Equal(t, http.StatusCreated, rec.Code)
	var wf models.Workflow
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &wf))
	assert.Equal(t, "tenant-1", wf.TenantID)
	assert.True(t, wf.IsDraft)
	assert.Len(t, wf.Nodes, 2)
}

func TestCreateWorkflowRequiresTenantHeader(t *testing.T) {
	e, _ := newTestAPI()

	rec := doJSON(e, http.MethodPost, "/api/v1/workflows", "",
		`{"created_by":"user-1","name":"Purchasing"}`)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestCreateWorkflowValidationMapsTo400(t *testing.T) {
	e, _ := newTestAPI()

	rec := doJSON(e, http.MethodPost, "/api/v1/workflows", "tenant-1",
		`{"created_by":"user-1"}`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "name is required")
}

func TestPublishAndTestWorkflowEndpoints(t *testing.T) {
	e, svc := newTestAPI()
	ctx := context.Background()

	wf, err := svc.Create(ctx, "tenant-1", "user-1", services.CreateParams{
		Name:       "Catch all",
		ApplyToAll: true,
		SLAHours:   24,
	})
	require.NoError(t, err)

	rec := doJSON(e, http.MethodPost, "/api/v1/workflows/"+wf.ID+"/publish", "tenant-1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var published models.Workflow
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &published))
	assert.Equal(t, "1.1", published.Version)

	rec = doJSON(e, http.MethodPost, "/api/v1/workflows/"+wf.ID+"/test", "tenant-1",
		`{"cost": 1200, "category": "it-hardware"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	var result models.PathResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.True(t, result.Applies)
	assert.Equal(t, 24, result.SLAHours)

	rec = doJSON(e, http.MethodPost, "/api/v1/workflows/match", "tenant-1",
		`{"cost": 1200, "category": "it-hardware"}`)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestGetWorkflowNotFound(t *testing.T) {
	e, _ := newTestAPI()

	rec := doJSON(e, http.MethodGet, "/api/v1/workflows/ghost", "tenant-1", "")

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestMatchWithoutApplicableWorkflow(t *testing.T) {
	e, _ := newTestAPI()

	rec := doJSON(e, http.MethodPost, "/api/v1/workflows/match", "tenant-1",
		`{"cost": 50, "category": "catering"}`)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}
