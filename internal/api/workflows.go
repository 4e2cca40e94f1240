package api

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"procureflow/backend/internal/engine"
	"procureflow/backend/internal/services"
	"procureflow/backend/pkg/models"
)

// Server holds the dependencies for the API server.
type Server struct {
	Workflows *services.WorkflowService
}

// NewServer creates a new Server.
func NewServer(workflows *services.WorkflowService) *Server {
	return &Server{Workflows: workflows}
}

// RegisterRoutes mounts the workflow routes on the group.
func (s *Server) RegisterRoutes(g *echo.Group) {
	g.GET("/workflows", s.ListWorkflows)
	g.POST("/workflows", s.CreateWorkflow)
	g.GET("/workflows/:id", s.GetWorkflow)
	g.PUT("/workflows/:id", s.UpdateWorkflow)
	g.DELETE("/workflows/:id", s.DeleteWorkflow)
	g.POST("/workflows/:id/publish", s.PublishWorkflow)
	g.POST("/workflows/:id/clone", s.CloneWorkflow)
	g.POST("/workflows/:id/test", s.TestWorkflow)
	g.POST("/workflows/match", s.MatchWorkflow)
}

// ListWorkflows returns all of the tenant's workflows, drafts included
// (GET /api/v1/workflows)
func (s *Server) ListWorkflows(c echo.Context) error {
	tenant, err := tenantID(c)
	if err != nil {
		return err
	}

	workflows, err := s.Workflows.List(c.Request().Context(), tenant)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, workflows)
}

type createWorkflowRequest struct {
	CreatedBy string `json:"created_by"`
	services.CreateParams
}

// CreateWorkflow creates a new draft workflow
// (POST /api/v1/workflows)
func (s *Server) CreateWorkflow(c echo.Context) error {
	tenant, err := tenantID(c)
	if err != nil {
		return err
	}

	var req createWorkflowRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body: "+err.Error())
	}

	wf, err := s.Workflows.Create(c.Request().Context(), tenant, req.CreatedBy, req.CreateParams)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusCreated, wf)
}

// GetWorkflow returns a single workflow
// (GET /api/v1/workflows/:id)
func (s *Server) GetWorkflow(c echo.Context) error {
	tenant, err := tenantID(c)
	if err != nil {
		return err
	}

	wf, err := s.Workflows.Get(c.Request().Context(), tenant, c.Param("id"))
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, wf)
}

// UpdateWorkflow merges the supplied fields over an existing workflow
// (PUT /api/v1/workflows/:id)
func (s *Server) UpdateWorkflow(c echo.Context) error {
	tenant, err := tenantID(c)
	if err != nil {
		return err
	}

	var params services.UpdateParams
	if err := c.Bind(&params); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body: "+err.Error())
	}

	wf, err := s.Workflows.Update(c.Request().Context(), tenant, c.Param("id"), params)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, wf)
}

// DeleteWorkflow removes a workflow that no requisition references
// (DELETE /api/v1/workflows/:id)
func (s *Server) DeleteWorkflow(c echo.Context) error {
	tenant, err := tenantID(c)
	if err != nil {
		return err
	}

	if err := s.Workflows.Delete(c.Request().Context(), tenant, c.Param("id")); err != nil {
		return httpError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

// PublishWorkflow promotes a draft to active
// (POST /api/v1/workflows/:id/publish)
func (s *Server) PublishWorkflow(c echo.Context) error {
	tenant, err := tenantID(c)
	if err != nil {
		return err
	}

	wf, err := s.Workflows.Publish(c.Request().Context(), tenant, c.Param("id"))
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, wf)
}

type cloneWorkflowRequest struct {
	CreatedBy string `json:"created_by"`
}

// CloneWorkflow duplicates a workflow as a fresh draft
// (POST /api/v1/workflows/:id/clone)
func (s *Server) CloneWorkflow(c echo.Context) error {
	tenant, err := tenantID(c)
	if err != nil {
		return err
	}

	var req cloneWorkflowRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body: "+err.Error())
	}

	wf, err := s.Workflows.Clone(c.Request().Context(), tenant, c.Param("id"), req.CreatedBy)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusCreated, wf)
}

// TestWorkflow dry-runs a workflow against a subject and returns the
// computed approval path
// (POST /api/v1/workflows/:id/test)
func (s *Server) TestWorkflow(c echo.Context) error {
	tenant, err := tenantID(c)
	if err != nil {
		return err
	}

	var subject models.Subject
	if err := c.Bind(&subject); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body: "+err.Error())
	}

	result, err := s.Workflows.ComputePath(c.Request().Context(), tenant, c.Param("id"), &subject)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, result)
}

// MatchWorkflow selects the applicable workflow for a subject. Responds 404
// when no workflow applies, which callers treat as a normal outcome.
// (POST /api/v1/workflows/match)
func (s *Server) MatchWorkflow(c echo.Context) error {
	tenant, err := tenantID(c)
	if err != nil {
		return err
	}

	var subject models.Subject
	if err := c.Bind(&subject); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body: "+err.Error())
	}

	wf, err := s.Workflows.FindApplicable(c.Request().Context(), tenant, &subject)
	if err != nil {
		return httpError(err)
	}
	if wf == nil {
		return echo.NewHTTPError(http.StatusNotFound, "No applicable workflow")
	}
	return c.JSON(http.StatusOK, wf)
}

// httpError maps engine error kinds onto HTTP statuses.
func httpError(err error) error {
	switch {
	case engine.IsNotFound(err):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case engine.IsValidation(err):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case engine.IsConflict(err):
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	case engine.IsMaxStepsExceeded(err):
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	}
	return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
}
