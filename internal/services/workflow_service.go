// Package services contains the application services that sit between the
// transport surfaces and the workflow engine.
package services

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"

	"procureflow/backend/internal/engine"
	"procureflow/backend/internal/logging"
	"procureflow/backend/internal/repository"
	"procureflow/backend/pkg/models"
)

const defaultPriority = 5

// WorkflowService manages the lifecycle of workflow definitions and fronts
// the engine's matching and path computation for stored workflows.
type WorkflowService struct {
	store        repository.WorkflowStore
	requisitions repository.RequisitionStore
	logger       *logging.Logger

	matches   metric.Int64Counter
	publishes metric.Int64Counter
}

// NewWorkflowService creates a new WorkflowService.
func NewWorkflowService(store repository.WorkflowStore, requisitions repository.RequisitionStore, logger *logging.Logger) *WorkflowService {
	meter := otel.Meter("procureflow/workflow")
	matches, _ := meter.Int64Counter("workflow.matches",
		metric.WithDescription("Subjects matched to an applicable workflow"))
	publishes, _ := meter.Int64Counter("workflow.publishes",
		metric.WithDescription("Workflow definitions published"))

	return &WorkflowService{
		store:        store,
		requisitions: requisitions,
		logger:       logger,
		matches:      matches,
		publishes:    publishes,
	}
}

// CreateParams carries the caller-supplied fields for a new workflow.
type CreateParams struct {
	Name                string              `json:"name"`
	Description         string              `json:"description"`
	ApplyToAll          bool                `json:"apply_to_all"`
	Departments         []string            `json:"departments"`
	DepartmentCodes     []string            `json:"department_codes"`
	Categories          []string            `json:"categories"`
	MinAmount           float64             `json:"min_amount"`
	MaxAmount           *float64            `json:"max_amount"`
	TriggerConditions   []models.Condition  `json:"trigger_conditions"`
	Nodes               []models.Node       `json:"nodes"`
	Connections         []models.Connection `json:"connections"`
	SLAHours            int                 `json:"sla_hours"`
	AutoApproveBelow    *float64            `json:"auto_approve_below"`
	CFORequiredAbove    *float64            `json:"cfo_required_above"`
	RequiresLegalReview bool                `json:"requires_legal_review"`
	RequiresITReview    bool                `json:"requires_it_review"`
	AllowDelegation     bool                `json:"allow_delegation"`
	Priority            int                 `json:"priority"`
}

// UpdateParams is a partial patch over an existing workflow. Nil pointers
// and nil slices leave the stored value unchanged; IsActive is a pointer so
// an explicit deactivation is distinguishable from an omitted field.
type UpdateParams struct {
	Name                *string             `json:"name"`
	Description         *string             `json:"description"`
	ApplyToAll          *bool               `json:"apply_to_all"`
	Departments         []string            `json:"departments"`
	DepartmentCodes     []string            `json:"department_codes"`
	Categories          []string            `json:"categories"`
	MinAmount           *float64            `json:"min_amount"`
	MaxAmount           *float64            `json:"max_amount"`
	TriggerConditions   []models.Condition  `json:"trigger_conditions"`
	Nodes               []models.Node       `json:"nodes"`
	Connections         []models.Connection `json:"connections"`
	SLAHours            *int                `json:"sla_hours"`
	AutoApproveBelow    *float64            `json:"auto_approve_below"`
	CFORequiredAbove    *float64            `json:"cfo_required_above"`
	RequiresLegalReview *bool               `json:"requires_legal_review"`
	RequiresITReview    *bool               `json:"requires_it_review"`
	AllowDelegation     *bool               `json:"allow_delegation"`
	Priority            *int                `json:"priority"`
	IsActive            *bool               `json:"is_active"`
}

// Create creates a workflow definition as a draft. When the caller supplies
// no nodes, a minimal start -> end skeleton is seeded so the designer always
// opens on a walkable graph; validation only runs for supplied node lists.
// A non-draft workflow with the same name in the tenant is a conflict.
func (s *WorkflowService) Create(ctx context.Context, tenantID, creatorID string, params CreateParams) (*models.Workflow, error) {
	if tenantID == "" {
		return nil, engine.NewValidationError("tenant id is required")
	}
	if creatorID == "" {
		return nil, engine.NewValidationError("creator id is required")
	}
	if params.Name == "" {
		return nil, engine.NewValidationError("workflow name is required")
	}
	if params.MaxAmount != nil && params.MinAmount > *params.MaxAmount {
		return nil, engine.NewValidationError("min amount must not exceed max amount")
	}

	priority := params.Priority
	if priority == 0 {
		priority = defaultPriority
	}
	if priority < 1 || priority > 10 {
		return nil, engine.NewValidationError("priority must be between 1 and 10")
	}

	existing, err := s.store.FindPublishedByName(ctx, tenantID, params.Name)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, engine.NewConflictError("a published workflow named %q already exists", params.Name)
	}

	nodes := params.Nodes
	connections := params.Connections
	if len(nodes) == 0 {
		nodes, connections = skeletonGraph()
	} else if err := engine.Validate(nodes, connections); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	wf := &models.Workflow{
		ID:                  uuid.New().String(),
		TenantID:            tenantID,
		Code:                newWorkflowCode(),
		Name:                params.Name,
		Description:         params.Description,
		ApplyToAll:          params.ApplyToAll,
		Departments:         params.Departments,
		DepartmentCodes:     params.DepartmentCodes,
		Categories:          params.Categories,
		MinAmount:           params.MinAmount,
		MaxAmount:           params.MaxAmount,
		TriggerConditions:   params.TriggerConditions,
		Nodes:               nodes,
		Connections:         connections,
		SLAHours:            params.SLAHours,
		AutoApproveBelow:    params.AutoApproveBelow,
		CFORequiredAbove:    params.CFORequiredAbove,
		RequiresLegalReview: params.RequiresLegalReview,
		RequiresITReview:    params.RequiresITReview,
		AllowDelegation:     params.AllowDelegation,
		IsActive:            false,
		IsDraft:             true,
		Priority:            priority,
		Version:             "1.0",
		CreatedBy:           creatorID,
		CreatedAt:           now,
		UpdatedAt:           now,
	}

	if err := s.store.Create(ctx, wf); err != nil {
		return nil, err
	}

	s.logger.Info("workflow created", "workflow_id", wf.ID, "tenant_id", tenantID, "name", wf.Name)
	return wf, nil
}

// Update merges the supplied fields over the stored workflow. Published
// workflows must re-pass graph validation after the merge; drafts are edited
// freely. Deactivating a workflow is refused while requisitions referencing
// it are still in flight.
func (s *WorkflowService) Update(ctx context.Context, tenantID, workflowID string, params UpdateParams) (*models.Workflow, error) {
	wf, err := s.store.Get(ctx, tenantID, workflowID)
	if err != nil {
		return nil, err
	}

	if params.IsActive != nil && wf.IsActive && !*params.IsActive {
		inFlight, err := s.requisitions.CountInFlightByWorkflow(ctx, wf.ID)
		if err != nil {
			return nil, err
		}
		if inFlight > 0 {
			return nil, engine.NewConflictError(
				"cannot deactivate workflow %s: %d requisitions are still in flight", wf.Code, inFlight)
		}
	}

	applyPatch(wf, params)

	if params.MaxAmount != nil && wf.MinAmount > *wf.MaxAmount {
		return nil, engine.NewValidationError("min amount must not exceed max amount")
	}
	if wf.Priority < 1 || wf.Priority > 10 {
		return nil, engine.NewValidationError("priority must be between 1 and 10")
	}
	if !wf.IsDraft {
		if err := engine.Validate(wf.Nodes, wf.Connections); err != nil {
			return nil, err
		}
	}

	wf.UpdatedAt = time.Now().UTC()
	if err := s.store.Update(ctx, wf); err != nil {
		return nil, err
	}

	s.logger.Info("workflow updated", "workflow_id", wf.ID, "tenant_id", tenantID)
	return wf, nil
}

// Publish promotes a draft workflow to active. The stored graph is
// re-validated, and publication is refused when another active, non-draft
// workflow in the tenant has overlapping scope; the scan stops at the first
// conflict. The version bumps by 0.1 on success.
func (s *WorkflowService) Publish(ctx context.Context, tenantID, workflowID string) (*models.Workflow, error) {
	wf, err := s.store.Get(ctx, tenantID, workflowID)
	if err != nil {
		return nil, err
	}
	if !wf.IsDraft {
		return nil, engine.NewConflictError("workflow %s is already published", wf.Code)
	}

	if err := engine.Validate(wf.Nodes, wf.Connections); err != nil {
		return nil, err
	}

	published, err := s.store.ListPublished(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	for _, other := range published {
		if other.ID == wf.ID {
			continue
		}
		if engine.ScopesOverlap(wf, other) {
			return nil, engine.NewConflictError(
				"workflow %s overlaps the scope of active workflow %q", wf.Code, other.Name)
		}
	}

	wf.IsDraft = false
	wf.IsActive = true
	wf.Version = bumpVersion(wf.Version)
	wf.UpdatedAt = time.Now().UTC()

	if err := s.store.Update(ctx, wf); err != nil {
		return nil, err
	}

	s.publishes.Add(ctx, 1)
	s.logger.Info("workflow published", "workflow_id", wf.ID, "tenant_id", tenantID, "version", wf.Version)
	return wf, nil
}

// Clone duplicates a workflow as a fresh draft owned by creatorID. Identity,
// timestamps and statistics are not carried over.
func (s *WorkflowService) Clone(ctx context.Context, tenantID, workflowID, creatorID string) (*models.Workflow, error) {
	wf, err := s.store.Get(ctx, tenantID, workflowID)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	clone := wf.Clone()
	clone.ID = uuid.New().String()
	clone.Code = newWorkflowCode()
	clone.IsDraft = true
	clone.IsActive = false
	clone.Stats = models.WorkflowStats{}
	clone.CreatedBy = creatorID
	clone.CreatedAt = now
	clone.UpdatedAt = now

	if err := s.store.Create(ctx, clone); err != nil {
		return nil, err
	}

	s.logger.Info("workflow cloned", "source_id", wf.ID, "clone_id", clone.ID, "tenant_id", tenantID)
	return clone, nil
}

// Delete removes a workflow. Refused while any requisition, in any status,
// references it.
func (s *WorkflowService) Delete(ctx context.Context, tenantID, workflowID string) error {
	wf, err := s.store.Get(ctx, tenantID, workflowID)
	if err != nil {
		return err
	}

	count, err := s.requisitions.CountByWorkflow(ctx, wf.ID)
	if err != nil {
		return err
	}
	if count > 0 {
		return engine.NewConflictError(
			"cannot delete workflow %s: %d requisitions reference it", wf.Code, count)
	}

	return s.store.Delete(ctx, tenantID, workflowID)
}

// Get retrieves a single workflow.
func (s *WorkflowService) Get(ctx context.Context, tenantID, workflowID string) (*models.Workflow, error) {
	return s.store.Get(ctx, tenantID, workflowID)
}

// List returns all of the tenant's workflows, drafts included.
func (s *WorkflowService) List(ctx context.Context, tenantID string) ([]*models.Workflow, error) {
	return s.store.List(ctx, tenantID)
}

// FindApplicable selects the workflow that applies to the subject within
// the tenant. A nil workflow with a nil error is the normal not-found
// outcome.
func (s *WorkflowService) FindApplicable(ctx context.Context, tenantID string, subject *models.Subject) (*models.Workflow, error) {
	candidates, err := s.store.ListPublished(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	inScope := candidates[:0]
	for _, wf := range candidates {
		if engine.InScope(wf, subject) {
			inScope = append(inScope, wf)
		}
	}

	match := engine.FindApplicable(inScope, subject)
	if match != nil {
		s.matches.Add(ctx, 1)
		s.logger.Debug("workflow matched", "workflow_id", match.ID, "tenant_id", tenantID)
	}
	return match, nil
}

// ComputePath walks a specific workflow for the subject. This is the
// dry-run surface: the workflow does not have to be the one the matcher
// would pick, and the result reports whether it would apply at all.
func (s *WorkflowService) ComputePath(ctx context.Context, tenantID, workflowID string, subject *models.Subject) (*models.PathResult, error) {
	wf, err := s.store.Get(ctx, tenantID, workflowID)
	if err != nil {
		return nil, err
	}
	return engine.ComputePath(wf, subject)
}

func applyPatch(wf *models.Workflow, params UpdateParams) {
	if params.Name != nil {
		wf.Name = *params.Name
	}
	if params.Description != nil {
		wf.Description = *params.Description
	}
	if params.ApplyToAll != nil {
		wf.ApplyToAll = *params.ApplyToAll
	}
	if params.Departments != nil {
		wf.Departments = params.Departments
	}
	if params.DepartmentCodes != nil {
		wf.DepartmentCodes = params.DepartmentCodes
	}
	if params.Categories != nil {
		wf.Categories = params.Categories
	}
	if params.MinAmount != nil {
		wf.MinAmount = *params.MinAmount
	}
	if params.MaxAmount != nil {
		wf.MaxAmount = params.MaxAmount
	}
	if params.TriggerConditions != nil {
		wf.TriggerConditions = params.TriggerConditions
	}
	if params.Nodes != nil {
		wf.Nodes = params.Nodes
	}
	if params.Connections != nil {
		wf.Connections = params.Connections
	}
	if params.SLAHours != nil {
		wf.SLAHours = *params.SLAHours
	}
	if params.AutoApproveBelow != nil {
		wf.AutoApproveBelow = params.AutoApproveBelow
	}
	if params.CFORequiredAbove != nil {
		wf.CFORequiredAbove = params.CFORequiredAbove
	}
	if params.RequiresLegalReview != nil {
		wf.RequiresLegalReview = *params.RequiresLegalReview
	}
	if params.RequiresITReview != nil {
		wf.RequiresITReview = *params.RequiresITReview
	}
	if params.AllowDelegation != nil {
		wf.AllowDelegation = *params.AllowDelegation
	}
	if params.Priority != nil {
		wf.Priority = *params.Priority
	}
	if params.IsActive != nil {
		wf.IsActive = *params.IsActive
	}
}

// skeletonGraph is the minimal start -> end graph seeded into workflows
// created without nodes.
func skeletonGraph() ([]models.Node, []models.Connection) {
	nodes := []models.Node{
		{ID: "start-1", Type: models.NodeTypeStart, Name: "Start"},
		{ID: "end-1", Type: models.NodeTypeEnd, Name: "End"},
	}
	connections := []models.Connection{{From: "start-1", To: "end-1"}}
	return nodes, connections
}

// bumpVersion advances a dotted version string by 0.1: "1.0" -> "1.1",
// "1.9" -> "2.0". Unparseable versions restart at "1.0".
func bumpVersion(version string) string {
	v, err := strconv.ParseFloat(strings.TrimSpace(version), 64)
	if err != nil {
		return "1.0"
	}
	return fmt.Sprintf("%.1f", v+0.1)
}

func newWorkflowCode() string {
	return "WF-" + strings.ToUpper(uuid.New().String()[:8])
}
