package repository

import (
	"context"

	"procureflow/backend/pkg/models"
)

// WorkflowStore persists workflow definitions. Implementations return
// engine.ErrNotFound when an id does not resolve within the tenant. Writes
// are last-write-wins; workflow documents are edited by at most one request
// at a time.
type WorkflowStore interface {
	// Create inserts a new workflow definition.
	Create(ctx context.Context, wf *models.Workflow) error
	// Get retrieves a workflow by id within a tenant.
	Get(ctx context.Context, tenantID, id string) (*models.Workflow, error)
	// Update overwrites an existing workflow definition.
	Update(ctx context.Context, wf *models.Workflow) error
	// Delete removes a workflow.
	Delete(ctx context.Context, tenantID, id string) error
	// List returns all workflows of a tenant, drafts included.
	List(ctx context.Context, tenantID string) ([]*models.Workflow, error)
	// ListPublished returns the tenant's active, non-draft workflows ordered
	// by priority ascending, newest first among equal priorities.
	ListPublished(ctx context.Context, tenantID string) ([]*models.Workflow, error)
	// FindPublishedByName returns the tenant's non-draft workflow with the
	// given name, or nil when there is none.
	FindPublishedByName(ctx context.Context, tenantID, name string) (*models.Workflow, error)
}

// RequisitionStore exposes the two counting queries the lifecycle guards
// need. Requisitions themselves are owned by the surrounding system.
type RequisitionStore interface {
	// CountByWorkflow counts requisitions referencing the workflow in any
	// status.
	CountByWorkflow(ctx context.Context, workflowID string) (int, error)
	// CountInFlightByWorkflow counts requisitions referencing the workflow
	// in a pending, in-review or in-approval status.
	CountInFlightByWorkflow(ctx context.Context, workflowID string) (int, error)
}

// TenantStore persists tenants.
type TenantStore interface {
	GetByDomain(ctx context.Context, domain string) (*models.Tenant, error)
	Create(ctx context.Context, tenant *models.Tenant) error
}
