package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"procureflow/backend/internal/engine"
	"procureflow/backend/pkg/models"
)

// PostgresWorkflowStore is a PostgreSQL implementation of the WorkflowStore
// interface. Each workflow persists as a single row; the graph (nodes,
// connections, trigger conditions) lives in JSONB columns so the aggregate
// stays one document.
type PostgresWorkflowStore struct {
	db *pgxpool.Pool
}

// NewPostgresWorkflowStore creates a new PostgresWorkflowStore.
func NewPostgresWorkflowStore(db *pgxpool.Pool) *PostgresWorkflowStore {
	return &PostgresWorkflowStore{db: db}
}

const workflowColumns = `id, tenant_id, code, name, description,
	apply_to_all, departments, department_codes, categories,
	min_amount, max_amount, trigger_conditions, nodes, connections,
	sla_hours, auto_approve_below, cfo_required_above,
	requires_legal_review, requires_it_review, allow_delegation,
	is_active, is_draft, priority, version, stats,
	created_by, created_at, updated_at`

// Create inserts a new workflow definition.
func (s *PostgresWorkflowStore) Create(ctx context.Context, wf *models.Workflow) error {
	_, err := s.db.Exec(ctx, `INSERT INTO workflows (`+workflowColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14,
		        $15, $16, $17, $18, $19, $20, $21, $22, $23, $24, $25, $26, $27, $28)`,
		wf.ID, wf.TenantID, wf.Code, wf.Name, wf.Description,
		wf.ApplyToAll, wf.Departments, wf.DepartmentCodes, wf.Categories,
		wf.MinAmount, wf.MaxAmount, wf.TriggerConditions, wf.Nodes, wf.Connections,
		wf.SLAHours, wf.AutoApproveBelow, wf.CFORequiredAbove,
		wf.RequiresLegalReview, wf.RequiresITReview, wf.AllowDelegation,
		wf.IsActive, wf.IsDraft, wf.Priority, wf.Version, wf.Stats,
		wf.CreatedBy, wf.CreatedAt, wf.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert workflow: %w", err)
	}
	return nil
}

// Get retrieves a workflow by id within a tenant.
func (s *PostgresWorkflowStore) Get(ctx context.Context, tenantID, id string) (*models.Workflow, error) {
	row := s.db.QueryRow(ctx,
		`SELECT `+workflowColumns+` FROM workflows WHERE tenant_id = $1 AND id = $2`,
		tenantID, id)
	wf, err := scanWorkflow(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, engine.ErrNotFound
	}
	return wf, err
}

// Update overwrites an existing workflow definition. Last write wins.
func (s *PostgresWorkflowStore) Update(ctx context.Context, wf *models.Workflow) error {
	tag, err := s.db.Exec(ctx, `UPDATE workflows SET
		code = $3, name = $4, description = $5,
		apply_to_all = $6, departments = $7, department_codes = $8, categories = $9,
		min_amount = $10, max_amount = $11, trigger_conditions = $12, nodes = $13, connections = $14,
		sla_hours = $15, auto_approve_below = $16, cfo_required_above = $17,
		requires_legal_review = $18, requires_it_review = $19, allow_delegation = $20,
		is_active = $21, is_draft = $22, priority = $23, version = $24, stats = $25,
		updated_at = $26
		WHERE tenant_id = $1 AND id = $2`,
		wf.TenantID, wf.ID, wf.Code, wf.Name, wf.Description,
		wf.ApplyToAll, wf.Departments, wf.DepartmentCodes, wf.Categories,
		wf.MinAmount, wf.MaxAmount, wf.TriggerConditions, wf.Nodes, wf.Connections,
		wf.SLAHours, wf.AutoApproveBelow, wf.CFORequiredAbove,
		wf.RequiresLegalReview, wf.RequiresITReview, wf.AllowDelegation,
		wf.IsActive, wf.IsDraft, wf.Priority, wf.Version, wf.Stats,
		wf.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update workflow: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return engine.ErrNotFound
	}
	return nil
}

// Delete removes a workflow.
func (s *PostgresWorkflowStore) Delete(ctx context.Context, tenantID, id string) error {
	tag, err := s.db.Exec(ctx,
		`DELETE FROM workflows WHERE tenant_id = $1 AND id = $2`, tenantID, id)
	if err != nil {
		return fmt.Errorf("delete workflow: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return engine.ErrNotFound
	}
	return nil
}

// List returns all workflows of a tenant, drafts included.
func (s *PostgresWorkflowStore) List(ctx context.Context, tenantID string) ([]*models.Workflow, error) {
	rows, err := s.db.Query(ctx,
		`SELECT `+workflowColumns+` FROM workflows
		 WHERE tenant_id = $1 ORDER BY created_at DESC`, tenantID)
	if err != nil {
		return nil, fmt.Errorf("list workflows: %w", err)
	}
	defer rows.Close()
	return scanWorkflows(rows)
}

// ListPublished returns the tenant's active, non-draft workflows in matcher
// order: priority ascending, newest first among equal priorities.
func (s *PostgresWorkflowStore) ListPublished(ctx context.Context, tenantID string) ([]*models.Workflow, error) {
	rows, err := s.db.Query(ctx,
		`SELECT `+workflowColumns+` FROM workflows
		 WHERE tenant_id = $1 AND is_active AND NOT is_draft
		 ORDER BY priority ASC, created_at DESC`, tenantID)
	if err != nil {
		return nil, fmt.Errorf("list published workflows: %w", err)
	}
	defer rows.Close()
	return scanWorkflows(rows)
}

// FindPublishedByName returns the tenant's non-draft workflow with the given
// name, or nil when there is none.
func (s *PostgresWorkflowStore) FindPublishedByName(ctx context.Context, tenantID, name string) (*models.Workflow, error) {
	row := s.db.QueryRow(ctx,
		`SELECT `+workflowColumns+` FROM workflows
		 WHERE tenant_id = $1 AND name = $2 AND NOT is_draft LIMIT 1`,
		tenantID, name)
	wf, err := scanWorkflow(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return wf, err
}

func scanWorkflow(row pgx.Row) (*models.Workflow, error) {
	var wf models.Workflow
	err := row.Scan(
		&wf.ID, &wf.TenantID, &wf.Code, &wf.Name, &wf.Description,
		&wf.ApplyToAll, &wf.Departments, &wf.DepartmentCodes, &wf.Categories,
		&wf.MinAmount, &wf.MaxAmount, &wf.TriggerConditions, &wf.Nodes, &wf.Connections,
		&wf.SLAHours, &wf.AutoApproveBelow, &wf.CFORequiredAbove,
		&wf.RequiresLegalReview, &wf.RequiresITReview, &wf.AllowDelegation,
		&wf.IsActive, &wf.IsDraft, &wf.Priority, &wf.Version, &wf.Stats,
		&wf.CreatedBy, &wf.CreatedAt, &wf.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &wf, nil
}

func scanWorkflows(rows pgx.Rows) ([]*models.Workflow, error) {
	var workflows []*models.Workflow
	for rows.Next() {
		wf, err := scanWorkflow(rows)
		if err != nil {
			return nil, err
		}
		workflows = append(workflows, wf)
	}
	return workflows, rows.Err()
}

// PostgresRequisitionStore answers the requisition counting queries from the
// shared requisitions table owned by the surrounding system.
type PostgresRequisitionStore struct {
	db *pgxpool.Pool
}

// NewPostgresRequisitionStore creates a new PostgresRequisitionStore.
func NewPostgresRequisitionStore(db *pgxpool.Pool) *PostgresRequisitionStore {
	return &PostgresRequisitionStore{db: db}
}

// CountByWorkflow counts requisitions referencing the workflow in any status.
func (s *PostgresRequisitionStore) CountByWorkflow(ctx context.Context, workflowID string) (int, error) {
	var count int
	err := s.db.QueryRow(ctx,
		`SELECT COUNT(*) FROM requisitions WHERE workflow_id = $1`, workflowID).Scan(&count)
	return count, err
}

// CountInFlightByWorkflow counts requisitions referencing the workflow in a
// pending, in-review or in-approval status.
func (s *PostgresRequisitionStore) CountInFlightByWorkflow(ctx context.Context, workflowID string) (int, error) {
	statuses := make([]string, len(models.InFlightStatuses))
	for i, st := range models.InFlightStatuses {
		statuses[i] = string(st)
	}
	var count int
	err := s.db.QueryRow(ctx,
		`SELECT COUNT(*) FROM requisitions WHERE workflow_id = $1 AND status = ANY($2)`,
		workflowID, statuses).Scan(&count)
	return count, err
}

// PostgresTenantStore is a PostgreSQL implementation of the TenantStore
// interface.
type PostgresTenantStore struct {
	db *pgxpool.Pool
}

// NewPostgresTenantStore creates a new PostgresTenantStore.
func NewPostgresTenantStore(db *pgxpool.Pool) *PostgresTenantStore {
	return &PostgresTenantStore{db: db}
}

// GetByDomain retrieves a tenant by its domain.
func (s *PostgresTenantStore) GetByDomain(ctx context.Context, domain string) (*models.Tenant, error) {
	var t models.Tenant
	err := s.db.QueryRow(ctx,
		`SELECT id, name, domain, created_at, updated_at FROM tenants WHERE domain = $1`,
		domain).Scan(&t.ID, &t.Name, &t.Domain, &t.CreatedAt, &t.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, engine.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// Create inserts a tenant.
func (s *PostgresTenantStore) Create(ctx context.Context, tenant *models.Tenant) error {
	_, err := s.db.Exec(ctx,
		`INSERT INTO tenants (id, name, domain, created_at, updated_at) VALUES ($1, $2, $3, $4, $5)`,
		tenant.ID, tenant.Name, tenant.Domain, tenant.CreatedAt, tenant.UpdatedAt)
	return err
}
