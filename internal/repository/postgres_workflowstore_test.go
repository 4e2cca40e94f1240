package repository

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"procureflow/backend/internal/engine"
	"procureflow/backend/pkg/models"
)

const workflowSchema = `
CREATE TABLE workflows (
	id UUID PRIMARY KEY,
	tenant_id TEXT NOT NULL,
	code TEXT NOT NULL,
	name TEXT NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	apply_to_all BOOLEAN NOT NULL DEFAULT FALSE,
	departments TEXT[] NOT NULL DEFAULT '{}',
	department_codes TEXT[] NOT NULL DEFAULT '{}',
	categories TEXT[] NOT NULL DEFAULT '{}',
	min_amount DOUBLE PRECISION NOT NULL DEFAULT 0,
	max_amount DOUBLE PRECISION,
	trigger_conditions JSONB NOT NULL DEFAULT '[]',
	nodes JSONB NOT NULL DEFAULT '[]',
	connections JSONB NOT NULL DEFAULT '[]',
	sla_hours INT NOT NULL DEFAULT 0,
	auto_approve_below DOUBLE PRECISION,
	cfo_required_above DOUBLE PRECISION,
	requires_legal_review BOOLEAN NOT NULL DEFAULT FALSE,
	requires_it_review BOOLEAN NOT NULL DEFAULT FALSE,
	allow_delegation BOOLEAN NOT NULL DEFAULT FALSE,
	is_active BOOLEAN NOT NULL DEFAULT FALSE,
	is_draft BOOLEAN NOT NULL DEFAULT TRUE,
	priority INT NOT NULL DEFAULT 5,
	version TEXT NOT NULL DEFAULT '1.0',
	stats JSONB NOT NULL DEFAULT '{}',
	created_by TEXT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL
);

CREATE TABLE requisitions (
	id UUID PRIMARY KEY,
	workflow_id UUID NOT NULL,
	status TEXT NOT NULL
);

CREATE TABLE tenants (
	id UUID PRIMARY KEY,
	name TEXT NOT NULL,
	domain TEXT NOT NULL UNIQUE,
	created_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL
);`

func testWorkflow(tenantID string) *models.Workflow {
	max := 75000.0
	now := time.Now().UTC().Truncate(time.Microsecond)
	return &models.Workflow{
		ID:              uuid.New().String(),
		TenantID:        tenantID,
		Code:            "WF-TEST0001",
		Name:            "Purchase approvals",
		Description:     "Test workflow",
		Departments:     []string{"dept-1"},
		DepartmentCodes: []string{"FIN"},
		Categories:      []string{"it-hardware"},
		MinAmount:       100,
		MaxAmount:       &max,
		TriggerConditions: []models.Condition{
			{Field: "urgency", Operator: models.OperatorEq, Value: "high", LogicalOperator: models.LogicalAnd},
		},
		Nodes: []models.Node{
			{ID: "start-1", Type: models.NodeTypeStart, Name: "Start"},
			{
				ID: "approval-1", Type: models.NodeTypeApproval, Name: "Manager approval",
				Approvers: []string{"u1"}, ApprovalType: models.ApprovalTypeAny, MinApprovals: 1,
			},
			{ID: "end-1", Type: models.NodeTypeEnd, Name: "End"},
		},
		Connections: []models.Connection{
			{From: "start-1", To: "approval-1"},
			{From: "approval-1", To: "end-1"},
		},
		SLAHours:  48,
		IsDraft:   true,
		Priority:  5,
		Version:   "1.0",
		CreatedBy: "user-1",
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func TestPostgresStores(t *testing.T) {
	ctx := context.Background()

	pgContainer, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("test-db"),
		postgres.WithUsername("user"),
		postgres.WithPassword("password"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2)),
	)
	if err != nil {
		t.Fatal(err)
	}
	defer func() {
		if err := pgContainer.Terminate(ctx); err != nil {
			t.Fatalf("failed to terminate container: %s", err)
		}
	}()

	connStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatal(err)
	}

	pool, err := pgxpool.New(ctx, connStr)
	if err != nil {
		t.Fatal(err)
	}
	defer pool.Close()

	if _, err := pool.Exec(ctx, workflowSchema); err != nil {
		t.Fatal(err)
	}

	store := NewPostgresWorkflowStore(pool)
	requisitions := NewPostgresRequisitionStore(pool)
	tenants := NewPostgresTenantStore(pool)
	tenantID := uuid.New().String()

	t.Run("Create and Get", func(t *testing.T) {
		wf := testWorkflow(tenantID)

		require.NoError(t, store.Create(ctx, wf))

		retrieved, err := store.Get(ctx, tenantID, wf.ID)
		require.NoError(t, err)
		assert.Equal(t, wf.Name, retrieved.Name)
		assert.Equal(t, wf.Departments, retrieved.Departments)
		assert.Equal(t, wf.Nodes, retrieved.Nodes)
		assert.Equal(t, wf.Connections, retrieved.Connections)
		require.NotNil(t, retrieved.MaxAmount)
		assert.Equal(t, *wf.MaxAmount, *retrieved.MaxAmount)
		assert.Len(t, retrieved.TriggerConditions, 1)
	})

	t.Run("Get wrong tenant", func(t *testing.T) {
		wf := testWorkflow(tenantID)
		wf.Name = "Tenant scoped"
		require.NoError(t, store.Create(ctx, wf))

		_, err := store.Get(ctx, uuid.New().String(), wf.ID)
		assert.True(t, engine.IsNotFound(err))
	})

	t.Run("Update", func(t *testing.T) {
		wf := testWorkflow(tenantID)
		wf.Name = "Before"
		require.NoError(t, store.Create(ctx, wf))

		wf.Name = "After"
		wf.IsDraft = false
		wf.IsActive = true
		wf.Version = "1.1"
		require.NoError(t, store.Update(ctx, wf))

		retrieved, err := store.Get(ctx, tenantID, wf.ID)
		require.NoError(t, err)
		assert.Equal(t, "After", retrieved.Name)
		assert.True(t, retrieved.IsActive)
		assert.Equal(t, "1.1", retrieved.Version)
	})

	t.Run("Update missing workflow", func(t *testing.T) {
		wf := testWorkflow(tenantID)
		err := store.Update(ctx, wf)
		assert.True(t, engine.IsNotFound(err))
	})

	t.Run("ListPublished ordering and filtering", func(t *testing.T) {
		scopedTenant := uuid.New().String()

		draft := testWorkflow(scopedTenant)
		draft.Name = "Draft stays hidden"
		require.NoError(t, store.Create(ctx, draft))

		lowPriority := testWorkflow(scopedTenant)
		lowPriority.ID = uuid.New().String()
		lowPriority.Name = "Low priority"
		lowPriority.IsDraft = false
		lowPriority.IsActive = true
		lowPriority.Priority = 8
		require.NoError(t, store.Create(ctx, lowPriority))

		highPriority := testWorkflow(scopedTenant)
		highPriority.ID = uuid.New().String()
		highPriority.Name = "High priority"
		highPriority.IsDraft = false
		highPriority.IsActive = true
		highPriority.Priority = 2
		require.NoError(t, store.Create(ctx, highPriority))

		published, err := store.ListPublished(ctx, scopedTenant)
		require.NoError(t, err)
		require.Len(t, published, 2)
		assert.Equal(t, "High priority", published[0].Name)
		assert.Equal(t, "Low priority", published[1].Name)
	})

	t.Run("FindPublishedByName", func(t *testing.T) {
		scopedTenant := uuid.New().String()

		wf := testWorkflow(scopedTenant)
		wf.Name = "Named workflow"
		wf.IsDraft = false
		require.NoError(t, store.Create(ctx, wf))

		found, err := store.FindPublishedByName(ctx, scopedTenant, "Named workflow")
		require.NoError(t, err)
		require.NotNil(t, found)
		assert.Equal(t, wf.ID, found.ID)

		missing, err := store.FindPublishedByName(ctx, scopedTenant, "No such workflow")
		require.NoError(t, err)
		assert.Nil(t, missing)
	})

	t.Run("Delete", func(t *testing.T) {
		wf := testWorkflow(tenantID)
		require.NoError(t, store.Create(ctx, wf))

		require.NoError(t, store.Delete(ctx, tenantID, wf.ID))
		_, err := store.Get(ctx, tenantID, wf.ID)
		assert.True(t, engine.IsNotFound(err))

		err = store.Delete(ctx, tenantID, wf.ID)
		assert.True(t, engine.IsNotFound(err))
	})

	t.Run("Requisition counts", func(t *testing.T) {
		workflowID := uuid.New().String()
		for _, status := range []string{"pending", "in-approval", "approved", "rejected"} {
			_, err := pool.Exec(ctx,
				`INSERT INTO requisitions (id, workflow_id, status) VALUES ($1, $2, $3)`,
				uuid.New().String(), workflowID, status)
			require.NoError(t, err)
		}

		total, err := requisitions.CountByWorkflow(ctx, workflowID)
		require.NoError(t, err)
		assert.Equal(t, 4, total)

		inFlight, err := requisitions.CountInFlightByWorkflow(ctx, workflowID)
		require.NoError(t, err)
		assert.Equal(t, 2, inFlight)
	})

	t.Run("Tenants", func(t *testing.T) {
		now := time.Now().UTC().Truncate(time.Microsecond)
		tenant := &models.Tenant{
			ID:        uuid.New().String(),
			Name:      "Acme",
			Domain:    "acme.example",
			CreatedAt: now,
			UpdatedAt: now,
		}
		require.NoError(t, tenants.Create(ctx, tenant))

		found, err := tenants.GetByDomain(ctx, "acme.example")
		require.NoError(t, err)
		assert.Equal(t, tenant.ID, found.ID)

		_, err = tenants.GetByDomain(ctx, "missing.example")
		assert.True(t, engine.IsNotFound(err))
	})
}
