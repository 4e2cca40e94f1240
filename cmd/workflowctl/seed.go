package main

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"

	"procureflow/backend/internal/config"
	"procureflow/backend/internal/engine"
	"procureflow/backend/internal/logging"
	"procureflow/backend/internal/repository"
	"procureflow/backend/internal/services"
	"procureflow/backend/pkg/models"
)

func newSeedCommand() *cobra.Command {
	var domain string

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Seed a development database with a tenant and sample workflows",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSeed(cmd.Context(), domain)
		},
	}

	cmd.Flags().StringVar(&domain, "domain", "localhost", "tenant domain to seed under")
	return cmd
}

func runSeed(ctx context.Context, domain string) error {
	logger := logging.NewLogger()

	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	connStr := fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.DB.Host, cfg.DB.Port, cfg.DB.User, cfg.DB.Password, cfg.DB.Name, cfg.DB.SSLMode,
	)
	pool, err := pgxpool.New(ctx, connStr)
	if err != nil {
		return fmt.Errorf("connect: %w", err)
	}
	defer pool.Close()

	tenants := repository.NewPostgresTenantStore(pool)
	workflows := services.NewWorkflowService(
		repository.NewPostgresWorkflowStore(pool),
		repository.NewPostgresRequisitionStore(pool),
		logger,
	)

	// 1. Ensure tenant exists
	tenant, err := tenants.GetByDomain(ctx, domain)
	if engine.IsNotFound(err) {
		logger.Info("Creating tenant", "domain", domain)
		now := time.Now().UTC()
		tenant = &models.Tenant{
			ID:        uuid.New().String(),
			Name:      "Local Dev Tenant",
			Domain:    domain,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if err := tenants.Create(ctx, tenant); err != nil {
			return fmt.Errorf("create tenant: %w", err)
		}
	} else if err != nil {
		return err
	} else {
		logger.Info("Found existing tenant", "id", tenant.ID)
	}

	// 2. Check for existing workflows to prevent duplicates
	existing, err := workflows.List(ctx, tenant.ID)
	if err != nil {
		return fmt.Errorf("list workflows: %w", err)
	}
	existingNames := make(map[string]bool)
	for _, wf := range existing {
		existingNames[wf.Name] = true
	}

	// 3. Create seed workflows
	for _, sample := range sampleWorkflows() {
		if existingNames[sample.params.Name] {
			logger.Info("Skipping existing workflow", "name", sample.params.Name)
			continue
		}

		wf, err := workflows.Create(ctx, tenant.ID, "seed-script", sample.params)
		if err != nil {
			logger.Error("Failed to create workflow", "name", sample.params.Name, "error", err)
			continue
		}
		if sample.publish {
			if _, err := workflows.Publish(ctx, tenant.ID, wf.ID); err != nil {
				logger.Error("Failed to publish workflow", "name", wf.Name, "error", err)
				continue
			}
		}
		logger.Info("Seeded workflow", "name", wf.Name, "id", wf.ID, "published", sample.publish)
	}

	logger.Info("Seeding complete!")
	return nil
}

type sampleWorkflow struct {
	params  services.CreateParams
	publish bool
}

func sampleWorkflows() []sampleWorkflow {
	autoApprove := 1000.0
	itMax := 100000.0

	return []sampleWorkflow{
		{
			publish: true,
			params: services.CreateParams{
				Name:             "IT Hardware Purchases",
				Description:      "Manager sign-off below 50k, CFO involvement above.",
				Categories:       []string{"it-hardware", "it-software"},
				MinAmount:        0,
				MaxAmount:        &itMax,
				SLAHours:         48,
				AutoApproveBelow: &autoApprove,
				Priority:         3,
				Nodes: []models.Node{
					{ID: "start-1", Type: models.NodeTypeStart, Name: "Start"},
					{
						ID: "cond-1", Type: models.NodeTypeCondition, Name: "Large purchase?",
						Conditions:  []models.Condition{{Field: "cost", Operator: models.OperatorLt, Value: 50000}},
						TrueBranch:  "approval-manager",
						FalseBranch: "approval-cfo",
					},
					{
						ID: "approval-manager", Type: models.NodeTypeApproval, Name: "Manager approval",
						Approvers: []string{"manager-it"}, ApprovalType: models.ApprovalTypeAny, MinApprovals: 1,
					},
					{
						ID: "approval-cfo", Type: models.NodeTypeApproval, Name: "CFO approval",
						Approvers: []string{"cfo"}, ApprovalType: models.ApprovalTypeAny, MinApprovals: 1,
					},
					{ID: "end-1", Type: models.NodeTypeEnd, Name: "End"},
				},
				Connections: []models.Connection{
					{From: "start-1", To: "cond-1"},
					{From: "approval-manager", To: "end-1"},
					{From: "approval-cfo", To: "end-1"},
				},
			},
		},
		{
			publish: true,
			params: services.CreateParams{
				Name:        "Travel Requests",
				Description: "Two-step travel approval with a notification to finance.",
				Categories:  []string{"travel"},
				SLAHours:    72,
				Priority:    5,
				Nodes: []models.Node{
					{ID: "start-1", Type: models.NodeTypeStart, Name: "Start"},
					{
						ID: "approval-1", Type: models.NodeTypeApproval, Name: "Line manager",
						Approvers: []string{"manager-line"}, ApprovalType: models.ApprovalTypeSequential, MinApprovals: 1,
					},
					{
						ID: "notify-finance", Type: models.NodeTypeNotification, Name: "Notify finance",
						Actions: []models.NodeAction{models.NodeActionNotify},
					},
					{ID: "end-1", Type: models.NodeTypeEnd, Name: "End"},
				},
				Connections: []models.Connection{
					{From: "start-1", To: "approval-1"},
					{From: "approval-1", To: "notify-finance"},
					{From: "notify-finance", To: "end-1"},
				},
			},
		},
		{
			// Left as a draft skeleton for designers to extend.
			publish: false,
			params: services.CreateParams{
				Name:        "Vendor Onboarding Review",
				Description: "Draft workflow for new vendor reviews.",
				Categories:  []string{"vendor"},
				Priority:    7,
			},
		},
	}
}
