package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"procureflow/backend/pkg/models"
)

func approvalNode(id string, approvers ...string) models.Node {
	return models.Node{
		ID:           id,
		Type:         models.NodeTypeApproval,
		Name:         id,
		Approvers:    approvers,
		ApprovalType: models.ApprovalTypeAny,
		MinApprovals: 1,
	}
}

func startEnd() []models.Node {
	return []models.Node{
		{ID: "start-1", Type: models.NodeTypeStart, Name: "Start"},
		{ID: "end-1", Type: models.NodeTypeEnd, Name: "End"},
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name        string
		nodes       []models.Node
		connections []models.Connection
		wantErr     string
	}{
		{
			name:    "empty node list",
			nodes:   nil,
			wantErr: "at least one node",
		},
		{
			name: "no start node",
			nodes: []models.Node{
				{ID: "end-1", Type: models.NodeTypeEnd, Name: "End"},
			},
			wantErr: "exactly one start node",
		},
		{
			name: "two start nodes",
			nodes: append(startEnd(),
				models.Node{ID: "start-2", Type: models.NodeTypeStart, Name: "Start 2"}),
			wantErr: "exactly one start node",
		},
		{
			name: "no end node",
			nodes: []models.Node{
				{ID: "start-1", Type: models.NodeTypeStart, Name: "Start"},
			},
			wantErr: "at least one end node",
		},
		{
			name:    "missing node id",
			nodes:   append(startEnd(), models.Node{Type: models.NodeTypeNotification, Name: "Notify"}),
			wantErr: "missing an id",
		},
		{
			name:    "missing node type",
			nodes:   append(startEnd(), models.Node{ID: "n-1", Name: "Notify"}),
			wantErr: "missing a type",
		},
		{
			name:    "missing node name",
			nodes:   append(startEnd(), models.Node{ID: "n-1", Type: models.NodeTypeNotification}),
			wantErr: "missing a name",
		},
		{
			name: "approval node without approvers",
			nodes: append(startEnd(), models.Node{
				ID: "approval-1", Type: models.NodeTypeApproval, Name: "Approve", MinApprovals: 1,
			}),
			wantErr: "at least one approver",
		},
		{
			name: "min approvals above approver count",
			nodes: append(startEnd(), models.Node{
				ID: "approval-1", Type: models.NodeTypeApproval, Name: "Approve",
				Approvers: []string{"u1", "u2"}, MinApprovals: 3,
			}),
			wantErr: "min approvals must be between 1 and 2",
		},
		{
			name: "min approvals below one",
			nodes: append(startEnd(), models.Node{
				ID: "parallel-1", Type: models.NodeTypeParallel, Name: "Review",
				Approvers: []string{"u1"},
			}),
			wantErr: "min approvals",
		},
		{
			name: "condition node without conditions",
			nodes: append(startEnd(), models.Node{
				ID: "cond-1", Type: models.NodeTypeCondition, Name: "Check",
				TrueBranch: "end-1", FalseBranch: "end-1",
			}),
			wantErr: "at least one condition",
		},
		{
			name: "condition node missing branch",
			nodes: append(startEnd(), models.Node{
				ID: "cond-1", Type: models.NodeTypeCondition, Name: "Check",
				Conditions: []models.Condition{{Field: "cost", Operator: models.OperatorGt, Value: 100}},
				TrueBranch: "end-1",
			}),
			wantErr: "true and a false branch",
		},
		{
			name:        "connection to unknown node",
			nodes:       startEnd(),
			connections: []models.Connection{{From: "start-1", To: "ghost"}},
			wantErr:     `unknown node "ghost"`,
		},
		{
			name:        "connection from unknown node",
			nodes:       startEnd(),
			connections: []models.Connection{{From: "ghost", To: "end-1"}},
			wantErr:     `unknown node "ghost"`,
		},
		{
			name:        "connection missing endpoint",
			nodes:       startEnd(),
			connections: []models.Connection{{From: "start-1"}},
			wantErr:     "missing from/to",
		},
		{
			name:        "self loop",
			nodes:       startEnd(),
			connections: []models.Connection{{From: "start-1", To: "start-1"}},
			wantErr:     "connects to itself",
		},
		{
			name:  "valid graph with no connections",
			nodes: startEnd(),
		},
		{
			name:  "valid graph",
			nodes: append(startEnd(), approvalNode("approval-1", "u1", "u2")),
			connections: []models.Connection{
				{From: "start-1", To: "approval-1"},
				{From: "approval-1", To: "end-1"},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.nodes, tt.connections)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.Error(t, err)
			assert.True(t, IsValidation(err))
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestValidateSelfLoopAlwaysRejected(t *testing.T) {
	nodes := append(startEnd(), approvalNode("approval-1", "u1"))
	connections := []models.Connection{
		{From: "start-1", To: "approval-1"},
		{From: "approval-1", To: "approval-1"},
		{From: "approval-1", To: "end-1"},
	}

	err := Validate(nodes, connections)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "connects to itself")
}
