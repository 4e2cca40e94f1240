// Package engine implements the approval workflow engine: graph validation,
// condition evaluation, workflow matching and path computation. All
// functions are pure; the service layer owns storage access.
package engine

import (
	"procureflow/backend/pkg/models"
)

// Validate checks a candidate node/connection set for structural
// correctness. The check is intentionally shallow: it does not detect
// multi-node cycles or unreachable nodes. An empty connection list is
// accepted; the path walker simply stops when a node has no outgoing edge.
func Validate(nodes []models.Node, connections []models.Connection) error {
	if len(nodes) == 0 {
		return NewValidationError("workflow must contain at least one node")
	}

	starts := 0
	ends := 0
	known := make(map[string]bool, len(nodes))
	for _, n := range nodes {
		switch n.Type {
		case models.NodeTypeStart:
			starts++
		case models.NodeTypeEnd:
			ends++
		}
		known[n.ID] = true
	}
	if starts != 1 {
		return NewValidationError("workflow must contain exactly one start node, found %d", starts)
	}
	if ends == 0 {
		return NewValidationError("workflow must contain at least one end node")
	}

	for _, n := range nodes {
		if err := validateNode(n); err != nil {
			return err
		}
	}

	for _, c := range connections {
		if c.From == "" || c.To == "" {
			return NewValidationError("connection is missing from/to node ids")
		}
		if !known[c.From] {
			return NewValidationError("connection references unknown node %q", c.From)
		}
		if !known[c.To] {
			return NewValidationError("connection references unknown node %q", c.To)
		}
		if c.From == c.To {
			return NewValidationError("node %q connects to itself", c.From)
		}
	}

	return nil
}

func validateNode(n models.Node) error {
	if n.ID == "" {
		return NewValidationError("node is missing an id")
	}
	if n.Type == "" {
		return NewValidationError("node %q is missing a type", n.ID)
	}
	if n.Name == "" {
		return NewValidationError("node %q is missing a name", n.ID)
	}

	switch n.Type {
	case models.NodeTypeApproval, models.NodeTypeParallel:
		if len(n.Approvers) == 0 {
			return NewValidationError("node %q requires at least one approver", n.ID)
		}
		if n.MinApprovals < 1 || n.MinApprovals > len(n.Approvers) {
			return NewValidationError("node %q min approvals must be between 1 and %d", n.ID, len(n.Approvers))
		}
	case models.NodeTypeCondition:
		if len(n.Conditions) == 0 {
			return NewValidationError("condition node %q requires at least one condition", n.ID)
		}
		if n.TrueBranch == "" || n.FalseBranch == "" {
			return NewValidationError("condition node %q requires both a true and a false branch", n.ID)
		}
	}

	return nil
}
