package engine

import (
	"procureflow/backend/pkg/models"
)

// ComputePath walks the workflow graph from the start node and returns the
// ordered list of steps the subject would take, stopping before the terminal
// end node. Condition nodes branch through the condition evaluator; every
// other node follows its first outgoing connection in array order (the
// Order field on connections is stored but not honored for traversal).
//
// A branch or connection that points at no known node terminates the walk
// and yields a partial path; that is a valid result, not an error. A cycle,
// which the shallow validator deliberately does not catch, is converted into
// a MaxStepsExceededError once the walk has taken more steps than the graph
// has nodes.
func ComputePath(wf *models.Workflow, subject *models.Subject) (*models.PathResult, error) {
	byID := make(map[string]*models.Node, len(wf.Nodes))
	var current *models.Node
	for i := range wf.Nodes {
		n := &wf.Nodes[i]
		byID[n.ID] = n
		if n.Type == models.NodeTypeStart {
			current = n
		}
	}

	path := make([]models.PathStep, 0, len(wf.Nodes))
	steps := 0
	for current != nil && current.Type != models.NodeTypeEnd {
		steps++
		if steps > len(wf.Nodes) {
			return nil, &MaxStepsExceededError{WorkflowID: wf.ID, Steps: len(wf.Nodes)}
		}

		path = append(path, pathStep(current))

		if current.Type == models.NodeTypeCondition {
			next := current.FalseBranch
			if Evaluate(current.Conditions, subject) {
				next = current.TrueBranch
			}
			current = byID[next]
			continue
		}

		current = byID[firstConnectionTarget(wf.Connections, current.ID)]
	}

	return &models.PathResult{
		Applies:     Applies(wf, subject),
		Path:        path,
		AutoApprove: wf.AutoApproveBelow != nil && subject.Cost <= *wf.AutoApproveBelow,
		SLAHours:    wf.SLAHours,
	}, nil
}

// firstConnectionTarget returns the destination of the first connection
// leaving the node, lowest index wins. Empty when the node has no outgoing
// edge.
func firstConnectionTarget(connections []models.Connection, from string) string {
	for _, c := range connections {
		if c.From == from {
			return c.To
		}
	}
	return ""
}

func pathStep(n *models.Node) models.PathStep {
	step := models.PathStep{
		NodeID:     n.ID,
		NodeName:   n.Name,
		NodeType:   n.Type,
		Approvers:  []string{},
		Conditions: []models.Condition{},
	}
	if len(n.Approvers) > 0 {
		step.Approvers = append(step.Approvers, n.Approvers...)
	}
	if len(n.Conditions) > 0 {
		step.Conditions = append(step.Conditions, n.Conditions...)
	}
	return step
}
