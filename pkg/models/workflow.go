package models

import (
	"time"
)

// Workflow is the aggregate definition of an approval process a tenant
// authors. Nodes and connections are embedded in the aggregate; the
// algorithmic components operate on the value as a whole.
type Workflow struct {
	ID          string `json:"id"`
	TenantID    string `json:"tenant_id"` // Multi-tenancy isolation
	Code        string `json:"code"`      // Generated, unique per tenant
	Name        string `json:"name"`
	Description string `json:"description"`

	// Scope: either applies to everything, or to the listed departments,
	// department codes and category tags.
	ApplyToAll      bool     `json:"apply_to_all"`
	Departments     []string `json:"departments,omitempty"`
	DepartmentCodes []string `json:"department_codes,omitempty"`
	Categories      []string `json:"categories,omitempty"`

	// Eligibility window on the subject's cost.
	MinAmount float64  `json:"min_amount"`
	MaxAmount *float64 `json:"max_amount,omitempty"`

	// Extra matching rules evaluated against the subject.
	TriggerConditions []Condition `json:"trigger_conditions,omitempty"`

	// The graph.
	Nodes       []Node       `json:"nodes"`
	Connections []Connection `json:"connections"`

	// Policy fields.
	SLAHours            int      `json:"sla_hours"`
	AutoApproveBelow    *float64 `json:"auto_approve_below,omitempty"`
	CFORequiredAbove    *float64 `json:"cfo_required_above,omitempty"`
	RequiresLegalReview bool     `json:"requires_legal_review"`
	RequiresITReview    bool     `json:"requires_it_review"`
	AllowDelegation     bool     `json:"allow_delegation"`

	// Lifecycle.
	IsActive bool   `json:"is_active"`
	IsDraft  bool   `json:"is_draft"`
	Priority int    `json:"priority"` // 1-10, lower wins ties
	Version  string `json:"version"`  // Dotted string, bumped on publish

	Stats WorkflowStats `json:"stats"`

	CreatedBy string    `json:"created_by"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// WorkflowStats holds usage counters, reset on clone.
type WorkflowStats struct {
	TimesTriggered     int        `json:"times_triggered"`
	AvgCompletionHours float64    `json:"avg_completion_hours"`
	LastTriggeredAt    *time.Time `json:"last_triggered_at,omitempty"`
}

// Node is one vertex of a workflow graph.
type Node struct {
	ID   string   `json:"id"`
	Type NodeType `json:"type"`
	Name string   `json:"name"`

	// approval / parallel nodes
	Approvers    []string     `json:"approvers,omitempty"`
	ApprovalType ApprovalType `json:"approval_type,omitempty"`
	MinApprovals int          `json:"min_approvals,omitempty"`

	// condition nodes
	Conditions  []Condition `json:"conditions,omitempty"`
	TrueBranch  string      `json:"true_branch,omitempty"`
	FalseBranch string      `json:"false_branch,omitempty"`

	TimeoutHours int          `json:"timeout_hours,omitempty"`
	EscalationTo string       `json:"escalation_to,omitempty"`
	IsMandatory  bool         `json:"is_mandatory,omitempty"`
	CanDelegate  bool         `json:"can_delegate,omitempty"`
	Actions      []NodeAction `json:"actions,omitempty"`

	// Presentation metadata, not semantically load-bearing.
	Position map[string]float64 `json:"position,omitempty"`
}

// Connection is a directed edge between two node ids.
type Connection struct {
	From      string `json:"from"`
	To        string `json:"to"`
	Condition string `json:"condition,omitempty"` // branch label
	Order     int    `json:"order,omitempty"`
}

// Condition is a single predicate over a subject field. The same shape is
// used for condition-node predicates and workflow trigger conditions.
type Condition struct {
	Field           string          `json:"field"`
	Operator        Operator        `json:"operator"`
	Value           any             `json:"value"`
	LogicalOperator LogicalOperator `json:"logical_operator,omitempty"`
}

// Clone returns a deep copy of the workflow. Slices and maps are copied so
// the clone can be mutated without affecting the original.
func (w *Workflow) Clone() *Workflow {
	c := *w
	c.Departments = append([]string(nil), w.Departments...)
	c.DepartmentCodes = append([]string(nil), w.DepartmentCodes...)
	c.Categories = append([]string(nil), w.Categories...)
	c.TriggerConditions = cloneConditions(w.TriggerConditions)
	c.Connections = append([]Connection(nil), w.Connections...)
	if w.MaxAmount != nil {
		v := *w.MaxAmount
		c.MaxAmount = &v
	}
	if w.AutoApproveBelow != nil {
		v := *w.AutoApproveBelow
		c.AutoApproveBelow = &v
	}
	if w.CFORequiredAbove != nil {
		v := *w.CFORequiredAbove
		c.CFORequiredAbove = &v
	}
	if w.Stats.LastTriggeredAt != nil {
		t := *w.Stats.LastTriggeredAt
		c.Stats.LastTriggeredAt = &t
	}
	c.Nodes = make([]Node, len(w.Nodes))
	for i, n := range w.Nodes {
		c.Nodes[i] = n.clone()
	}
	return &c
}

func (n Node) clone() Node {
	c := n
	c.Approvers = append([]string(nil), n.Approvers...)
	c.Conditions = cloneConditions(n.Conditions)
	c.Actions = append([]NodeAction(nil), n.Actions...)
	if n.Position != nil {
		c.Position = make(map[string]float64, len(n.Position))
		for k, v := range n.Position {
			c.Position[k] = v
		}
	}
	return c
}

func cloneConditions(conditions []Condition) []Condition {
	return append([]Condition(nil), conditions...)
}
