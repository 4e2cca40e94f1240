package models

// Subject is the external record a workflow is matched against and walked
// for, typically a requisition. It is not persisted by this service; the
// host passes it in per request.
type Subject struct {
	DepartmentID   string         `json:"department_id,omitempty"`
	DepartmentCode string         `json:"department_code,omitempty"`
	Category       string         `json:"category,omitempty"`
	Cost           float64        `json:"cost"`
	Fields         map[string]any `json:"fields,omitempty"`
}

// Field resolves a condition field name against the subject. Extra fields
// shadow the built-in names; an unknown field resolves to nil and compares
// accordingly.
func (s *Subject) Field(name string) any {
	if v, ok := s.Fields[name]; ok {
		return v
	}
	switch name {
	case "department", "departmentId", "department_id":
		return s.DepartmentID
	case "departmentCode", "department_code":
		return s.DepartmentCode
	case "category":
		return s.Category
	case "cost", "amount", "totalCost", "total_cost":
		return s.Cost
	}
	return nil
}

// PathStep is one entry of a computed approval path.
type PathStep struct {
	NodeID     string      `json:"node_id"`
	NodeName   string      `json:"node_name"`
	NodeType   NodeType    `json:"node_type"`
	Approvers  []string    `json:"approvers"`
	Conditions []Condition `json:"conditions"`
}

// PathResult is the outcome of walking a workflow for a subject. The path
// stops before the terminal end node. Applies reports whether the workflow's
// matching rules accept the subject, independent of whether the workflow was
// the one selected by the matcher.
type PathResult struct {
	Applies     bool       `json:"applies"`
	Path        []PathStep `json:"path"`
	AutoApprove bool       `json:"auto_approve"`
	SLAHours    int        `json:"sla_hours"`
}
