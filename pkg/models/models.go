// Package models defines the domain models for the approval workflow service
package models

// NodeType represents the kind of vertex in a workflow graph
type NodeType string

const (
	NodeTypeStart        NodeType = "start"
	NodeTypeApproval     NodeType = "approval"
	NodeTypeCondition    NodeType = "condition"
	NodeTypeParallel     NodeType = "parallel"
	NodeTypeNotification NodeType = "notification"
	NodeTypeEnd          NodeType = "end"
)

// ApprovalType represents how a node's approvers must act
type ApprovalType string

const (
	ApprovalTypeSequential ApprovalType = "sequential"
	ApprovalTypeParallel   ApprovalType = "parallel"
	ApprovalTypeAny        ApprovalType = "any"
)

// Operator represents a condition operator. Operator strings arrive from
// stored documents and are not guaranteed to be one of the known constants;
// the evaluator treats unrecognized operators as satisfied.
type Operator string

const (
	OperatorEq       Operator = "eq"
	OperatorNeq      Operator = "neq"
	OperatorGt       Operator = "gt"
	OperatorGte      Operator = "gte"
	OperatorLt       Operator = "lt"
	OperatorLte      Operator = "lte"
	OperatorContains Operator = "contains"
	OperatorIn       Operator = "in"
	OperatorNotIn    Operator = "not-in"
	OperatorRegex    Operator = "regex"
)

// LogicalOperator joins a condition to the one following it
type LogicalOperator string

const (
	LogicalAnd LogicalOperator = "AND"
	LogicalOr  LogicalOperator = "OR"
)

// NodeAction represents a side effect a node may request from the host
type NodeAction string

const (
	NodeActionNotify      NodeAction = "notify"
	NodeActionEscalate    NodeAction = "escalate"
	NodeActionAutoApprove NodeAction = "auto-approve"
	NodeActionReject      NodeAction = "reject"
)

// RequisitionStatus mirrors the states the requisition collaborator reports.
// The engine only consults these for the update/delete guards.
type RequisitionStatus string

const (
	RequisitionStatusPending    RequisitionStatus = "pending"
	RequisitionStatusInReview   RequisitionStatus = "in-review"
	RequisitionStatusInApproval RequisitionStatus = "in-approval"
)

// InFlightStatuses are the requisition states that block deactivating a
// workflow they reference.
var InFlightStatuses = []RequisitionStatus{
	RequisitionStatusPending,
	RequisitionStatusInReview,
	RequisitionStatusInApproval,
}
