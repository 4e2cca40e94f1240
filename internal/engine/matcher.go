package engine

import (
	"sort"

	"procureflow/backend/pkg/models"
)

// FindApplicable selects the single workflow that applies to the subject
// from the tenant's candidate set. Candidates are ordered by priority
// ascending, newest first among equal priorities; the first one whose
// matching rules accept the subject wins. A nil return is the normal
// no-applicable-workflow outcome, not an error.
func FindApplicable(workflows []*models.Workflow, subject *models.Subject) *models.Workflow {
	ordered := make([]*models.Workflow, len(workflows))
	copy(ordered, workflows)
	sort.SliceStable(ordered, func(i, j int) bool {
		if ordered[i].Priority != ordered[j].Priority {
			return ordered[i].Priority < ordered[j].Priority
		}
		return ordered[i].CreatedAt.After(ordered[j].CreatedAt)
	})

	for _, wf := range ordered {
		if Applies(wf, subject) {
			return wf
		}
	}
	return nil
}

// Applies reports whether a workflow's matching rules accept the subject.
// Checks run in order and short-circuit on the first failure; applyToAll
// skips everything past the lifecycle check.
func Applies(wf *models.Workflow, subject *models.Subject) bool {
	if !wf.IsActive || wf.IsDraft {
		return false
	}

	if wf.ApplyToAll {
		return true
	}

	if len(wf.Departments) > 0 && subject.DepartmentID != "" {
		if !containsString(wf.Departments, subject.DepartmentID) &&
			!containsString(wf.DepartmentCodes, subject.DepartmentCode) {
			return false
		}
	}

	if len(wf.Categories) > 0 && subject.Category != "" {
		if !containsString(wf.Categories, subject.Category) {
			return false
		}
	}

	if subject.Cost < wf.MinAmount {
		return false
	}
	if wf.MaxAmount != nil && subject.Cost > *wf.MaxAmount {
		return false
	}

	if len(wf.TriggerConditions) > 0 {
		if !Evaluate(wf.TriggerConditions, subject) {
			return false
		}
	}

	return true
}

// InScope reports whether a workflow's department/category scope could reach
// the subject at all, before per-subject matching. The matcher uses it to
// build the candidate set; publish-time conflict checks use the pairwise
// variant below.
func InScope(wf *models.Workflow, subject *models.Subject) bool {
	if wf.ApplyToAll {
		return true
	}
	return containsString(wf.Departments, subject.DepartmentID) ||
		containsString(wf.DepartmentCodes, subject.DepartmentCode) ||
		containsString(wf.Categories, subject.Category)
}

// ScopesOverlap reports whether two workflows could both claim some subject:
// either applies to everything, or they share a department, department code
// or category.
func ScopesOverlap(a, b *models.Workflow) bool {
	if a.ApplyToAll || b.ApplyToAll {
		return true
	}
	return intersects(a.Departments, b.Departments) ||
		intersects(a.DepartmentCodes, b.DepartmentCodes) ||
		intersects(a.Categories, b.Categories)
}

func containsString(haystack []string, needle string) bool {
	for _, v := range haystack {
		if v == needle {
			return true
		}
	}
	return false
}

func intersects(a, b []string) bool {
	for _, v := range a {
		if containsString(b, v) {
			return true
		}
	}
	return false
}
