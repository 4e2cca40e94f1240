package repository

import (
	"context"
	"sort"
	"sync"

	"procureflow/backend/internal/engine"
	"procureflow/backend/pkg/models"
)

// MemoryWorkflowStore is an in-memory WorkflowStore used by tests and the
// workflowctl dry-run commands. Values are deep-copied on the way in and out
// so callers cannot mutate stored state.
type MemoryWorkflowStore struct {
	mu        sync.RWMutex
	workflows map[string]*models.Workflow
}

// NewMemoryWorkflowStore creates an empty MemoryWorkflowStore.
func NewMemoryWorkflowStore() *MemoryWorkflowStore {
	return &MemoryWorkflowStore{workflows: make(map[string]*models.Workflow)}
}

func (s *MemoryWorkflowStore) Create(_ context.Context, wf *models.Workflow) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.workflows[wf.ID] = wf.Clone()
	return nil
}

func (s *MemoryWorkflowStore) Get(_ context.Context, tenantID, id string) (*models.Workflow, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	wf, ok := s.workflows[id]
	if !ok || wf.TenantID != tenantID {
		return nil, engine.ErrNotFound
	}
	return wf.Clone(), nil
}

func (s *MemoryWorkflowStore) Update(_ context.Context, wf *models.Workflow) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.workflows[wf.ID]
	if !ok || existing.TenantID != wf.TenantID {
		return engine.ErrNotFound
	}
	s.workflows[wf.ID] = wf.Clone()
	return nil
}

func (s *MemoryWorkflowStore) Delete(_ context.Context, tenantID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	wf, ok := s.workflows[id]
	if !ok || wf.TenantID != tenantID {
		return engine.ErrNotFound
	}
	delete(s.workflows, id)
	return nil
}

func (s *MemoryWorkflowStore) List(_ context.Context, tenantID string) ([]*models.Workflow, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.Workflow
	for _, wf := range s.workflows {
		if wf.TenantID == tenantID {
			out = append(out, wf.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s *MemoryWorkflowStore) ListPublished(_ context.Context, tenantID string) ([]*models.Workflow, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.Workflow
	for _, wf := range s.workflows {
		if wf.TenantID == tenantID && wf.IsActive && !wf.IsDraft {
			out = append(out, wf.Clone())
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Priority != out[j].Priority {
			return out[i].Priority < out[j].Priority
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (s *MemoryWorkflowStore) FindPublishedByName(_ context.Context, tenantID, name string) (*models.Workflow, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, wf := range s.workflows {
		if wf.TenantID == tenantID && wf.Name == name && !wf.IsDraft {
			return wf.Clone(), nil
		}
	}
	return nil, nil
}

// MemoryRequisitionStore is an in-memory RequisitionStore for tests and
// offline tooling.
type MemoryRequisitionStore struct {
	mu       sync.RWMutex
	statuses map[string][]models.RequisitionStatus // workflow id -> referencing requisition statuses
}

// NewMemoryRequisitionStore creates an empty MemoryRequisitionStore.
func NewMemoryRequisitionStore() *MemoryRequisitionStore {
	return &MemoryRequisitionStore{statuses: make(map[string][]models.RequisitionStatus)}
}

// AddRequisition records a requisition referencing the workflow.
func (s *MemoryRequisitionStore) AddRequisition(workflowID string, status models.RequisitionStatus) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.statuses[workflowID] = append(s.statuses[workflowID], status)
}

func (s *MemoryRequisitionStore) CountByWorkflow(_ context.Context, workflowID string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.statuses[workflowID]), nil
}

func (s *MemoryRequisitionStore) CountInFlightByWorkflow(_ context.Context, workflowID string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	count := 0
	for _, status := range s.statuses[workflowID] {
		for _, inFlight := range models.InFlightStatuses {
			if status == inFlight {
				count++
				break
			}
		}
	}
	return count, nil
}
