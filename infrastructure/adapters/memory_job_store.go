package adapters

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/lirigzong/Ai-Video-Create/application/ports/outbound"
	"github.com/lirigzong/Ai-Video-Create/domain"
)

// memoryJobStore is the authoritative in-process job store. Every write
// replaces the stored record with a fresh deep copy and every read hands out
// one, so pollers never observe a torn update.
type memoryJobStore struct {
	mu   sync.RWMutex
	jobs map[string]domain.Job
}

func NewMemoryJobStore() outbound.JobStorePort {
	return &memoryJobStore{
		jobs: make(map[string]domain.Job),
	}
}

func (s *memoryJobStore) Create(_ context.Context, job domain.Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.jobs[job.ID]; exists {
		return fmt.Errorf("job %s already exists", job.ID)
	}
	s.jobs[job.ID] = job.Clone()
	return nil
}

func (s *memoryJobStore) Get(_ context.Context, jobID string) (domain.Job, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	job, ok := s.jobs[jobID]
	if !ok {
		return domain.Job{}, fmt.Errorf("%w: %s", domain.ErrNotFound, jobID)
	}
	return job.Clone(), nil
}

func (s *memoryJobStore) List(_ context.Context) ([]domain.Job, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	jobs := make([]domain.Job, 0, len(s.jobs))
	for _, job := range s.jobs {
		jobs = append(jobs, job.Clone())
	}
	sort.Slice(jobs, func(i, j int) bool {
		return jobs[i].CreatedAt.After(jobs[j].CreatedAt)
	})
	return jobs, nil
}

// Update publishes the new record atomically. It rejects state machine
// violations and terminal snapshots missing their required fields, so a
// reader seeing completed always sees an output location, and failed always
// an error.
func (s *memoryJobStore) Update(_ context.Context, job domain.Job) (domain.Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.jobs[job.ID]
	if !ok {
		return domain.Job{}, fmt.Errorf("%w: %s", domain.ErrNotFound, job.ID)
	}
	if current.Status != job.Status && !domain.ValidTransition(current.Status, job.Status) {
		return domain.Job{}, fmt.Errorf("invalid status transition: %s -> %s", current.Status, job.Status)
	}
	if job.Status == domain.StatusCompleted && job.OutputLocation == "" {
		return domain.Job{}, fmt.Errorf("completed job %s has no output location", job.ID)
	}
	if job.Status == domain.StatusFailed && (job.Error == nil || job.Error.Message == "") {
		return domain.Job{}, fmt.Errorf("failed job %s has no error", job.ID)
	}

	job.UpdatedAt = time.Now().UTC()
	s.jobs[job.ID] = job.Clone()
	return job, nil
}
