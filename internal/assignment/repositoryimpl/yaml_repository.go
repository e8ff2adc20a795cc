package repositoryimpl

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/ultronlabs/missionctl/internal/assignment"
	"github.com/ultronlabs/missionctl/pkg/cerr"
	"github.com/ultronlabs/missionctl/pkg/storage"
)

const assignmentsPrefix = "assignments"

// YAMLRepository stores one document per (task, agent) pair. The file key is
// the composite key, so pair uniqueness is structural rather than checked.
//
// All mutations go through a single mutex: the storage layer only guarantees
// per-file atomicity, and Claim in particular must be one read-modify-write
// unit so two wakes of the same agent cannot both win the same pair.
type YAMLRepository struct {
	storage storage.Storage
	mu      sync.Mutex
}

func NewYAMLRepository(s storage.Storage) *YAMLRepository {
	return &YAMLRepository{storage: s}
}

func path(taskID, agentID string) string {
	return fmt.Sprintf("%s/%s__%s.yaml", assignmentsPrefix, taskID, agentID)
}

func (r *YAMLRepository) Assign(ctx context.Context, taskID, agentID string, at time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	exists, err := r.storage.Exists(ctx, path(taskID, agentID))
	if err != nil {
		return false, cerr.WrapStorageWriteError("assignment", err)
	}
	if exists {
		return false, nil
	}
	a := &assignment.Assignment{
		TaskID:     taskID,
		AgentID:    agentID,
		AssignedAt: at,
	}
	if err := r.write(ctx, a); err != nil {
		return false, err
	}
	return true, nil
}

func (r *YAMLRepository) Get(ctx context.Context, taskID, agentID string) (*assignment.Assignment, error) {
	return r.read(ctx, path(taskID, agentID))
}

func (r *YAMLRepository) ListOpenByAgent(ctx context.Context, agentID string) ([]*assignment.Assignment, error) {
	paths, err := r.storage.List(ctx, assignmentsPrefix)
	if err != nil {
		return nil, cerr.WrapStorageReadError("assignments", err)
	}

	suffix := fmt.Sprintf("__%s.yaml", agentID)
	var open []*assignment.Assignment
	for _, p := range paths {
		if !strings.HasSuffix(p, suffix) {
			continue
		}
		a, err := r.read(ctx, p)
		if err != nil {
			continue
		}
		if a.AgentID != agentID || !a.Open() {
			continue
		}
		open = append(open, a)
	}
	return open, nil
}

func (r *YAMLRepository) MarkSeen(ctx context.Context, agentID string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	open, err := r.ListOpenByAgent(ctx, agentID)
	if err != nil {
		return err
	}
	for _, a := range open {
		if a.SeenAt != nil {
			continue
		}
		seen := at
		a.SeenAt = &seen
		if err := r.write(ctx, a); err != nil {
			return err
		}
	}
	return nil
}

func (r *YAMLRepository) Claim(ctx context.Context, taskID, agentID string, at time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	a, err := r.Get(ctx, taskID, agentID)
	if err != nil {
		if cerr.IsCode(err, cerr.NotFound) {
			return false, nil
		}
		return false, err
	}
	if a.Claimed() || !a.Open() {
		return false, nil
	}
	claimed := at
	a.ClaimedAt = &claimed
	if err := r.write(ctx, a); err != nil {
		return false, err
	}
	return true, nil
}

func (r *YAMLRepository) Complete(ctx context.Context, taskID, agentID string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	a, err := r.Get(ctx, taskID, agentID)
	if err != nil {
		return err
	}
	if a.CompletedAt != nil {
		return nil
	}
	completed := at
	a.CompletedAt = &completed
	return r.write(ctx, a)
}

func (r *YAMLRepository) DeleteByTask(ctx context.Context, taskID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	paths, err := r.storage.List(ctx, assignmentsPrefix)
	if err != nil {
		return cerr.WrapStorageReadError("assignments", err)
	}
	prefix := fmt.Sprintf("%s/%s__", assignmentsPrefix, taskID)
	for _, p := range paths {
		if !strings.HasPrefix(p, prefix) {
			continue
		}
		if err := r.storage.Delete(ctx, p); err != nil {
			return cerr.WrapStorageDeleteError("assignment", err)
		}
	}
	return nil
}

func (r *YAMLRepository) read(ctx context.Context, p string) (*assignment.Assignment, error) {
	data, err := r.storage.Read(ctx, p)
	if err != nil {
		return nil, cerr.WrapStorageReadError("assignment", err)
	}
	var a assignment.Assignment
	if err := yaml.Unmarshal(data, &a); err != nil {
		return nil, cerr.NewError(cerr.Internal, "server error", fmt.Errorf("failed to unmarshal assignment: %w", err))
	}
	return &a, nil
}

func (r *YAMLRepository) write(ctx context.Context, a *assignment.Assignment) error {
	data, err := yaml.Marshal(a)
	if err != nil {
		return cerr.NewError(cerr.Internal, "server error", fmt.Errorf("failed to marshal assignment: %w", err))
	}
	if err := r.storage.Write(ctx, path(a.TaskID, a.AgentID), data); err != nil {
		return cerr.WrapStorageWriteError("assignment", err)
	}
	return nil
}
