package claim

import (
	"context"
	"sort"
	"time"

	"github.com/ultronlabs/missionctl/internal/assignment"
	"github.com/ultronlabs/missionctl/internal/task"
	"github.com/ultronlabs/missionctl/pkg/cerr"
)

// Engine selects the next assignment an agent should work. Selection is a
// strict two-level sort: priority tier first, then assigned-at FIFO within
// the tier.
type Engine struct {
	assignments assignment.Repository
	tasks       task.Repository
}

func NewEngine(assignments assignment.Repository, tasks task.Repository) *Engine {
	return &Engine{
		assignments: assignments,
		tasks:       tasks,
	}
}

type candidate struct {
	assignment *assignment.Assignment
	task       *task.Task
}

// ClaimNext claims the agent's highest-priority open unclaimed assignment
// and returns the associated task. A nil task with a nil error means the
// agent has nothing actionable, which is a normal outcome.
//
// The repository's Claim is a compare-and-swap, so a lost race against a
// concurrent wake of the same agent just moves on to the next candidate. An
// unknown agentID yields an empty candidate set.
func (e *Engine) ClaimNext(ctx context.Context, agentID string) (*task.Task, error) {
	open, err := e.assignments.ListOpenByAgent(ctx, agentID)
	if err != nil {
		return nil, err
	}

	var candidates []candidate
	for _, a := range open {
		if a.Claimed() {
			continue
		}
		t, err := e.tasks.Get(ctx, a.TaskID)
		if err != nil {
			if cerr.IsCode(err, cerr.NotFound) {
				continue
			}
			return nil, err
		}
		candidates = append(candidates, candidate{assignment: a, task: t})
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		ri, rj := candidates[i].task.Priority.Rank(), candidates[j].task.Priority.Rank()
		if ri != rj {
			return ri < rj
		}
		return candidates[i].assignment.AssignedAt.Before(candidates[j].assignment.AssignedAt)
	})

	for _, c := range candidates {
		won, err := e.assignments.Claim(ctx, c.assignment.TaskID, agentID, time.Now())
		if err != nil {
			return nil, err
		}
		if won {
			return c.task, nil
		}
	}
	return nil, nil
}
