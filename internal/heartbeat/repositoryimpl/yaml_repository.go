package repositoryimpl

import (
	"context"
	"fmt"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/ultronlabs/missionctl/internal/heartbeat"
	"github.com/ultronlabs/missionctl/pkg/cerr"
	"github.com/ultronlabs/missionctl/pkg/storage"
)

const heartbeatsPrefix = "heartbeats"

// YAMLRepository stores one document per run. Run IDs are ULIDs, so
// descending path order is most-recent-first.
type YAMLRepository struct {
	storage storage.Storage
}

func NewYAMLRepository(s storage.Storage) *YAMLRepository {
	return &YAMLRepository{storage: s}
}

func path(id string) string {
	return fmt.Sprintf("%s/%s.yaml", heartbeatsPrefix, id)
}

func (r *YAMLRepository) Append(ctx context.Context, run *heartbeat.Run) error {
	data, err := yaml.Marshal(run)
	if err != nil {
		return cerr.NewError(cerr.Internal, "server error", fmt.Errorf("failed to marshal heartbeat: %w", err))
	}
	if err := r.storage.Write(ctx, path(run.ID), data); err != nil {
		return cerr.WrapStorageWriteError("heartbeat", err)
	}
	return nil
}

func (r *YAMLRepository) ListRecent(ctx context.Context, limit int) ([]*heartbeat.Run, error) {
	paths, err := r.storage.List(ctx, heartbeatsPrefix)
	if err != nil {
		return nil, cerr.WrapStorageReadError("heartbeats", err)
	}
	sort.Sort(sort.Reverse(sort.StringSlice(paths)))
	if limit > 0 && len(paths) > limit {
		paths = paths[:limit]
	}

	runs := make([]*heartbeat.Run, 0, len(paths))
	for _, p := range paths {
		data, err := r.storage.Read(ctx, p)
		if err != nil {
			continue
		}
		var run heartbeat.Run
		if err := yaml.Unmarshal(data, &run); err != nil {
			continue
		}
		runs = append(runs, &run)
	}
	return runs, nil
}
