package repositoryimpl

import (
	"context"
	"fmt"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/ultronlabs/missionctl/internal/event"
	"github.com/ultronlabs/missionctl/pkg/cerr"
	"github.com/ultronlabs/missionctl/pkg/storage"
)

const eventsPrefix = "events"

// YAMLRepository stores one document per event. Event IDs are ULIDs, so the
// lexicographic path order is the creation order.
type YAMLRepository struct {
	storage storage.Storage
}

func NewYAMLRepository(s storage.Storage) *YAMLRepository {
	return &YAMLRepository{storage: s}
}

func path(id string) string {
	return fmt.Sprintf("%s/%s.yaml", eventsPrefix, id)
}

func (r *YAMLRepository) Append(ctx context.Context, e *event.Event) error {
	data, err := yaml.Marshal(e)
	if err != nil {
		return cerr.NewError(cerr.Internal, "server error", fmt.Errorf("failed to marshal event: %w", err))
	}
	if err := r.storage.Write(ctx, path(e.ID), data); err != nil {
		return cerr.WrapStorageWriteError("event", err)
	}
	return nil
}

func (r *YAMLRepository) ListRecent(ctx context.Context, limit int) ([]*event.Event, error) {
	paths, err := r.storage.List(ctx, eventsPrefix)
	if err != nil {
		return nil, cerr.WrapStorageReadError("events", err)
	}
	sort.Sort(sort.Reverse(sort.StringSlice(paths)))
	if limit > 0 && len(paths) > limit {
		paths = paths[:limit]
	}

	events := make([]*event.Event, 0, len(paths))
	for _, p := range paths {
		data, err := r.storage.Read(ctx, p)
		if err != nil {
			continue
		}
		var e event.Event
		if err := yaml.Unmarshal(data, &e); err != nil {
			continue
		}
		events = append(events, &e)
	}
	return events, nil
}

func (r *YAMLRepository) ReplaceAll(ctx context.Context, events []*event.Event) error {
	paths, err := r.storage.List(ctx, eventsPrefix)
	if err != nil {
		return cerr.WrapStorageReadError("events", err)
	}
	for _, p := range paths {
		if err := r.storage.Delete(ctx, p); err != nil {
			return cerr.WrapStorageDeleteError("event", err)
		}
	}
	for _, e := range events {
		if err := r.Append(ctx, e); err != nil {
			return err
		}
	}
	return nil
}
