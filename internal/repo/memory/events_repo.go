package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/geocoder89/eventlite/internal/domain/event"
)

// EventsRepo keeps events in a map behind a RWMutex. It backs handler- and
// router-level tests that need real store semantics without a database.
type EventsRepo struct {
	mu    sync.RWMutex
	items map[string]event.Event
}

func NewEventsRepo() *EventsRepo {
	return &EventsRepo{
		items: make(map[string]event.Event),
	}
}

func (r *EventsRepo) Create(ctx context.Context, req event.CreateEventRequest, banner string) (event.Event, error) {
	e := event.NewFromCreateRequest(req, banner)

	r.mu.Lock()
	r.items[e.ID] = e
	r.mu.Unlock()

	return e, nil
}

func (r *EventsRepo) List(ctx context.Context, limit, offset int) ([]event.Event, int, error) {
	r.mu.RLock()

	all := make([]event.Event, 0, len(r.items))
	for _, e := range r.items {
		all = append(all, e)
	}

	r.mu.RUnlock()

	// creation order, same as the SQL repo
	sort.Slice(all, func(i, j int) bool {
		if all[i].CreatedAt.Equal(all[j].CreatedAt) {
			return all[i].ID < all[j].ID
		}
		return all[i].CreatedAt.Before(all[j].CreatedAt)
	})

	total := len(all)

	if offset >= total {
		return []event.Event{}, total, nil
	}

	end := offset + limit
	if end > total {
		end = total
	}

	return all[offset:end], total, nil
}

func (r *EventsRepo) GetByID(ctx context.Context, id string) (event.Event, error) {
	r.mu.RLock()
	e, ok := r.items[id]
	r.mu.RUnlock()

	if !ok {
		return event.Event{}, event.ErrNotFound
	}

	return e, nil
}

func (r *EventsRepo) Update(ctx context.Context, id string, req event.UpdateEventRequest) (event.Event, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.items[id]

	if !ok {
		return event.Event{}, event.ErrNotFound
	}

	req.Apply(&e)
	r.items[id] = e

	return e, nil
}

func (r *EventsRepo) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, ok := r.items[id]

	if !ok {
		return event.ErrNotFound
	}

	delete(r.items, id)
	return nil
}
