package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/geocoder89/eventlite/internal/domain/event"
)

func createReq(t *testing.T, name string, offset time.Duration) event.CreateEventRequest {
	t.Helper()

	req := event.CreateEventRequest{
		Name:        name,
		Description: "Desc",
		Date:        time.Now().UTC().Add(offset).Format(time.RFC3339),
		Location:    "Toronto",
	}
	if err := req.ParseDate(); err != nil {
		t.Fatalf("parse date: %v", err)
	}
	return req
}

func TestEventsRepo_MissingRecords(t *testing.T) {
	repo := NewEventsRepo()
	ctx := context.Background()

	if _, err := repo.GetByID(ctx, "00000000-0000-0000-0000-000000000001"); !errors.Is(err, event.ErrNotFound) {
		t.Fatalf("GetByID: got %v, want ErrNotFound", err)
	}

	if err := repo.Delete(ctx, "00000000-0000-0000-0000-000000000001"); !errors.Is(err, event.ErrNotFound) {
		t.Fatalf("Delete: got %v, want ErrNotFound", err)
	}

	name := "New"
	if _, err := repo.Update(ctx, "00000000-0000-0000-0000-000000000001", event.UpdateEventRequest{Name: &name}); !errors.Is(err, event.ErrNotFound) {
		t.Fatalf("Update: got %v, want ErrNotFound", err)
	}
}

func TestEventsRepo_ListPagination(t *testing.T) {
	repo := NewEventsRepo()
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		if _, err := repo.Create(ctx, createReq(t, "Event", time.Duration(i)*time.Hour), ""); err != nil {
			t.Fatalf("create: %v", err)
		}
	}

	firstPage, total, err := repo.List(ctx, 2, 0)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if total != 5 {
		t.Fatalf("total = %d, want 5", total)
	}
	if len(firstPage) != 2 {
		t.Fatalf("got %d events, want 2", len(firstPage))
	}

	lastPage, total, err := repo.List(ctx, 2, 4)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if total != 5 {
		t.Fatalf("total = %d, want 5", total)
	}
	if len(lastPage) != 1 {
		t.Fatalf("got %d events on the last page, want 1", len(lastPage))
	}

	beyond, total, err := repo.List(ctx, 2, 100)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if total != 5 || len(beyond) != 0 {
		t.Fatalf("got %d events beyond the end (total %d)", len(beyond), total)
	}
}

func TestEventsRepo_DeleteLeavesOthers(t *testing.T) {
	repo := NewEventsRepo()
	ctx := context.Background()

	a, err := repo.Create(ctx, createReq(t, "A", 0), "")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	b, err := repo.Create(ctx, createReq(t, "B", time.Hour), "")
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if err := repo.Delete(ctx, a.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}

	if _, err := repo.GetByID(ctx, a.ID); !errors.Is(err, event.ErrNotFound) {
		t.Fatalf("deleted event still present: %v", err)
	}
	if _, err := repo.GetByID(ctx, b.ID); err != nil {
		t.Fatalf("sibling event lost: %v", err)
	}
}
