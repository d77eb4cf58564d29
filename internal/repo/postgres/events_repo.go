package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/geocoder89/eventlite/internal/domain/event"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type EventsRepo struct {
	pool *pgxpool.Pool
}

// constructor function

func NewEventsRepo(pool *pgxpool.Pool) *EventsRepo {
	return &EventsRepo{
		pool: pool,
	}
}

func (r *EventsRepo) Create(ctx context.Context, req event.CreateEventRequest, banner string) (event.Event, error) {
	e := event.NewFromCreateRequest(req, banner)

	_, err := r.pool.Exec(ctx,
		`INSERT INTO events(id, name, description, date, location, banner, created_at, updated_at) VALUES($1,$2,$3,$4,$5,$6,$7,$8)`,
		e.ID, e.Name, e.Description, e.Date, e.Location, e.Banner, e.CreatedAt, e.UpdatedAt)

	if err != nil {
		return event.Event{}, err
	}

	return e, nil
}

// List returns one page of events plus the total record count. Ordering is
// creation order, which keeps pages stable between requests.
func (r *EventsRepo) List(ctx context.Context, limit, offset int) ([]event.Event, int, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id,
		name,
		description,
		date,
		location,
		banner,
		created_at,
		updated_at,
		COUNT(*) OVER() AS total
	FROM events
	ORDER BY created_at ASC, id ASC
	LIMIT $1 OFFSET $2`, limit, offset)

	if err != nil {
		return nil, 0, err
	}

	defer rows.Close()

	output := make([]event.Event, 0, limit)
	total := 0

	for rows.Next() {
		var e event.Event
		var t int

		err = rows.Scan(&e.ID, &e.Name, &e.Description, &e.Date, &e.Location, &e.Banner, &e.CreatedAt, &e.UpdatedAt, &t)

		if err != nil {
			return nil, 0, err
		}

		total = t
		output = append(output, e)
	}

	err = rows.Err()

	if err != nil {
		return nil, 0, err
	}

	// the window total is absent when the page is past the end
	if len(output) == 0 {
		err = r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM events`).Scan(&total)

		if err != nil {
			return nil, 0, err
		}
	}

	return output, total, nil
}

func (r *EventsRepo) GetByID(ctx context.Context, id string) (event.Event, error) {
	var e event.Event
	err := r.pool.QueryRow(ctx,
		`SELECT id, name, description, date, location, banner, created_at, updated_at FROM events WHERE id = $1`, id,
	).Scan(&e.ID, &e.Name, &e.Description, &e.Date, &e.Location, &e.Banner, &e.CreatedAt, &e.UpdatedAt)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return event.Event{}, event.ErrNotFound
		}
		return event.Event{}, err
	}

	return e, nil
}

// Update overwrites only the fields present in the partial request.
func (r *EventsRepo) Update(ctx context.Context, id string, req event.UpdateEventRequest) (event.Event, error) {
	var sets []string
	args := []interface{}{id}

	argsPosition := 2

	if req.Name != nil {
		sets = append(sets, fmt.Sprintf("name = $%d", argsPosition))
		args = append(args, *req.Name)
		argsPosition++
	}

	if req.Description != nil {
		sets = append(sets, fmt.Sprintf("description = $%d", argsPosition))
		args = append(args, *req.Description)
		argsPosition++
	}

	if d := req.DateValue(); d != nil {
		sets = append(sets, fmt.Sprintf("date = $%d", argsPosition))
		args = append(args, *d)
		argsPosition++
	}

	if req.Location != nil {
		sets = append(sets, fmt.Sprintf("location = $%d", argsPosition))
		args = append(args, *req.Location)
		argsPosition++
	}

	if req.Banner != nil {
		sets = append(sets, fmt.Sprintf("banner = $%d", argsPosition))
		args = append(args, *req.Banner)
		argsPosition++
	}

	sets = append(sets, "updated_at = NOW()")

	query := `UPDATE events SET ` + strings.Join(sets, ", ") +
		` WHERE id = $1 RETURNING id, name, description, date, location, banner, created_at, updated_at`

	var e event.Event

	err := r.pool.QueryRow(ctx, query, args...).Scan(
		&e.ID,
		&e.Name,
		&e.Description,
		&e.Date,
		&e.Location,
		&e.Banner,
		&e.CreatedAt,
		&e.UpdatedAt,
	)

	if err != nil {
		// if there are no rows matching the id
		if errors.Is(err, pgx.ErrNoRows) {
			return event.Event{}, event.ErrNotFound
		}
		// if it is any other type of error
		return event.Event{}, err
	}

	return e, nil
}

func (r *EventsRepo) Delete(ctx context.Context, id string) error {
	query, err := r.pool.Exec(ctx, `
		DELETE FROM events WHERE id = $1
	`, id)

	if err != nil {
		return err
	}

	// if no rows were deleted as a result return a not found error
	if query.RowsAffected() == 0 {
		return event.ErrNotFound
	}

	return nil
}
