package postgres

import (
	"context"
	"errors"

	"github.com/geocoder89/eventlite/internal/domain/event"
	"github.com/geocoder89/eventlite/internal/domain/registration"
	"github.com/geocoder89/eventlite/internal/observability"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type RegistrationRepo struct {
	pool *pgxpool.Pool
	prom *observability.Prom
}

func NewRegistrationsRepo(pool *pgxpool.Pool, prom *observability.Prom) *RegistrationRepo {
	return &RegistrationRepo{
		pool: pool,
		prom: prom,
	}
}

func (repo *RegistrationRepo) observe(op string, fn func() error) error {
	if repo.prom != nil {
		return repo.prom.ObserveDB(op, fn)
	}
	return fn()
}

func (repo *RegistrationRepo) BeginTx(ctx context.Context) (pgx.Tx, error) {
	return repo.pool.BeginTx(ctx, pgx.TxOptions{})
}

// CreateTx inserts a registration inside the caller's transaction, so the
// confirmation job can be enqueued atomically with it. The referenced event
// must exist at registration time; there is no FK cascade behind this
// check. The event name comes back alongside the registration because the
// confirmation payload captures it at registration time.
func (repo *RegistrationRepo) CreateTx(ctx context.Context, tx pgx.Tx, req registration.CreateRegistrationRequest) (reg registration.Registration, eventName string, err error) {
	err = repo.observe("registrations.create_tx.event_check", func() error {
		return tx.QueryRow(ctx, `SELECT name FROM events WHERE id = $1`, req.EventID).Scan(&eventName)
	})

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			err = event.ErrNotFound
		}
		return
	}

	reg = registration.NewFromCreateRequest(req)

	err = repo.observe("registrations.create_tx.insert", func() error {
		_, e := tx.Exec(ctx, `
		INSERT INTO registrations (id, event_id, name, email, registered_at)
		VALUES ($1,$2,$3,$4,$5)
	`, reg.ID, reg.EventID, reg.Name, reg.Email, reg.RegisteredAt)
		return e
	})

	if err != nil {
		reg = registration.Registration{}
		eventName = ""
		return
	}

	return
}

func (repo *RegistrationRepo) ListByEvent(ctx context.Context, eventID string) (regs []registration.Registration, err error) {
	var rows pgx.Rows

	err = repo.observe("registrations.list_by_event", func() error {
		rows, err = repo.pool.Query(ctx,
			`
	SELECT id, event_id, name, email, registered_at
	FROM registrations
	WHERE event_id = $1
	ORDER BY registered_at ASC, id ASC
	`,
			eventID,
		)
		return err
	})

	if err != nil {
		return
	}

	defer rows.Close()

	regs = make([]registration.Registration, 0)

	for rows.Next() {
		var r registration.Registration

		e := rows.Scan(&r.ID, &r.EventID, &r.Name, &r.Email, &r.RegisteredAt)

		if e != nil {
			err = e
			return
		}
		regs = append(regs, r)
	}

	e := rows.Err()

	if e != nil {
		if repo.prom != nil {
			repo.prom.DbErrorsTotal.WithLabelValues("registrations.list_by_event", "rows_err").Inc()
		}
		err = e
		return
	}

	// a 404 when the event itself does not exist
	if len(regs) == 0 {
		var dummy string

		err = repo.observe("registrations.list_by_event.check_event_exists", func() error {
			return repo.pool.QueryRow(ctx, `SELECT id FROM events WHERE id = $1`, eventID).Scan(&dummy)
		})

		if errors.Is(err, pgx.ErrNoRows) {
			err = event.ErrNotFound
			return
		}

		if err != nil {
			return
		}
	}

	return
}

func (repo *RegistrationRepo) CountForEvent(ctx context.Context, eventID string) (int, error) {
	op := "registrations.count_for_event"
	var total int
	err := repo.observe(op, func() error {
		return repo.pool.QueryRow(ctx, `SELECT COUNT(*) FROM registrations WHERE event_id = $1`, eventID).Scan(&total)
	})
	return total, err
}
