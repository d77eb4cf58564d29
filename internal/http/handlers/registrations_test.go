package handlers_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/geocoder89/eventlite/internal/domain/event"
	"github.com/geocoder89/eventlite/internal/domain/job"
	"github.com/geocoder89/eventlite/internal/domain/registration"
	"github.com/geocoder89/eventlite/internal/http/handlers"
	"github.com/geocoder89/eventlite/internal/jobs"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// fakeTx embeds pgx.Tx so only the methods the handler touches need real
// implementations; anything else would panic and fail the test loudly.
type fakeTx struct {
	pgx.Tx

	committed  bool
	rolledBack bool
	commitErr  error
}

func (t *fakeTx) Commit(ctx context.Context) error {
	if t.commitErr != nil {
		return t.commitErr
	}
	t.committed = true
	return nil
}

func (t *fakeTx) Rollback(ctx context.Context) error {
	t.rolledBack = true
	return nil
}

type fakeRegistrationRepo struct {
	tx       *fakeTx
	beginErr error
	createFn func(ctx context.Context, tx pgx.Tx, req registration.CreateRegistrationRequest) (registration.Registration, string, error)
	listFn   func(ctx context.Context, eventID string) ([]registration.Registration, error)
	countFn  func(ctx context.Context, eventID string) (int, error)
}

func (f *fakeRegistrationRepo) BeginTx(ctx context.Context) (pgx.Tx, error) {
	if f.beginErr != nil {
		return nil, f.beginErr
	}
	return f.tx, nil
}

func (f *fakeRegistrationRepo) CreateTx(ctx context.Context, tx pgx.Tx, req registration.CreateRegistrationRequest) (registration.Registration, string, error) {
	if f.createFn != nil {
		return f.createFn(ctx, tx, req)
	}
	return registration.Registration{}, "", nil
}

func (f *fakeRegistrationRepo) ListByEvent(ctx context.Context, eventID string) ([]registration.Registration, error) {
	if f.listFn != nil {
		return f.listFn(ctx, eventID)
	}
	return nil, nil
}

func (f *fakeRegistrationRepo) CountForEvent(ctx context.Context, eventID string) (int, error) {
	if f.countFn != nil {
		return f.countFn(ctx, eventID)
	}
	regs, err := f.ListByEvent(ctx, eventID)
	if err != nil {
		return 0, err
	}
	return len(regs), nil
}

type fakeJobsRepo struct {
	createFn func(ctx context.Context, tx pgx.Tx, req job.CreateRequest) (job.Job, error)
}

func (f *fakeJobsRepo) CreateTx(ctx context.Context, tx pgx.Tx, req job.CreateRequest) (job.Job, error) {
	if f.createFn != nil {
		return f.createFn(ctx, tx, req)
	}
	return job.New(req), nil
}

func TestRegisterHandler(t *testing.T) {
	eventID := newUUID()

	tests := []struct {
		name           string
		url            string
		fields         map[string]string
		repoSetup      func(*fakeRegistrationRepo)
		jobsSetup      func(*fakeJobsRepo)
		wantStatusCode int
		wantCommitted  bool
	}{
		{
			name:   "success",
			url:    "/events/" + eventID + "/register",
			fields: map[string]string{"name": "Ada", "email": "ada@example.com"},
			repoSetup: func(f *fakeRegistrationRepo) {
				f.createFn = func(ctx context.Context, tx pgx.Tx, req registration.CreateRegistrationRequest) (registration.Registration, string, error) {
					return registration.NewFromCreateRequest(req), "Go Meetup", nil
				}
			},
			wantStatusCode: http.StatusCreated,
			wantCommitted:  true,
		},
		{
			name:           "malformed_event_id",
			url:            "/events/abc/register",
			fields:         map[string]string{"name": "Ada", "email": "ada@example.com"},
			wantStatusCode: http.StatusNotFound,
		},
		{
			name:           "missing_email",
			url:            "/events/" + eventID + "/register",
			fields:         map[string]string{"name": "Ada"},
			wantStatusCode: http.StatusBadRequest,
		},
		{
			name:           "invalid_email",
			url:            "/events/" + eventID + "/register",
			fields:         map[string]string{"name": "Ada", "email": "not-an-email"},
			wantStatusCode: http.StatusBadRequest,
		},
		{
			name:   "event_not_found",
			url:    "/events/" + eventID + "/register",
			fields: map[string]string{"name": "Ada", "email": "ada@example.com"},
			repoSetup: func(f *fakeRegistrationRepo) {
				f.createFn = func(ctx context.Context, tx pgx.Tx, req registration.CreateRegistrationRequest) (registration.Registration, string, error) {
					return registration.Registration{}, "", event.ErrNotFound
				}
			},
			wantStatusCode: http.StatusNotFound,
		},
		{
			name:   "begin_error",
			url:    "/events/" + eventID + "/register",
			fields: map[string]string{"name": "Ada", "email": "ada@example.com"},
			repoSetup: func(f *fakeRegistrationRepo) {
				f.beginErr = errors.New("pool exhausted")
			},
			wantStatusCode: http.StatusInternalServerError,
		},
		{
			name:   "job_insert_error",
			url:    "/events/" + eventID + "/register",
			fields: map[string]string{"name": "Ada", "email": "ada@example.com"},
			repoSetup: func(f *fakeRegistrationRepo) {
				f.createFn = func(ctx context.Context, tx pgx.Tx, req registration.CreateRegistrationRequest) (registration.Registration, string, error) {
					return registration.NewFromCreateRequest(req), "Go Meetup", nil
				}
			},
			jobsSetup: func(f *fakeJobsRepo) {
				f.createFn = func(ctx context.Context, tx pgx.Tx, req job.CreateRequest) (job.Job, error) {
					return job.Job{}, errors.New("db error")
				}
			},
			wantStatusCode: http.StatusInternalServerError,
		},
		{
			name:   "duplicate_job_key_is_tolerated",
			url:    "/events/" + eventID + "/register",
			fields: map[string]string{"name": "Ada", "email": "ada@example.com"},
			repoSetup: func(f *fakeRegistrationRepo) {
				f.createFn = func(ctx context.Context, tx pgx.Tx, req registration.CreateRegistrationRequest) (registration.Registration, string, error) {
					return registration.NewFromCreateRequest(req), "Go Meetup", nil
				}
			},
			jobsSetup: func(f *fakeJobsRepo) {
				f.createFn = func(ctx context.Context, tx pgx.Tx, req job.CreateRequest) (job.Job, error) {
					return job.Job{}, &pgconn.PgError{Code: "23505"}
				}
			},
			wantStatusCode: http.StatusCreated,
			wantCommitted:  true,
		},
	}

	for _, tt := range tests {
		tt := tt

		t.Run(tt.name, func(t *testing.T) {
			tx := &fakeTx{}
			repo := &fakeRegistrationRepo{tx: tx}
			jobsRepo := &fakeJobsRepo{}

			if tt.repoSetup != nil {
				tt.repoSetup(repo)
			}
			if tt.jobsSetup != nil {
				tt.jobsSetup(jobsRepo)
			}

			h := handlers.NewRegistrationHandler(repo, jobsRepo)
			r := setupRouter(http.MethodPost, "/events/:id/register", h.Register)

			req := httptest.NewRequest(http.MethodPost, tt.url, formBody(tt.fields))
			req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			if w.Code != tt.wantStatusCode {
				t.Fatalf("got status %d, want %d, body=%s", w.Code, tt.wantStatusCode, w.Body.String())
			}

			if tx.committed != tt.wantCommitted {
				t.Fatalf("committed=%v, want %v", tx.committed, tt.wantCommitted)
			}
		})
	}
}

// The confirmation job committed with the registration must carry everything
// the worker needs to send the email.
func TestRegisterHandler_EnqueuesConfirmationJob(t *testing.T) {
	eventID := newUUID()
	tx := &fakeTx{}

	repo := &fakeRegistrationRepo{
		tx: tx,
		createFn: func(ctx context.Context, tx pgx.Tx, req registration.CreateRegistrationRequest) (registration.Registration, string, error) {
			return registration.NewFromCreateRequest(req), "Go Meetup", nil
		},
	}

	var captured job.CreateRequest
	jobsRepo := &fakeJobsRepo{
		createFn: func(ctx context.Context, tx pgx.Tx, req job.CreateRequest) (job.Job, error) {
			captured = req
			return job.New(req), nil
		},
	}

	h := handlers.NewRegistrationHandler(repo, jobsRepo)
	r := setupRouter(http.MethodPost, "/events/:id/register", h.Register)

	req := httptest.NewRequest(http.MethodPost, "/events/"+eventID+"/register", formBody(map[string]string{
		"name":  "Ada",
		"email": "ada@example.com",
	}))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusCreated {
		t.Fatalf("got status %d, body=%s", w.Code, w.Body.String())
	}

	if captured.Type != jobs.TypeRegistrationConfirmation {
		t.Fatalf("got job type %q, want %q", captured.Type, jobs.TypeRegistrationConfirmation)
	}

	payload, err := jobs.DecodeRegistrationConfirmation(captured.Payload)
	if err != nil {
		t.Fatalf("decode payload: %v", err)
	}

	if payload.Email != "ada@example.com" {
		t.Fatalf("payload email %q", payload.Email)
	}
	if payload.Name != "Ada" {
		t.Fatalf("payload name %q", payload.Name)
	}
	if payload.EventID != eventID {
		t.Fatalf("payload eventId %q, want %q", payload.EventID, eventID)
	}
	if payload.EventName != "Go Meetup" {
		t.Fatalf("payload eventName %q", payload.EventName)
	}

	if captured.IdempotencyKey == nil || *captured.IdempotencyKey != "registration:confirm:"+payload.RegistrationID {
		t.Fatalf("unexpected idempotency key %v", captured.IdempotencyKey)
	}

	if !tx.committed {
		t.Fatal("transaction was not committed")
	}

	var resp struct {
		Message      string                    `json:"message"`
		Registration registration.Registration `json:"registration"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to unmarshal response: %v", err)
	}

	if resp.Message != "Registration successful" {
		t.Fatalf("got message %q", resp.Message)
	}
	if resp.Registration.EventID != eventID {
		t.Fatalf("registration eventId %q, want %q", resp.Registration.EventID, eventID)
	}
}

func TestListRegistrationsHandler(t *testing.T) {
	eventID := newUUID()

	tests := []struct {
		name           string
		url            string
		repoSetup      func(*fakeRegistrationRepo)
		wantStatusCode int
		wantCount      int
	}{
		{
			name: "success",
			url:  "/events/" + eventID + "/registrations",
			repoSetup: func(f *fakeRegistrationRepo) {
				f.listFn = func(ctx context.Context, id string) ([]registration.Registration, error) {
					return []registration.Registration{
						{ID: newUUID(), EventID: id, Name: "Ada", Email: "ada@example.com"},
						{ID: newUUID(), EventID: id, Name: "Grace", Email: "grace@example.com"},
					}, nil
				}
			},
			wantStatusCode: http.StatusOK,
			wantCount:      2,
		},
		{
			name: "event_not_found",
			url:  "/events/" + eventID + "/registrations",
			repoSetup: func(f *fakeRegistrationRepo) {
				f.listFn = func(ctx context.Context, id string) ([]registration.Registration, error) {
					return nil, event.ErrNotFound
				}
			},
			wantStatusCode: http.StatusNotFound,
		},
		{
			name:           "malformed_event_id",
			url:            "/events/nope/registrations",
			wantStatusCode: http.StatusNotFound,
		},
		{
			name: "repo_error",
			url:  "/events/" + eventID + "/registrations",
			repoSetup: func(f *fakeRegistrationRepo) {
				f.listFn = func(ctx context.Context, id string) ([]registration.Registration, error) {
					return nil, errors.New("db error")
				}
			},
			wantStatusCode: http.StatusInternalServerError,
		},
		{
			// the count field reflects the repo's total, not the
			// length of the returned slice
			name: "count_comes_from_repo",
			url:  "/events/" + eventID + "/registrations",
			repoSetup: func(f *fakeRegistrationRepo) {
				f.listFn = func(ctx context.Context, id string) ([]registration.Registration, error) {
					return []registration.Registration{
						{ID: newUUID(), EventID: id, Name: "Ada", Email: "ada@example.com"},
					}, nil
				}
				f.countFn = func(ctx context.Context, id string) (int, error) {
					return 7, nil
				}
			},
			wantStatusCode: http.StatusOK,
			wantCount:      7,
		},
		{
			name: "count_error",
			url:  "/events/" + eventID + "/registrations",
			repoSetup: func(f *fakeRegistrationRepo) {
				f.listFn = func(ctx context.Context, id string) ([]registration.Registration, error) {
					return []registration.Registration{}, nil
				}
				f.countFn = func(ctx context.Context, id string) (int, error) {
					return 0, errors.New("db error")
				}
			},
			wantStatusCode: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		tt := tt

		t.Run(tt.name, func(t *testing.T) {
			repo := &fakeRegistrationRepo{tx: &fakeTx{}}

			if tt.repoSetup != nil {
				tt.repoSetup(repo)
			}

			h := handlers.NewRegistrationHandler(repo, &fakeJobsRepo{})
			r := setupRouter(http.MethodGet, "/events/:id/registrations", h.ListForEvent)

			req := httptest.NewRequest(http.MethodGet, tt.url, nil)
			w := httptest.NewRecorder()

			r.ServeHTTP(w, req)

			if w.Code != tt.wantStatusCode {
				t.Fatalf("got status %d, want %d, body=%s", w.Code, tt.wantStatusCode, w.Body.String())
			}

			if tt.wantStatusCode == http.StatusOK {
				var resp struct {
					Count int `json:"count"`
				}
				if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
					t.Fatalf("failed to unmarshal response: %v", err)
				}
				if resp.Count != tt.wantCount {
					t.Fatalf("got count %d, want %d", resp.Count, tt.wantCount)
				}
			}
		})
	}
}
