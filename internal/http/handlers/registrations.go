package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/geocoder89/eventlite/internal/config"
	"github.com/geocoder89/eventlite/internal/domain/event"
	"github.com/geocoder89/eventlite/internal/domain/job"
	"github.com/geocoder89/eventlite/internal/domain/registration"
	"github.com/geocoder89/eventlite/internal/jobs"
	"github.com/geocoder89/eventlite/internal/repo/postgres"
	"github.com/geocoder89/eventlite/internal/utils"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5"
)

type RegistrationCreator interface {
	BeginTx(ctx context.Context) (pgx.Tx, error)
	CreateTx(ctx context.Context, tx pgx.Tx, req registration.CreateRegistrationRequest) (registration.Registration, string, error)
	ListByEvent(ctx context.Context, eventID string) ([]registration.Registration, error)
	CountForEvent(ctx context.Context, eventID string) (int, error)
}

type JobsCreator interface {
	CreateTx(ctx context.Context, tx pgx.Tx, req job.CreateRequest) (job.Job, error)
}

type RegistrationHandler struct {
	repo     RegistrationCreator
	jobsRepo JobsCreator
}

func NewRegistrationHandler(repo RegistrationCreator, jobsRepo JobsCreator) *RegistrationHandler {
	return &RegistrationHandler{repo: repo, jobsRepo: jobsRepo}
}

// Register creates the registration and enqueues its confirmation email in a
// single transaction. The email itself is delivered by the worker, so a slow
// or failing mail provider can no longer fail a committed registration.
func (h *RegistrationHandler) Register(ctx *gin.Context) {
	eventID := ctx.Param("id")

	if !utils.IsUUID(eventID) {
		RespondNotFound(ctx, "Event not found")
		return
	}

	var req registration.CreateRegistrationRequest

	if !BindForm(ctx, &req) {
		return
	}

	// force URL param as the source of truth
	req.EventID = eventID

	cctx, cancel := config.WithTimeout(2 * time.Second)

	defer cancel()

	tx, err := h.repo.BeginTx(cctx)

	if err != nil {
		RespondInternal(ctx, "Could not register for event")
		return
	}

	defer func() { _ = tx.Rollback(cctx) }()

	reg, eventName, err := h.repo.CreateTx(cctx, tx, req)

	if err != nil {
		if errors.Is(err, event.ErrNotFound) {
			RespondNotFound(ctx, "Event not found")
			return
		}

		RespondInternal(ctx, "Could not register for event")
		return
	}

	payload := jobs.RegistrationConfirmationPayload{
		RegistrationID: reg.ID,
		EventID:        reg.EventID,
		EventName:      eventName,
		Email:          reg.Email,
		Name:           reg.Name,
		RequestedAt:    time.Now().UTC(),
	}

	raw, err := payload.JSON()

	if err != nil {
		RespondInternal(ctx, "Could not register for event")
		return
	}

	// idempotency key
	key := "registration:confirm:" + reg.ID

	_, err = h.jobsRepo.CreateTx(cctx, tx, job.CreateRequest{
		Type:           jobs.TypeRegistrationConfirmation,
		Payload:        raw,
		RunAt:          time.Now().UTC(),
		MaxAttempts:    10,
		IdempotencyKey: &key,
	})
	if err != nil {
		// duplicate idempotency key inside the same tx is fine
		if !postgres.IsUniqueViolation(err) {
			RespondInternal(ctx, "Could not register for event")
			return
		}
	}

	// Commit once
	err = tx.Commit(cctx)
	if err != nil {
		RespondInternal(ctx, "Could not register for event")
		return
	}

	ctx.JSON(http.StatusCreated, gin.H{
		"message":      "Registration successful",
		"registration": reg,
	})
}

func (h *RegistrationHandler) ListForEvent(ctx *gin.Context) {
	eventID := ctx.Param("id")

	if !utils.IsUUID(eventID) {
		RespondNotFound(ctx, "Event not found")
		return
	}

	cctx, cancel := config.WithTimeout(2 * time.Second)
	defer cancel()

	regs, err := h.repo.ListByEvent(cctx, eventID)
	if err != nil {
		if errors.Is(err, event.ErrNotFound) {
			RespondNotFound(ctx, "Event not found")
			return
		}

		RespondInternal(ctx, "Could not list registrations")
		return
	}

	count, err := h.repo.CountForEvent(cctx, eventID)
	if err != nil {
		RespondInternal(ctx, "Could not list registrations")
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"eventId":       eventID,
		"count":         count,
		"registrations": regs,
	})
}
