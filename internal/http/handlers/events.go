package handlers

import (
	"context"
	"errors"
	"mime/multipart"
	"net/http"
	"strconv"
	"time"

	"github.com/geocoder89/eventlite/internal/config"
	"github.com/geocoder89/eventlite/internal/domain/event"
	"github.com/geocoder89/eventlite/internal/uploads"
	"github.com/geocoder89/eventlite/internal/utils"
	"github.com/gin-gonic/gin"
)

const (
	defaultPage  = 1
	defaultLimit = 4
)

type EventsRepository interface {
	Create(ctx context.Context, req event.CreateEventRequest, banner string) (event.Event, error)
	List(ctx context.Context, limit, offset int) ([]event.Event, int, error)
	GetByID(ctx context.Context, id string) (event.Event, error)
	Update(ctx context.Context, id string, req event.UpdateEventRequest) (event.Event, error)
	Delete(ctx context.Context, id string) error
}

type BannerSaver interface {
	Save(fh *multipart.FileHeader) (string, error)
}

type EventsHandler struct {
	repo    EventsRepository
	banners BannerSaver
}

func NewEventsHandler(repo EventsRepository, banners BannerSaver) *EventsHandler {
	return &EventsHandler{repo: repo, banners: banners}
}

func (h *EventsHandler) CreateEvent(ctx *gin.Context) {
	var req event.CreateEventRequest

	if !BindForm(ctx, &req) {
		return
	}

	if err := req.ParseDate(); err != nil {
		RespondBadRequest(ctx, "Invalid request body", FieldErrorDetails(FieldError{
			Field:   "date",
			Rule:    "datetime",
			Message: validationMessage("datetime", ""),
		}))
		return
	}

	// the banner is validated and stored before anything is persisted
	banner, ok := h.saveBanner(ctx)

	if !ok {
		return
	}

	cctx, cancel := config.WithTimeout(2 * time.Second)
	defer cancel()

	e, err := h.repo.Create(cctx, req, banner)

	if err != nil {
		RespondInternal(ctx, "Could not create event")
		return
	}

	ctx.JSON(http.StatusCreated, e)
}

func (h *EventsHandler) ListEvents(ctx *gin.Context) {
	page := queryInt(ctx, "page", defaultPage)
	limit := queryInt(ctx, "limit", defaultLimit)

	if page < 1 {
		page = defaultPage
	}

	// no upper bound on limit: arbitrarily large pages are accepted
	if limit < 1 {
		limit = defaultLimit
	}

	cctx, cancel := config.WithTimeout(2 * time.Second)
	defer cancel()

	events, total, err := h.repo.List(cctx, limit, (page-1)*limit)

	if err != nil {
		RespondInternal(ctx, "Could not list events")

		return
	}

	totalPages := (total + limit - 1) / limit

	RespondJSONWithETag(ctx, http.StatusOK, gin.H{
		"events":      events,
		"count":       len(events),
		"totalPages":  totalPages,
		"currentPage": page,
	})
}

func (h *EventsHandler) GetEventById(ctx *gin.Context) {
	id := ctx.Param("id")

	// malformed ids behave like missing records
	if !utils.IsUUID(id) {
		RespondNotFound(ctx, "Event not found")
		return
	}

	cctx, cancel := config.WithTimeout(2 * time.Second)
	defer cancel()

	e, err := h.repo.GetByID(cctx, id)

	if err != nil {
		if errors.Is(err, event.ErrNotFound) {
			RespondNotFound(ctx, "Event not found")
			return
		}
		RespondInternal(ctx, "Could not fetch event")
		return
	}

	RespondJSONWithETag(ctx, http.StatusOK, e)
}

func (h *EventsHandler) UpdateEvent(ctx *gin.Context) {
	id := ctx.Param("id")

	if !utils.IsUUID(id) {
		RespondNotFound(ctx, "Event not found")
		return
	}

	var req event.UpdateEventRequest

	if !BindForm(ctx, &req) {
		return
	}

	if err := req.ParseDate(); err != nil {
		RespondBadRequest(ctx, "Invalid request body", FieldErrorDetails(FieldError{
			Field:   "date",
			Rule:    "datetime",
			Message: validationMessage("datetime", ""),
		}))
		return
	}

	// a new banner replaces the stored path; the old file is not removed
	banner, ok := h.saveBanner(ctx)

	if !ok {
		return
	}

	if banner != "" {
		req.Banner = &banner
	}

	cctx, cancel := config.WithTimeout(2 * time.Second)
	defer cancel()

	// a request carrying no fields changes nothing, so skip the write
	if req.IsEmpty() {
		e, err := h.repo.GetByID(cctx, id)

		if err != nil {
			if errors.Is(err, event.ErrNotFound) {
				RespondNotFound(ctx, "Event not found")
				return
			}
			RespondInternal(ctx, "Could not update event")
			return
		}

		ctx.JSON(http.StatusOK, e)
		return
	}

	e, err := h.repo.Update(cctx, id, req)

	if err != nil {
		if errors.Is(err, event.ErrNotFound) {
			RespondNotFound(ctx, "Event not found")
			return
		}
		RespondInternal(ctx, "Could not update event")
		return
	}

	ctx.JSON(http.StatusOK, e)
}

func (h *EventsHandler) DeleteEvent(ctx *gin.Context) {
	id := ctx.Param("id")

	if !utils.IsUUID(id) {
		RespondNotFound(ctx, "Event not found")
		return
	}

	cctx, cancel := config.WithTimeout(2 * time.Second)
	defer cancel()

	err := h.repo.Delete(cctx, id)

	if err != nil {
		if errors.Is(err, event.ErrNotFound) {
			RespondNotFound(ctx, "Event not found")
			return
		}
		RespondInternal(ctx, "Could not delete event")
		return
	}

	// registrations and banner files for the event are left in place
	ctx.JSON(http.StatusOK, gin.H{"message": "Event deleted"})
}

// saveBanner handles the optional banner part of a multipart request. The
// second return is false when a response has already been written.
func (h *EventsHandler) saveBanner(ctx *gin.Context) (string, bool) {
	fh, err := ctx.FormFile("banner")

	if err != nil {
		if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
			return "", true
		}

		RespondBadRequest(ctx, "Invalid banner upload", nil)
		return "", false
	}

	path, err := h.banners.Save(fh)

	if err != nil {
		switch {
		case errors.Is(err, uploads.ErrUnsupportedType):
			RespondBadRequest(ctx, "Images only (jpeg, jpg, png, gif)", nil)
		case errors.Is(err, uploads.ErrTooLarge):
			RespondBadRequest(ctx, "Banner exceeds the maximum upload size", nil)
		default:
			RespondInternal(ctx, "Could not store banner")
		}
		return "", false
	}

	return path, true
}

func queryInt(ctx *gin.Context, key string, fallback int) int {
	v := ctx.Query(key)

	if v == "" {
		return fallback
	}

	n, err := strconv.Atoi(v)

	if err != nil {
		return fallback
	}

	return n
}
