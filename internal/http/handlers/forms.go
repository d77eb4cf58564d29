package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/geocoder89/eventlite/internal/config"
	"github.com/geocoder89/eventlite/internal/domain/event"
	"github.com/geocoder89/eventlite/internal/utils"
	"github.com/gin-gonic/gin"
)

// FormsHandler serves the data payloads behind the create/edit/register
// input forms. Template rendering itself lives client-side; these endpoints
// only supply what a form needs.
type FormsHandler struct {
	repo EventsRepository
}

func NewFormsHandler(repo EventsRepository) *FormsHandler {
	return &FormsHandler{repo: repo}
}

func (h *FormsHandler) CreateForm(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, gin.H{
		"form": gin.H{
			"name":        "",
			"description": "",
			"date":        "",
			"location":    "",
		},
	})
}

func (h *FormsHandler) EditForm(ctx *gin.Context) {
	h.respondWithEvent(ctx)
}

func (h *FormsHandler) RegisterForm(ctx *gin.Context) {
	h.respondWithEvent(ctx)
}

func (h *FormsHandler) respondWithEvent(ctx *gin.Context) {
	id := ctx.Param("id")

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

	ctx.JSON(http.StatusOK, gin.H{"event": e})
}
