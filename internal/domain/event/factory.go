package event

import (
	"time"

	"github.com/google/uuid"
)

func NewFromCreateRequest(req CreateEventRequest, banner string) Event {
	now := time.Now().UTC()

	return Event{
		ID:          uuid.NewString(),
		Name:        req.Name,
		Description: req.Description,
		Date:        req.DateValue(),
		Location:    req.Location,
		Banner:      banner,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}
