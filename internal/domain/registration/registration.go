package registration

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

type Registration struct {
	ID           string    `json:"id"`
	EventID      string    `json:"eventId"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	RegisteredAt time.Time `json:"registeredAt"`
}

var ErrNotFound = errors.New("registration not found")

type CreateRegistrationRequest struct {
	EventID string `form:"-"`
	Name    string `form:"name" binding:"required,min=1"`
	Email   string `form:"email" binding:"required,email"`
}

// A factory to build a Registration from the incoming DTO

func NewFromCreateRequest(req CreateRegistrationRequest) Registration {
	return Registration{
		ID:           uuid.NewString(),
		EventID:      req.EventID,
		Name:         req.Name,
		Email:        req.Email,
		RegisteredAt: time.Now().UTC(),
	}
}
