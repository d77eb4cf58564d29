package event

import (
	"errors"
	"time"
)

type Event struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Date        time.Time `json:"date"`
	Location    string    `json:"location"`
	Banner      string    `json:"banner,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

var ErrNotFound = errors.New("event not found")

// CreateEventRequest is bound from the multipart form; the banner file is
// handled separately by the upload store. Date travels as a string and is
// parsed at the boundary so a malformed value surfaces as a field error
// rather than a bind failure.
type CreateEventRequest struct {
	Name        string `form:"name" binding:"required,min=1,max=200"`
	Description string `form:"description" binding:"required,min=1,max=2000"`
	Date        string `form:"date" binding:"required"`
	Location    string `form:"location" binding:"required,min=1,max=200"`

	parsedDate time.Time
}

// ParseDate validates the date field. It must be called before the request
// reaches a repository.
func (r *CreateEventRequest) ParseDate() error {
	t, err := time.Parse(time.RFC3339, r.Date)

	if err != nil {
		return err
	}

	r.parsedDate = t.UTC()
	return nil
}

func (r CreateEventRequest) DateValue() time.Time {
	return r.parsedDate
}

// UpdateEventRequest is a partial payload: nil means "leave unchanged".
type UpdateEventRequest struct {
	Name        *string `form:"name" binding:"omitempty,min=1,max=200"`
	Description *string `form:"description" binding:"omitempty,min=1,max=2000"`
	Date        *string `form:"date" binding:"omitempty"`
	Location    *string `form:"location" binding:"omitempty,min=1,max=200"`
	// set by the handler after upload handling, never bound from the form
	Banner *string `form:"-"`

	parsedDate *time.Time
}

// ParseDate validates the optional date field.
func (r *UpdateEventRequest) ParseDate() error {
	if r.Date == nil {
		return nil
	}

	t, err := time.Parse(time.RFC3339, *r.Date)

	if err != nil {
		return err
	}

	t = t.UTC()
	r.parsedDate = &t
	return nil
}

func (r *UpdateEventRequest) DateValue() *time.Time {
	return r.parsedDate
}

// IsEmpty reports whether the update carries no field at all.
func (r *UpdateEventRequest) IsEmpty() bool {
	return r.Name == nil && r.Description == nil && r.Date == nil && r.Location == nil && r.Banner == nil
}

// Apply merges the supplied fields onto an existing record. The in-memory
// repository shares this with the SQL path so both have the same merge
// semantics.
func (r *UpdateEventRequest) Apply(e *Event) {
	if r.Name != nil {
		e.Name = *r.Name
	}
	if r.Description != nil {
		e.Description = *r.Description
	}
	if r.parsedDate != nil {
		e.Date = *r.parsedDate
	}
	if r.Location != nil {
		e.Location = *r.Location
	}
	if r.Banner != nil {
		e.Banner = *r.Banner
	}
	e.UpdatedAt = time.Now().UTC()
}
