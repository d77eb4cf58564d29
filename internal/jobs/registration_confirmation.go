package jobs

import (
	"encoding/json"
	"time"
)

const TypeRegistrationConfirmation = "registration.confirmation"

type RegistrationConfirmationPayload struct {
	RegistrationID string    `json:"registrationId"`
	EventID        string    `json:"eventId"`
	EventName      string    `json:"eventName"`
	Email          string    `json:"email"`
	Name           string    `json:"name"`
	RequestedAt    time.Time `json:"requestedAt"`
}

func (p RegistrationConfirmationPayload) JSON() (json.RawMessage, error) {
	b, err := json.Marshal(p)

	if err != nil {
		return nil, err
	}
	return json.RawMessage(b), nil
}

// DecodeRegistrationConfirmation unmarshals a raw job payload back into its
// typed form, rejecting empty or malformed payloads.
func DecodeRegistrationConfirmation(raw json.RawMessage) (RegistrationConfirmationPayload, error) {
	var p RegistrationConfirmationPayload

	if len(raw) == 0 {
		return p, ErrInvalidJobPayload
	}

	if err := json.Unmarshal(raw, &p); err != nil {
		return p, ErrInvalidJobPayload
	}

	if p.RegistrationID == "" || p.Email == "" {
		return p, ErrInvalidJobPayload
	}

	return p, nil
}
