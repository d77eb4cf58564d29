package notifications

import "context"

type SendRegistrationConfirmationInput struct {
	Email          string
	Name           string
	EventID        string
	EventName      string
	RegistrationID string
}

type Notifier interface {
	SendRegistrationConfirmation(ctx context.Context, input SendRegistrationConfirmationInput) error
}

const confirmationSubject = "Event Registration Confirmation"

func confirmationBody(eventName string) string {
	return "Thank you for registering for " + eventName + "! We look forward to seeing you there."
}
