package domain

import "time"

// AccountRegisteredEvent is emitted after a new account row is committed.
type AccountRegisteredEvent struct {
	EventID      string
	AccountID    string
	Email        string
	RegisteredAt time.Time
	Metadata     map[string]any
}

// TemplateEnrolledEvent is emitted after a face template is stored for an account.
type TemplateEnrolledEvent struct {
	EventID    string
	AccountID  string
	Dimension  int
	EnrolledAt time.Time
	Metadata   map[string]any
}
