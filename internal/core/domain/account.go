package domain

import "time"

// Account mirrors the persisted representation in the accounts table.
// Email is unique and immutable after creation. FaceTemplate is nil until
// a template is enrolled; a non-nil template is a complete descriptor.
type Account struct {
	ID           string
	Email        string
	PasswordHash string
	FaceTemplate Descriptor
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// HasFaceTemplate reports whether a second authentication factor is enrolled.
func (a Account) HasFaceTemplate() bool {
	return len(a.FaceTemplate) > 0
}
