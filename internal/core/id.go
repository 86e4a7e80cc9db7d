package core

import "github.com/google/uuid"

// NewID returns a random identifier for reports, tasks and executions.
func NewID() string {
	return uuid.NewString()
}
