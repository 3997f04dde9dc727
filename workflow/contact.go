// Package workflow runs the contact-form process: a submission is validated,
// queued as an execution, and a worker forwards it to administrators.
package workflow

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/brewcraft/restaurant-backend/notify"
	"github.com/google/uuid"
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

type ContactRequest struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Message string `json:"message"`
}

// Execution is the queued unit of work.
type Execution struct {
	ExecutionID string         `json:"executionId"`
	StartedAt   time.Time      `json:"startedAt"`
	Input       ContactRequest `json:"input"`
}

type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed: '%s' %s", e.Field, e.Reason)
}

func (r *ContactRequest) Validate() error {
	r.Name = strings.TrimSpace(r.Name)
	r.Email = strings.TrimSpace(r.Email)
	r.Message = strings.TrimSpace(r.Message)

	switch {
	case r.Name == "":
		return &ValidationError{Field: "name", Reason: "is missing or empty"}
	case r.Email == "":
		return &ValidationError{Field: "email", Reason: "is missing or empty"}
	case r.Message == "":
		return &ValidationError{Field: "message", Reason: "is missing or empty"}
	case !emailPattern.MatchString(r.Email):
		return &ValidationError{Field: "email", Reason: "has an invalid format"}
	}
	return nil
}

type Sender interface {
	Send(ctx context.Context, msg notify.Message) notify.Outcome
}

// Starter begins a contact execution and returns its id.
type Starter interface {
	Start(ctx context.Context, req ContactRequest) (string, error)
}

func newExecution(req ContactRequest) Execution {
	return Execution{
		ExecutionID: uuid.NewString(),
		StartedAt:   time.Now().UTC(),
		Input:       req,
	}
}

// ProcessContact is the worker step: revalidate and alert administrators.
func ProcessContact(ctx context.Context, sender Sender, body []byte) error {
	var exec Execution
	if err := json.Unmarshal(body, &exec); err != nil {
		return &ValidationError{Field: "body", Reason: "is not a contact execution"}
	}
	if err := exec.Input.Validate(); err != nil {
		return err
	}
	sender.Send(ctx, notify.ContactAlert(exec.Input.Name, exec.Input.Email, exec.Input.Message))
	return nil
}

// InlineStarter runs the execution in-process. Used when no queue is configured.
type InlineStarter struct {
	Sender Sender
}

func (s InlineStarter) Start(ctx context.Context, req ContactRequest) (string, error) {
	if err := req.Validate(); err != nil {
		return "", err
	}
	exec := newExecution(req)
	body, err := json.Marshal(exec)
	if err != nil {
		return "", err
	}
	if err := ProcessContact(ctx, s.Sender, body); err != nil {
		return "", err
	}
	return exec.ExecutionID, nil
}
