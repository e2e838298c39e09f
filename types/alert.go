package types

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Alert is a broadcast message created by a mayor. Alerts are immutable once
// stored; the only lifecycle transition after creation is deletion.
type Alert struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Message   string    `json:"message"`
	SentBy    string    `json:"sentBy"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// CreateAlertInput is the request body accepted when creating an alert.
type CreateAlertInput struct {
	Title   string `json:"title"`
	Message string `json:"message"`
}

// Validate reports ErrValidation when either field is empty after trimming.
func (in CreateAlertInput) Validate() error {
	if strings.TrimSpace(in.Title) == "" || strings.TrimSpace(in.Message) == "" {
		return fmt.Errorf("%w: title and message are required", ErrValidation)
	}

	return nil
}

// NewAlert validates in and returns an alert owned by sentBy with trimmed
// title and message. The ID is left empty; it is assigned by the store.
func NewAlert(in CreateAlertInput, sentBy string, now time.Time) (*Alert, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}

	if sentBy == "" {
		return nil, fmt.Errorf("%w: sender cannot be empty", ErrValidation)
	}

	created := now.UTC()

	return &Alert{
		Title:     strings.TrimSpace(in.Title),
		Message:   strings.TrimSpace(in.Message),
		SentBy:    sentBy,
		CreatedAt: created,
		UpdatedAt: created,
	}, nil
}

// Validate checks an alert before it is written to a store.
func (a *Alert) Validate() error {
	if a == nil {
		return errors.New("alert cannot be nil")
	}

	if a.Title == "" {
		return errors.New("alert title cannot be empty")
	}

	if a.Message == "" {
		return errors.New("alert message cannot be empty")
	}

	if a.SentBy == "" {
		return errors.New("alert sender cannot be empty")
	}

	if a.CreatedAt.IsZero() {
		return errors.New("alert creation time cannot be zero")
	}

	return nil
}
