package app

import "errors"

// Draft validation errors. These are resolved locally and never reach the
// network.
var (
	ErrDescriptionRequired = errors.New("description is required")
	ErrTopicRequired       = errors.New("a topic must be selected")
	ErrDatesRequired       = errors.New("start and end dates are required")
	ErrPartnerRequired     = errors.New("a partner dni is required")
	ErrDecisionRequired    = errors.New("a decision must be selected")
)

// Fallback messages shown when the backend supplies no human-readable one.
const (
	fallbackLoad      = "The list could not be loaded. Please try again."
	fallbackSave      = "The changes could not be saved. Please try again."
	fallbackDelete    = "The record could not be deleted. Please try again."
	fallbackLogin     = "Login failed. Check your credentials and try again."
	fallbackAutoLogin = "Automatic login failed. Please log in manually."
	fallbackReview    = "The review action failed. Please try again."
)
