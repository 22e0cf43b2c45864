// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

import (
	"errors"
	"fmt"
)

// Sentinel errors shared by the store, lifecycle and service layers.
var (
	ErrNotFound               = errors.New("not found")
	ErrConcurrentModification = errors.New("concurrent modification")
	ErrInvalidTransition      = errors.New("invalid transition")
)

// ValidationKind classifies a ValidationError by the value object it concerns.
type ValidationKind string

const (
	KindInvalidProject          ValidationKind = "InvalidProject"
	KindInvalidModelConfig      ValidationKind = "InvalidModelConfig"
	KindInvalidDeploymentConfig ValidationKind = "InvalidDeploymentConfig"
	KindInvalidRevenueConfig    ValidationKind = "InvalidRevenueConfig"
	KindInvalidPageContent      ValidationKind = "InvalidPageContent"
	KindInvalidPayload          ValidationKind = "InvalidPayload"
)

// ValidationError reports a malformed value before any persistence or
// external call took place.
type ValidationError struct {
	Kind    ValidationKind
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("%s: %s", e.Kind, e.Message)
	}
	return fmt.Sprintf("%s: %s: %s", e.Kind, e.Field, e.Message)
}

func invalid(kind ValidationKind, field, format string, args ...any) *ValidationError {
	return &ValidationError{Kind: kind, Field: field, Message: fmt.Sprintf(format, args...)}
}

// TransitionError is returned when an event is not allowed from the
// project's current status. It matches ErrInvalidTransition via errors.Is.
type TransitionError struct {
	From   ProjectStatus
	Event  string
	Reason string
}

func (e *TransitionError) Error() string {
	msg := fmt.Sprintf("invalid transition: %s from %s", e.Event, e.From)
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	return msg
}

func (e *TransitionError) Unwrap() error { return ErrInvalidTransition }

// AdapterError wraps a failure of an external collaborator (model host,
// hosting platform, ad network, object storage).
type AdapterError struct {
	Provider  string
	Op        string
	Reason    string
	Temporary bool
	Err       error
}

func (e *AdapterError) Error() string {
	msg := fmt.Sprintf("%s %s: %s", e.Provider, e.Op, e.Reason)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *AdapterError) Unwrap() error { return e.Err }

// AsValidation reports whether err carries a ValidationError.
func AsValidation(err error) (*ValidationError, bool) {
	var ve *ValidationError
	ok := errors.As(err, &ve)
	return ve, ok
}

// AsAdapter reports whether err carries an AdapterError.
func AsAdapter(err error) (*AdapterError, bool) {
	var ae *AdapterError
	ok := errors.As(err, &ae)
	return ae, ok
}
