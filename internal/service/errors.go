package service

import (
	"errors"
	"fmt"
	"strings"

	"github.com/jesses-code-adventures/tims/internal/database"
	"github.com/jesses-code-adventures/tims/internal/models"
)

var (
	ErrNotFound           = errors.New("record not found")
	ErrRights             = errors.New("insufficient rights")
	ErrNotSignedIn        = errors.New("no user signed in")
	ErrDuplicate          = errors.New("duplicate record")
	ErrTaskAlreadyStarted = errors.New("task already started")
	ErrNoOpenWork         = errors.New("no work in progress")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrPasswordStrength   = errors.New("password must be at least 8 characters and contain an uppercase letter, a lowercase letter and a digit")
	ErrInvalidKey         = errors.New("invalid or expired key")
	ErrNoChanges          = errors.New("nothing to update")
	ErrAlreadyInstalled   = errors.New("already installed")
)

type NotFoundError struct {
	Kind string
	ID   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s '%s' does not exist", e.Kind, e.ID)
}

func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

type DuplicateError struct {
	Kind  string
	Field string
	Value string
}

func (e *DuplicateError) Error() string {
	return fmt.Sprintf("%s with %s '%s' already exists", e.Kind, e.Field, e.Value)
}

func (e *DuplicateError) Is(target error) bool {
	return target == ErrDuplicate
}

type ValidationError struct {
	Fields []models.FieldError
}

func (e *ValidationError) Error() string {
	parts := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		parts[i] = f.String()
	}
	return "invalid fields: " + strings.Join(parts, ", ")
}

func missing(fields ...string) error {
	errs := make([]models.FieldError, len(fields))
	for i, f := range fields {
		errs[i] = models.FieldError{Field: f, Reason: "missing"}
	}
	return &ValidationError{Fields: errs}
}

func invalid(field, reason string) error {
	return &ValidationError{Fields: []models.FieldError{{Field: field, Reason: reason}}}
}

// check validates record and returns a *ValidationError when it fails.
func check(record any, prefix string) error {
	if errs := models.Check(record, prefix); len(errs) > 0 {
		return &ValidationError{Fields: errs}
	}
	return nil
}

// lookupErr maps a missing row to NotFoundError and wraps anything else.
func lookupErr(kind, id string, err error) error {
	if errors.Is(err, database.ErrNoRows) {
		return &NotFoundError{Kind: kind, ID: id}
	}
	return fmt.Errorf("failed to get %s: %w", kind, err)
}

func duplicateErr(kind, field, value string, err error) error {
	if errors.Is(err, database.ErrUniqueViolation) {
		return &DuplicateError{Kind: kind, Field: field, Value: value}
	}
	return err
}
