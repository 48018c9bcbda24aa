package actions

import "errors"

// Action registry errors.
var (
	// ErrActionNotFound is returned when a name has no registry entry.
	ErrActionNotFound = errors.New("action not found")

	// ErrActionNameEmpty is returned when an action has no name.
	ErrActionNameEmpty = errors.New("action name cannot be empty")

	// ErrHandlerNil is returned when a method action has no handler.
	ErrHandlerNil = errors.New("action handler cannot be nil")

	// ErrInvalidSpec is returned when a shell/http action is missing its spec.
	ErrInvalidSpec = errors.New("invalid action spec")

	// ErrInvalidRisk is returned for an unknown risk level name.
	ErrInvalidRisk = errors.New("invalid risk level")
)
