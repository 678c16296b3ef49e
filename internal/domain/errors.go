package domain

import "errors"

var (
	ErrInvalidID       = errors.New("invalid id")
	ErrInvalidTitle    = errors.New("invalid title")
	ErrInvalidKind     = errors.New("invalid kind")
	ErrInvalidPriority = errors.New("invalid priority")
	ErrInvalidLogin    = errors.New("invalid login")
	ErrInvalidScore    = errors.New("invalid score")
)
