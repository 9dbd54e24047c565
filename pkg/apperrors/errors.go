package apperrors

import "errors"

var (
	ErrNotFound         = errors.New("not found")
	ErrAccessDenied     = errors.New("access denied")
	ErrStoreUnavailable = errors.New("organism store unavailable")
	ErrQueryTooShort    = errors.New("search query too short")
	ErrQueryRejected    = errors.New("search query rejected")
	ErrNoOrganisms      = errors.New("no organisms selected")
	ErrHierarchyCycle   = errors.New("feature hierarchy contains a cycle")
	ErrInvalidLogin     = errors.New("invalid username or password")
)
