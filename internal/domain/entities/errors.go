package entities

import "errors"

var (
	ErrNotFound          = errors.New("resource not found")
	ErrUnauthorized      = errors.New("unauthorized")
	ErrMissingToken      = errors.New("missing GitHub access token")
	ErrOutdated          = errors.New("outdated dependencies found")
	ErrBranchNotFound    = errors.New("branch not found")
	ErrInvalidRepository = errors.New("invalid repository, expected owner/name")
	ErrNoRegistry        = errors.New("no registry matches the URL")
	ErrInvalidPattern    = errors.New("invalid path pattern")
)
