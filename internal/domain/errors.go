package domain

import "errors"

var (
	ErrNotFound           = errors.New("job not found")
	ErrNoInputFiles       = errors.New("job has no input files")
	ErrMissingCredentials = errors.New("missing username or user token")
)
