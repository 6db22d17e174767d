package apperr

import "errors"

var (
	ErrNotFound        = errors.New("not found")
	ErrOutputExists    = errors.New("output directory is not empty")
	ErrNothingToCommit = errors.New("nothing to commit")
	ErrRedirectLoop    = errors.New("redirect loop")
)
