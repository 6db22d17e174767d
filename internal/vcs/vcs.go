// Package vcs is the version-control port used to replay wiki history.
package vcs

import (
	"context"
	"fmt"
	"time"
)

// Author identifies who made a change.
type Author struct {
	Name  string
	Email string
}

func (a Author) String() string {
	return fmt.Sprintf("%s <%s>", a.Name, a.Email)
}

// Commit describes one recorded change. The change set is whatever is
// staged when the commit is made.
type Commit struct {
	Author  Author
	When    time.Time
	Message string
}

// VCS records the output tree's history.
type VCS interface {
	// Init prepares an empty repository.
	Init(ctx context.Context) error
	// StageAll stages every change in the working tree.
	StageAll(ctx context.Context) error
	// Commit records the staged changes. It returns apperr.ErrNothingToCommit
	// when nothing is staged.
	Commit(ctx context.Context, c Commit) error
	// Compact repacks the repository.
	Compact(ctx context.Context) error
}
