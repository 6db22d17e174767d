package vcs

import (
	"context"
	"sync"

	"github.com/OSAS/mw2md/internal/apperr"
)

// Recorder is an in-memory VCS that keeps every commit it is asked to make.
// It backs dry runs and tests.
type Recorder struct {
	mu        sync.Mutex
	commits   []Commit
	staged    int
	inits     int
	compacted bool

	// FailCommit, when set, is consulted before recording a commit.
	FailCommit func(Commit) error
}

func (r *Recorder) Init(context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.inits++
	return nil
}

func (r *Recorder) StageAll(context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.staged++
	return nil
}

func (r *Recorder) Commit(_ context.Context, c Commit) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.FailCommit != nil {
		if err := r.FailCommit(c); err != nil {
			return err
		}
	}
	if r.staged == 0 {
		return apperr.ErrNothingToCommit
	}
	r.staged = 0
	r.commits = append(r.commits, c)
	return nil
}

func (r *Recorder) Compact(context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.compacted = true
	return nil
}

// Commits returns a copy of the recorded commits in order.
func (r *Recorder) Commits() []Commit {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Commit(nil), r.commits...)
}

// Initialized reports whether Init was called.
func (r *Recorder) Initialized() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.inits > 0
}

// Compacted reports whether Compact was called.
func (r *Recorder) Compacted() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.compacted
}
