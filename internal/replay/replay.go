// Package replay writes converted revisions to the output tree and records
// each one as a commit.
package replay

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/OSAS/mw2md/internal/apperr"
	"github.com/OSAS/mw2md/internal/authors"
	"github.com/OSAS/mw2md/internal/models"
	"github.com/OSAS/mw2md/internal/paths"
	"github.com/OSAS/mw2md/internal/storage"
	"github.com/OSAS/mw2md/internal/vcs"
	"github.com/OSAS/mw2md/internal/wikitext"
)

// DefaultCreatedComment matches MediaWiki's automatic page creation summaries.
const DefaultCreatedComment = `(?i)^\s*(created page with|new page:)`

// Options configures a Replayer.
type Options struct {
	// History commits every revision. When false nothing is committed per
	// revision and the caller makes one Snapshot commit at the end.
	History        bool
	CreatedComment string
	SnapshotAuthor vcs.Author
	Logger         *slog.Logger
}

// Result reports what Apply did for one revision.
type Result struct {
	Path      string
	Wrote     bool
	Deleted   bool
	Committed bool
	CommitErr error
}

// Replayer applies revisions to the output tree in order.
type Replayer struct {
	store   storage.Provider
	vcs     vcs.VCS
	authors *authors.Store
	created *regexp.Regexp
	opts    Options
	logger  *slog.Logger
}

// New returns a Replayer. who may be nil, in which case every author is
// synthesized.
func New(store storage.Provider, v vcs.VCS, who *authors.Store, opts Options) (*Replayer, error) {
	if opts.CreatedComment == "" {
		opts.CreatedComment = DefaultCreatedComment
	}
	created, err := regexp.Compile(opts.CreatedComment)
	if err != nil {
		return nil, fmt.Errorf("replay: compile created comment pattern: %w", err)
	}
	if who == nil {
		who = authors.New(nil, "")
	}
	if opts.SnapshotAuthor.Name == "" {
		opts.SnapshotAuthor = vcs.Author{Name: "mw2md", Email: "mw2md@" + authors.DefaultDomain}
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Replayer{store: store, vcs: v, authors: who, created: created, opts: opts, logger: logger}, nil
}

// Apply writes or deletes the revision's document and commits the change.
// Failures are logged and reported in the Result; they never stop the caller.
func (r *Replayer) Apply(ctx context.Context, rev *models.Revision, resolved paths.Resolved, document string) Result {
	res := Result{Path: resolved.Path()}
	log := r.logger.With(slog.String("title", rev.Title()), slog.String("path", res.Path))

	if wikitext.IsRedirect(rev.Text) || wikitext.IsBlank(rev.Text) {
		err := r.store.Delete(res.Path)
		switch {
		case err == nil:
			res.Deleted = true
		case errors.Is(err, fs.ErrNotExist):
		default:
			log.Warn("delete failed", slog.String("error", err.Error()))
		}
		if !res.Deleted {
			return res
		}
	} else {
		if err := r.store.Write(res.Path, []byte(document)); err != nil {
			log.Error("write failed", slog.String("error", err.Error()))
			return res
		}
		res.Wrote = true
	}

	if !r.opts.History {
		return res
	}
	if r.IsCreated(rev.Comment) && pureRedirect(rev.Page) {
		return res
	}

	c := vcs.Commit{Author: r.Author(rev.Username), When: rev.Time(), Message: r.Message(rev)}
	if err := r.commit(ctx, c); err != nil {
		res.CommitErr = err
		if errors.Is(err, apperr.ErrNothingToCommit) {
			log.Debug("nothing to commit", slog.String("revision", rev.ID))
		} else {
			log.Warn("commit failed", slog.String("revision", rev.ID), slog.String("error", err.Error()))
		}
		return res
	}
	res.Committed = true
	return res
}

func (r *Replayer) commit(ctx context.Context, c vcs.Commit) error {
	if err := r.vcs.StageAll(ctx); err != nil {
		return err
	}
	return r.vcs.Commit(ctx, c)
}

// Snapshot commits the whole working tree as a single change.
func (r *Replayer) Snapshot(ctx context.Context, when time.Time, message string) error {
	if when.IsZero() {
		when = time.Now().UTC()
	}
	return r.commit(ctx, vcs.Commit{Author: r.opts.SnapshotAuthor, When: when, Message: message})
}

// Author resolves a username to commit authorship.
func (r *Replayer) Author(username string) vcs.Author {
	id := r.authors.Resolve(username)
	return vcs.Author{Name: id.Name, Email: id.Email}
}

// IsCreated reports whether comment is an automatic page creation summary.
func (r *Replayer) IsCreated(comment string) bool {
	return r.created.MatchString(comment)
}

// Message returns the commit message for rev.
func (r *Replayer) Message(rev *models.Revision) string {
	switch {
	case strings.TrimSpace(rev.Comment) == "":
		return fmt.Sprintf("Updated `%s`", rev.Title())
	case r.IsCreated(rev.Comment):
		return fmt.Sprintf("Created `%s`", rev.Title())
	default:
		return rev.Comment
	}
}

func pureRedirect(p *models.Page) bool {
	if p == nil {
		return false
	}
	return p.RedirectTarget != "" || wikitext.IsRedirect(p.FinalText())
}
