package vcs

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/alessio/shellescape"

	"github.com/OSAS/mw2md/internal/apperr"
)

// Git drives the git binary. Every argument is passed as a discrete argv
// entry, so author names and messages never pass through a shell.
type Git struct {
	Dir    string
	Binary string
	Logger *slog.Logger
}

// NewGit returns a Git working in dir.
func NewGit(dir, binary string, logger *slog.Logger) *Git {
	if binary == "" {
		binary = "git"
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Git{Dir: dir, Binary: binary, Logger: logger}
}

func (g *Git) run(ctx context.Context, env []string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, g.Binary, args...)
	cmd.Dir = g.Dir
	cmd.Env = append(os.Environ(), env...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	g.Logger.Debug("git",
		slog.String("dir", g.Dir),
		slog.String("command", shellescape.QuoteCommand(append([]string{g.Binary}, args...))))

	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			msg = strings.TrimSpace(stdout.String())
		}
		return "", fmt.Errorf("vcs: git %s: %w: %s", args[0], err, msg)
	}
	return strings.TrimSpace(stdout.String()), nil
}

// Init creates the repository if it does not exist yet.
func (g *Git) Init(ctx context.Context) error {
	if err := os.MkdirAll(g.Dir, 0o755); err != nil {
		return fmt.Errorf("vcs: create %s: %w", g.Dir, err)
	}
	_, err := g.run(ctx, nil, "init", "--quiet")
	return err
}

// StageAll stages additions, modifications and deletions.
func (g *Git) StageAll(ctx context.Context) error {
	_, err := g.run(ctx, nil, "add", "--all", ".")
	return err
}

// Commit records the staged changes with the given authorship. Author and
// committer dates are both set to c.When.
func (g *Git) Commit(ctx context.Context, c Commit) error {
	if _, err := g.run(ctx, nil, "diff", "--cached", "--quiet"); err == nil {
		return apperr.ErrNothingToCommit
	}

	when := c.When.UTC().Format(time.RFC3339)
	env := []string{
		"GIT_AUTHOR_DATE=" + when,
		"GIT_COMMITTER_DATE=" + when,
		"GIT_COMMITTER_NAME=" + c.Author.Name,
		"GIT_COMMITTER_EMAIL=" + c.Author.Email,
	}
	_, err := g.run(ctx, env, "commit", "--quiet", "--no-verify", "--allow-empty-message",
		"--author", c.Author.String(), "--message", c.Message)
	return err
}

// Compact repacks the object store.
func (g *Git) Compact(ctx context.Context) error {
	_, err := g.run(ctx, nil, "gc", "--aggressive", "--prune=now", "--quiet")
	return err
}

// Log returns "author|email|date|subject" lines, oldest first.
func (g *Git) Log(ctx context.Context) ([]string, error) {
	out, err := g.run(ctx, nil, "log", "--reverse", "--format=%an|%ae|%aI|%s")
	if err != nil {
		return nil, err
	}
	if out == "" {
		return nil, errors.New("vcs: empty history")
	}
	return strings.Split(out, "\n"), nil
}
