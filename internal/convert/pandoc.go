package convert

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
	"sync"
	"time"
)

const stderrLimit = 8 * 1024

// Pandoc converts markup by running the pandoc binary.
type Pandoc struct {
	Binary  string
	Args    []string
	Timeout time.Duration
}

// Convert pipes text through pandoc on stdin.
func (p *Pandoc) Convert(ctx context.Context, text string, from, to Format) (string, error) {
	bin := p.Binary
	if bin == "" {
		bin = "pandoc"
	}
	if p.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.Timeout)
		defer cancel()
	}

	args := []string{"--from", string(from), "--to", string(to), "--markdown-headings=atx", "--wrap=none"}
	args = append(args, p.Args...)

	cmd := exec.CommandContext(ctx, bin, args...)
	cmd.Stdin = strings.NewReader(text)
	var stdout bytes.Buffer
	stderr := &cappedBuffer{limit: stderrLimit}
	cmd.Stdout = &stdout
	cmd.Stderr = stderr

	if err := cmd.Run(); err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return "", fmt.Errorf("pandoc %s to %s: %w: %s", from, to, err, msg)
		}
		return "", fmt.Errorf("pandoc %s to %s: %w", from, to, err)
	}
	return stdout.String(), nil
}

// cappedBuffer keeps at most limit bytes and silently drops the rest.
type cappedBuffer struct {
	mu    sync.Mutex
	buf   bytes.Buffer
	limit int
}

func (c *cappedBuffer) Write(p []byte) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	remaining := c.limit - c.buf.Len()
	if remaining <= 0 {
		return len(p), nil
	}
	toWrite := p
	if len(toWrite) > remaining {
		toWrite = toWrite[:remaining]
	}
	c.buf.Write(toWrite)
	return len(p), nil
}

func (c *cappedBuffer) String() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.buf.String()
}
