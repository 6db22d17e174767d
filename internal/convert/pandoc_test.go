package convert

import (
	"context"
	"os/exec"
	"strings"
	"testing"
)

func TestPandoc_Convert(t *testing.T) {
	if _, err := exec.LookPath("pandoc"); err != nil {
		t.Skip("pandoc not installed")
	}
	p := &Pandoc{}
	got, err := p.Convert(context.Background(), "== Title ==\n'''bold''' text", FormatMediaWiki, FormatMarkdown)
	if err != nil {
		t.Fatalf("Convert: %v", err)
	}
	if !strings.Contains(got, "## Title") || !strings.Contains(got, "**bold**") {
		t.Errorf("Convert = %q", got)
	}
}

func TestPandoc_MissingBinary(t *testing.T) {
	p := &Pandoc{Binary: "mw2md-no-such-pandoc"}
	if _, err := p.Convert(context.Background(), "x", FormatMediaWiki, FormatMarkdown); err == nil {
		t.Fatal("expected error for missing binary")
	}
}

func TestCappedBuffer(t *testing.T) {
	b := &cappedBuffer{limit: 4}
	n, err := b.Write([]byte("abcdef"))
	if err != nil || n != 6 {
		t.Fatalf("Write = %d, %v", n, err)
	}
	_, _ = b.Write([]byte("gh"))
	if b.String() != "abcd" {
		t.Errorf("String = %q", b.String())
	}
}
