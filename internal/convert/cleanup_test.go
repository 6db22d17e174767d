package convert

import (
	"strings"
	"testing"

	"github.com/OSAS/mw2md/internal/rules"
)

func TestCleanup_Apply(t *testing.T) {
	in := strings.Join([]string{
		`Costs \$5 for \#1 and some\_thing`,
		`See [Other](Other "wikilink") now`,
		`- item`,
		`  - nested`,
		"`yum install ovirt-engine`",
		`Visit [//www.example.org/path Example Site] today`,
		`| | |`,
		`|   |`,
		`| a | b |`,
	}, "\n")
	got := Cleanup{}.Apply(in)

	want := []string{
		`Costs $5 for #1 and some_thing`,
		`See [Other](Other) now`,
		"* item\n  * nested",
		"    yum install ovirt-engine",
		`Visit [Example Site](//www.example.org/path) today`,
		`| a | b |`,
	}
	for _, w := range want {
		if !strings.Contains(got, w) {
			t.Errorf("output missing %q:\n%s", w, got)
		}
	}
	if strings.Contains(got, "| | |") || strings.Contains(got, "|   |") {
		t.Errorf("pipe-only rows kept:\n%s", got)
	}
}

func TestCleanup_TOCDirectives(t *testing.T) {
	c := Cleanup{TOC: DefaultTOC}
	got := c.Apply("Intro\n\n\\_\\_TOC\\_\\_\n\nBody\n\n__NOTOC__")
	if got != "Intro\n\n* ToC\n{:toc}\n\nBody" {
		t.Errorf("Apply = %q", got)
	}
}

func TestCleanup_MarkdownRewrite(t *testing.T) {
	c := Cleanup{Rewrite: rules.Set{rules.New(`(?m)^Note: (.*)$`, `> **Note:** \1`)}}
	if got := c.Apply("Note: careful"); got != "> **Note:** careful" {
		t.Errorf("Apply = %q", got)
	}
}
