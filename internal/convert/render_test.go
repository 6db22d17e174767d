package convert

import (
	"context"
	"strings"
	"testing"
)

func TestBuiltin_Render(t *testing.T) {
	src := strings.Join([]string{
		"== Intro ==",
		"Some '''bold''' and ''italic'' text with [[Other Page|a link]] and [https://example.org site].",
		"* one",
		"** two",
		"* three",
		"# first",
		`{| class="wikitable"`,
		"! H1 !! H2",
		"|-",
		"| a || b",
		"|}",
		" preformatted <line>",
		"[[Category:Guides]]",
	}, "\n")

	got, err := Builtin{}.Render(context.Background(), src)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	for _, want := range []string{
		`<h2><span class="mw-headline" id="Intro">Intro</span></h2>`,
		"<b>bold</b>",
		"<i>italic</i>",
		`<a href="Other_Page" title="Other Page">a link</a>`,
		`<a href="https://example.org">site</a>`,
		"<ul>\n<li>one</li>\n<ul>\n<li>two</li>\n</ul>\n<li>three</li>\n</ul>",
		"<ol>\n<li>first</li>\n</ol>",
		"<th>H1</th>",
		"<td>a</td>",
		"<td>b</td>",
		"</table>",
		"<pre>preformatted &lt;line&gt;</pre>",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("output missing %q:\n%s", want, got)
		}
	}
	if strings.Contains(got, "Category") {
		t.Errorf("category link rendered:\n%s", got)
	}
}

func TestBuiltin_UnclosedStructures(t *testing.T) {
	got, err := Builtin{}.Render(context.Background(), "{|\n| cell\n<pre>\ncode")
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if !strings.Contains(got, "</table>") {
		t.Errorf("table not closed:\n%s", got)
	}
}

func TestBuiltin_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := (Builtin{}).Render(ctx, "x"); err == nil {
		t.Fatal("expected context error")
	}
}
