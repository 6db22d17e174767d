package wikitext

import "testing"

func TestIsRedirect(t *testing.T) {
	cases := map[string]bool{
		"#REDIRECT [[Target]]":       true,
		"  #redirect:[[Other Page]]": true,
		"#Redirect [[A|b]]":          true,
		"Some text #REDIRECT [[X]]":  false,
		"":                           false,
	}
	for text, want := range cases {
		if got := IsRedirect(text); got != want {
			t.Errorf("IsRedirect(%q) = %v, want %v", text, got, want)
		}
	}
}

func TestRedirectTarget(t *testing.T) {
	if got := RedirectTarget("#REDIRECT [[Main_Page#History]]"); got != "Main Page" {
		t.Errorf("target = %q, want %q", got, "Main Page")
	}
	if got := RedirectTarget("plain text"); got != "" {
		t.Errorf("target = %q, want empty", got)
	}
}

func TestCategory(t *testing.T) {
	text := "intro\n[[category: Guides|Sort key]]\n[[Category:Other]]"
	raw := Category(text)
	if raw != "Guides|Sort key" {
		t.Fatalf("raw category = %q", raw)
	}
	if dir := CategoryDir(raw); dir != "guides" {
		t.Errorf("category dir = %q, want guides", dir)
	}
	if dir := CategoryDir("Docs/Admin"); dir != "docs" {
		t.Errorf("category dir = %q, want docs", dir)
	}
	if Category("no categories here") != "" {
		t.Error("expected empty category")
	}
}

func TestStripComments(t *testing.T) {
	got := StripComments("a <!-- hidden\nmultiline --> b <!-- x -->c")
	if got != "a  b c" {
		t.Errorf("StripComments = %q", got)
	}
}

func TestSplitTitle(t *testing.T) {
	tests := []struct {
		title, dir, name string
	}{
		{"HowTo/Setup", "HowTo", "Setup"},
		{"Setup", "", "Setup"},
		{"Project:Docs/Install Guide", "Project/Docs", "Install Guide"},
		{"Page&action=edit", "", "Page"},
		{"/Leading", "", "Leading"},
	}
	for _, tt := range tests {
		dir, name := SplitTitle(tt.title)
		if dir != tt.dir || name != tt.name {
			t.Errorf("SplitTitle(%q) = (%q, %q), want (%q, %q)", tt.title, dir, name, tt.dir, tt.name)
		}
	}
}

func TestHasNamespacePrefix(t *testing.T) {
	prefixes := []string{"File", "Image:"}
	if !HasNamespacePrefix("file:Logo.png", prefixes) {
		t.Error("expected File: prefix match")
	}
	if !HasNamespacePrefix("Image:Diagram.svg", prefixes) {
		t.Error("expected Image: prefix match")
	}
	if HasNamespacePrefix("Filesystem layout", prefixes) {
		t.Error("unexpected match without colon")
	}
}
