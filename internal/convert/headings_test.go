package convert

import "testing"

func TestTitledBody_SimilarHeadingKept(t *testing.T) {
	md := "# Installation Guide\n\n## Steps\n\nDo it."
	got, injected := TitledBody("Installation Guide", md, DefaultSimilarity)
	if injected || got != md {
		t.Errorf("TitledBody = %q, %v; want input unchanged", got, injected)
	}
}

func TestTitledBody_InjectsAndDemotes(t *testing.T) {
	md := "# Overview\n\nText\n\n## Details\n\n```\n# comment in code\n```\n\n###### Deep"
	got, injected := TitledBody("Installation Guide", md, DefaultSimilarity)
	want := "# Installation Guide\n\n## Overview\n\nText\n\n### Details\n\n```\n# comment in code\n```\n\n###### Deep"
	if !injected || got != want {
		t.Errorf("TitledBody =\n%s\nwant\n%s", got, want)
	}
}

func TestTitledBody_NoHeading(t *testing.T) {
	got, injected := TitledBody("InstallationGuide", "plain text", 0)
	if !injected || got != "# Installation Guide\n\nplain text" {
		t.Errorf("TitledBody = %q", got)
	}
	got, _ = TitledBody("Empty", "", 0)
	if got != "# Empty" {
		t.Errorf("empty body = %q", got)
	}
}

func TestFirstHeading(t *testing.T) {
	tests := []struct {
		md   string
		want string
		ok   bool
	}{
		{"intro\n\n## Getting *Started*\n\n# Later", "Getting Started", true},
		{"Setext Title\n============\n", "Setext Title", true},
		{"no headings here", "", false},
		{"```\n# fenced\n```", "", false},
	}
	for _, tt := range tests {
		got, ok := FirstHeading(tt.md)
		if got != tt.want || ok != tt.ok {
			t.Errorf("FirstHeading(%q) = %q, %v; want %q, %v", tt.md, got, ok, tt.want, tt.ok)
		}
	}
}

func TestSimilarity(t *testing.T) {
	if s := Similarity("Installation Guide", "installation guide"); s < 0.99 {
		t.Errorf("case-insensitive similarity = %f", s)
	}
	if s := Similarity("Installation Guide", "Overview"); s >= DefaultSimilarity {
		t.Errorf("similarity = %f, want below threshold", s)
	}
}

func TestHumanizeTitle(t *testing.T) {
	tests := map[string]string{
		"InstallationGuide": "Installation Guide",
		"XMLParser":         "XML Parser",
		"Setup":             "Setup",
		"Already Spaced":    "Already Spaced",
		"Under_Score":       "Under Score",
	}
	for in, want := range tests {
		if got := HumanizeTitle(in); got != want {
			t.Errorf("HumanizeTitle(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestDemoteHeadings(t *testing.T) {
	in := "# One\n#hashtag\n~~~\n## code\n~~~\n## Two"
	want := "## One\n#hashtag\n~~~\n## code\n~~~\n### Two"
	if got := DemoteHeadings(in); got != want {
		t.Errorf("DemoteHeadings = %q, want %q", got, want)
	}
}
