package convert

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/OSAS/mw2md/internal/models"
	"github.com/OSAS/mw2md/internal/rules"
)

// fakeConverter echoes its input and fails for the formats listed in fail.
type fakeConverter struct {
	fail  map[Format]error
	calls []Format
	input map[Format]string
}

func (f *fakeConverter) Convert(_ context.Context, text string, from, _ Format) (string, error) {
	f.calls = append(f.calls, from)
	if f.input == nil {
		f.input = make(map[Format]string)
	}
	f.input[from] = text
	if err := f.fail[from]; err != nil {
		return "", err
	}
	return text, nil
}

type failingRenderer struct{}

func (failingRenderer) Render(context.Context, string) (string, error) {
	return "", errors.New("renderer down")
}

func revision(title, text string) *models.Revision {
	p := &models.Page{Title: title}
	r := &models.Revision{Page: p, ID: "1", Timestamp: "2020-01-01T00:00:00Z", Text: text}
	p.Revisions = []*models.Revision{r}
	p.Final = r
	return r
}

func TestService_Primary(t *testing.T) {
	conv := &fakeConverter{}
	cfg := &rules.Config{MarkupRewrite: rules.Set{rules.New(`\{\{Note\}\}`, "NOTE:")}}
	s := NewService(conv, Builtin{}, cfg, Options{})

	out := s.Convert(context.Background(), revision("Page", "{{Note}} read \\_this\\_"))
	if !out.OK() || out.UsedFallback {
		t.Fatalf("outcome = %+v", out)
	}
	if out.Markdown != "NOTE: read _this_" {
		t.Errorf("markdown = %q", out.Markdown)
	}
	if len(conv.calls) != 1 || conv.calls[0] != FormatMediaWiki {
		t.Errorf("calls = %v", conv.calls)
	}
}

func TestService_Fallback(t *testing.T) {
	conv := &fakeConverter{fail: map[Format]error{FormatMediaWiki: errors.New("bad table")}}
	s := NewService(conv, Builtin{}, nil, Options{})

	out := s.Convert(context.Background(), revision("Broken", "{| style=\"x\"\n| colspan=\"2\" style=\"y\" | cell\n|}"))
	if !out.OK() {
		t.Fatalf("expected fallback success, got %v", out.Err)
	}
	if !out.UsedFallback {
		t.Error("UsedFallback not set")
	}
	if len(conv.calls) != 2 || conv.calls[1] != FormatHTML {
		t.Fatalf("calls = %v", conv.calls)
	}
	html := conv.input[FormatHTML]
	if strings.Contains(html, "style=") {
		t.Errorf("table attributes not flattened: %s", html)
	}
	if !strings.Contains(html, `colspan="2"`) {
		t.Errorf("colspan dropped: %s", html)
	}
}

func TestService_Failed(t *testing.T) {
	conv := &fakeConverter{fail: map[Format]error{
		FormatMediaWiki: errors.New("primary broke"),
		FormatHTML:      errors.New("html broke"),
	}}
	s := NewService(conv, Builtin{}, nil, Options{})

	out := s.Convert(context.Background(), revision("Broken", "original text"))
	if out.OK() {
		t.Fatal("expected failure")
	}
	if out.Status != StatusFailed || out.Original != "original text" {
		t.Errorf("outcome = %+v", out)
	}
	var convErr *ConversionError
	if !errors.As(out.Err, &convErr) {
		t.Fatalf("error %v is not a ConversionError", out.Err)
	}
	if !strings.Contains(out.Err.Error(), "fallback") {
		t.Errorf("error %q does not name the fallback stage", out.Err)
	}
}

func TestService_RendererFailure(t *testing.T) {
	conv := &fakeConverter{fail: map[Format]error{FormatMediaWiki: errors.New("nope")}}
	s := NewService(conv, failingRenderer{}, nil, Options{})
	out := s.Convert(context.Background(), revision("X", "text"))
	if out.OK() {
		t.Fatal("expected failure")
	}
	if !strings.Contains(out.Err.Error(), "render") {
		t.Errorf("error = %v", out.Err)
	}
	if len(conv.calls) != 1 {
		t.Errorf("converter called %d times, want 1", len(conv.calls))
	}
}

func TestService_NoRenderer(t *testing.T) {
	conv := &fakeConverter{fail: map[Format]error{FormatMediaWiki: errors.New("nope")}}
	s := NewService(conv, nil, nil, Options{})
	if out := s.Convert(context.Background(), revision("X", "text")); out.OK() {
		t.Fatal("expected failure without renderer")
	}
}

func TestService_Body(t *testing.T) {
	s := NewService(&fakeConverter{}, nil, nil, Options{})
	if got := s.Body("HowTo/Setup", "Some **bold** text"); got != "# Setup\n\nSome **bold** text" {
		t.Errorf("Body = %q", got)
	}
	if got := s.Body("HowTo/Setup", "# Setup\n\ntext"); got != "# Setup\n\ntext" {
		t.Errorf("Body = %q", got)
	}
}

func TestService_TOCSwitches(t *testing.T) {
	s := NewService(&fakeConverter{}, nil, nil, Options{TOC: DefaultTOC, NoTOC: "{:.no_toc}"})
	out := s.Convert(context.Background(), revision("P", "Intro\n__TOC__\nBody __NOTOC__"))
	if !strings.Contains(out.Markdown, "* ToC\n{:toc}") {
		t.Errorf("toc directive missing: %q", out.Markdown)
	}
	if !strings.Contains(out.Markdown, "{:.no_toc}") {
		t.Errorf("notoc directive missing: %q", out.Markdown)
	}
	if strings.Contains(out.Markdown, "TOC__") || strings.Contains(out.Markdown, "MARKER") {
		t.Errorf("switch leaked: %q", out.Markdown)
	}
}
