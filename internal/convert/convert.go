// Package convert turns wiki markup into cleaned-up Markdown, falling back to
// an HTML rendering when the primary conversion fails.
package convert

import (
	"context"
	"fmt"
)

// Format names a markup dialect understood by a MarkupConverter.
type Format string

const (
	FormatMediaWiki Format = "mediawiki"
	FormatHTML      Format = "html"
	FormatMarkdown  Format = "gfm"
)

// MarkupConverter converts text between markup formats.
type MarkupConverter interface {
	Convert(ctx context.Context, text string, from, to Format) (string, error)
}

// Renderer renders wiki markup to HTML.
type Renderer interface {
	Render(ctx context.Context, text string) (string, error)
}

// Stage identifies the step of a conversion that failed.
type Stage string

const (
	StagePrimary  Stage = "primary"
	StageRender   Stage = "render"
	StageClean    Stage = "clean"
	StageFallback Stage = "fallback"
)

// ConversionError reports which step of a conversion failed.
type ConversionError struct {
	Stage Stage
	Err   error
}

func (e *ConversionError) Error() string {
	return fmt.Sprintf("convert: %s: %v", e.Stage, e.Err)
}

func (e *ConversionError) Unwrap() error { return e.Err }

// Status selects the variant of an Outcome.
type Status int

const (
	StatusConverted Status = iota
	StatusFailed
)

func (s Status) String() string {
	if s == StatusFailed {
		return "failed"
	}
	return "converted"
}

// Outcome is the result of converting one revision. Converted outcomes carry
// Markdown and UsedFallback; failed outcomes carry the Original text and Err.
type Outcome struct {
	Status       Status
	Markdown     string
	UsedFallback bool
	Original     string
	Err          error
}

// Converted builds a successful outcome.
func Converted(markdown string, usedFallback bool) Outcome {
	return Outcome{Status: StatusConverted, Markdown: markdown, UsedFallback: usedFallback}
}

// Failed builds a terminal failure.
func Failed(original string, err error) Outcome {
	return Outcome{Status: StatusFailed, Original: original, Err: err}
}

// OK reports whether the outcome carries converted Markdown.
func (o Outcome) OK() bool { return o.Status == StatusConverted }
