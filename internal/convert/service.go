package convert

import (
	"context"
	"errors"
	"log/slog"

	"github.com/OSAS/mw2md/internal/models"
	"github.com/OSAS/mw2md/internal/rules"
	"github.com/OSAS/mw2md/internal/wikitext"
)

// Options tunes a Service.
type Options struct {
	// Similarity is the heading match threshold; zero means DefaultSimilarity.
	Similarity float64
	TOC        string
	NoTOC      string
	Logger     *slog.Logger
}

// Service converts revisions with a primary converter and an HTML fallback.
type Service struct {
	primary  MarkupConverter
	renderer Renderer
	markup   rules.Set
	cleanup  Cleanup
	opts     Options
	logger   *slog.Logger
}

// NewService wires a Service. renderer may be nil, which disables the
// fallback path. cfg may be nil.
func NewService(primary MarkupConverter, renderer Renderer, cfg *rules.Config, opts Options) *Service {
	if cfg == nil {
		cfg = &rules.Config{}
	}
	if opts.Similarity <= 0 {
		opts.Similarity = DefaultSimilarity
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		primary:  primary,
		renderer: renderer,
		markup:   cfg.MarkupRewrite,
		cleanup:  Cleanup{TOC: opts.TOC, NoTOC: opts.NoTOC, Rewrite: cfg.MarkdownRewrite},
		opts:     opts,
		logger:   logger,
	}
}

// Convert runs the primary conversion and, only if it fails, the fallback.
// It never returns an error: terminal failures are reported in the Outcome.
func (s *Service) Convert(ctx context.Context, rev *models.Revision) Outcome {
	text := protectSwitches(s.markup.Rewrite(rev.Text))

	md, err := s.primary.Convert(ctx, text, FormatMediaWiki, FormatMarkdown)
	if err == nil {
		return Converted(s.cleanup.Apply(md), false)
	}
	primaryErr := &ConversionError{Stage: StagePrimary, Err: err}
	s.logger.Warn("primary conversion failed, trying fallback",
		slog.String("title", rev.Title()),
		slog.String("revision", rev.ID),
		slog.String("error", err.Error()))

	md, err = s.fallback(ctx, text)
	if err != nil {
		return Failed(rev.Text, errors.Join(primaryErr, err))
	}
	return Converted(s.cleanup.Apply(md), true)
}

func (s *Service) fallback(ctx context.Context, text string) (string, error) {
	if s.renderer == nil {
		return "", &ConversionError{Stage: StageRender, Err: errors.New("no fallback renderer configured")}
	}
	page, err := s.renderer.Render(ctx, text)
	if err != nil {
		return "", &ConversionError{Stage: StageRender, Err: err}
	}
	page, err = CleanHTML(page)
	if err != nil {
		return "", &ConversionError{Stage: StageClean, Err: err}
	}
	md, err := s.primary.Convert(ctx, page, FormatHTML, FormatMarkdown)
	if err != nil {
		return "", &ConversionError{Stage: StageFallback, Err: err}
	}
	return md, nil
}

// Body returns the document body for a page title, injecting a title heading
// when the converted Markdown does not already open with one.
func (s *Service) Body(title, markdown string) string {
	body, _ := TitledBody(wikitext.DisplayTitle(title), markdown, s.opts.Similarity)
	return body
}
