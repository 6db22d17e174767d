package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	_ "github.com/joho/godotenv/autoload"
	"github.com/urfave/cli/v3"

	"github.com/OSAS/mw2md/internal"
	"github.com/OSAS/mw2md/internal/authors"
	pkgconfig "github.com/OSAS/mw2md/pkg/config"
)

var version = "dev"

func loadConfig(cmd *cli.Command) (*internal.Config, error) {
	configPath := cmd.String("config")

	cfg := internal.NewDefaultConfig()
	if err := pkgconfig.LoadOptional(configPath, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if v := cmd.String("dump"); v != "" {
		cfg.Dump.Path = v
	}
	if v := cmd.String("output"); v != "" {
		cfg.Output.Dir = v
	}
	return cfg, nil
}

func runConvert(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	opts := []internal.Option{
		internal.WithConfig(cfg),
		internal.WithVersion(version),
		internal.WithForce(cmd.Bool("force")),
		internal.WithDryRun(cmd.Bool("dry-run")),
		internal.WithWatch(cmd.Bool("watch")),
	}
	if err := internal.Convert(ctx, opts...); err != nil {
		return fmt.Errorf("convert: %w", err)
	}
	return nil
}

func runServe(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	opts := []internal.Option{
		internal.WithConfig(cfg),
		internal.WithVersion(version),
		internal.WithWatch(cmd.Bool("watch")),
	}
	if err := internal.Serve(ctx, opts...); err != nil {
		return fmt.Errorf("serve: %w", err)
	}
	return nil
}

func runMCP(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := internal.ServeMCP(ctx, internal.WithConfig(cfg), internal.WithVersion(version)); err != nil {
		return fmt.Errorf("mcp: %w", err)
	}
	return nil
}

func runAuthors(_ context.Context, cmd *cli.Command) error {
	n, err := authors.ConvertFile(cmd.String("csv"), cmd.String("out"))
	if err != nil {
		return err
	}
	slog.Info("authors converted", slog.Int("count", n), slog.String("out", cmd.String("out")))
	return nil
}

func main() {
	cmd := &cli.Command{
		Name:    "mw2md",
		Usage:   "Convert a MediaWiki XML dump into a Markdown tree with its edit history replayed as git commits",
		Version: version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "config",
				Aliases:     []string{"c"},
				Usage:       "Path to config file",
				DefaultText: "config/config.yaml",
				Value:       "config/config.yaml",
				Sources:     cli.EnvVars("APP_CONFIG_FILE"),
			},
			&cli.StringFlag{
				Name:    "dump",
				Usage:   "Override dump.path",
				Sources: cli.EnvVars("MW2MD_DUMP"),
			},
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "Override output.dir",
				Sources: cli.EnvVars("MW2MD_OUTPUT"),
			},
		},
		Commands: []*cli.Command{
			{
				Name:   "convert",
				Usage:  "Convert the dump and replay its history",
				Action: runConvert,
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "force", Aliases: []string{"f"}, Usage: "Clear an existing output directory"},
					&cli.BoolFlag{Name: "dry-run", Usage: "Convert into a scratch directory without git or catalog"},
					&cli.BoolFlag{Name: "watch", Aliases: []string{"w"}, Usage: "Reconvert when the dump, rules or authors change"},
				},
			},
			{
				Name:   "authors",
				Usage:  "Convert an authors CSV (nick,name,email) into the YAML author map",
				Action: runAuthors,
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "csv", Usage: "Input CSV file", Required: true},
					&cli.StringFlag{Name: "out", Usage: "Output YAML file", Value: "wiki_authors.yaml"},
				},
			},
			{
				Name:   "serve",
				Usage:  "Serve legacy wiki URL redirects and the conversion catalog over HTTP",
				Action: runServe,
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "watch", Aliases: []string{"w"}, Usage: "Reconvert on input changes and stream progress"},
				},
			},
			{
				Name:   "mcp",
				Usage:  "Expose the conversion catalog as MCP tools over stdio",
				Action: runMCP,
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		slog.Error("application error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
