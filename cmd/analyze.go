package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v2"

	"github.com/diffrisk/internal/analysis"
	"github.com/diffrisk/internal/capture"
	"github.com/diffrisk/internal/config"
	"github.com/diffrisk/internal/diff"
	"github.com/diffrisk/internal/logging"
	"github.com/diffrisk/internal/providers"
	"github.com/diffrisk/internal/providers/github"
	"github.com/diffrisk/internal/providers/gitlab"
	"github.com/diffrisk/internal/report"
	"github.com/diffrisk/pkg/models"
)

// AnalyzeCommand returns the analyze command.
func AnalyzeCommand() *cli.Command {
	return &cli.Command{
		Name:  "analyze",
		Usage: "Analyze a pull/merge request and print a risk report",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "diff",
				Aliases: []string{"d"},
				Usage:   "Analyze a local unified diff `FILE` instead of fetching",
			},
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "Write a markdown report to `FILE` instead of the terminal",
			},
			&cli.BoolFlag{
				Name:  "mock",
				Usage: "Use the built-in sample PR (no token needed)",
			},
			&cli.BoolFlag{
				Name:    "verbose",
				Aliases: []string{"v"},
				Usage:   "Enable debug logging",
			},
		},
		ArgsUsage: "PR_URL",
		Action:    runAnalyze,
	}
}

func runAnalyze(c *cli.Context) error {
	logging.Setup(c.Bool("verbose"))

	cfg, err := config.LoadConfig(c.String("config"))
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	cs, err := buildChangeSet(ctx, c, cfg)
	if err != nil {
		return err
	}
	log.Debug().
		Int("files", cs.FilesChanged).
		Int("additions", cs.Additions).
		Int("deletions", cs.Deletions).
		Str("run_id", capture.RunID()).
		Msg("change set ready")

	results, err := analysis.RunAllWith(cs, analysis.Options{
		SecurityPatterns: cfg.Security.Patterns,
		StyleLayers:      cfg.Style.Layers,
	})
	if err != nil {
		return err
	}

	built := report.Build(results, cs)
	if capture.Enabled() {
		capture.WriteJSON("report", built)
	}
	log.Debug().Stringer("overall_risk", built.OverallRisk).Msg("analysis complete")

	return report.Output(&built, c.String("output"))
}

// buildChangeSet produces the immutable input for the analyzers from
// whichever source the invocation named: a local diff, the embedded mock, or
// a hosting provider.
func buildChangeSet(ctx context.Context, c *cli.Context, cfg *config.Config) (*models.ChangeSet, error) {
	if diffPath := c.String("diff"); diffPath != "" {
		return changeSetFromFile(diffPath)
	}
	if c.Bool("mock") {
		return mockChangeSet()
	}

	if c.NArg() < 1 {
		return nil, fmt.Errorf("missing required argument: PR URL (or use --diff / --mock)")
	}
	prURL := c.Args().Get(0)

	provider, err := providerFor(prURL, cfg)
	if err != nil {
		return nil, err
	}
	return provider.FetchChangeSet(ctx, prURL)
}

func providerFor(prURL string, cfg *config.Config) (providers.Provider, error) {
	switch {
	case providers.IsGitHubPRURL(prURL):
		return github.New(cfg.Providers["github"].Token), nil
	case providers.IsGitLabMRURL(prURL):
		gl := cfg.Providers["gitlab"]
		if gl.URL == "" {
			return nil, fmt.Errorf("gitlab url is required in configuration for MR URLs")
		}
		return gitlab.New(gitlab.Config{URL: gl.URL, Token: gl.Token})
	default:
		return nil, fmt.Errorf("unrecognized PR/MR URL: %s", prURL)
	}
}

// changeSetFromFile parses a local unified diff. PR metadata is synthesized
// from the parsed files, the way a fetched change set would carry it.
func changeSetFromFile(path string) (*models.ChangeSet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read diff file: %w", err)
	}
	return changeSetFromDiff(string(data), 0, fmt.Sprintf("Local diff %s", path), "local")
}

func changeSetFromDiff(diffText string, number int, title, author string) (*models.ChangeSet, error) {
	files, err := diff.NewParser().Parse(diffText)
	if err != nil {
		return nil, err
	}

	additions, deletions := 0, 0
	for _, f := range files {
		additions += f.Additions
		deletions += f.Deletions
	}

	return &models.ChangeSet{
		Number:       number,
		Title:        title,
		Author:       author,
		FilesChanged: len(files),
		Additions:    additions,
		Deletions:    deletions,
		Files:        files,
	}, nil
}
