// Package analysis runs independent heuristic passes over a parsed change
// set and aggregates their findings into severity-ranked results.
package analysis

import (
	"fmt"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/diffrisk/pkg/models"
)

// AnalysisError reports an analyzer that could not complete. It is the only
// failure mode inside the analysis core.
type AnalysisError struct {
	Analyzer string
	Reason   string
}

func (e *AnalysisError) Error() string {
	return fmt.Sprintf("analysis failed for %s: %s", e.Analyzer, e.Reason)
}

// Analyzer is implemented by every heuristic pass. Analyze must be free of
// side effects and safe to call concurrently with other analyzers against
// the same read-only ChangeSet; all output flows through the returned result.
type Analyzer interface {
	Name() string
	Analyze(cs *models.ChangeSet) (models.AnalysisResult, error)
}

// Options carries the configurable knobs for the heuristic passes.
type Options struct {
	// SecurityPatterns are extra substring patterns flagged as hardcoded
	// secrets, appended after the built-in table.
	SecurityPatterns []string
	// StyleLayers names architectural layers, outermost first, for the
	// boundary check. Empty leaves that check a no-op.
	StyleLayers []string
}

// RunAll runs the fixed set of analyzers with default options. See
// RunAllWith.
func RunAll(cs *models.ChangeSet) ([]models.AnalysisResult, error) {
	return RunAllWith(cs, Options{})
}

// RunAllWith runs the fixed set of analyzers concurrently against one shared
// ChangeSet and collects one result per analyzer in stable order (security,
// complexity, style), independent of completion order. The first analyzer
// error aborts the whole batch; there is no partial-success mode.
func RunAllWith(cs *models.ChangeSet, opts Options) ([]models.AnalysisResult, error) {
	analyzers := []Analyzer{
		NewSecurityAnalyzer(opts.SecurityPatterns...),
		NewComplexityAnalyzer(),
		NewStyleAnalyzer(opts.StyleLayers...),
	}
	return run(cs, analyzers)
}

func run(cs *models.ChangeSet, analyzers []Analyzer) ([]models.AnalysisResult, error) {
	results := make([]models.AnalysisResult, len(analyzers))
	errs := make([]error, len(analyzers))

	var wg sync.WaitGroup
	for i, a := range analyzers {
		wg.Add(1)
		go func(slot int, a Analyzer) {
			defer wg.Done()
			results[slot], errs[slot] = a.Analyze(cs)
		}(i, a)
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}

	for _, r := range results {
		log.Debug().
			Str("analyzer", r.Analyzer).
			Stringer("severity", r.Severity).
			Int("findings", len(r.Findings)).
			Msg("analyzer result")
	}
	return results, nil
}

// combineSeverity is the per-analyzer severity combinator: the maximum over
// all findings, Low if there are none.
func combineSeverity(findings []models.Finding) models.Severity {
	severity := models.SeverityLow
	for _, f := range findings {
		severity = models.MaxSeverity(severity, f.Severity)
	}
	return severity
}
