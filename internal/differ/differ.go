package differ

import (
	"strings"

	"github.com/rs/zerolog"
	"github.com/sergi/go-diff/diffmatchpatch"
)

// DiffConfig holds configuration for content diffing
type DiffConfig struct {
	EnableSemanticCleanup bool
	EnableLineBasedDiff   bool
}

// DefaultDiffConfig returns default configuration
func DefaultDiffConfig() DiffConfig {
	return DiffConfig{
		EnableSemanticCleanup: true,
		EnableLineBasedDiff:   true,
	}
}

// DiffResult holds line statistics for a content change
type DiffResult struct {
	LinesAdded   int
	LinesRemoved int
	Identical    bool
}

// ContentDiffer computes line statistics between two content revisions
type ContentDiffer struct {
	dmp    *diffmatchpatch.DiffMatchPatch
	config DiffConfig
	logger zerolog.Logger
}

// NewContentDiffer creates a content differ with default configuration
func NewContentDiffer(logger zerolog.Logger) *ContentDiffer {
	return NewContentDifferWithConfig(DefaultDiffConfig(), logger)
}

// NewContentDifferWithConfig creates a content differ with the given configuration
func NewContentDifferWithConfig(config DiffConfig, logger zerolog.Logger) *ContentDiffer {
	return &ContentDiffer{
		dmp:    diffmatchpatch.New(),
		config: config,
		logger: logger.With().Str("component", "ContentDiffer").Logger(),
	}
}

// Diff compares previous and current content and returns line statistics.
// An empty previous string means there is no baseline, so every line of
// the current content counts as added.
func (cd *ContentDiffer) Diff(previous, current string) DiffResult {
	if previous == current {
		return DiffResult{Identical: true}
	}

	if previous == "" {
		return DiffResult{LinesAdded: countLines(current)}
	}

	diffs := cd.dmp.DiffMain(previous, current, cd.config.EnableLineBasedDiff)
	if cd.config.EnableSemanticCleanup {
		diffs = cd.dmp.DiffCleanupSemantic(diffs)
	}

	return calculateStats(diffs)
}

func calculateStats(diffs []diffmatchpatch.Diff) DiffResult {
	result := DiffResult{Identical: true}

	for _, diff := range diffs {
		switch diff.Type {
		case diffmatchpatch.DiffInsert:
			result.LinesAdded += countLines(diff.Text)
			result.Identical = false
		case diffmatchpatch.DiffDelete:
			result.LinesRemoved += countLines(diff.Text)
			result.Identical = false
		}
	}

	return result
}

// countLines counts the lines touched by a diff fragment. A fragment
// without a trailing newline still spans one line.
func countLines(text string) int {
	if text == "" {
		return 0
	}

	n := strings.Count(text, "\n")
	if !strings.HasSuffix(text, "\n") {
		n++
	}

	return n
}
