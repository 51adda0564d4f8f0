package cmd

import (
	_ "embed"

	"github.com/diffrisk/pkg/models"
)

// sampleDiff drives --mock: a small PR exercising several heuristics without
// any token or network access.
//
//go:embed testdata/sample_diff.patch
var sampleDiff string

func mockChangeSet() (*models.ChangeSet, error) {
	cs, err := changeSetFromDiff(sampleDiff, 42, "Add OAuth2 login flow", "alice")
	if err != nil {
		return nil, err
	}
	return cs, nil
}
