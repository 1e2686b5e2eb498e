package migrate_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/temirov/taskmigrate/internal/migrate"
)

func TestInferTaskSlug(testInstance *testing.T) {
	testCases := []struct {
		name          string
		blockName     string
		targetSchema  string
		expectedMatch migrate.TaskSlugMatch
		expectedFound bool
	}{
		{
			name:          "git_pull_suffix",
			blockName:     "acme-git-pull",
			targetSchema:  "analytics",
			expectedMatch: migrate.TaskSlugMatch{Kind: migrate.TaskSlugMatchExact, Value: "git-pull"},
			expectedFound: true,
		},
		{
			name:          "command_after_schema",
			blockName:     "acme-analytics-run",
			targetSchema:  "analytics",
			expectedMatch: migrate.TaskSlugMatch{Kind: migrate.TaskSlugMatchSuffix, Value: "run"},
			expectedFound: true,
		},
		{
			name:          "last_schema_occurrence",
			blockName:     "acme-analytics-analytics-docs-generate",
			targetSchema:  "analytics",
			expectedMatch: migrate.TaskSlugMatch{Kind: migrate.TaskSlugMatchSuffix, Value: "docs-generate"},
			expectedFound: true,
		},
		{
			name:          "schema_absent",
			blockName:     "acme-test",
			targetSchema:  "warehouse",
			expectedMatch: migrate.TaskSlugMatch{Kind: migrate.TaskSlugMatchSuffix, Value: "acme-test"},
			expectedFound: true,
		},
		{
			name:          "nothing_after_schema",
			blockName:     "acme-analytics-",
			targetSchema:  "analytics",
			expectedMatch: migrate.TaskSlugMatch{Kind: migrate.TaskSlugMatchSuffix, Value: ""},
			expectedFound: false,
		},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(subtest *testing.T) {
			match, found := migrate.InferTaskSlug(testCase.blockName, testCase.targetSchema)
			require.Equal(subtest, testCase.expectedFound, found)
			require.Equal(subtest, testCase.expectedMatch, match)
		})
	}
}
