package ledger_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/temirov/taskmigrate/internal/ledger"
)

func TestLedgerMergePreservesOrder(testInstance *testing.T) {
	testInstance.Parallel()

	first := ledger.Ledger{}.Succeed("found %d server block(s)", 1).Fail("missing warehouse")
	second := ledger.Ledger{}.Fail("couldnt find the task %s", "dbt-docs").Succeed("created orgtask")

	merged := first.Merge(second)

	require.Equal(testInstance, []string{"found 1 server block(s)", "created orgtask"}, merged.Successes())
	require.Equal(testInstance, []string{"missing warehouse", "couldnt find the task dbt-docs"}, merged.Failures())
	require.True(testInstance, merged.HasFailures())
	require.Len(testInstance, first.Entries(), 2)
	require.Len(testInstance, second.Entries(), 2)
}

func TestLedgerValuesDoNotShareStorage(testInstance *testing.T) {
	testInstance.Parallel()

	base := ledger.Ledger{}.Succeed("base")
	left := base.Succeed("left")
	right := base.Fail("right")

	require.Equal(testInstance, []string{"base", "left"}, left.Successes())
	require.Empty(testInstance, left.Failures())
	require.Equal(testInstance, []string{"base"}, right.Successes())
	require.Equal(testInstance, []string{"right"}, right.Failures())
}

func TestLedgerMessagesWithoutArgumentsAreLiteral(testInstance *testing.T) {
	testInstance.Parallel()

	recorded := ledger.Ledger{}.Fail("100% broken", nil...)
	require.Equal(testInstance, []string{"100% broken"}, recorded.Failures())
}

func TestLedgerWriteSummary(testInstance *testing.T) {
	testInstance.Parallel()

	recorded := ledger.Ledger{}.Succeed("one").Fail("two").Succeed("three")

	var output strings.Builder
	require.NoError(testInstance, recorded.WriteSummary(&output))

	banner := strings.Repeat("=", 80)
	expected := strings.Join([]string{
		banner,
		"SUCCESSES",
		banner,
		"SUCCESS one",
		"SUCCESS three",
		banner,
		"FAILURES",
		banner,
		"FAILURE two",
		"",
	}, "\n")
	require.Equal(testInstance, expected, output.String())
	require.False(testInstance, ledger.Ledger{}.HasFailures())
}
