package interp

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/gkampitakis/go-snaps/snaps"
	"github.com/stretchr/testify/require"
	"golang.org/x/tools/txtar"
)

// TestEvaluatorScenarios runs each testdata/scenarios/*.txtar fixture: an
// "input.js" source file plus either an "expected.txt" exact-match result
// or, when no expected.txt is present, a go-snaps snapshot of the rendered
// result. Keeping scenario source and expectation together in one archive
// file reads closer to the guest program than scattering them across a
// fixture tree.
func TestEvaluatorScenarios(t *testing.T) {
	archives, err := filepath.Glob("testdata/scenarios/*.txtar")
	require.NoError(t, err)
	require.NotEmpty(t, archives, "no scenario fixtures found")

	for _, path := range archives {
		path := path
		name := strings.TrimSuffix(filepath.Base(path), ".txtar")
		t.Run(name, func(t *testing.T) {
			arc, err := txtar.ParseFile(path)
			require.NoError(t, err)

			var input string
			var expected string
			var hasExpected bool
			for _, f := range arc.Files {
				switch f.Name {
				case "input.js":
					input = string(f.Data)
				case "expected.txt":
					expected = strings.TrimRight(string(f.Data), "\n")
					hasExpected = true
				}
			}
			require.NotEmpty(t, input, "%s: missing input.js section", path)

			it := New(64 * 1024 * 1024)
			result, err := it.Evaluate(input, Options{})
			require.NoError(t, err, "%s: evaluation failed", path)

			rendered := FormatValue(result)
			if hasExpected {
				require.Equal(t, expected, rendered)
				return
			}
			snaps.MatchSnapshot(t, rendered)
		})
	}
}
