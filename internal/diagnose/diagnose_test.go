package diagnose

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tramo-dev/tramo-go/internal/geometry"
	"github.com/tramo-dev/tramo-go/internal/routing"
)

// g1 contains only the source (tag A); g2 contains both endpoints with the
// destination in system B. This is the two-graph diagnosis scenario.
const g1 = `{
  "nodes": {"(0.000, 0.000, 0.000)": {"sys": "A"}},
  "edges": []
}`

const g2 = `{
  "nodes": {
    "(0.000, 0.000, 0.000)": {"sys": "A"},
    "(3.000, 0.000, 0.000)": {"sys": "B"}
  },
  "edges": []
}`

func writeGraphs(t *testing.T, docs map[string]string) []string {
	t.Helper()
	dir := t.TempDir()

	var files []string
	for name, doc := range docs {
		path := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))
		files = append(files, path)
	}
	return files
}

func TestRun(t *testing.T) {
	t.Parallel()

	src := geometry.MustParse("(0.000, 0.000, 0.000)")
	dst := geometry.MustParse("(3.000, 0.000, 0.000)")

	t.Run("TwoGraphRecommendation", func(t *testing.T) {
		t.Parallel()
		files := writeGraphs(t, map[string]string{"g1.json": g1, "g2.json": g2})

		findings := Run(src, dst, files, NewFileSource())

		assert.Equal(t, OutcomeBothFound, findings.Outcome)
		assert.Len(t, findings.PerGraph, 2)
		assert.Len(t, findings.RecommendedGraphs, 1)
		assert.Equal(t, []routing.Cable{routing.CableC}, findings.RecommendedCables)
		assert.Contains(t, findings.SuggestedCommand, "--cable C")
		assert.Contains(t, findings.SuggestedCommand, "tramo-go direct")
	})

	t.Run("OnlySourceFound", func(t *testing.T) {
		t.Parallel()
		files := writeGraphs(t, map[string]string{"g1.json": g1})

		findings := Run(src, dst, files, NewFileSource())

		assert.Equal(t, OutcomeOnlySource, findings.Outcome)
		assert.Empty(t, findings.RecommendedCables)
		assert.Empty(t, findings.SuggestedCommand)
	})

	t.Run("NeitherFound", func(t *testing.T) {
		t.Parallel()
		files := writeGraphs(t, map[string]string{"g1.json": g1})
		far := geometry.MustParse("(7.000, 7.000, 7.000)")

		findings := Run(far, dst, files, NewFileSource())

		assert.Equal(t, OutcomeNeitherFound, findings.Outcome)
	})

	t.Run("BrokenFileRecordedAndSkipped", func(t *testing.T) {
		t.Parallel()
		files := writeGraphs(t, map[string]string{"g2.json": g2, "broken.json": "not json"})

		findings := Run(src, dst, files, NewFileSource())

		assert.Equal(t, OutcomeBothFound, findings.Outcome)
		require.Len(t, findings.PerGraph, 2)

		broken := 0
		for _, row := range findings.PerGraph {
			if row.LoadErr != "" {
				broken++
			}
		}
		assert.Equal(t, 1, broken)
	})

	t.Run("SameSystemEndpointsRecommendBothCables", func(t *testing.T) {
		t.Parallel()
		doc := `{
		  "nodes": {
		    "(0.000, 0.000, 0.000)": {"sys": "A"},
		    "(3.000, 0.000, 0.000)": {"sys": "A"}
		  },
		  "edges": []
		}`
		files := writeGraphs(t, map[string]string{"g.json": doc})

		findings := Run(src, dst, files, NewFileSource())

		assert.Equal(t, []routing.Cable{routing.CableA, routing.CableC}, findings.RecommendedCables)
	})
}
