package routing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tramo-dev/tramo-go/internal/graph"
)

func TestParseCable(t *testing.T) {
	t.Parallel()

	for _, s := range []string{"A", "B", "C"} {
		c, err := ParseCable(s)
		require.NoError(t, err)
		assert.Equal(t, Cable(s), c)
	}

	_, err := ParseCable("D")
	assert.Error(t, err)
	_, err = ParseCable("a")
	assert.Error(t, err)
}

func TestPermitted(t *testing.T) {
	t.Parallel()

	assert.Equal(t, map[graph.System]bool{graph.SystemA: true}, Permitted(CableA))
	assert.Equal(t, map[graph.System]bool{graph.SystemB: true}, Permitted(CableB))
	assert.Equal(t, map[graph.System]bool{graph.SystemA: true, graph.SystemB: true}, Permitted(CableC))
}

func TestCompatibleCables(t *testing.T) {
	t.Parallel()

	assert.Equal(t, []Cable{CableA, CableC}, CompatibleCables(graph.SystemA))
	assert.Equal(t, []Cable{CableB, CableC}, CompatibleCables(graph.SystemB))
}

func TestCablesSpanning(t *testing.T) {
	t.Parallel()

	assert.Equal(t, []Cable{CableC}, CablesSpanning(graph.SystemA, graph.SystemB))
	assert.Equal(t, []Cable{CableA, CableC}, CablesSpanning(graph.SystemA))
}

func TestValidateEndpoint(t *testing.T) {
	t.Parallel()

	store := loadTestGraph(t, crossSystemGraph)

	t.Run("PermittedVertex", func(t *testing.T) {
		t.Parallel()
		err := ValidateEndpoint(store, "(0.000, 0.000, 0.000)", "source", Permitted(CableA))
		assert.NoError(t, err)
	})

	t.Run("ForbiddenSystem", func(t *testing.T) {
		t.Parallel()
		err := ValidateEndpoint(store, "(3.000, 0.000, 0.000)", "destination", Permitted(CableA))

		var forbidden *EndpointInForbiddenSystemError
		require.ErrorAs(t, err, &forbidden)
		assert.Equal(t, "destination", forbidden.Which)
		assert.Equal(t, graph.SystemB, forbidden.ActualTag)
	})

	t.Run("MissingVertex", func(t *testing.T) {
		t.Parallel()
		err := ValidateEndpoint(store, "(9.000, 9.000, 9.000)", "source", Permitted(CableC))

		var missing *EndpointNotInGraphError
		require.ErrorAs(t, err, &missing)
		assert.Equal(t, "source", missing.Which)
	})
}
