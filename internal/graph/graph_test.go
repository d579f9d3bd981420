package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zclconf/go-cty/cty"

	"github.com/vk/calcgrid/internal/computer"
	"github.com/vk/calcgrid/internal/nodeid"
)

func trueCompute(computer.Snapshot) (cty.Value, error) {
	return cty.True, nil
}

// specOf builds a minimal spec where every value's compute is a stub; the
// graph only cares about names and dependency sets.
func specOf(name string, inputs []string, values map[string][]string, order []string) *computer.Spec {
	s := &computer.Spec{Name: name}
	for _, in := range inputs {
		s.Inputs = append(s.Inputs, computer.Input{Name: in})
	}
	for _, v := range order {
		s.Values = append(s.Values, computer.Value{Name: v, DependsOn: values[v], Compute: trueCompute})
	}
	return s
}

func TestNew(t *testing.T) {
	g := New()
	require.NotNil(t, g)
	assert.Zero(t, g.Len())
}

func TestAddComputer(t *testing.T) {
	t.Run("inserts nodes and edges", func(t *testing.T) {
		g := New()
		spec := specOf("calc", []string{"x", "y"}, map[string][]string{"sum": {"x", "y"}}, []string{"sum"})
		require.NoError(t, g.AddComputer(spec))

		assert.Equal(t, 3, g.Len())

		kind, ok := g.NodeKind(nodeid.New("calc", "x"))
		require.True(t, ok)
		assert.Equal(t, KindInput, kind)

		kind, ok = g.NodeKind(nodeid.New("calc", "sum"))
		require.True(t, ok)
		assert.Equal(t, KindValue, kind)

		deps := g.Dependencies(nodeid.New("calc", "sum"))
		assert.Equal(t, []nodeid.Address{nodeid.New("calc", "x"), nodeid.New("calc", "y")}, deps)

		dependents := g.Dependents(nodeid.New("calc", "x"))
		assert.Equal(t, []nodeid.Address{nodeid.New("calc", "sum")}, dependents)
	})

	t.Run("duplicate computer name", func(t *testing.T) {
		g := New()
		require.NoError(t, g.AddComputer(specOf("calc", []string{"x"}, nil, nil)))
		assert.ErrorContains(t, g.AddComputer(specOf("calc", []string{"y"}, nil, nil)), "already registered")
	})

	t.Run("local value cycle is rejected and rolled back", func(t *testing.T) {
		g := New()
		require.NoError(t, g.AddComputer(specOf("ok", []string{"x"}, nil, nil)))

		cyclic := specOf("bad", nil, map[string][]string{
			"a": {"b"},
			"b": {"a"},
		}, []string{"a", "b"})

		err := g.AddComputer(cyclic)
		var cycleErr *CycleError
		require.ErrorAs(t, err, &cycleErr)
		assert.Len(t, cycleErr.Nodes, 3)
		assert.Equal(t, cycleErr.Nodes[0], cycleErr.Nodes[len(cycleErr.Nodes)-1])

		// Graph must be exactly as before the failed call.
		assert.Equal(t, 1, g.Len())
		_, ok := g.NodeKind(nodeid.New("bad", "a"))
		assert.False(t, ok)
	})

	t.Run("self-loop is a cycle", func(t *testing.T) {
		g := New()
		selfLoop := specOf("bad", nil, map[string][]string{"a": {"a"}}, []string{"a"})
		var cycleErr *CycleError
		require.ErrorAs(t, g.AddComputer(selfLoop), &cycleErr)
		assert.Equal(t, []string{"bad.a", "bad.a"}, cycleErr.Nodes)
	})
}

func TestConnect(t *testing.T) {
	twoComputers := func(t *testing.T) *Graph {
		t.Helper()
		g := New()
		require.NoError(t, g.AddComputer(specOf("filters", []string{"raw"}, map[string][]string{"spec": {"raw"}}, []string{"spec"})))
		require.NoError(t, g.AddComputer(specOf("query", []string{"filters"}, map[string][]string{"result": {"filters"}}, []string{"result"})))
		return g
	}

	t.Run("wires value to input", func(t *testing.T) {
		g := twoComputers(t)
		require.NoError(t, g.Connect(nodeid.New("filters", "spec"), nodeid.New("query", "filters")))

		src, ok := g.ConnectionSource(nodeid.New("query", "filters"))
		require.True(t, ok)
		assert.Equal(t, nodeid.New("filters", "spec"), src)

		dependents := g.Dependents(nodeid.New("filters", "spec"))
		assert.Contains(t, dependents, nodeid.New("query", "filters"))
	})

	t.Run("duplicate connection target", func(t *testing.T) {
		g := twoComputers(t)
		require.NoError(t, g.AddComputer(specOf("other", []string{"raw"}, map[string][]string{"out": {"raw"}}, []string{"out"})))
		require.NoError(t, g.Connect(nodeid.New("filters", "spec"), nodeid.New("query", "filters")))

		err := g.Connect(nodeid.New("other", "out"), nodeid.New("query", "filters"))
		var dupErr *DuplicateConnectionError
		require.ErrorAs(t, err, &dupErr)
		assert.Equal(t, nodeid.New("query", "filters"), dupErr.Target)
		assert.Equal(t, nodeid.New("filters", "spec"), dupErr.Existing)
	})

	t.Run("error cases", func(t *testing.T) {
		g := twoComputers(t)

		err := g.Connect(nodeid.New("nope", "spec"), nodeid.New("query", "filters"))
		assert.ErrorContains(t, err, "does not exist")

		err = g.Connect(nodeid.New("filters", "raw"), nodeid.New("query", "filters"))
		assert.ErrorContains(t, err, "only values can be connected")

		err = g.Connect(nodeid.New("filters", "spec"), nodeid.New("query", "result"))
		assert.ErrorContains(t, err, "only inputs can be connected")
	})

	t.Run("cross-computer cycle is rejected and edge rolled back", func(t *testing.T) {
		g := New()
		require.NoError(t, g.AddComputer(specOf("a", []string{"in"}, map[string][]string{"out": {"in"}}, []string{"out"})))
		require.NoError(t, g.AddComputer(specOf("b", []string{"in"}, map[string][]string{"out": {"in"}}, []string{"out"})))

		require.NoError(t, g.Connect(nodeid.New("a", "out"), nodeid.New("b", "in")))

		err := g.Connect(nodeid.New("b", "out"), nodeid.New("a", "in"))
		var cycleErr *CycleError
		require.ErrorAs(t, err, &cycleErr)

		// The failed edge must not remain.
		_, bound := g.ConnectionSource(nodeid.New("a", "in"))
		assert.False(t, bound)

		// The graph still orders cleanly.
		_, err = g.Order()
		assert.NoError(t, err)
	})
}

func TestOrder(t *testing.T) {
	t.Run("dependencies come first", func(t *testing.T) {
		g := New()
		require.NoError(t, g.AddComputer(specOf("calc", []string{"x", "y"}, map[string][]string{
			"sum":     {"x", "y"},
			"doubled": {"sum"},
		}, []string{"sum", "doubled"})))

		order, err := g.Order()
		require.NoError(t, err)

		pos := make(map[string]int)
		for i, id := range order {
			pos[id.String()] = i
		}
		assert.Less(t, pos["calc.x"], pos["calc.sum"])
		assert.Less(t, pos["calc.y"], pos["calc.sum"])
		assert.Less(t, pos["calc.sum"], pos["calc.doubled"])
	})

	t.Run("ties break by registration then declaration order", func(t *testing.T) {
		g := New()
		require.NoError(t, g.AddComputer(specOf("b_first", []string{"q", "p"}, nil, nil)))
		require.NoError(t, g.AddComputer(specOf("a_second", []string{"z"}, nil, nil)))

		order, err := g.Order()
		require.NoError(t, err)

		var got []string
		for _, id := range order {
			got = append(got, id.String())
		}
		assert.Equal(t, []string{"b_first.q", "b_first.p", "a_second.z"}, got)
	})

	t.Run("order is reproducible", func(t *testing.T) {
		build := func() *Graph {
			g := New()
			require.NoError(t, g.AddComputer(specOf("calc", []string{"x", "y"}, map[string][]string{
				"sum":  {"x", "y"},
				"prod": {"x", "y"},
			}, []string{"sum", "prod"})))
			require.NoError(t, g.AddComputer(specOf("view", []string{"total"}, map[string][]string{"label": {"total"}}, []string{"label"})))
			require.NoError(t, g.Connect(nodeid.New("calc", "sum"), nodeid.New("view", "total")))
			return g
		}

		first, err := build().Order()
		require.NoError(t, err)
		for i := 0; i < 10; i++ {
			again, err := build().Order()
			require.NoError(t, err)
			assert.Equal(t, first, again)
		}
	})

	t.Run("empty graph", func(t *testing.T) {
		order, err := New().Order()
		require.NoError(t, err)
		assert.Empty(t, order)
	})
}
