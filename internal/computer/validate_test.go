package computer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zclconf/go-cty/cty"
)

func constCompute(v cty.Value) ComputeFunc {
	return func(Snapshot) (cty.Value, error) { return v, nil }
}

func validSpec() *Spec {
	return &Spec{
		Name: "calc",
		Inputs: []Input{
			{Name: "x", Initial: cty.NumberIntVal(0)},
			{Name: "y"},
		},
		Values: []Value{
			{
				Name:      "sum",
				DependsOn: []string{"x", "y"},
				Compute: func(snap Snapshot) (cty.Value, error) {
					x, _ := snap.Get("x")
					y, _ := snap.Get("y")
					return x.Add(y), nil
				},
			},
			{Name: "answer", DependsOn: []string{}, Compute: constCompute(cty.NumberIntVal(42))},
		},
		Events: []Event{
			{Name: "reset", Handler: HandlerFunc(func(Snapshot) (map[string]cty.Value, error) {
				return map[string]cty.Value{"x": cty.NumberIntVal(0)}, nil
			})},
		},
	}
}

func TestSpec_Validate(t *testing.T) {
	t.Run("well-formed spec passes", func(t *testing.T) {
		require.NoError(t, validSpec().Validate())
	})

	t.Run("duplicate input name", func(t *testing.T) {
		s := validSpec()
		s.Inputs = append(s.Inputs, Input{Name: "x"})
		var specErr *SpecError
		require.ErrorAs(t, s.Validate(), &specErr)
		assert.Contains(t, specErr.Error(), "duplicate name")
	})

	t.Run("value name colliding with input name", func(t *testing.T) {
		s := validSpec()
		s.Values = append(s.Values, Value{Name: "x", DependsOn: []string{}, Compute: constCompute(cty.True)})
		assert.ErrorContains(t, s.Validate(), `duplicate name "x"`)
	})

	t.Run("unresolved dependency", func(t *testing.T) {
		s := validSpec()
		s.Values = append(s.Values, Value{Name: "bad", DependsOn: []string{"nope"}, Compute: constCompute(cty.True)})
		assert.ErrorContains(t, s.Validate(), "not an input or value")
	})

	t.Run("nil dependency set is not an empty one", func(t *testing.T) {
		s := validSpec()
		s.Values = append(s.Values, Value{Name: "bad", Compute: constCompute(cty.True)})
		assert.ErrorContains(t, s.Validate(), "declares no dependency set")
	})

	t.Run("dependency listed twice", func(t *testing.T) {
		s := validSpec()
		s.Values = append(s.Values, Value{Name: "bad", DependsOn: []string{"x", "x"}, Compute: constCompute(cty.True)})
		assert.ErrorContains(t, s.Validate(), "twice")
	})

	t.Run("missing compute function", func(t *testing.T) {
		s := validSpec()
		s.Values = append(s.Values, Value{Name: "bad", DependsOn: []string{}})
		assert.ErrorContains(t, s.Validate(), "no compute function")
	})

	t.Run("invalid names", func(t *testing.T) {
		s := validSpec()
		s.Name = "9calc"
		assert.ErrorContains(t, s.Validate(), "invalid computer name")

		s = validSpec()
		s.Inputs[0].Name = "a.b"
		assert.ErrorContains(t, s.Validate(), "invalid input name")
	})
}

func TestSpec_Validate_EventHandlers(t *testing.T) {
	t.Run("untyped snapshot-only func is accepted", func(t *testing.T) {
		s := validSpec()
		s.Events = append(s.Events, Event{
			Name: "clear",
			Handler: func(Snapshot) (map[string]cty.Value, error) {
				return nil, nil
			},
		})
		require.NoError(t, s.Validate())

		e, ok := s.EventNamed("clear")
		require.True(t, ok)
		assert.False(t, e.AcceptsPayload())
	})

	t.Run("payload func is accepted and detected", func(t *testing.T) {
		s := validSpec()
		s.Events = append(s.Events, Event{
			Name: "load",
			Handler: PayloadHandlerFunc(func(_ Snapshot, payload cty.Value) (map[string]cty.Value, error) {
				return map[string]cty.Value{"x": payload}, nil
			}),
		})
		require.NoError(t, s.Validate())

		e, ok := s.EventNamed("load")
		require.True(t, ok)
		assert.True(t, e.AcceptsPayload())
	})

	t.Run("wrong arity is rejected", func(t *testing.T) {
		s := validSpec()
		s.Events = append(s.Events, Event{
			Name: "bad",
			Handler: func(Snapshot, cty.Value, cty.Value) (map[string]cty.Value, error) {
				return nil, nil
			},
		})
		assert.ErrorContains(t, s.Validate(), "3 argument(s)")
	})

	t.Run("non-func handler is rejected", func(t *testing.T) {
		s := validSpec()
		s.Events = append(s.Events, Event{Name: "bad", Handler: "not a func"})
		assert.ErrorContains(t, s.Validate(), "must be a func")
	})

	t.Run("missing handler is rejected", func(t *testing.T) {
		s := validSpec()
		s.Events = append(s.Events, Event{Name: "bad"})
		assert.ErrorContains(t, s.Validate(), "no handler declared")
	})

	t.Run("duplicate event name", func(t *testing.T) {
		s := validSpec()
		s.Events = append(s.Events, s.Events[0])
		assert.ErrorContains(t, s.Validate(), "duplicate event")
	})
}

func TestSnapshot(t *testing.T) {
	snap := NewSnapshot(map[string]cty.Value{
		"x": cty.NumberIntVal(1),
		"y": cty.StringVal("hello"),
	})

	v, ok := snap.Get("x")
	require.True(t, ok)
	assert.True(t, cty.NumberIntVal(1).RawEquals(v))

	_, ok = snap.Get("z")
	assert.False(t, ok)
	assert.True(t, snap.Has("y"))
	assert.Equal(t, 2, snap.Len())
	assert.Equal(t, []string{"x", "y"}, snap.Names())

	// Map returns a copy; mutating it must not leak into the snapshot.
	m := snap.Map()
	m["x"] = cty.NumberIntVal(99)
	v, _ = snap.Get("x")
	assert.True(t, cty.NumberIntVal(1).RawEquals(v))
}
