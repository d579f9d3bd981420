package app

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/zclconf/go-cty/cty"
	ctyjson "github.com/zclconf/go-cty/cty/json"

	"github.com/vk/calcgrid/internal/ctxlog"
	"github.com/vk/calcgrid/internal/nodeid"
)

// Run executes the main application flow: initialize the graph, commit
// the requested input assignments, apply the requested event, and print
// every computer's resulting state as JSON.
func (a *App) Run(ctx context.Context, cfg *Config) error {
	ctx = ctxlog.WithLogger(ctx, a.logger)
	a.logger.Debug("App.Run method started.")

	res, err := a.exec.Initialize()
	if err != nil {
		return fmt.Errorf("initialization failed: %w", err)
	}
	a.logger.Info("Graph initialized.", "recomputed", len(res.Recomputed), "failed", len(res.Failed))

	if len(cfg.Sets) > 0 {
		if err := a.commitSets(cfg.Sets); err != nil {
			return err
		}
	}

	if cfg.Event != "" {
		if err := a.applyEvent(cfg.Event, cfg.Payload); err != nil {
			return err
		}
	}

	if err := a.printValues(); err != nil {
		return err
	}

	a.logger.Debug("App.Run method finished.")
	return nil
}

// commitSets parses `computer.input=json` assignments and commits them as
// one frame.
func (a *App) commitSets(sets []string) error {
	if err := a.exec.StartFrame(); err != nil {
		return err
	}
	for _, set := range sets {
		lhs, rhs, found := strings.Cut(set, "=")
		if !found {
			return fmt.Errorf("assignment %q must have the form computer.input=value", set)
		}
		id, err := nodeid.Parse(lhs)
		if err != nil {
			return fmt.Errorf("assignment %q: %w", set, err)
		}
		v, err := parseJSONValue(rhs)
		if err != nil {
			return fmt.Errorf("assignment %q: %w", set, err)
		}
		if err := a.exec.SetInput(id.Computer, id.Local, v); err != nil {
			return err
		}
	}

	res, err := a.exec.CommitFrame()
	if err != nil {
		return err
	}
	a.logger.Info("Assignments committed.", "recomputed", len(res.Recomputed), "failed", len(res.Failed))
	return nil
}

func (a *App) applyEvent(event, payloadJSON string) error {
	id, err := nodeid.Parse(event)
	if err != nil {
		return fmt.Errorf("event %q: %w", event, err)
	}

	payload := cty.NilVal
	if payloadJSON != "" {
		payload, err = parseJSONValue(payloadJSON)
		if err != nil {
			return fmt.Errorf("event payload: %w", err)
		}
	}

	res, err := a.exec.ApplyEvent(id.Computer, id.Local, payload)
	if err != nil {
		return err
	}
	a.logger.Info("Event applied.", "event", event, "recomputed", len(res.Recomputed), "failed", len(res.Failed))
	return nil
}

// printValues renders every computer's Set/Fresh entries plus its error
// map as one JSON document on the app's output writer.
func (a *App) printValues() error {
	type computerState struct {
		Values map[string]json.RawMessage `json:"values"`
		Errors map[string]string          `json:"errors,omitempty"`
	}

	out := make(map[string]computerState)
	for _, name := range a.exec.Computers() {
		vals, errs, err := a.exec.CurrentValues(name)
		if err != nil {
			return err
		}

		state := computerState{Values: make(map[string]json.RawMessage, len(vals))}
		for entry, v := range vals {
			raw, err := ctyjson.Marshal(v, v.Type())
			if err != nil {
				return fmt.Errorf("rendering %s.%s: %w", name, entry, err)
			}
			state.Values[entry] = raw
		}
		if len(errs) > 0 {
			state.Errors = make(map[string]string, len(errs))
			for entry, entryErr := range errs {
				state.Errors[entry] = entryErr.Error()
			}
		}
		out[name] = state
	}

	enc := json.NewEncoder(a.outW)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

// parseJSONValue converts a JSON literal into a cty value. Bare words are
// accepted as strings so `-set calc.mode=fast` works without quoting.
func parseJSONValue(raw string) (cty.Value, error) {
	b := []byte(raw)
	t, err := ctyjson.ImpliedType(b)
	if err != nil {
		// Not valid JSON; treat it as a bare string for convenience.
		return cty.StringVal(raw), nil
	}
	v, err := ctyjson.Unmarshal(b, t)
	if err != nil {
		return cty.NilVal, err
	}
	return v, nil
}
