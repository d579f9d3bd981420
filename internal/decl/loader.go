package decl

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"

	"github.com/vk/calcgrid/internal/computer"
	"github.com/vk/calcgrid/internal/ctxlog"
	"github.com/vk/calcgrid/internal/nodeid"
)

// Loader discovers and parses HCL declaration files.
type Loader struct{}

// NewLoader creates a declaration loader.
func NewLoader() *Loader {
	return &Loader{}
}

// Load orchestrates the whole loading process: file discovery, HCL
// parsing, and translation into validated-ready specs. Paths may be
// single files or directories searched recursively.
func (l *Loader) Load(ctx context.Context, paths ...string) (*Model, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Declaration loader started.", "path_count", len(paths))

	files, err := findDeclarationFiles(paths)
	if err != nil {
		return nil, err
	}
	logger.Debug("Discovered declaration files.", "count", len(files))

	model := &Model{}
	seen := make(map[string]string)
	parser := hclparse.NewParser()

	for _, file := range files {
		hclFile, diags := parser.ParseHCLFile(file)
		if diags.HasErrors() {
			return nil, fmt.Errorf("failed to parse %s: %w", file, diags)
		}

		var root fileRoot
		if diags := gohcl.DecodeBody(hclFile.Body, nil, &root); diags.HasErrors() {
			return nil, fmt.Errorf("failed to decode %s: %w", file, diags)
		}

		for _, c := range root.Computers {
			if prev, dup := seen[c.Name]; dup {
				return nil, fmt.Errorf("%s: computer %q is already declared in %s", file, c.Name, prev)
			}
			seen[c.Name] = file

			spec, err := translateComputer(c)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", file, err)
			}
			model.Computers = append(model.Computers, spec)
		}

		for _, conn := range root.Connects {
			source, err := nodeid.Parse(conn.From)
			if err != nil {
				return nil, fmt.Errorf("%s: connect from: %w", file, err)
			}
			target, err := nodeid.Parse(conn.To)
			if err != nil {
				return nil, fmt.Errorf("%s: connect to: %w", file, err)
			}
			model.Connections = append(model.Connections, Connection{Source: source, Target: target})
		}
	}

	logger.Debug("Declaration loading complete.",
		"computers", len(model.Computers), "connections", len(model.Connections))
	return model, nil
}

// translateComputer converts one decoded computer block into a spec. The
// spec still goes through computer.Validate at registration; translation
// only rejects what validation cannot see, like a non-constant default or
// an event expression referencing an unknown name.
func translateComputer(c *hclComputer) (*computer.Spec, error) {
	spec := &computer.Spec{Name: c.Name}

	for _, in := range c.Inputs {
		input := computer.Input{Name: in.Name, Description: in.Description}
		if in.Default != nil {
			v, err := constValue(in.Default, fmt.Sprintf("default of input %q", in.Name))
			if err != nil {
				return nil, fmt.Errorf("computer %q: %w", c.Name, err)
			}
			input.Initial = v
		}
		spec.Inputs = append(spec.Inputs, input)
	}

	for _, v := range c.Values {
		deps := v.DependsOn
		if deps == nil {
			deps = referencedRoots(v.Expr)
		}
		spec.Values = append(spec.Values, computer.Value{
			Name:        v.Name,
			DependsOn:   deps,
			Compute:     computeFromExpr(v.Expr),
			Description: v.Description,
		})
	}

	for _, e := range c.Events {
		for _, set := range e.Sets {
			if _, ok := spec.InputNamed(set.Input); !ok {
				return nil, fmt.Errorf("computer %q: event %q sets %q, which is not an input of this computer", c.Name, e.Name, set.Input)
			}
		}
		// Set expressions may only reach local names and the payload.
		for _, root := range referencedRootsOfSets(e.Sets) {
			if root == payloadName || spec.HasLocal(root) {
				continue
			}
			return nil, fmt.Errorf("computer %q: event %q references %q, which is not an input or value of this computer", c.Name, e.Name, root)
		}
		spec.Events = append(spec.Events, computer.Event{
			Name:    e.Name,
			Handler: handlerFromSets(e.Sets),
		})
	}

	return spec, nil
}

// findDeclarationFiles walks all given paths and returns a sorted,
// de-duplicated list of .hcl files.
func findDeclarationFiles(paths []string) ([]string, error) {
	var all []string
	seen := make(map[string]struct{})

	add := func(path string) {
		if _, dup := seen[path]; !dup {
			seen[path] = struct{}{}
			all = append(all, path)
		}
	}

	for _, path := range paths {
		info, err := os.Stat(path)
		if err != nil {
			return nil, fmt.Errorf("declaration path %s: %w", path, err)
		}

		if !info.IsDir() {
			add(path)
			continue
		}

		err = filepath.WalkDir(path, func(p string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if !d.IsDir() && strings.HasSuffix(d.Name(), ".hcl") {
				add(p)
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("walking declaration path %s: %w", path, err)
		}
	}

	sort.Strings(all)
	return all, nil
}
