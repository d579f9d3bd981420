package decl

import (
	"github.com/hashicorp/hcl/v2"

	"github.com/vk/calcgrid/internal/computer"
	"github.com/vk/calcgrid/internal/nodeid"
)

// Connection is a declared wire from one computer's value to another
// computer's input.
type Connection struct {
	Source nodeid.Address
	Target nodeid.Address
}

// Model is the loaded, translated form of all declaration files: the
// computer specs in declaration order plus the connection table.
type Model struct {
	Computers   []*computer.Spec
	Connections []Connection
}

// fileRoot is the top-level decode target for any declaration file.
type fileRoot struct {
	Computers []*hclComputer `hcl:"computer,block"`
	Connects  []*hclConnect  `hcl:"connect,block"`
}

type hclComputer struct {
	Name   string      `hcl:"name,label"`
	Inputs []*hclInput `hcl:"input,block"`
	Values []*hclValue `hcl:"value,block"`
	Events []*hclEvent `hcl:"event,block"`
}

type hclInput struct {
	Name        string         `hcl:"name,label"`
	Default     hcl.Expression `hcl:"default,optional"`
	Description string         `hcl:"description,optional"`
}

type hclValue struct {
	Name string `hcl:"name,label"`
	// Expr stays raw; it is evaluated against a snapshot on every
	// recomputation.
	Expr hcl.Expression `hcl:"expr"`
	// DependsOn overrides the inferred dependency set when present.
	DependsOn   []string `hcl:"depends_on,optional"`
	Description string   `hcl:"description,optional"`
}

type hclEvent struct {
	Name string    `hcl:"name,label"`
	Sets []*hclSet `hcl:"set,block"`
}

type hclSet struct {
	Input string         `hcl:"input,label"`
	To    hcl.Expression `hcl:"to"`
}

type hclConnect struct {
	From string `hcl:"from"`
	To   string `hcl:"to"`
}
