package hierarchy

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
)

// Shape tags which of the accepted input layouts an [Input] came from.
type Shape int

const (
	// ShapeEmpty means no recognizable hierarchy was supplied.
	ShapeEmpty Shape = iota
	// ShapeNested is a single root entry with nested children.
	ShapeNested
	// ShapeRootBranches is a root entry plus a separate list of top-level branches.
	ShapeRootBranches
	// ShapeBranchList is a list of top-level branches without an explicit root.
	ShapeBranchList
	// ShapeFlat is a list of records linked by ParentID.
	ShapeFlat
)

var shapeNames = map[Shape]string{
	ShapeEmpty:        "empty",
	ShapeNested:       "nested",
	ShapeRootBranches: "root+branches",
	ShapeBranchList:   "branch-list",
	ShapeFlat:         "flat",
}

func (s Shape) String() string {
	if n, ok := shapeNames[s]; ok {
		return n
	}
	return fmt.Sprintf("Shape(%d)", int(s))
}

// Entry is one hierarchy entry as supplied by the data source.
// Value is accepted as an alias for Amount.
type Entry struct {
	ID       string  `json:"id,omitempty" yaml:"id,omitempty"`
	Name     string  `json:"name,omitempty" yaml:"name,omitempty"`
	Amount   float64 `json:"amount,omitempty" yaml:"amount,omitempty"`
	Value    float64 `json:"value,omitempty" yaml:"value,omitempty"`
	ParentID string  `json:"parentId,omitempty" yaml:"parentId,omitempty"`
	Children []Entry `json:"children,omitempty" yaml:"children,omitempty"`
}

func (e Entry) amount() float64 {
	if e.Amount == 0 && e.Value != 0 {
		return e.Value
	}
	return e.Amount
}

func (e Entry) isZero() bool {
	return e.ID == "" && e.Name == "" && e.amount() == 0 && len(e.Children) == 0
}

// Input is the canonical, shape-tagged form of a hierarchy.
type Input struct {
	Shape    Shape
	Root     Entry   // ShapeNested, ShapeRootBranches
	Branches []Entry // ShapeRootBranches, ShapeBranchList
	Records  []Entry // ShapeFlat
}

// Nested wraps a single root entry.
func Nested(root Entry) Input { return Input{Shape: ShapeNested, Root: root} }

// RootWithBranches wraps a root entry and its top-level branches.
func RootWithBranches(root Entry, branches []Entry) Input {
	return Input{Shape: ShapeRootBranches, Root: root, Branches: branches}
}

// BranchList wraps top-level branches that have no explicit root.
func BranchList(branches []Entry) Input { return Input{Shape: ShapeBranchList, Branches: branches} }

// Flat wraps parent-linked records.
func Flat(records []Entry) Input { return Input{Shape: ShapeFlat, Records: records} }

// envelope captures every top-level key the object shapes may use.
type envelope struct {
	Entry
	Root        *Entry  `json:"root"`
	Branches    []Entry `json:"branches"`
	Departments []Entry `json:"departments"`
	Nodes       []Entry `json:"nodes"`
}

// Decode reads a JSON hierarchy from r and tags its shape.
// Empty input decodes to a [ShapeEmpty] Input without error.
func Decode(r io.Reader) (Input, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return Input{}, fmt.Errorf("read: %w", err)
	}
	return decodeJSON(data)
}

// DecodeYAML reads a YAML hierarchy from r. Any of the JSON shapes may be
// written in YAML.
func DecodeYAML(r io.Reader) (Input, error) {
	var doc any
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil {
		if err == io.EOF {
			return Input{}, nil
		}
		return Input{}, fmt.Errorf("decode yaml: %w", err)
	}
	data, err := json.Marshal(doc)
	if err != nil {
		return Input{}, fmt.Errorf("convert yaml: %w", err)
	}
	return decodeJSON(data)
}

func decodeJSON(data []byte) (Input, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return Input{}, nil
	}

	if data[0] == '[' {
		var branches []Entry
		if err := json.Unmarshal(data, &branches); err != nil {
			return Input{}, fmt.Errorf("decode branch list: %w", err)
		}
		return BranchList(branches), nil
	}

	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return Input{}, fmt.Errorf("decode: %w", err)
	}

	branches := env.Branches
	if len(branches) == 0 {
		branches = env.Departments
	}

	switch {
	case len(env.Nodes) > 0:
		return Flat(env.Nodes), nil
	case env.Root != nil || len(branches) > 0:
		root := env.Entry
		if env.Root != nil {
			root = *env.Root
		}
		return RootWithBranches(root, branches), nil
	case env.Entry.isZero():
		return Input{}, nil
	default:
		return Nested(env.Entry), nil
	}
}
