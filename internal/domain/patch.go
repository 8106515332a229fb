package domain

import (
	"encoding/json"
	"fmt"
)

// PatchOpKind enumerates the RFC 6902 operation kinds.
type PatchOpKind string

const (
	OpAdd     PatchOpKind = "add"
	OpRemove  PatchOpKind = "remove"
	OpReplace PatchOpKind = "replace"
	OpMove    PatchOpKind = "move"
	OpCopy    PatchOpKind = "copy"
	OpTest    PatchOpKind = "test"
)

// PatchOp is a single RFC 6902 operation in its validated, narrow form.
// Value stays raw JSON: string, number, boolean, null, or an array/object
// of those, decoded lazily by whoever applies the op.
type PatchOp struct {
	Op    PatchOpKind     `json:"op"`
	Path  string          `json:"path"`
	From  string          `json:"from,omitempty"`
	Value json.RawMessage `json:"value,omitempty"`
}

// Validate checks the op against its variant's structural requirements
// before any application is attempted.
func (o PatchOp) Validate() error {
	switch o.Op {
	case OpAdd, OpReplace, OpTest:
		if len(o.Value) == 0 {
			return fmt.Errorf("op %q requires a value", o.Op)
		}
	case OpMove, OpCopy:
		if o.From == "" {
			return fmt.Errorf("op %q requires a from path", o.Op)
		}
	case OpRemove:
	default:
		return fmt.Errorf("unknown op %q", o.Op)
	}
	if o.Path == "" || o.Path[0] != '/' {
		return fmt.Errorf("op %q has invalid path %q", o.Op, o.Path)
	}
	return nil
}

// IntValue decodes the op value as an integer.
func (o PatchOp) IntValue() (int, bool) {
	var n int
	if err := json.Unmarshal(o.Value, &n); err != nil {
		return 0, false
	}
	return n, true
}
