// Package patch validates and applies RFC 6902 patch documents to the
// canonical game state under an optimistic version guard. Application is
// all-or-nothing: on any rejection the pre-patch state is the result.
package patch

import (
	"encoding/json"
	"errors"
	"fmt"

	jsonpatch "github.com/evanphx/json-patch/v5"

	"github.com/PabloGalante/fable-engine/internal/domain"
)

var (
	// ErrMissingVersionTest means the patch did not open with the
	// mandatory {op:test, path:/version} operation.
	ErrMissingVersionTest = errors.New("patch missing leading version test")

	// ErrStaleVersion means the declared base version does not match the
	// live state; the patch was computed against a stale snapshot.
	ErrStaleVersion = errors.New("patch version test does not match live state")

	// ErrInvalidOp means an operation failed structural validation.
	ErrInvalidOp = errors.New("invalid patch operation")

	// ErrVersionNotBumped means the patch mutated state without
	// incrementing /version by exactly one.
	ErrVersionNotBumped = errors.New("patch mutated state without bumping version")

	// ErrInventoryInvariant means the resulting inventory had a duplicate
	// id, a non-positive quantity, or disturbed the order of existing rows.
	ErrInventoryInvariant = errors.New("patch violates inventory invariant")
)

// Apply validates ops against state and returns the patched state, or an
// error with state untouched. The input state is never mutated.
func Apply(state *domain.GameState, ops []domain.PatchOp) (*domain.GameState, error) {
	for i, op := range ops {
		if err := op.Validate(); err != nil {
			return nil, fmt.Errorf("%w: op %d: %v", ErrInvalidOp, i, err)
		}
	}

	if err := checkVersionGuard(state, ops); err != nil {
		return nil, err
	}

	next, err := applyOps(state, ops)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidOp, err)
	}

	if err := checkPostInvariants(state, next, ops); err != nil {
		return nil, err
	}

	// Patched skill values arrive as external input; clamp, never reject.
	next.Player.Skills.Clamp()

	return next, nil
}

// checkVersionGuard enforces the mandatory leading test op on /version.
// Nothing is applied when it fails.
func checkVersionGuard(state *domain.GameState, ops []domain.PatchOp) error {
	if len(ops) == 0 {
		return ErrMissingVersionTest
	}
	first := ops[0]
	if first.Op != domain.OpTest || first.Path != "/version" {
		return ErrMissingVersionTest
	}
	declared, ok := first.IntValue()
	if !ok {
		return ErrMissingVersionTest
	}
	if declared != state.Version {
		return fmt.Errorf("%w: declared %d, live %d", ErrStaleVersion, declared, state.Version)
	}
	return nil
}

// applyOps runs the document-level application. jsonpatch applies against
// a decoded copy, so a mid-patch failure leaves the input untouched.
func applyOps(state *domain.GameState, ops []domain.PatchOp) (*domain.GameState, error) {
	rawOps, err := json.Marshal(ops)
	if err != nil {
		return nil, fmt.Errorf("encode ops: %w", err)
	}
	p, err := jsonpatch.DecodePatch(rawOps)
	if err != nil {
		return nil, fmt.Errorf("decode patch: %w", err)
	}

	doc, err := json.Marshal(state)
	if err != nil {
		return nil, fmt.Errorf("encode state: %w", err)
	}
	patched, err := p.Apply(doc)
	if err != nil {
		return nil, err
	}

	next := &domain.GameState{}
	if err := json.Unmarshal(patched, next); err != nil {
		return nil, fmt.Errorf("decode patched state: %w", err)
	}
	return next, nil
}

// checkPostInvariants rejects patches that mutate without bumping the
// version, decrement the version, or corrupt the inventory.
func checkPostInvariants(old, next *domain.GameState, ops []domain.PatchOp) error {
	mutated := false
	for _, op := range ops {
		if op.Op != domain.OpTest {
			mutated = true
			break
		}
	}

	switch {
	case mutated && next.Version != old.Version+1:
		return fmt.Errorf("%w: version %d -> %d", ErrVersionNotBumped, old.Version, next.Version)
	case !mutated && next.Version != old.Version:
		return fmt.Errorf("%w: version %d -> %d", ErrVersionNotBumped, old.Version, next.Version)
	}

	seen := make(map[string]struct{}, len(next.Player.Inventory))
	for _, item := range next.Player.Inventory {
		if item.ID == "" {
			return fmt.Errorf("%w: empty item id", ErrInventoryInvariant)
		}
		if item.Qty <= 0 {
			return fmt.Errorf("%w: item %q has qty %d", ErrInventoryInvariant, item.ID, item.Qty)
		}
		if _, dup := seen[item.ID]; dup {
			return fmt.Errorf("%w: duplicate item %q", ErrInventoryInvariant, item.ID)
		}
		seen[item.ID] = struct{}{}
	}

	return checkInventoryOrder(old.Player.Inventory, next.Player.Inventory)
}

// checkInventoryOrder enforces that surviving rows keep their relative
// order and new rows only appear after every survivor. Only tail appends
// and removals by index may touch the list shape; a move, a copy or an
// add at a non-tail index would shift rows the client tracks by index.
func checkInventoryOrder(old, next []domain.InventoryItem) error {
	oldPos := make(map[string]int, len(old))
	for i, item := range old {
		oldPos[item.ID] = i
	}

	lastSurvivor := -1
	sawNew := false
	for _, item := range next {
		pos, existing := oldPos[item.ID]
		if !existing {
			sawNew = true
			continue
		}
		if sawNew {
			return fmt.Errorf("%w: new row inserted before existing item %q", ErrInventoryInvariant, item.ID)
		}
		if pos < lastSurvivor {
			return fmt.Errorf("%w: item %q moved out of order", ErrInventoryInvariant, item.ID)
		}
		lastSurvivor = pos
	}
	return nil
}
