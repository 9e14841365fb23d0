// Copyright © 2026, SAS Institute Inc., Cary, NC, USA.  All Rights Reserved.
// SPDX-License-Identifier: BSD-3-Clause

package pdflayers

import (
	"github.com/sassoftware/viya-pdf-layers/logger"
)

// A Scope is an entry of the optional content stack. Untagged scopes come
// from marked content that is not optional content and never hide anything.
type Scope struct {
	OCG    string
	Tagged bool
}

// A StateTracker follows the nesting of marked-content scopes on a page and
// keeps, per combination, whether content at the current position belongs
// to that combination's view.
type StateTracker struct {
	combos []Combination
	stack  []Scope
	active []bool
	log    *logger.Logger
}

// NewStateTracker returns a tracker for combos with an empty stack, so
// every combination starts active.
func NewStateTracker(combos []Combination, log *logger.Logger) *StateTracker {
	t := &StateTracker{combos: combos, log: log}
	t.recompute()
	return t
}

// Activate pushes s and recomputes the active vector.
func (t *StateTracker) Activate(s Scope) {
	t.stack = append(t.stack, s)
	t.recompute()
	t.log.Debug("oc scope opened", "ocg", s.OCG, "tagged", s.Tagged, "depth", len(t.stack))
}

// Deactivate pops the innermost scope. It fails with
// ErrUnbalancedMarkedContent when no scope is open.
func (t *StateTracker) Deactivate() error {
	n := len(t.stack)
	if n == 0 {
		return ErrUnbalancedMarkedContent
	}
	t.stack = t.stack[:n-1]
	t.recompute()
	t.log.Debug("oc scope closed", "depth", n-1)
	return nil
}

// Status reports whether combination i is active.
func (t *StateTracker) Status(i int) bool {
	return t.active[i]
}

// Active returns the active vector, one flag per combination. The slice is
// owned by the tracker and changes on the next Activate or Deactivate.
func (t *StateTracker) Active() []bool {
	return t.active
}

// Depth returns the number of open scopes.
func (t *StateTracker) Depth() int {
	return len(t.stack)
}

// Reset clears the stack, as at the start of a page.
func (t *StateTracker) Reset() {
	t.stack = t.stack[:0]
	t.recompute()
}

func (t *StateTracker) recompute() {
	if cap(t.active) < len(t.combos) {
		t.active = make([]bool, len(t.combos))
	}
	t.active = t.active[:len(t.combos)]
	for i, c := range t.combos {
		t.active[i] = visible(c, t.stack)
	}
}

// visible reports whether every tagged scope in stack is switched on in c.
func visible(c Combination, stack []Scope) bool {
	for _, s := range stack {
		if s.Tagged && !c.Contains(s.OCG) {
			return false
		}
	}
	return true
}
