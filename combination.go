// Copyright © 2026, SAS Institute Inc., Cary, NC, USA.  All Rights Reserved.
// SPDX-License-Identifier: BSD-3-Clause

package pdflayers

import "strings"

// A Combination is one root-to-leaf path of an OrderTree: the OCG names
// switched on together in one view.
type Combination []string

// FullLayout is the key of the unconditional layout in a PageLayers map.
const FullLayout = ""

// Key returns the human-readable key of c: its names joined by ", ".
func (c Combination) Key() string {
	return strings.Join(c, ", ")
}

// Contains reports whether name is switched on in c.
func (c Combination) Contains(name string) bool {
	for _, n := range c {
		if n == name {
			return true
		}
	}
	return false
}

// Combinations enumerates the root-to-leaf paths of t in depth-first
// pre-order, keeping sibling order. An empty tree yields exactly one empty
// combination.
func (t OrderTree) Combinations() []Combination {
	var out []Combination
	t.walk(nil, &out)
	return out
}

func (t OrderTree) walk(path Combination, out *[]Combination) {
	if len(t) == 0 {
		leaf := make(Combination, len(path))
		copy(leaf, path)
		*out = append(*out, leaf)
		return
	}
	for _, n := range t {
		n.Children.walk(append(path[:len(path):len(path)], n.Name), out)
	}
}
