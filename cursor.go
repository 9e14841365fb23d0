// Copyright © 2026, SAS Institute Inc., Cary, NC, USA.  All Rights Reserved.
// SPDX-License-Identifier: BSD-3-Clause

package pdflayers

import (
	"fmt"

	"seehuhn.de/go/geom/matrix"
	"seehuhn.de/go/geom/rect"
)

// A layoutCursor is the insertion point into one layout tree: the current
// container and the containers enclosing it.
type layoutCursor struct {
	page  *PageLayout
	cur   Container
	stack []Container
}

func newLayoutCursor(page *PageLayout) *layoutCursor {
	return &layoutCursor{page: page, cur: page}
}

func (c *layoutCursor) add(items ...Item) {
	for _, it := range items {
		c.cur.Add(it)
	}
}

// current returns the bounds of the current container.
func (c *layoutCursor) current() rect.Rect {
	return c.cur.Bounds()
}

func (c *layoutCursor) push(next Container) {
	c.stack = append(c.stack, c.cur)
	c.cur = next
}

// pop closes the current container and adds it to its parent.
func (c *layoutCursor) pop() error {
	n := len(c.stack)
	if n == 0 {
		return fmt.Errorf("%w: no open scope", ErrUnbalancedScope)
	}
	done := c.cur
	c.cur = c.stack[n-1]
	c.stack = c.stack[:n-1]
	c.cur.Add(done)
	return nil
}

// beginFigure opens a figure whose box bbox is given in the coordinates of
// m, which maps them to page space.
func (c *layoutCursor) beginFigure(name string, bbox rect.Rect, m matrix.Matrix) {
	c.push(&Figure{Name: name, BBox: transformRect(bbox, m), Matrix: m})
}

func (c *layoutCursor) endFigure() error {
	if _, ok := c.cur.(*Figure); !ok {
		return fmt.Errorf("%w: end of figure inside %T", ErrUnbalancedScope, c.cur)
	}
	return c.pop()
}

func (c *layoutCursor) beginTextGroup(wordMargin float64) {
	c.push(&TextLine{WordMargin: wordMargin})
}

// endTextGroup terminates the current line with a newline annotation and
// adds it to the enclosing container.
//
// Unlike a plain BT/ET replay, a line that received no items is dropped
// instead of being attached as a lone terminator, so text objects that
// only set state leave no trace in the layout.
func (c *layoutCursor) endTextGroup() error {
	line, ok := c.cur.(*TextLine)
	if !ok {
		return fmt.Errorf("%w: end of text group inside %T", ErrUnbalancedScope, c.cur)
	}
	if len(line.Items) == 0 {
		n := len(c.stack)
		c.cur = c.stack[n-1]
		c.stack = c.stack[:n-1]
		return nil
	}
	line.Add(&Anno{Text: "\n"})
	return c.pop()
}

// finish reports an error when a figure or text group is still open.
func (c *layoutCursor) finish() error {
	if len(c.stack) > 0 {
		return fmt.Errorf("%w: %d scopes open at end of page", ErrUnbalancedScope, len(c.stack))
	}
	return nil
}
