// Copyright © 2026, SAS Institute Inc., Cary, NC, USA.  All Rights Reserved.
// SPDX-License-Identifier: BSD-3-Clause

package pdflayers

import (
	"fmt"
	"io"
	"strings"

	"seehuhn.de/go/geom/matrix"
	"seehuhn.de/go/geom/rect"
	"seehuhn.de/go/geom/vec"
)

// An Item is a node of a page layout tree.
type Item interface {
	Bounds() rect.Rect
}

// A Container is an Item holding other items in insertion order.
type Container interface {
	Item
	Add(Item)
	Children() []Item
}

// A PageLayout is the root of the layout tree of one page.
type PageLayout struct {
	ID     int
	BBox   rect.Rect
	Rotate int
	Items  []Item
}

func (p *PageLayout) Bounds() rect.Rect { return p.BBox }
func (p *PageLayout) Add(it Item)       { p.Items = append(p.Items, it) }
func (p *PageLayout) Children() []Item  { return p.Items }

// A Figure groups the content of a form or image XObject. BBox is the
// XObject's bounding box in page space.
type Figure struct {
	Name   string
	BBox   rect.Rect
	Matrix matrix.Matrix
	Items  []Item
}

func (f *Figure) Bounds() rect.Rect { return f.BBox }
func (f *Figure) Add(it Item)       { f.Items = append(f.Items, it) }
func (f *Figure) Children() []Item  { return f.Items }

// A TextLine collects the glyphs of one BT/ET text object. Its bounds grow
// with every glyph added.
type TextLine struct {
	BBox       rect.Rect
	WordMargin float64
	Items      []Item
}

func (l *TextLine) Bounds() rect.Rect { return l.BBox }
func (l *TextLine) Children() []Item  { return l.Items }

// Add appends it to the line. Annotations have an empty box and leave the
// bounds unchanged.
func (l *TextLine) Add(it Item) {
	l.BBox.Extend(it.Bounds())
	l.Items = append(l.Items, it)
}

// Text returns the concatenated text of the line.
func (l *TextLine) Text() string {
	var b strings.Builder
	for _, it := range l.Items {
		switch it := it.(type) {
		case *Glyph:
			b.WriteString(it.Text)
		case *Anno:
			b.WriteString(it.Text)
		}
	}
	return b.String()
}

// ShapeKind classifies a painted subpath.
type ShapeKind int

const (
	ShapeCurve ShapeKind = iota
	ShapeLine
	ShapeRect
)

func (k ShapeKind) String() string {
	switch k {
	case ShapeLine:
		return "line"
	case ShapeRect:
		return "rect"
	}
	return "curve"
}

// A Curve is a painted subpath in page space.
type Curve struct {
	Kind        ShapeKind
	Points      []vec.Vec2
	BBox        rect.Rect
	LineWidth   float64
	Stroke      bool
	Fill        bool
	EvenOdd     bool
	StrokeColor []float64
	FillColor   []float64
}

func (c *Curve) Bounds() rect.Rect { return c.BBox }

// An Image is a placed raster image. BBox is the bounds of the enclosing
// figure.
type Image struct {
	Name string
	BBox rect.Rect
	ImageInfo
}

func (im *Image) Bounds() rect.Rect { return im.BBox }

// A Glyph is one rendered character. Quad holds the transformed corners of
// the glyph box in the order lower-left, lower-right, upper-right,
// upper-left; BBox is their envelope.
type Glyph struct {
	Quad     [4]vec.Vec2
	BBox     rect.Rect
	Text     string
	Font     string
	Size     float64
	Adv      float64
	Upright  bool
	Vertical bool
	Matrix   matrix.Matrix
}

func (g *Glyph) Bounds() rect.Rect { return g.BBox }

// An Anno is a synthetic text item without geometry, such as the newline
// closing a text line.
type Anno struct {
	Text string
}

func (a *Anno) Bounds() rect.Rect { return rect.Rect{} }

// Dump writes an indented textual rendering of the tree rooted at p.
func (p *PageLayout) Dump(w io.Writer) error {
	d := dumper{w: w}
	d.item(p, 0)
	return d.err
}

type dumper struct {
	w   io.Writer
	err error
}

func (d *dumper) printf(depth int, format string, args ...interface{}) {
	if d.err != nil {
		return
	}
	_, d.err = fmt.Fprintf(d.w, "%s"+format+"\n", append([]interface{}{strings.Repeat("  ", depth)}, args...)...)
}

func (d *dumper) item(it Item, depth int) {
	switch it := it.(type) {
	case *PageLayout:
		d.printf(depth, "<page %d %s rotate=%d>", it.ID, fmtRect(it.BBox), it.Rotate)
	case *Figure:
		d.printf(depth, "<figure %q %s>", it.Name, fmtRect(it.BBox))
	case *TextLine:
		d.printf(depth, "<textline %s %q>", fmtRect(it.BBox), it.Text())
		return
	case *Curve:
		d.printf(depth, "<%s %s points=%d>", it.Kind, fmtRect(it.BBox), len(it.Points))
	case *Image:
		d.printf(depth, "<image %q %s %dx%d>", it.Name, fmtRect(it.BBox), it.Width, it.Height)
	case *Glyph:
		d.printf(depth, "<char %q %s font=%q size=%.3f>", it.Text, fmtRect(it.BBox), it.Font, it.Size)
	case *Anno:
		d.printf(depth, "<anno %q>", it.Text)
	}
	if c, ok := it.(Container); ok {
		for _, child := range c.Children() {
			d.item(child, depth+1)
		}
	}
}

func fmtRect(r rect.Rect) string {
	return fmt.Sprintf("%.3f,%.3f,%.3f,%.3f", r.LLx, r.LLy, r.URx, r.URy)
}
