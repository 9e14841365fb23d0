// Copyright © 2026, SAS Institute Inc., Cary, NC, USA.  All Rights Reserved.
// SPDX-License-Identifier: BSD-3-Clause

package pdflayers

import (
	"seehuhn.de/go/geom/matrix"
	"seehuhn.de/go/geom/rect"
	"seehuhn.de/go/geom/vec"
)

// FontMetrics is the font information the text device needs to place
// glyphs. Widths and displacements are per unit of font size, except
// CharDisp which is in glyph space units (1/1000 of text space).
type FontMetrics interface {
	Name() string
	IsVertical() bool
	IsMultibyte() bool
	Descent() float64
	CharWidth(cid int) float64
	CharDisp(cid int) (vx float64, hasVx bool, vy float64)
	Decode(raw string) []int
	ToUnicode(cid int) (string, error)
}

// GraphicsState holds the parts of the PDF graphics state that end up in
// layout objects.
type GraphicsState struct {
	CTM         matrix.Matrix
	LineWidth   float64
	StrokeColor []float64
	FillColor   []float64
}

// TextState holds the PDF text state. LineX and LineY are the pen position
// relative to Matrix; they persist across show-text operators and are reset
// by the text positioning operators.
type TextState struct {
	Font      FontMetrics
	FontSize  float64
	CharSpace float64
	WordSpace float64
	Scaling   float64 // percent
	Leading   float64
	Rise      float64
	Render    int
	Matrix    matrix.Matrix
	LineX     float64
	LineY     float64
}

func newTextState() TextState {
	return TextState{Scaling: 100, Matrix: matrix.Identity}
}

// resetLine moves the pen back to the origin of the text line matrix.
func (ts *TextState) resetLine() {
	ts.LineX, ts.LineY = 0, 0
}

// A TextElem is one element of a show-text operand: either a string of
// character codes or, when IsOffset is set, a position adjustment in
// thousandths of text space.
type TextElem struct {
	Raw      string
	Offset   float64
	IsOffset bool
}

// A PathSegment is one path construction operator with its points already
// in user space. Op is one of 'm', 'l', 'c', 'v', 'y' and 'h'.
type PathSegment struct {
	Op  byte
	Pts []vec.Vec2
}

// PageInfo describes the page handed to Device.BeginPage.
type PageInfo struct {
	Number   int
	MediaBox rect.Rect
	Rotate   int
}

// ImageInfo describes an image XObject or inline image.
type ImageInfo struct {
	Width            int
	Height           int
	BitsPerComponent int
	ColorSpace       string
	ImageMask        bool
}

// A Device receives the rendering events of the content stream
// interpreter. Methods that create layout objects return them so callers
// can route the same objects elsewhere.
type Device interface {
	BeginPage(info PageInfo, ctm matrix.Matrix)
	EndPage() error
	BeginFigure(name string, bbox rect.Rect, m matrix.Matrix)
	EndFigure() error
	PaintPath(gs *GraphicsState, stroke, fill, evenOdd bool, path []PathSegment) []Item
	RenderImage(name string, img ImageInfo) []Item
	RenderString(ts *TextState, seq []TextElem, gs *GraphicsState) []Item
	BeginTextGroup()
	EndTextGroup() error
	BeginMarkedContent(tag string, scope Scope)
	EndMarkedContent() error
}

// apply maps (x, y) through m.
func apply(m matrix.Matrix, x, y float64) vec.Vec2 {
	x, y = m.Apply(x, y)
	return vec.Vec2{X: x, Y: y}
}

// envelope returns the smallest rectangle containing pts.
func envelope(pts ...vec.Vec2) rect.Rect {
	if len(pts) == 0 {
		return rect.Rect{}
	}
	r := rect.Rect{LLx: pts[0].X, LLy: pts[0].Y, URx: pts[0].X, URy: pts[0].Y}
	for _, p := range pts[1:] {
		r.Add(p.X, p.Y)
	}
	return r
}

// transformRect returns the envelope of the corners of r mapped by m.
func transformRect(r rect.Rect, m matrix.Matrix) rect.Rect {
	return envelope(
		apply(m, r.LLx, r.LLy),
		apply(m, r.URx, r.LLy),
		apply(m, r.LLx, r.URy),
		apply(m, r.URx, r.URy),
	)
}
