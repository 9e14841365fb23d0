// Copyright © 2026, SAS Institute Inc., Cary, NC, USA.  All Rights Reserved.
// SPDX-License-Identifier: BSD-3-Clause

package pdflayers

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"seehuhn.de/go/geom/matrix"
	"seehuhn.de/go/geom/rect"
	"seehuhn.de/go/geom/vec"

	"github.com/sassoftware/viya-pdf-layers/logger"
)

// layoutOf lays out the single page of a document with the given content.
func layoutOf(t *testing.T, s docOpts) *PageLayout {
	t.Helper()
	r := simpleDoc(s).reader(t)
	pages, err := ParseGeneric(context.Background(), r, DefaultLayoutOptions(), logger.Nop())
	require.NoError(t, err)
	require.Len(t, pages, 1)
	return pages[0]
}

func contentLayout(t *testing.T, content string) *PageLayout {
	t.Helper()
	return layoutOf(t, docOpts{pages: []string{content}})
}

func textLines(t *testing.T, p *PageLayout) []*TextLine {
	t.Helper()
	var out []*TextLine
	for _, it := range p.Items {
		if l, ok := it.(*TextLine); ok {
			out = append(out, l)
		}
	}
	return out
}

func lineGlyphs(l *TextLine) []*Glyph {
	var out []*Glyph
	for _, it := range l.Items {
		if g, ok := it.(*Glyph); ok {
			out = append(out, g)
		}
	}
	return out
}

func TestPageCTM(t *testing.T) {
	box := rect.Rect{LLx: 10, LLy: 20, URx: 210, URy: 120}
	tests := []struct {
		rotate int
		want   matrix.Matrix
		corner vec.Vec2 // image of the upper-right media box corner
	}{
		{0, matrix.Matrix{1, 0, 0, 1, -10, -20}, vec.Vec2{X: 200, Y: 100}},
		{90, matrix.Matrix{0, -1, 1, 0, -20, 210}, vec.Vec2{X: 100, Y: 0}},
		{180, matrix.Matrix{-1, 0, 0, -1, 210, 120}, vec.Vec2{X: 0, Y: 0}},
		{270, matrix.Matrix{0, 1, -1, 0, 120, -10}, vec.Vec2{X: 0, Y: 200}},
	}
	for _, tt := range tests {
		m := pageCTM(box, tt.rotate)
		assert.Equal(t, tt.want, m, "rotate %d", tt.rotate)
		assert.Equal(t, tt.corner, apply(m, box.URx, box.URy), "rotate %d", tt.rotate)
	}
}

func TestProcessPage_Paths(t *testing.T) {
	p := contentLayout(t, "0 0 m 100 0 l S\n10 10 50 20 re f\n1 0 0 RG 0 0 m 10 10 l 20 0 l b\n")
	require.Len(t, p.Items, 3)

	l := p.Items[0].(*Curve)
	assert.Equal(t, ShapeLine, l.Kind)
	assert.Equal(t, rect.Rect{URx: 100}, l.BBox)
	assert.True(t, l.Stroke)
	assert.False(t, l.Fill)

	r := p.Items[1].(*Curve)
	assert.Equal(t, ShapeRect, r.Kind)
	assert.Equal(t, rect.Rect{LLx: 10, LLy: 10, URx: 60, URy: 30}, r.BBox)
	assert.True(t, r.Fill)

	c := p.Items[2].(*Curve)
	assert.Equal(t, ShapeCurve, c.Kind)
	assert.True(t, c.Stroke)
	assert.True(t, c.Fill)
	assert.Equal(t, []float64{1, 0, 0}, c.StrokeColor)
	assert.Len(t, c.Points, 4)
}

func TestProcessPage_GraphicsState(t *testing.T) {
	p := contentLayout(t, "q 2 0 0 2 5 5 cm 3 w 0 0 m 10 0 l S Q 0 0 m 10 0 l S\n0 0 m n\n")
	require.Len(t, p.Items, 2)
	first := p.Items[0].(*Curve)
	assert.Equal(t, rect.Rect{LLx: 5, LLy: 5, URx: 25, URy: 5}, first.BBox)
	assert.Equal(t, 3.0, first.LineWidth)
	second := p.Items[1].(*Curve)
	assert.Equal(t, rect.Rect{URx: 10}, second.BBox)
	assert.Equal(t, 0.0, second.LineWidth)
}

func TestProcessPage_TextPositioning(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    []rect.Rect
	}{
		{
			name:    "Td",
			content: "BT /F1 10 Tf 20 50 Td (AB) Tj ET",
			want: []rect.Rect{
				{LLx: 20, LLy: 50, URx: 25, URy: 60},
				{LLx: 25, LLy: 50, URx: 30, URy: 60},
			},
		},
		{
			name:    "TL and T*",
			content: "BT /F1 10 Tf 12 TL 20 50 Td (A) Tj T* (B) Tj ET",
			want: []rect.Rect{
				{LLx: 20, LLy: 50, URx: 25, URy: 60},
				{LLx: 20, LLy: 38, URx: 25, URy: 48},
			},
		},
		{
			name:    "TD sets leading",
			content: "BT /F1 10 Tf 20 50 Td 0 -14 TD (A) Tj T* (B) Tj ET",
			want: []rect.Rect{
				{LLx: 20, LLy: 36, URx: 25, URy: 46},
				{LLx: 20, LLy: 22, URx: 25, URy: 32},
			},
		},
		{
			name:    "quote",
			content: "BT /F1 10 Tf 14 TL 20 50 Td (A) Tj (B) ' ET",
			want: []rect.Rect{
				{LLx: 20, LLy: 50, URx: 25, URy: 60},
				{LLx: 20, LLy: 36, URx: 25, URy: 46},
			},
		},
		{
			name:    "double quote",
			content: "BT /F1 10 Tf 14 TL 20 50 Td 0 2 (AB) \" ET",
			want: []rect.Rect{
				{LLx: 20, LLy: 36, URx: 25, URy: 46},
				{LLx: 27, LLy: 36, URx: 32, URy: 46},
			},
		},
		{
			name:    "TJ offsets",
			content: "BT /F1 10 Tf 20 50 Td [(A) -1000 (B)] TJ ET",
			want: []rect.Rect{
				{LLx: 20, LLy: 50, URx: 25, URy: 60},
				{LLx: 35, LLy: 50, URx: 40, URy: 60},
			},
		},
		{
			name:    "Tm and Tz",
			content: "BT /F1 10 Tf 50 Tz 1 0 0 1 100 20 Tm (AB) Tj ET",
			want: []rect.Rect{
				{LLx: 100, LLy: 20, URx: 102.5, URy: 30},
				{LLx: 102.5, LLy: 20, URx: 105, URy: 30},
			},
		},
		{
			name:    "rise",
			content: "BT /F1 10 Tf 4 Ts 20 50 Td (A) Tj ET",
			want: []rect.Rect{
				{LLx: 20, LLy: 54, URx: 25, URy: 64},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := contentLayout(t, tt.content)
			lines := textLines(t, p)
			require.Len(t, lines, 1)
			gl := lineGlyphs(lines[0])
			require.Len(t, gl, len(tt.want))
			for i, g := range gl {
				assertRect(t, tt.want[i], g.BBox)
				assert.Equal(t, "Helvetica", g.Font)
			}
		})
	}
}

func TestProcessPage_TextObjects(t *testing.T) {
	t.Run("line text ends with newline", func(t *testing.T) {
		p := contentLayout(t, "BT /F1 10 Tf (AB) Tj ET")
		lines := textLines(t, p)
		require.Len(t, lines, 1)
		assert.Equal(t, "AB\n", lines[0].Text())
		assert.Equal(t, DefaultWordMargin, lines[0].WordMargin)
	})
	t.Run("missing ET", func(t *testing.T) {
		p := contentLayout(t, "BT /F1 10 Tf (A) Tj")
		assert.Len(t, textLines(t, p), 1)
	})
	t.Run("nested BT", func(t *testing.T) {
		p := contentLayout(t, "BT /F1 10 Tf (A) Tj BT (B) Tj ET")
		lines := textLines(t, p)
		require.Len(t, lines, 2)
		assert.Equal(t, "A\n", lines[0].Text())
		assert.Equal(t, "B\n", lines[1].Text())
	})
	t.Run("ET without BT", func(t *testing.T) {
		p := contentLayout(t, "ET 0 0 m 1 1 l S")
		assert.Len(t, p.Items, 1)
	})
	t.Run("empty text object adds no line", func(t *testing.T) {
		p := contentLayout(t, "BT ET BT /F1 10 Tf 5 5 Td ET 0 0 m 1 1 l S")
		assert.Empty(t, textLines(t, p))
		assert.Len(t, p.Items, 1)
	})
	t.Run("text state survives text objects", func(t *testing.T) {
		p := contentLayout(t, "BT /F1 10 Tf ET BT (A) Tj ET")
		lines := textLines(t, p)
		require.Len(t, lines, 1)
		assert.Equal(t, "A\n", lines[0].Text())
	})
	t.Run("missing font resource", func(t *testing.T) {
		p := contentLayout(t, "BT /F9 10 Tf (A) Tj ET")
		lines := textLines(t, p)
		require.Len(t, lines, 1)
		assert.Equal(t, "A\n", lines[0].Text())
	})
}

func TestProcessPage_Operands(t *testing.T) {
	t.Run("too few operands are skipped", func(t *testing.T) {
		p := contentLayout(t, "0 m 0 0 m 5 l 10 0 l S")
		require.Len(t, p.Items, 1)
		assert.Equal(t, rect.Rect{URx: 10}, p.Items[0].Bounds())
	})
	t.Run("extra operands use the last ones", func(t *testing.T) {
		p := contentLayout(t, "7 0 0 m 1 10 0 l S")
		require.Len(t, p.Items, 1)
		assert.Equal(t, rect.Rect{URx: 10}, p.Items[0].Bounds())
	})
	t.Run("unbalanced Q is ignored", func(t *testing.T) {
		p := contentLayout(t, "Q 0 0 m 1 0 l S")
		assert.Len(t, p.Items, 1)
	})
}

func TestProcessPage_XObjects(t *testing.T) {
	form := streamObj("/Type /XObject /Subtype /Form /BBox [0 0 10 10] /Matrix [1 0 0 1 50 50]", "0 0 m 10 10 l S")
	image := streamObj("/Type /XObject /Subtype /Image /Width 4 /Height 2 /BitsPerComponent 8 /ColorSpace /DeviceRGB", "")
	nested := streamObj("/Type /XObject /Subtype /Form /BBox [0 0 100 100] /Resources << /XObject << /Fm0 6 0 R >> >>", "/Fm0 Do")
	s := docOpts{
		extraObjs: []string{form, image, nested},
		resources: "/XObject << /Fm0 6 0 R /Im0 7 0 R /Fm1 8 0 R >>",
	}

	t.Run("form", func(t *testing.T) {
		s := s
		s.pages = []string{"/Fm0 Do"}
		p := layoutOf(t, s)
		require.Len(t, p.Items, 1)
		fig := p.Items[0].(*Figure)
		assert.Equal(t, "Fm0", fig.Name)
		assert.Equal(t, rect.Rect{LLx: 50, LLy: 50, URx: 60, URy: 60}, fig.BBox)
		require.Len(t, fig.Items, 1)
		assert.Equal(t, rect.Rect{LLx: 50, LLy: 50, URx: 60, URy: 60}, fig.Items[0].Bounds())
	})

	t.Run("image", func(t *testing.T) {
		s := s
		s.pages = []string{"q 100 0 0 50 10 20 cm /Im0 Do Q"}
		p := layoutOf(t, s)
		require.Len(t, p.Items, 1)
		fig := p.Items[0].(*Figure)
		assert.Equal(t, rect.Rect{LLx: 10, LLy: 20, URx: 110, URy: 70}, fig.BBox)
		require.Len(t, fig.Items, 1)
		img := fig.Items[0].(*Image)
		assert.Equal(t, "Im0", img.Name)
		assert.Equal(t, 4, img.Width)
		assert.Equal(t, 2, img.Height)
		assert.Equal(t, 8, img.BitsPerComponent)
		assert.Equal(t, "DeviceRGB", img.ColorSpace)
		assert.Equal(t, fig.BBox, img.BBox)
	})

	t.Run("nested forms with own resources", func(t *testing.T) {
		s := s
		s.pages = []string{"/Fm1 Do"}
		p := layoutOf(t, s)
		require.Len(t, p.Items, 1)
		outer := p.Items[0].(*Figure)
		assert.Equal(t, "Fm1", outer.Name)
		require.Len(t, outer.Items, 1)
		inner := outer.Items[0].(*Figure)
		assert.Equal(t, "Fm0", inner.Name)
	})

	t.Run("unknown xobject", func(t *testing.T) {
		s := s
		s.pages = []string{"/Nope Do"}
		assert.Empty(t, layoutOf(t, s).Items)
	})
}

func TestProcessPage_InlineImage(t *testing.T) {
	p := contentLayout(t, "q 10 0 0 10 5 5 cm BI /W 2 /H 1 /BPC 8 /CS /G ID \x00\xff EI Q")
	require.Len(t, p.Items, 1)
	fig := p.Items[0].(*Figure)
	assert.Equal(t, "inline1", fig.Name)
	assert.Equal(t, rect.Rect{LLx: 5, LLy: 5, URx: 15, URy: 15}, fig.BBox)
	img := fig.Items[0].(*Image)
	assert.Equal(t, 2, img.Width)
	assert.Equal(t, 1, img.Height)
	assert.Equal(t, "G", img.ColorSpace)
}

func TestProcessPage_Rotation(t *testing.T) {
	p := layoutOf(t, docOpts{pages: []string{"0 0 m 10 0 l S"}, pageExtra: "/Rotate 90"})
	assert.Equal(t, 90, p.Rotate)
	assert.Equal(t, rect.Rect{URx: 100, URy: 200}, p.BBox)
	// the line along the bottom edge ends up on the left edge
	assert.Equal(t, rect.Rect{LLx: 0, LLy: 190, URx: 0, URy: 200}, p.Items[0].Bounds())
}

func TestProcessPage_Errors(t *testing.T) {
	t.Run("EMC without BDC", func(t *testing.T) {
		r := simpleDoc(docOpts{pages: []string{"EMC"}}).reader(t)
		_, err := ParseGeneric(context.Background(), r, DefaultLayoutOptions(), nil)
		assert.ErrorIs(t, err, ErrUnbalancedMarkedContent)
	})
	t.Run("cancelled context", func(t *testing.T) {
		r := simpleDoc(docOpts{pages: []string{"0 0 m 1 1 l S"}}).reader(t)
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := ParseGeneric(ctx, r, DefaultLayoutOptions(), nil)
		assert.ErrorIs(t, err, context.Canceled)
	})
	t.Run("page out of range", func(t *testing.T) {
		r := simpleDoc(docOpts{pages: []string{""}}).reader(t)
		_, err := LayoutPage(context.Background(), r, 5, nil, DefaultLayoutOptions(), nil)
		assert.Error(t, err)
	})
}
