// Copyright © 2026, SAS Institute Inc., Cary, NC, USA.  All Rights Reserved.
// SPDX-License-Identifier: BSD-3-Clause

package pdflayers

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"seehuhn.de/go/geom/rect"
	"seehuhn.de/go/geom/vec"
)

func TestTextLine_Add(t *testing.T) {
	l := &TextLine{}
	l.Add(&Anno{Text: " "})
	assert.Equal(t, rect.Rect{}, l.BBox, "annotations have no extent")
	l.Add(&Glyph{Text: "a", BBox: rect.Rect{LLx: 10, LLy: 10, URx: 15, URy: 20}})
	assert.Equal(t, rect.Rect{LLx: 10, LLy: 10, URx: 15, URy: 20}, l.BBox)
	l.Add(&Glyph{Text: "b", BBox: rect.Rect{LLx: 15, LLy: 8, URx: 20, URy: 19}})
	assert.Equal(t, rect.Rect{LLx: 10, LLy: 8, URx: 20, URy: 20}, l.BBox)
	assert.Equal(t, " ab", l.Text())
}

func TestPageLayout_Dump(t *testing.T) {
	line := &TextLine{}
	line.Add(&Glyph{Text: "H", BBox: rect.Rect{LLx: 1, LLy: 2, URx: 3, URy: 4}})
	line.Add(&Anno{Text: "\n"})
	page := &PageLayout{
		ID:   1,
		BBox: rect.Rect{URx: 612, URy: 792},
		Items: []Item{
			&Figure{
				Name: "Fm0",
				BBox: rect.Rect{URx: 10, URy: 10},
				Items: []Item{
					&Image{Name: "Im0", BBox: rect.Rect{URx: 10, URy: 10}, ImageInfo: ImageInfo{Width: 2, Height: 3}},
				},
			},
			line,
			&Curve{Kind: ShapeRect, BBox: rect.Rect{URx: 5, URy: 5}, Points: make([]vec.Vec2, 4)},
			&Glyph{Text: "x", Font: "Helvetica", Size: 12, BBox: rect.Rect{URx: 6, URy: 12}},
		},
	}

	var buf bytes.Buffer
	require.NoError(t, page.Dump(&buf))
	want := `<page 1 0.000,0.000,612.000,792.000 rotate=0>
  <figure "Fm0" 0.000,0.000,10.000,10.000>
    <image "Im0" 0.000,0.000,10.000,10.000 2x3>
  <textline 1.000,2.000,3.000,4.000 "H\n">
  <rect 0.000,0.000,5.000,5.000 points=4>
  <char "x" 0.000,0.000,6.000,12.000 font="Helvetica" size=12.000>
`
	assert.Equal(t, want, buf.String())
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, errors.New("disk full") }

func TestPageLayout_DumpError(t *testing.T) {
	page := &PageLayout{Items: []Item{&Anno{Text: "x"}}}
	assert.EqualError(t, page.Dump(failingWriter{}), "disk full")
}

func TestShapeKind_String(t *testing.T) {
	assert.Equal(t, "curve", ShapeCurve.String())
	assert.Equal(t, "line", ShapeLine.String())
	assert.Equal(t, "rect", ShapeRect.String())
}
