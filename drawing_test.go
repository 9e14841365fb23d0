// Copyright © 2026, SAS Institute Inc., Cary, NC, USA.  All Rights Reserved.
// SPDX-License-Identifier: BSD-3-Clause

package pdflayers

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"seehuhn.de/go/geom/rect"
	"seehuhn.de/go/geom/vec"
)

func seg(op byte, xy ...float64) PathSegment {
	s := PathSegment{Op: op}
	for i := 0; i+1 < len(xy); i += 2 {
		s.Pts = append(s.Pts, vec.Vec2{X: xy[i], Y: xy[i+1]})
	}
	return s
}

func TestPaintPath_Shapes(t *testing.T) {
	tests := []struct {
		name   string
		path   []PathSegment
		kind   ShapeKind
		points []vec.Vec2
		bbox   rect.Rect
	}{
		{
			name:   "line",
			path:   []PathSegment{seg('m', 0, 0), seg('l', 10, 5)},
			kind:   ShapeLine,
			points: []vec.Vec2{{X: 0, Y: 0}, {X: 10, Y: 5}},
			bbox:   rect.Rect{URx: 10, URy: 5},
		},
		{
			name:   "closed line",
			path:   []PathSegment{seg('m', 0, 0), seg('l', 10, 5), seg('h')},
			kind:   ShapeLine,
			points: []vec.Vec2{{X: 0, Y: 0}, {X: 10, Y: 5}},
			bbox:   rect.Rect{URx: 10, URy: 5},
		},
		{
			name: "rectangle",
			path: []PathSegment{seg('m', 10, 5), seg('l', 0, 5), seg('l', 0, 0), seg('l', 10, 0), seg('h')},
			kind: ShapeRect,
			points: []vec.Vec2{
				{X: 0, Y: 0}, {X: 10, Y: 0}, {X: 10, Y: 5}, {X: 0, Y: 5},
			},
			bbox: rect.Rect{URx: 10, URy: 5},
		},
		{
			name: "explicitly closed rectangle",
			path: []PathSegment{seg('m', 0, 0), seg('l', 0, 5), seg('l', 10, 5), seg('l', 10, 0), seg('l', 0, 0)},
			kind: ShapeRect,
			points: []vec.Vec2{
				{X: 0, Y: 0}, {X: 10, Y: 0}, {X: 10, Y: 5}, {X: 0, Y: 5},
			},
			bbox: rect.Rect{URx: 10, URy: 5},
		},
		{
			name: "diamond",
			path: []PathSegment{seg('m', 5, 0), seg('l', 10, 5), seg('l', 5, 10), seg('l', 0, 5), seg('h')},
			kind: ShapeCurve,
			points: []vec.Vec2{
				{X: 5, Y: 0}, {X: 10, Y: 5}, {X: 5, Y: 10}, {X: 0, Y: 5}, {X: 5, Y: 0},
			},
			bbox: rect.Rect{URx: 10, URy: 10},
		},
		{
			name:   "bezier",
			path:   []PathSegment{seg('m', 0, 0), seg('c', 1, 1, 2, 2, 3, 0)},
			kind:   ShapeCurve,
			points: []vec.Vec2{{X: 0, Y: 0}, {X: 3, Y: 0}},
			bbox:   rect.Rect{URx: 3},
		},
	}

	gs := &GraphicsState{LineWidth: 2}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			items := paintPath(gs, true, false, false, tt.path)
			require.Len(t, items, 1)
			c, ok := items[0].(*Curve)
			require.True(t, ok)
			assert.Equal(t, tt.kind, c.Kind)
			if diff := cmp.Diff(tt.points, c.Points); diff != "" {
				t.Errorf("points mismatch (-want +got):\n%s", diff)
			}
			assert.Equal(t, tt.bbox, c.BBox)
			assert.Equal(t, 2.0, c.LineWidth)
			assert.True(t, c.Stroke)
		})
	}
}

func TestPaintPath_Subpaths(t *testing.T) {
	path := []PathSegment{
		seg('m', 0, 0), seg('l', 1, 1),
		seg('m', 5, 5),
		seg('m', 2, 2), seg('l', 3, 3), seg('l', 4, 2),
	}
	items := paintPath(&GraphicsState{}, false, true, true, path)
	require.Len(t, items, 2, "a lone move is dropped")
	assert.Equal(t, ShapeLine, items[0].(*Curve).Kind)
	c := items[1].(*Curve)
	assert.Equal(t, ShapeCurve, c.Kind)
	assert.True(t, c.Fill)
	assert.True(t, c.EvenOdd)

	assert.Empty(t, paintPath(&GraphicsState{}, true, false, false, []PathSegment{seg('l', 1, 1)}))
}

func TestPaintPath_CopiesColors(t *testing.T) {
	gs := &GraphicsState{StrokeColor: []float64{1, 0, 0}, FillColor: []float64{0.5}}
	items := paintPath(gs, true, true, false, []PathSegment{seg('m', 0, 0), seg('l', 1, 0)})
	gs.StrokeColor[0] = 0
	c := items[0].(*Curve)
	assert.Equal(t, []float64{1, 0, 0}, c.StrokeColor)
	assert.Equal(t, []float64{0.5}, c.FillColor)
}

func TestTransformRect(t *testing.T) {
	r := rect.Rect{URx: 10, URy: 20}
	got := transformRect(r, [6]float64{0, 1, -1, 0, 100, 0})
	assert.Equal(t, rect.Rect{LLx: 80, LLy: 0, URx: 100, URy: 10}, got)
}
