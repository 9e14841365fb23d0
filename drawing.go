// Copyright © 2026, SAS Institute Inc., Cary, NC, USA.  All Rights Reserved.
// SPDX-License-Identifier: BSD-3-Clause

package pdflayers

import (
	"seehuhn.de/go/geom/rect"
	"seehuhn.de/go/geom/vec"
)

// paintPath turns a painted path into layout shapes, one per subpath. A
// subpath of a single line segment becomes a line, an axis-aligned closed
// four-sided subpath becomes a rectangle, and anything else a curve.
// Subpaths consisting of a lone move are dropped.
func paintPath(gs *GraphicsState, stroke, fill, evenOdd bool, path []PathSegment) []Item {
	var out []Item
	for _, sub := range splitSubpaths(path) {
		if len(sub) < 2 {
			continue
		}
		out = append(out, shape(gs, stroke, fill, evenOdd, sub))
	}
	return out
}

func splitSubpaths(path []PathSegment) [][]PathSegment {
	var subs [][]PathSegment
	start := -1
	for i, seg := range path {
		if seg.Op == 'm' {
			if start >= 0 {
				subs = append(subs, path[start:i])
			}
			start = i
		}
	}
	if start >= 0 {
		subs = append(subs, path[start:])
	}
	return subs
}

func shape(gs *GraphicsState, stroke, fill, evenOdd bool, sub []PathSegment) *Curve {
	ops := make([]byte, len(sub))
	pts := make([]vec.Vec2, len(sub))
	for i, seg := range sub {
		ops[i] = seg.Op
		if seg.Op == 'h' || len(seg.Pts) == 0 {
			pts[i] = sub[0].Pts[0]
			continue
		}
		pts[i] = seg.Pts[len(seg.Pts)-1]
	}
	c := &Curve{
		Kind:        ShapeCurve,
		Points:      pts,
		LineWidth:   gs.LineWidth,
		Stroke:      stroke,
		Fill:        fill,
		EvenOdd:     evenOdd,
		StrokeColor: append([]float64(nil), gs.StrokeColor...),
		FillColor:   append([]float64(nil), gs.FillColor...),
	}
	switch string(ops) {
	case "ml", "mlh":
		c.Kind = ShapeLine
		c.Points = pts[:2]
	case "mlllh", "mllll":
		if pts[0] == pts[4] && axisAligned(pts[:4]) {
			c.Kind = ShapeRect
			r := envelope(pts[0], pts[2])
			c.Points = []vec.Vec2{
				{X: r.LLx, Y: r.LLy}, {X: r.URx, Y: r.LLy},
				{X: r.URx, Y: r.URy}, {X: r.LLx, Y: r.URy},
			}
		}
	}
	c.BBox = envelope(c.Points...)
	return c
}

func axisAligned(p []vec.Vec2) bool {
	return (p[0].X == p[1].X && p[1].Y == p[2].Y && p[2].X == p[3].X && p[3].Y == p[0].Y) ||
		(p[0].Y == p[1].Y && p[1].X == p[2].X && p[2].Y == p[3].Y && p[3].X == p[0].X)
}

// renderImage places an image in the current figure.
func renderImage(name string, img ImageInfo, bounds rect.Rect) []Item {
	return []Item{&Image{Name: name, BBox: bounds, ImageInfo: img}}
}
