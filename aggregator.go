// Copyright © 2026, SAS Institute Inc., Cary, NC, USA.  All Rights Reserved.
// SPDX-License-Identifier: BSD-3-Clause

package pdflayers

import (
	"fmt"
	"math"

	"seehuhn.de/go/geom/matrix"
	"seehuhn.de/go/geom/rect"

	"github.com/sassoftware/viya-pdf-layers/logger"
)

// LayoutOptions controls how layout trees are built.
type LayoutOptions struct {
	// GroupText collects the glyphs of each text object into a TextLine.
	GroupText bool
	// WordMargin is recorded on every TextLine.
	WordMargin float64
	// Substitute renders characters without a Unicode mapping.
	Substitute SubstituteFunc
}

// DefaultLayoutOptions groups text into lines with the default word margin.
func DefaultLayoutOptions() LayoutOptions {
	return LayoutOptions{GroupText: true, WordMargin: DefaultWordMargin}
}

// scopeRecord remembers which layer trees a figure or text group was
// opened in, so the matching end closes exactly those.
type scopeRecord struct {
	figure bool
	layers []int
}

// An Aggregator is a Device that builds, in a single pass over a page, the
// unconditional layout and one layout per layer combination. Every object
// is created once and shared by reference between the trees whose
// combination is active at the point it is drawn.
type Aggregator struct {
	combos []Combination
	opts   LayoutOptions
	text   *TextDevice
	state  *StateTracker
	log    *logger.Logger

	full   *layoutCursor
	layers []*layoutCursor
	cur    *layoutCursor
	scopes []scopeRecord
	done   bool
}

var _ Device = (*Aggregator)(nil)

// NewAggregator returns an aggregator for combos. With no combinations it
// builds only the unconditional layout.
func NewAggregator(combos []Combination, opts LayoutOptions, log *logger.Logger) *Aggregator {
	return &Aggregator{
		combos: combos,
		opts:   opts,
		text:   NewTextDevice(opts.Substitute, log),
		state:  NewStateTracker(combos, log),
		log:    log,
	}
}

// BeginPage starts a fresh set of layout trees.
func (a *Aggregator) BeginPage(info PageInfo, ctm matrix.Matrix) {
	x0, y0 := ctm.Apply(info.MediaBox.LLx, info.MediaBox.LLy)
	x1, y1 := ctm.Apply(info.MediaBox.URx, info.MediaBox.URy)
	box := rect.Rect{URx: math.Abs(x0 - x1), URy: math.Abs(y0 - y1)}
	newPage := func() *layoutCursor {
		return newLayoutCursor(&PageLayout{ID: info.Number, BBox: box, Rotate: info.Rotate})
	}
	a.full = newPage()
	a.cur = a.full
	a.layers = make([]*layoutCursor, len(a.combos))
	for i := range a.layers {
		a.layers[i] = newPage()
	}
	a.scopes = nil
	a.state.Reset()
	a.done = false
	a.log.Debug("page started", "page", info.Number, "combinations", len(a.combos))
}

// EndPage checks that every figure and text group was closed, in the
// unconditional tree and in every layer.
func (a *Aggregator) EndPage() error {
	if err := a.full.finish(); err != nil {
		return err
	}
	for i := range a.layers {
		err := a.withLayer(i, func() error { return a.cur.finish() })
		if err != nil {
			return fmt.Errorf("layer %q: %w", a.combos[i].Key(), err)
		}
	}
	if d := a.state.Depth(); d > 0 {
		a.log.Debug("marked content left open at end of page", "depth", d)
	}
	a.done = true
	return nil
}

// withLayer runs fn with the insertion point switched to layer i. The
// previous insertion point is restored when fn returns or panics.
func (a *Aggregator) withLayer(i int, fn func() error) error {
	saved := a.cur
	a.cur = a.layers[i]
	defer func() { a.cur = saved }()
	return fn()
}

// activeLayers returns the indices of the active combinations.
func (a *Aggregator) activeLayers() []int {
	var out []int
	for i, on := range a.state.Active() {
		if on {
			out = append(out, i)
		}
	}
	return out
}

// emit adds items to the unconditional tree and to every active layer.
func (a *Aggregator) emit(items []Item) {
	if len(items) == 0 {
		return
	}
	a.cur.add(items...)
	for _, i := range a.activeLayers() {
		_ = a.withLayer(i, func() error {
			a.cur.add(items...)
			return nil
		})
	}
}

func (a *Aggregator) openScope(figure bool, open func()) {
	open()
	layers := a.activeLayers()
	for _, i := range layers {
		_ = a.withLayer(i, func() error {
			open()
			return nil
		})
	}
	a.scopes = append(a.scopes, scopeRecord{figure: figure, layers: layers})
}

func (a *Aggregator) closeScope(figure bool, closeFn func() error) error {
	n := len(a.scopes)
	if n == 0 || a.scopes[n-1].figure != figure {
		return fmt.Errorf("%w: end without matching begin", ErrUnbalancedScope)
	}
	rec := a.scopes[n-1]
	a.scopes = a.scopes[:n-1]
	if err := closeFn(); err != nil {
		return err
	}
	for _, i := range rec.layers {
		if err := a.withLayer(i, closeFn); err != nil {
			return fmt.Errorf("layer %q: %w", a.combos[i].Key(), err)
		}
	}
	return nil
}

// BeginFigure opens a figure in the unconditional tree and in every active
// layer. bbox is in the coordinates of m.
func (a *Aggregator) BeginFigure(name string, bbox rect.Rect, m matrix.Matrix) {
	a.openScope(true, func() { a.cur.beginFigure(name, bbox, m) })
}

// EndFigure closes the innermost figure in the trees it was opened in.
func (a *Aggregator) EndFigure() error {
	return a.closeScope(true, func() error { return a.cur.endFigure() })
}

func (a *Aggregator) BeginTextGroup() {
	if !a.opts.GroupText {
		return
	}
	a.openScope(false, func() { a.cur.beginTextGroup(a.opts.WordMargin) })
}

func (a *Aggregator) EndTextGroup() error {
	if !a.opts.GroupText {
		return nil
	}
	return a.closeScope(false, func() error { return a.cur.endTextGroup() })
}

func (a *Aggregator) PaintPath(gs *GraphicsState, stroke, fill, evenOdd bool, path []PathSegment) []Item {
	items := paintPath(gs, stroke, fill, evenOdd, path)
	a.emit(items)
	return items
}

// RenderImage places an image with the bounds of the current figure.
func (a *Aggregator) RenderImage(name string, img ImageInfo) []Item {
	items := renderImage(name, img, a.cur.current())
	a.emit(items)
	return items
}

func (a *Aggregator) RenderString(ts *TextState, seq []TextElem, gs *GraphicsState) []Item {
	items := a.text.RenderString(ts, seq, gs)
	a.emit(items)
	return items
}

func (a *Aggregator) BeginMarkedContent(tag string, scope Scope) {
	a.state.Activate(scope)
}

func (a *Aggregator) EndMarkedContent() error {
	return a.state.Deactivate()
}

// Results hands over the finished layouts of the page: the unconditional
// layout first, then one per combination in combination order. The
// aggregator drops its references, so a second call returns nil.
func (a *Aggregator) Results() []*PageLayout {
	if !a.done || a.full == nil {
		return nil
	}
	out := make([]*PageLayout, 0, 1+len(a.layers))
	out = append(out, a.full.page)
	for _, l := range a.layers {
		out = append(out, l.page)
	}
	a.full, a.cur, a.layers = nil, nil, nil
	return out
}

// PageLayers hands over the finished layouts keyed by combination key, with
// the unconditional layout under FullLayout. The empty combination shares
// its key with the unconditional layout and is left out.
func (a *Aggregator) PageLayers() map[string]*PageLayout {
	res := a.Results()
	if res == nil {
		return nil
	}
	out := make(map[string]*PageLayout, len(res))
	out[FullLayout] = res[0]
	for i, c := range a.combos {
		if c.Key() == FullLayout {
			continue
		}
		out[c.Key()] = res[i+1]
	}
	return out
}
