// Copyright © 2026, SAS Institute Inc., Cary, NC, USA.  All Rights Reserved.
// SPDX-License-Identifier: BSD-3-Clause

package pdflayers

import (
	"context"
	"errors"
	"fmt"
	"io"

	"seehuhn.de/go/geom/matrix"
	"seehuhn.de/go/geom/rect"
	"seehuhn.de/go/geom/vec"

	"github.com/sassoftware/viya-pdf-layers/logger"
)

// maxFormDepth bounds the nesting of form XObjects.
const maxFormDepth = 32

type fontKey struct {
	ptr  objptr
	name string
}

// An Interpreter executes page content streams and reports what they draw
// to a Device.
type Interpreter struct {
	r      *Reader
	dev    Device
	log    *logger.Logger
	fonts  map[fontKey]*Font
	inline int
}

// NewInterpreter returns an interpreter for pages of r that renders to dev.
func NewInterpreter(r *Reader, dev Device, log *logger.Logger) *Interpreter {
	return &Interpreter{r: r, dev: dev, log: log, fonts: map[fontKey]*Font{}}
}

// pageCTM maps default user space of a page with media box box and the
// given rotation to layout space, whose origin is the lower-left corner of
// the rotated page.
func pageCTM(box rect.Rect, rotate int) matrix.Matrix {
	switch rotate {
	case 90:
		return matrix.Matrix{0, -1, 1, 0, -box.LLy, box.URx}
	case 180:
		return matrix.Matrix{-1, 0, 0, -1, box.URx, box.URy}
	case 270:
		return matrix.Matrix{0, 1, -1, 0, box.URy, -box.LLx}
	}
	return matrix.Matrix{1, 0, 0, 1, -box.LLx, -box.LLy}
}

// ProcessPage renders p to the device. Errors raised anywhere in the page,
// including panics from malformed content, are returned as the page's
// error.
func (in *Interpreter) ProcessPage(ctx context.Context, p Page) (err error) {
	if p.V.IsNull() {
		return errors.New("page not found")
	}
	defer func() {
		if r := recover(); r != nil {
			err = panicError(r)
			in.log.Debug("page aborted", "page", p.Number, "error", err)
		}
	}()
	box := p.MediaBox()
	rot := p.Rotate()
	ctm := pageCTM(box, rot)
	in.dev.BeginPage(PageInfo{Number: p.Number, MediaBox: box, Rotate: rot}, ctm)
	in.render(ctx, p.Resources(), p.Contents(), ctm, 0)
	return in.dev.EndPage()
}

func panicError(r interface{}) error {
	if err, ok := r.(error); ok {
		return err
	}
	return fmt.Errorf("%v", r)
}

func must(err error) {
	if err != nil {
		panic(err)
	}
}

// contentState is the part of the graphics state saved by q.
type contentState struct {
	gs GraphicsState
	ts TextState
}

// renderer executes one content stream with its own graphics state.
type renderer struct {
	in     *Interpreter
	ctx    context.Context
	res    Value
	depth  int
	st     contentState
	saved  []contentState
	path   []PathSegment
	inText bool
}

func (in *Interpreter) render(ctx context.Context, res Value, rd io.Reader, ctm matrix.Matrix, depth int) {
	r := &renderer{
		in:    in,
		ctx:   ctx,
		res:   res,
		depth: depth,
		st: contentState{
			gs: GraphicsState{CTM: ctm},
			ts: newTextState(),
		},
	}
	InterpretReader(rd, r.do)
	if r.inText {
		in.log.Debug("text object left open at end of content stream")
		must(in.dev.EndTextGroup())
	}
}

// arity lists the operand count of operators with a fixed signature.
var arity = map[string]int{
	"cm": 6, "w": 1, "gs": 1, "G": 1, "g": 1,
	"m": 2, "l": 2, "c": 6, "v": 4, "y": 4, "re": 4,
	"Tc": 1, "Tw": 1, "Tz": 1, "TL": 1, "Tf": 2, "Tr": 1, "Ts": 1,
	"Td": 2, "TD": 2, "Tm": 6, "Tj": 1, "TJ": 1, "'": 1, "\"": 3,
	"Do": 1, "BMC": 1, "BDC": 2, "EI": 2,
}

func (r *renderer) do(stk *Stack, op string) {
	if err := r.ctx.Err(); err != nil {
		panic(err)
	}
	n := stk.Len()
	args := make([]Value, n)
	for i := n - 1; i >= 0; i-- {
		args[i] = stk.Pop()
	}
	if want, ok := arity[op]; ok {
		if len(args) < want {
			r.in.log.Debug("operator has too few operands", "op", op, "have", len(args), "want", want)
			return
		}
		args = args[len(args)-want:]
	}
	dev := r.in.dev
	gs := &r.st.gs
	ts := &r.st.ts

	switch op {
	default:
		return

	case "q":
		r.saved = append(r.saved, r.st.clone())
	case "Q":
		n := len(r.saved)
		if n == 0 {
			r.in.log.Debug("Q without q")
			return
		}
		r.st = r.saved[n-1]
		r.saved = r.saved[:n-1]
	case "cm":
		gs.CTM = matrixOf(args).Mul(gs.CTM)
	case "w":
		gs.LineWidth = args[0].Float64()
	case "gs":
		r.extGState(args[0].Name())

	case "G", "g", "RG", "rg", "K", "k", "SC", "sc", "SCN", "scn":
		c := numbers(args)
		if op == "G" || op == "RG" || op == "K" || op == "SC" || op == "SCN" {
			gs.StrokeColor = c
		} else {
			gs.FillColor = c
		}

	case "m", "l", "c", "v", "y":
		pts := make([]vec.Vec2, 0, len(args)/2)
		for i := 0; i+1 < len(args); i += 2 {
			pts = append(pts, apply(gs.CTM, args[i].Float64(), args[i+1].Float64()))
		}
		r.path = append(r.path, PathSegment{Op: op[0], Pts: pts})
	case "h":
		r.path = append(r.path, PathSegment{Op: 'h'})
	case "re":
		x, y, w, h := args[0].Float64(), args[1].Float64(), args[2].Float64(), args[3].Float64()
		r.path = append(r.path,
			PathSegment{Op: 'm', Pts: []vec.Vec2{apply(gs.CTM, x, y)}},
			PathSegment{Op: 'l', Pts: []vec.Vec2{apply(gs.CTM, x+w, y)}},
			PathSegment{Op: 'l', Pts: []vec.Vec2{apply(gs.CTM, x+w, y+h)}},
			PathSegment{Op: 'l', Pts: []vec.Vec2{apply(gs.CTM, x, y+h)}},
			PathSegment{Op: 'h'},
		)
	case "S":
		r.paint(true, false, false)
	case "s":
		r.closePath()
		r.paint(true, false, false)
	case "f", "F":
		r.paint(false, true, false)
	case "f*":
		r.paint(false, true, true)
	case "B":
		r.paint(true, true, false)
	case "B*":
		r.paint(true, true, true)
	case "b":
		r.closePath()
		r.paint(true, true, false)
	case "b*":
		r.closePath()
		r.paint(true, true, true)
	case "n":
		r.path = nil

	case "BT":
		if r.inText {
			r.in.log.Debug("BT inside text object")
			must(dev.EndTextGroup())
		}
		ts.Matrix = matrix.Identity
		ts.resetLine()
		r.inText = true
		dev.BeginTextGroup()
	case "ET":
		if !r.inText {
			r.in.log.Debug("ET without BT")
			return
		}
		r.inText = false
		must(dev.EndTextGroup())

	case "Tc":
		ts.CharSpace = args[0].Float64()
	case "Tw":
		ts.WordSpace = args[0].Float64()
	case "Tz":
		ts.Scaling = args[0].Float64()
	case "TL":
		ts.Leading = -args[0].Float64()
	case "Tr":
		ts.Render = int(args[0].Int64())
	case "Ts":
		ts.Rise = args[0].Float64()
	case "Tf":
		ts.Font = r.font(args[0].Name(), r.res.Key("Font").Key(args[0].Name()))
		ts.FontSize = args[1].Float64()
	case "Td":
		ts.moveLine(args[0].Float64(), args[1].Float64())
	case "TD":
		ts.moveLine(args[0].Float64(), args[1].Float64())
		ts.Leading = args[1].Float64()
	case "Tm":
		ts.Matrix = matrixOf(args)
		ts.resetLine()
	case "T*":
		ts.nextLine()
	case "Tj":
		dev.RenderString(ts, []TextElem{{Raw: args[0].RawString()}}, gs)
	case "TJ":
		dev.RenderString(ts, textElems(args[0]), gs)
	case "'":
		ts.nextLine()
		dev.RenderString(ts, []TextElem{{Raw: args[0].RawString()}}, gs)
	case "\"":
		ts.WordSpace = args[0].Float64()
		ts.CharSpace = args[1].Float64()
		ts.nextLine()
		dev.RenderString(ts, []TextElem{{Raw: args[2].RawString()}}, gs)

	case "Do":
		r.xobject(args[0].Name())
	case "EI":
		r.inlineImage(args[0])

	case "BMC":
		dev.BeginMarkedContent(args[0].Name(), Scope{})
	case "BDC":
		tag := args[0].Name()
		dev.BeginMarkedContent(tag, ocScope(tag, args[1], r.res))
	case "EMC":
		must(dev.EndMarkedContent())
	}
}

func (s contentState) clone() contentState {
	c := s
	c.gs.StrokeColor = append([]float64(nil), s.gs.StrokeColor...)
	c.gs.FillColor = append([]float64(nil), s.gs.FillColor...)
	return c
}

// moveLine starts a new line offset by (tx, ty) from the current one.
func (ts *TextState) moveLine(tx, ty float64) {
	ts.Matrix = matrix.Translate(tx, ty).Mul(ts.Matrix)
	ts.resetLine()
}

// nextLine starts a new line one leading below the current one. Leading is
// stored negated, as set by TL and TD.
func (ts *TextState) nextLine() {
	ts.moveLine(0, ts.Leading)
}

func matrixOf(args []Value) matrix.Matrix {
	var m matrix.Matrix
	for i := range m {
		m[i] = args[i].Float64()
	}
	return m
}

func numbers(args []Value) []float64 {
	var out []float64
	for _, a := range args {
		if k := a.Kind(); k == Integer || k == Real {
			out = append(out, a.Float64())
		}
	}
	return out
}

func textElems(v Value) []TextElem {
	out := make([]TextElem, 0, v.Len())
	for i := 0; i < v.Len(); i++ {
		x := v.Index(i)
		switch x.Kind() {
		case String:
			out = append(out, TextElem{Raw: x.RawString()})
		case Integer, Real:
			out = append(out, TextElem{Offset: x.Float64(), IsOffset: true})
		}
	}
	return out
}

func (r *renderer) closePath() {
	r.path = append(r.path, PathSegment{Op: 'h'})
}

func (r *renderer) paint(stroke, fill, evenOdd bool) {
	if len(r.path) > 0 {
		r.in.dev.PaintPath(&r.st.gs, stroke, fill, evenOdd, r.path)
	}
	r.path = nil
}

// font returns the font for resource name, reusing fonts already read
// through the same object.
func (r *renderer) font(name string, v Value) *Font {
	if v.Kind() != Dict {
		r.in.log.Debug("font resource not found", "font", name)
	}
	key := fontKey{ptr: v.ref(), name: name}
	if f, ok := r.in.fonts[key]; ok {
		return f
	}
	f := NewFont(v)
	r.in.fonts[key] = f
	return f
}

func (r *renderer) extGState(name string) {
	ext := r.res.Key("ExtGState").Key(name)
	if ext.Kind() != Dict {
		r.in.log.Debug("graphics state resource not found", "name", name)
		return
	}
	if lw := ext.Key("LW"); !lw.IsNull() {
		r.st.gs.LineWidth = lw.Float64()
	}
	if f := ext.Key("Font"); f.Len() == 2 {
		r.st.ts.Font = r.font(name+"/Font", f.Index(0))
		r.st.ts.FontSize = f.Index(1).Float64()
	}
}

// xobject draws the XObject called name: a form is rendered with its own
// state inside a figure, an image becomes a figure holding the image.
func (r *renderer) xobject(name string) {
	x := r.res.Key("XObject").Key(name)
	switch x.Key("Subtype").Name() {
	case "Form":
		bb := x.Key("BBox")
		if bb.Len() != 4 {
			r.in.log.Debug("form without BBox", "name", name)
			return
		}
		if r.depth >= maxFormDepth {
			r.in.log.Debug("form nesting too deep", "name", name, "depth", r.depth)
			return
		}
		f := bb.Floats()
		bbox := rect.Rect{LLx: min(f[0], f[2]), LLy: min(f[1], f[3]), URx: max(f[0], f[2]), URy: max(f[1], f[3])}
		m := matrix.Identity
		if mv := x.Key("Matrix"); mv.Len() == 6 {
			m = matrix.Matrix(mv.Floats())
		}
		res := x.Key("Resources")
		if res.Kind() != Dict {
			res = r.res
		}
		ctm := m.Mul(r.st.gs.CTM)
		r.in.dev.BeginFigure(name, bbox, ctm)
		r.in.render(r.ctx, res, contentReader(x), ctm, r.depth+1)
		must(r.in.dev.EndFigure())
	case "Image":
		if x.Key("Width").IsNull() || x.Key("Height").IsNull() {
			return
		}
		r.image(name, imageInfo(x, "Width", "Height", "BitsPerComponent", "ColorSpace", "ImageMask"))
	}
}

func (r *renderer) inlineImage(hdr Value) {
	info := imageInfo(hdr, "W", "H", "BPC", "CS", "IM")
	if hdr.Key("W").IsNull() || hdr.Key("H").IsNull() {
		info = imageInfo(hdr, "Width", "Height", "BitsPerComponent", "ColorSpace", "ImageMask")
		if hdr.Key("Width").IsNull() || hdr.Key("Height").IsNull() {
			return
		}
	}
	r.in.inline++
	r.image(fmt.Sprintf("inline%d", r.in.inline), info)
}

func (r *renderer) image(name string, info ImageInfo) {
	r.in.dev.BeginFigure(name, rect.Rect{URx: 1, URy: 1}, r.st.gs.CTM)
	r.in.dev.RenderImage(name, info)
	must(r.in.dev.EndFigure())
}

func imageInfo(v Value, w, h, bpc, cs, mask string) ImageInfo {
	info := ImageInfo{
		Width:            int(v.Key(w).Int64()),
		Height:           int(v.Key(h).Int64()),
		BitsPerComponent: int(v.Key(bpc).Int64()),
		ImageMask:        v.Key(mask).Bool(),
	}
	switch c := v.Key(cs); c.Kind() {
	case Name:
		info.ColorSpace = c.Name()
	case Array:
		info.ColorSpace = c.Index(0).Name()
	}
	return info
}
