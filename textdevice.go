// Copyright © 2026, SAS Institute Inc., Cary, NC, USA.  All Rights Reserved.
// SPDX-License-Identifier: BSD-3-Clause

package pdflayers

import (
	"errors"
	"fmt"

	"seehuhn.de/go/geom/matrix"
	"seehuhn.de/go/geom/vec"

	"github.com/sassoftware/viya-pdf-layers/logger"
)

// DefaultWordMargin is the word margin given to text lines.
const DefaultWordMargin = 0.1

// A SubstituteFunc returns the text used for a character that has no
// Unicode mapping.
type SubstituteFunc func(font FontMetrics, cid int) string

// DefaultSubstitute renders an unmapped character as "(cid:N)".
func DefaultSubstitute(_ FontMetrics, cid int) string {
	return fmt.Sprintf("(cid:%d)", cid)
}

// A TextDevice positions the characters of show-text operators.
type TextDevice struct {
	substitute SubstituteFunc
	log        *logger.Logger
}

// NewTextDevice returns a text device. A nil substitute means
// DefaultSubstitute.
func NewTextDevice(substitute SubstituteFunc, log *logger.Logger) *TextDevice {
	if substitute == nil {
		substitute = DefaultSubstitute
	}
	return &TextDevice{substitute: substitute, log: log}
}

// RenderString lays out seq and returns the glyphs in rendering order. The
// pen position of ts is advanced past the last character.
func (d *TextDevice) RenderString(ts *TextState, seq []TextElem, gs *GraphicsState) []Item {
	font := ts.Font
	if font == nil {
		d.log.Debug("text shown without a font")
		return nil
	}
	m := ts.Matrix.Mul(gs.CTM)
	fs := ts.FontSize
	scaling := ts.Scaling * 0.01
	charSpace := ts.CharSpace * scaling
	wordSpace := ts.WordSpace * scaling
	if font.IsMultibyte() {
		wordSpace = 0
	}
	dxscale := 0.001 * fs * scaling
	vertical := font.IsVertical()

	x, y := ts.LineX, ts.LineY
	forward := func(dist float64) {
		if !vertical {
			x += dist
		} else if scaling != 0 {
			y += dist / scaling
		} else {
			y += dist
		}
	}

	var out []Item
	needCharSpace := false
	for _, e := range seq {
		if e.IsOffset {
			forward(-e.Offset * dxscale)
			needCharSpace = true
			continue
		}
		for _, cid := range font.Decode(e.Raw) {
			if needCharSpace {
				forward(charSpace)
			}
			g := d.renderChar(matrix.Translate(x, y).Mul(m), font, fs, scaling, ts.Rise, cid)
			out = append(out, g)
			forward(g.Adv)
			if cid == 32 && wordSpace != 0 {
				forward(wordSpace)
			}
			needCharSpace = true
		}
	}
	ts.LineX, ts.LineY = x, y
	return out
}

// renderChar builds the glyph of cid placed by m.
func (d *TextDevice) renderChar(m matrix.Matrix, font FontMetrics, fs, scaling, rise float64, cid int) *Glyph {
	text, err := font.ToUnicode(cid)
	if err != nil {
		if !errors.Is(err, ErrUndefinedMapping) {
			d.log.Debug("text mapping failed", "error", err)
		}
		text = d.substitute(font, cid)
	}
	adv := font.CharWidth(cid) * fs * scaling

	var ll, ur vec.Vec2
	if font.IsVertical() {
		vx, hasVx, vy := font.CharDisp(cid)
		if hasVx {
			vx = vx * fs * 0.001
		} else {
			vx = fs * 0.5
		}
		vy = (1000 - vy) * fs * 0.001
		ll = vec.Vec2{X: -vx, Y: vy + rise + adv}
		ur = vec.Vec2{X: -vx + fs, Y: vy + rise}
	} else {
		descent := font.Descent() * fs
		ll = vec.Vec2{X: 0, Y: descent + rise}
		ur = vec.Vec2{X: adv, Y: descent + rise + fs}
	}

	g := &Glyph{
		Text:     text,
		Font:     font.Name(),
		Adv:      adv,
		Vertical: font.IsVertical(),
		Matrix:   m,
		Upright:  0 < m[0]*m[3]*scaling && m[1]*m[2] <= 0,
		Quad: [4]vec.Vec2{
			apply(m, ll.X, ll.Y),
			apply(m, ur.X, ll.Y),
			apply(m, ur.X, ur.Y),
			apply(m, ll.X, ur.Y),
		},
	}
	g.BBox = envelope(g.Quad[:]...)
	if g.Vertical {
		g.Size = g.BBox.Dx()
	} else {
		g.Size = g.BBox.Dy()
	}
	return g
}
