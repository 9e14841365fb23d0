// Copyright © 2026, SAS Institute Inc., Cary, NC, USA.  All Rights Reserved.
// SPDX-License-Identifier: BSD-3-Clause

package pdflayers

import (
	"fmt"
	"strings"

	"github.com/sassoftware/viya-pdf-layers/logger"
)

// vdisp is the vertical displacement of a glyph in glyph space units
// (1/1000 of text space). hasVx is false when the font does not define the
// horizontal component of the vertical origin.
type vdisp struct {
	vx    float64
	hasVx bool
	vy    float64
}

// A Font represents a font in a PDF file and implements FontMetrics.
// The methods interpret a Font dictionary stored in V; all metrics are read
// once by NewFont.
type Font struct {
	V Value

	name      string
	subtype   string
	vertical  bool
	multibyte bool
	descent   float64
	hscale    float64

	widths       map[int]float64 // glyph space units
	defaultWidth float64
	disps        map[int]vdisp
	defaultDisp  vdisp

	codes     *cmap // encoding CMap of a Type 0 font; nil means Identity
	toUnicode *cmap
	encoding  *[256]rune
	diffs     map[int]rune
}

var _ FontMetrics = (*Font)(nil)

// NewFont reads the metrics of the font dictionary v.
func NewFont(v Value) *Font {
	f := &Font{
		V:       v,
		name:    v.Key("BaseFont").Name(),
		subtype: v.Key("Subtype").Name(),
		hscale:  0.001,
		widths:  map[int]float64{},
	}
	if tu := v.Key("ToUnicode"); tu.Kind() == Stream {
		f.toUnicode = readCmap(tu)
	}
	if f.subtype == "Type0" {
		f.initType0()
	} else {
		f.initSimple()
	}
	logger.Debug(fmt.Sprintf("font: %s (%s) vertical=%v multibyte=%v", f.name, f.subtype, f.vertical, f.multibyte))
	return f
}

func (f *Font) initSimple() {
	v := f.V
	if f.subtype == "Type3" {
		if m := v.Key("FontMatrix"); m.Len() == 6 {
			f.hscale = m.Index(0).Float64()
		}
		if f.name == "" {
			f.name = "Type3"
		}
	}
	desc := v.Key("FontDescriptor")
	f.descent = desc.Key("Descent").Float64() * 0.001

	first := int(v.Key("FirstChar").Int64())
	widths := v.Key("Widths")
	for i := 0; i < widths.Len(); i++ {
		f.widths[first+i] = widths.Index(i).Float64()
	}
	switch {
	case !desc.Key("MissingWidth").IsNull():
		f.defaultWidth = desc.Key("MissingWidth").Float64()
	case widths.Len() == 0:
		// Standard 14 fonts may omit /Widths; use a nominal advance.
		f.defaultWidth = 500
		if strings.Contains(f.name, "Courier") {
			f.defaultWidth = 600
		}
	}

	f.encoding = &standardEncoding
	enc := v.Key("Encoding")
	switch enc.Kind() {
	case Name:
		f.encoding = namedEncoding(enc.Name())
	case Dict:
		if base := enc.Key("BaseEncoding"); base.Kind() == Name {
			f.encoding = namedEncoding(base.Name())
		}
		f.diffs = differences(enc.Key("Differences"))
	}
}

func namedEncoding(n string) *[256]rune {
	switch n {
	case "WinAnsiEncoding":
		return &winAnsiEncoding
	case "MacRomanEncoding":
		return &macRomanEncoding
	case "PDFDocEncoding":
		return &pdfDocEncoding
	}
	return &standardEncoding
}

// differences reads an encoding /Differences array into a code-to-rune map.
func differences(d Value) map[int]rune {
	out := map[int]rune{}
	n := 0
	for i := 0; i < d.Len(); i++ {
		x := d.Index(i)
		switch x.Kind() {
		case Integer:
			n = int(x.Int64())
		case Name:
			if r, ok := glyphRune(x.Name()); ok {
				out[n] = r
			} else {
				out[n] = noRune
			}
			n++
		}
	}
	return out
}

func (f *Font) initType0() {
	f.multibyte = true
	enc := f.V.Key("Encoding")
	switch enc.Kind() {
	case Name:
		// Only the Identity CMaps are known by name; other predefined CMaps
		// are read as two-byte identity codes.
		f.vertical = strings.HasSuffix(enc.Name(), "-V")
		if !strings.HasPrefix(enc.Name(), "Identity-") {
			logger.Debug("font: predefined CMap read as identity", "cmap", enc.Name())
		}
	case Stream:
		f.codes = readCmap(enc)
		if f.codes != nil {
			f.vertical = f.codes.wmode == 1
		}
	}

	desc := f.V.Key("DescendantFonts").Index(0)
	f.descent = desc.Key("FontDescriptor").Key("Descent").Float64() * 0.001

	if f.vertical {
		f.defaultWidth = -1000
		f.defaultDisp = vdisp{vy: 880}
		if dw2 := desc.Key("DW2"); dw2.Len() == 2 {
			f.defaultDisp = vdisp{vy: dw2.Index(0).Float64()}
			f.defaultWidth = dw2.Index(1).Float64()
		}
		f.disps = map[int]vdisp{}
		readWidths2(desc.Key("W2"), func(cid int, w, vx, vy float64) {
			f.widths[cid] = w
			f.disps[cid] = vdisp{vx: vx, hasVx: true, vy: vy}
		})
		return
	}

	f.defaultWidth = 1000
	if dw := desc.Key("DW"); !dw.IsNull() {
		f.defaultWidth = dw.Float64()
	}
	readWidths(desc.Key("W"), func(cid int, w float64) {
		f.widths[cid] = w
	})
}

// readWidths walks a CIDFont /W array: "c [w1 w2 ...]" and "cfirst clast w".
func readWidths(w Value, set func(cid int, w float64)) {
	for i := 0; i < w.Len(); {
		c := int(w.Index(i).Int64())
		next := w.Index(i + 1)
		if next.Kind() == Array {
			for j := 0; j < next.Len(); j++ {
				set(c+j, next.Index(j).Float64())
			}
			i += 2
			continue
		}
		if i+2 >= w.Len() {
			break
		}
		last := int(next.Int64())
		width := w.Index(i + 2).Float64()
		for cid := c; cid <= last; cid++ {
			set(cid, width)
		}
		i += 3
	}
}

// readWidths2 walks a CIDFont /W2 array: "c [w1y vx vy ...]" and
// "cfirst clast w1y vx vy".
func readWidths2(w Value, set func(cid int, w, vx, vy float64)) {
	for i := 0; i < w.Len(); {
		c := int(w.Index(i).Int64())
		next := w.Index(i + 1)
		if next.Kind() == Array {
			for j := 0; j+2 < next.Len(); j += 3 {
				set(c+j/3, next.Index(j).Float64(), next.Index(j+1).Float64(), next.Index(j+2).Float64())
			}
			i += 2
			continue
		}
		if i+4 >= w.Len() {
			break
		}
		last := int(next.Int64())
		w1, vx, vy := w.Index(i+2).Float64(), w.Index(i+3).Float64(), w.Index(i+4).Float64()
		for cid := c; cid <= last; cid++ {
			set(cid, w1, vx, vy)
		}
		i += 5
	}
}

// BaseFont returns the font's name (BaseFont property).
func (f *Font) BaseFont() string {
	return f.V.Key("BaseFont").Name()
}

func (f *Font) Name() string      { return f.name }
func (f *Font) IsVertical() bool  { return f.vertical }
func (f *Font) IsMultibyte() bool { return f.multibyte }

// Descent returns the font descent in text space units per unit font size.
func (f *Font) Descent() float64 { return f.descent }

// CharWidth returns the advance of cid in text space units per unit font
// size. For vertical fonts the advance is the (usually negative) w1y.
func (f *Font) CharWidth(cid int) float64 {
	if w, ok := f.widths[cid]; ok {
		return w * f.hscale
	}
	return f.defaultWidth * f.hscale
}

// CharDisp returns the vertical displacement of cid in glyph space units.
func (f *Font) CharDisp(cid int) (vx float64, hasVx bool, vy float64) {
	d, ok := f.disps[cid]
	if !ok {
		d = f.defaultDisp
	}
	return d.vx, d.hasVx, d.vy
}

// Decode splits a shown string into character identifiers.
func (f *Font) Decode(raw string) []int {
	if !f.multibyte {
		cids := make([]int, len(raw))
		for i := 0; i < len(raw); i++ {
			cids[i] = int(raw[i])
		}
		return cids
	}
	if f.codes != nil {
		codes := f.codes.codes(raw)
		cids := make([]int, len(codes))
		for i, code := range codes {
			if cid, ok := f.codes.cid(code); ok {
				cids[i] = cid
			} else {
				cids[i] = codeInt(code)
			}
		}
		return cids
	}
	cids := make([]int, 0, (len(raw)+1)/2)
	for i := 0; i < len(raw); i += 2 {
		if i+1 == len(raw) {
			cids = append(cids, int(raw[i]))
			break
		}
		cids = append(cids, int(raw[i])<<8|int(raw[i+1]))
	}
	return cids
}

// ToUnicode returns the text of cid. It fails with ErrUndefinedMapping when
// neither the ToUnicode CMap nor the font encoding define one.
func (f *Font) ToUnicode(cid int) (string, error) {
	if f.toUnicode != nil {
		code := string([]byte{byte(cid)})
		if f.multibyte {
			code = string([]byte{byte(cid >> 8), byte(cid)})
		}
		if r, ok := f.toUnicode.resolveCodeMapping(code, len(code)); ok && len(r) > 0 {
			return string(r), nil
		}
	}
	if !f.multibyte && cid >= 0 && cid < 256 {
		r, ok := f.diffs[cid]
		if !ok {
			r = f.encoding[cid]
		}
		if r != noRune && r != 0 {
			return string(r), nil
		}
	}
	return "", fmt.Errorf("%w: font %q cid %d", ErrUndefinedMapping, f.name, cid)
}
