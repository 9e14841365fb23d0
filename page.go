// Copyright © 2026, SAS Institute Inc., Cary, NC, USA.  All Rights Reserved.
// SPDX-License-Identifier: BSD-3-Clause

package pdflayers

import (
	"bytes"
	"fmt"
	"io"

	"seehuhn.de/go/geom/rect"

	"github.com/sassoftware/viya-pdf-layers/logger"
)

// A Page represent a single page in a PDF file.
// The methods interpret a Page dictionary stored in V.
type Page struct {
	V      Value
	Number int
}

// letter is the media box assumed for pages that do not declare one.
var letter = rect.Rect{URx: 612, URy: 792}

// Page returns the page for the given page number.
// Page numbers are indexed starting at 1, not 0.
// If the page is not found, Page returns a Page with p.V.IsNull().
func (r *Reader) Page(num int) Page {
	logger.Debug(fmt.Sprintf("Reading Page %d", num), true)
	want := num
	num-- // now 0-indexed
	page := r.Trailer().Key("Root").Key("Pages")
	seen := map[objptr]bool{}
Search:
	for page.Key("Type").Name() == "Pages" {
		if p := page.ref(); p != (objptr{}) {
			if seen[p] {
				logger.Debug("page tree loop", "object", p.id)
				return Page{}
			}
			seen[p] = true
		}
		count := int(page.Key("Count").Int64())
		if count < num {
			return Page{}
		}
		kids := page.Key("Kids")
		for i := 0; i < kids.Len(); i++ {
			kid := kids.Index(i)
			if kid.Key("Type").Name() == "Pages" {
				c := int(kid.Key("Count").Int64())
				if num < c {
					page = kid
					continue Search
				}
				num -= c
				continue
			}
			if kid.Key("Type").Name() == "Page" {
				if num == 0 {
					return Page{V: kid, Number: want}
				}
				num--
			}
		}
		break
	}
	return Page{}
}

// NumPage returns the number of pages in the PDF file.
func (r *Reader) NumPage() int {
	return int(r.Trailer().Key("Root").Key("Pages").Key("Count").Int64())
}

func (p Page) findInherited(key string) Value {
	for v, depth := p.V, 0; !v.IsNull() && depth < 64; v, depth = v.Key("Parent"), depth+1 {
		if r := v.Key(key); !r.IsNull() {
			logger.Debug(fmt.Sprintf("findInherited: found key %q in object %d %d R", key, v.ptr.id, v.ptr.gen))
			return r
		}
	}
	return Value{}
}

// MediaBox returns the page's media box, normalized so that LL is the
// lower-left corner. Pages without a valid box are US Letter.
func (p Page) MediaBox() rect.Rect {
	box := p.findInherited("MediaBox")
	if box.Len() != 4 {
		logger.Debug("page has no valid MediaBox, using Letter", "page", p.Number)
		return letter
	}
	f := box.Floats()
	return rect.Rect{
		LLx: min(f[0], f[2]), LLy: min(f[1], f[3]),
		URx: max(f[0], f[2]), URy: max(f[1], f[3]),
	}
}

// Rotate returns the page rotation in degrees, in [0, 360).
func (p Page) Rotate() int {
	return (int(p.findInherited("Rotate").Float64())%360 + 360) % 360
}

// Resources returns the resources dictionary associated with the page.
func (p Page) Resources() Value {
	return p.findInherited("Resources")
}

// Fonts returns a list of the fonts associated with the page.
func (p Page) Fonts() []string {
	logger.Debug(fmt.Sprintf("Fonts: retrieving /Font list for Page %d %d R", p.V.ptr.id, p.V.ptr.gen))
	return p.Resources().Key("Font").Keys()
}

// Font returns the font with the given name associated with the page.
func (p Page) Font(name string) *Font {
	return NewFont(p.Resources().Key("Font").Key(name))
}

// Contents returns the page's content streams concatenated, separated by
// newlines. A page without content yields an empty stream.
func (p Page) Contents() io.Reader {
	c := p.V.Key("Contents")
	switch c.Kind() {
	case Stream:
		return contentReader(c)
	case Array:
		var parts []io.Reader
		for i := 0; i < c.Len(); i++ {
			s := c.Index(i)
			if s.Kind() != Stream {
				continue
			}
			parts = append(parts, contentReader(s), bytes.NewReader([]byte{'\n'}))
		}
		return io.MultiReader(parts...)
	}
	return bytes.NewReader(nil)
}

// contentReader reads a whole content stream. A stream that fails to decode
// contributes the bytes read up to the failure.
func contentReader(s Value) io.Reader {
	rd := s.Reader()
	defer rd.Close()
	data, err := io.ReadAll(rd)
	if err != nil {
		logger.Debug("content stream truncated", "error", err)
	}
	return bytes.NewReader(data)
}
