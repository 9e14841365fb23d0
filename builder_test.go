// Copyright © 2026, SAS Institute Inc., Cary, NC, USA.  All Rights Reserved.
// SPDX-License-Identifier: BSD-3-Clause

package pdflayers

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// pdfBuilder writes small PDF files with a classic cross-reference table.
// Objects are numbered from 1 in the order they are added.
type pdfBuilder struct {
	version string
	objs    []string
	trailer string
}

func newPDF() *pdfBuilder {
	return &pdfBuilder{version: "1.7"}
}

func (b *pdfBuilder) add(obj string) int {
	b.objs = append(b.objs, obj)
	return len(b.objs)
}

func (b *pdfBuilder) set(id int, obj string) {
	b.objs[id-1] = obj
}

func streamObj(hdr, data string) string {
	return fmt.Sprintf("<< %s /Length %d >>\nstream\n%s\nendstream", hdr, len(data), data)
}

// bytes returns the file with object 1 as the catalog.
func (b *pdfBuilder) bytes() []byte {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "%%PDF-%s\n%%\xe2\xe3\xcf\xd3\n", b.version)
	offsets := make([]int, len(b.objs))
	for i, obj := range b.objs {
		offsets[i] = buf.Len()
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", i+1, obj)
	}
	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n0000000000 65535 f \n", len(b.objs)+1)
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R %s>>\nstartxref\n%d\n%%%%EOF\n", len(b.objs)+1, b.trailer, xref)
	return buf.Bytes()
}

// xrefStreamBytes returns the file with a cross-reference stream instead of
// a table. The stream is the last object and carries the trailer entries.
func (b *pdfBuilder) xrefStreamBytes() []byte {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "%%PDF-%s\n%%\xe2\xe3\xcf\xd3\n", b.version)
	offsets := make([]int, len(b.objs))
	for i, obj := range b.objs {
		offsets[i] = buf.Len()
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", i+1, obj)
	}
	self := len(b.objs) + 1
	xref := buf.Len()
	offsets = append(offsets, xref)

	var data bytes.Buffer
	data.Write([]byte{0, 0, 0, 0, 0, 0xff})
	for _, off := range offsets {
		data.Write([]byte{1, byte(off >> 24), byte(off >> 16), byte(off >> 8), byte(off), 0})
	}
	fmt.Fprintf(&buf, "%d 0 obj\n<< /Type /XRef /Size %d /W [1 4 1] /Root 1 0 R %s/Length %d >>\nstream\n",
		self, self+1, b.trailer, data.Len())
	buf.Write(data.Bytes())
	fmt.Fprintf(&buf, "\nendstream\nendobj\nstartxref\n%d\n%%%%EOF\n", xref)
	return buf.Bytes()
}

func (b *pdfBuilder) reader(t *testing.T) *Reader {
	t.Helper()
	data := b.bytes()
	r, err := NewReader(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)
	return r
}

func (b *pdfBuilder) file(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "doc.pdf")
	require.NoError(t, os.WriteFile(path, b.bytes(), 0o644))
	return path
}

// docOpts describes a one-font document built by simpleDoc.
type docOpts struct {
	ocProps   string   // value of /OCProperties, empty for none
	extraObjs []string // objects 6 and up
	resources string   // extra entries of the page resources
	pages     []string // content of each page
	pageExtra string   // extra entries of every page dictionary
}

// simpleDoc lays out objects as: 1 catalog, 2 page tree, 3 Helvetica,
// 4 and 5 the layers "Roads" and "Rivers", then extraObjs, then pages with
// their content streams.
func simpleDoc(s docOpts) *pdfBuilder {
	b := newPDF()
	catalog := "<< /Type /Catalog /Pages 2 0 R"
	if s.ocProps != "" {
		catalog += " /OCProperties " + s.ocProps
	}
	b.add(catalog + " >>")
	b.add("")
	b.add("<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica >>")
	b.add("<< /Type /OCG /Name (Roads) >>")
	b.add("<< /Type /OCG /Name (Rivers) >>")
	for _, o := range s.extraObjs {
		b.add(o)
	}
	var kids string
	for _, content := range s.pages {
		page := len(b.objs) + 1
		b.add(fmt.Sprintf("<< /Type /Page /Parent 2 0 R /Contents %d 0 R /Resources << /Font << /F1 3 0 R >> /Properties << /MC0 4 0 R /MC1 5 0 R >> %s >> %s >>",
			page+1, s.resources, s.pageExtra))
		b.add(streamObj("", content))
		kids += fmt.Sprintf("%d 0 R ", page)
	}
	b.set(2, fmt.Sprintf("<< /Type /Pages /Kids [%s] /Count %d /MediaBox [0 0 200 100] >>", kids, len(s.pages)))
	return b
}

const (
	flatLayers   = "<< /OCGs [4 0 R 5 0 R] /D << /Order [4 0 R 5 0 R] >> >>"
	layeredPage  = "0 0 m 100 0 l S\n/OC /MC0 BDC\n10 10 50 20 re f\nEMC\n/OC /MC1 BDC\nBT /F1 10 Tf 20 50 Td (AB) Tj ET\nEMC\n"
	roadsPruned  = "0 0 m 100 0 l S\n10 10 50 20 re f\n"
	riversPruned = "0 0 m 100 0 l S\nBT /F1 10 Tf 20 50 Td (AB) Tj ET\n"
)
