// Copyright © 2026, SAS Institute Inc., Cary, NC, USA.  All Rights Reserved.
// SPDX-License-Identifier: BSD-3-Clause

package pdflayers

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"regexp"

	"github.com/sassoftware/viya-pdf-layers/logger"
)

var (
	objHeaderRE = regexp.MustCompile(`^\d+\s+\d+\s+obj\b`)
)

func readXref(r *Reader, b *buffer) ([]xref, objptr, dict, error) {
	tok := b.readToken()
	if tok == keyword("xref") {
		logger.Debug("Found Xref Table", true)
		return readXrefTable(r, b)
	}
	if _, ok := tok.(int64); ok {
		b.unreadToken(tok)
		logger.Debug("Found Xref Stream", true)
		return readXrefStream(r, b)
	}
	return nil, objptr{}, nil, fmt.Errorf("malformed PDF: cross-reference table nor stream found: %v", objfmt(tok))
}

func readXrefStream(r *Reader, b *buffer) ([]xref, objptr, dict, error) {
	strmptr, strm, err := parseXrefStreamObject(b)
	if err != nil {
		return nil, objptr{}, nil, err
	}
	size, err := xrefSize(strm)
	if err != nil {
		return nil, objptr{}, nil, err
	}
	table := make([]xref, size)
	table, err = readXrefStreamData(r, strm, table, size)
	if err != nil {
		return nil, objptr{}, nil, fmt.Errorf("malformed PDF: %w", err)
	}
	table, err = mergePrevXrefStreams(r, strm, table, size)
	if err != nil {
		return nil, objptr{}, nil, err
	}
	return table, strmptr, strm.hdr, nil
}

// parseXrefStreamObject reads one object from b and returns its objptr and
// stream, ensuring it is an /XRef stream.
func parseXrefStreamObject(b *buffer) (ptr objptr, strm stream, err error) {
	defer func() {
		if e := recover(); e != nil {
			err = fmt.Errorf("malformed PDF: reading xref stream: %v", e)
		}
	}()
	obj1 := b.readObject()
	od, ok := obj1.(objdef)
	if !ok {
		return objptr{}, stream{}, fmt.Errorf("malformed PDF: objdef not found: %v", objfmt(obj1))
	}
	strm, ok = od.obj.(stream)
	if !ok {
		return objptr{}, stream{}, fmt.Errorf("malformed PDF: cross-reference stream not found: %v", objfmt(od))
	}
	if strm.hdr["Type"] != name("XRef") {
		return objptr{}, stream{}, errors.New("malformed PDF: xref stream does not have type XRef")
	}
	return od.ptr, strm, nil
}

// xrefSize returns the /Size from an xref stream header.
func xrefSize(strm stream) (int64, error) {
	if size, ok := strm.hdr["Size"].(int64); ok && size >= 0 {
		return size, nil
	}
	return 0, errors.New("malformed PDF: xref stream missing Size")
}

// mergePrevXrefStreams follows the /Prev chain of cur, merging each older
// stream into table without overriding newer entries.
func mergePrevXrefStreams(r *Reader, cur stream, table []xref, maxSize int64) ([]xref, error) {
	seen := map[int64]bool{}
	for prevoff := cur.hdr["Prev"]; prevoff != nil; {
		off, ok := prevoff.(int64)
		if !ok {
			return nil, fmt.Errorf("malformed PDF: xref Prev is not integer: %v", objfmt(prevoff))
		}
		if seen[off] {
			return nil, fmt.Errorf("malformed PDF: xref Prev loop at offset %d", off)
		}
		seen[off] = true
		logger.Debug(fmt.Sprintf("found Prev stream with offset %d", off), true)

		b := newBuffer(io.NewSectionReader(r.f, off, r.end-off), off)
		_, prevStrm, err := parseXrefStreamObject(b)
		if err != nil {
			return nil, err
		}
		prevoff = prevStrm.hdr["Prev"]
		psize, _ := prevStrm.hdr["Size"].(int64)
		if psize > maxSize {
			return nil, errors.New("malformed PDF: xref prev stream larger than last stream")
		}
		table, err = readXrefStreamData(r, prevStrm, table, psize)
		if err != nil {
			return nil, fmt.Errorf("malformed PDF: reading xref prev stream: %w", err)
		}
	}
	return table, nil
}

func readXrefStreamData(r *Reader, strm stream, table []xref, size int64) (out []xref, err error) {
	defer func() {
		if e := recover(); e != nil {
			err = fmt.Errorf("decoding xref stream: %v", e)
		}
	}()

	index, _ := strm.hdr["Index"].(array)
	if index == nil {
		index = array{int64(0), size}
	}
	if len(index)%2 != 0 {
		return nil, fmt.Errorf("invalid Index array %v", objfmt(index))
	}

	ww, ok := strm.hdr["W"].(array)
	if !ok {
		return nil, errors.New("xref stream missing W array")
	}
	var w []int
	for _, x := range ww {
		i, ok := x.(int64)
		if !ok || int64(int(i)) != i || i < 0 {
			return nil, fmt.Errorf("invalid W array %v", objfmt(ww))
		}
		w = append(w, int(i))
	}
	if len(w) < 3 {
		return nil, fmt.Errorf("invalid W array %v", objfmt(ww))
	}

	v := Value{r, objptr{}, strm}
	buf := make([]byte, w[0]+w[1]+w[2])
	data := v.Reader()
	defer data.Close()
	for len(index) > 0 {
		start, ok1 := index[0].(int64)
		n, ok2 := index[1].(int64)
		if !ok1 || !ok2 {
			return nil, fmt.Errorf("malformed Index pair %v %v", objfmt(index[0]), objfmt(index[1]))
		}
		index = index[2:]
		for i := 0; i < int(n); i++ {
			if _, err := io.ReadFull(data, buf); err != nil {
				return nil, fmt.Errorf("error reading xref stream: %w", err)
			}
			v1 := decodeInt(buf[0:w[0]])
			if w[0] == 0 {
				v1 = 1
			}
			v2 := decodeInt(buf[w[0] : w[0]+w[1]])
			v3 := decodeInt(buf[w[0]+w[1] : w[0]+w[1]+w[2]])
			x := int(start) + i
			table = ensureLen(table, x+1)
			if table[x].ptr != (objptr{}) {
				continue
			}
			switch v1 {
			case 0:
				table[x] = xref{ptr: objptr{0, 65535}}
			case 1:
				table[x] = xref{ptr: objptr{uint32(x), uint16(v3)}, offset: int64(v2)}
			case 2:
				table[x] = xref{ptr: objptr{uint32(x), 0}, inStream: true, stream: objptr{uint32(v2), 0}, offset: int64(v3)}
			default:
				logDebugf("invalid xref stream type %d: %x", v1, buf)
			}
		}
	}
	return table, nil
}

func decodeInt(b []byte) int {
	x := 0
	for _, c := range b {
		x = x<<8 | int(c)
	}
	return x
}

func readXrefTable(r *Reader, b *buffer) ([]xref, objptr, dict, error) {
	table, trailer, err := parseXrefTableAndTrailer(b, nil)
	if err != nil {
		return nil, objptr{}, nil, err
	}

	// Hybrid files carry an /XRefStm next to the classic table.
	table, trailer, err = r.handleTrailerXRefStm(table, trailer)
	if err != nil {
		logger.Error("readXrefTable: XRefStm handling error, falling back to Prev chain", "err", err)
	}

	table, trailer, err = resolvePrevXrefTables(r, trailer, table)
	if err != nil {
		return nil, objptr{}, nil, err
	}

	if err := validateTrailerSize(&table, trailer); err != nil {
		return nil, objptr{}, nil, err
	}
	return table, objptr{}, trailer, nil
}

// parseXrefTableAndTrailer parses a single xref table section
// and the trailer dictionary that follows it.
func parseXrefTableAndTrailer(b *buffer, table []xref) (_ []xref, _ dict, err error) {
	defer func() {
		if e := recover(); e != nil {
			err = fmt.Errorf("malformed PDF: %v", e)
		}
	}()
	table, err = readXrefTableData(b, table)
	if err != nil {
		return nil, nil, fmt.Errorf("malformed PDF: %w", err)
	}
	trailer, ok := b.readObject().(dict)
	if !ok {
		return nil, nil, errors.New("malformed PDF: xref table not followed by trailer dictionary")
	}
	return table, trailer, nil
}

func resolvePrevXrefTables(r *Reader, trailer dict, table []xref) ([]xref, dict, error) {
	seen := map[int64]bool{}
	for prevoff := trailer[name("Prev")]; prevoff != nil; {
		off, ok := prevoff.(int64)
		if !ok {
			return nil, nil, fmt.Errorf("malformed PDF: xref Prev is not integer: %v", objfmt(prevoff))
		}
		if seen[off] || off < 0 || off >= r.end {
			return nil, nil, fmt.Errorf("malformed PDF: invalid xref Prev offset %d", off)
		}
		seen[off] = true
		logger.Debug("found Prev xref table", true)

		b := newBuffer(io.NewSectionReader(r.f, off, r.end-off), off)
		if tok := b.readToken(); tok != keyword("xref") {
			return nil, nil, errors.New("malformed PDF: xref Prev does not point to xref")
		}
		var (
			prev dict
			err  error
		)
		table, prev, err = parseXrefTableAndTrailer(b, table)
		if err != nil {
			return nil, nil, err
		}
		table, prev, err = r.handleTrailerXRefStm(table, prev)
		if err != nil {
			logger.Debug("XRefStm handling error in Prev chain; continuing", "err", err)
		}
		prevoff = prev[name("Prev")]
	}
	return table, trailer, nil
}

// validateTrailerSize trims the xref table to the declared /Size in trailer.
func validateTrailerSize(table *[]xref, trailer dict) error {
	size, ok := trailer[name("Size")].(int64)
	if !ok {
		return errors.New("malformed PDF: trailer missing /Size entry")
	}
	if size < int64(len(*table)) {
		*table = (*table)[:size]
	}
	return nil
}

// ensureLen makes sure s has length at least n (growing capacity if needed)
// and returns the possibly-reallocated slice.
func ensureLen[T any](s []T, n int) []T {
	if n <= len(s) {
		return s
	}
	if cap(s) < n {
		ns := make([]T, n)
		copy(ns, s)
		return ns
	}
	return s[:n]
}

// setIfEmpty sets table[x] to val only if the slot is currently empty.
func setIfEmpty(table *[]xref, x int, val xref) {
	if x < 0 {
		return
	}
	*table = ensureLen(*table, x+1)
	if (*table)[x].ptr == (objptr{}) {
		(*table)[x] = val
	}
}

func readXrefTableData(b *buffer, table []xref) ([]xref, error) {
	for {
		tok := b.readToken()
		if tok == keyword("trailer") {
			break
		}
		start, ok1 := tok.(int64)
		count, ok2 := b.readToken().(int64)
		if !ok1 || !ok2 || start < 0 || count < 0 {
			return nil, errors.New("malformed xref table subsection header")
		}
		for i := 0; i < int(count); i++ {
			off, okOff := b.readToken().(int64)
			gen, okGen := b.readToken().(int64)
			alloc, okAlloc := b.readToken().(keyword)
			if !okOff || !okGen || !okAlloc {
				return nil, fmt.Errorf("malformed xref entry at subsection starting %d", start)
			}
			idx := int(start) + i
			switch alloc {
			case keyword("n"):
				setIfEmpty(&table, idx, xref{ptr: objptr{uint32(idx), uint16(gen)}, offset: off})
			case keyword("f"):
				table = ensureLen(table, idx+1)
			default:
				return nil, fmt.Errorf("malformed xref table: unexpected alloc token %v", alloc)
			}
		}
	}
	return table, nil
}

// mergeXrefTables merges src into dest using conservative rules:
// empty dest slots take src, and when both are in use src wins.
func mergeXrefTables(dest []xref, src []xref) []xref {
	dest = ensureLen(dest, len(src))
	for i, s := range src {
		if s.ptr == (objptr{}) {
			continue
		}
		d := dest[i]
		if d.ptr == (objptr{}) || (d.ptr.gen != 65535 && s.ptr.gen != 65535) {
			dest[i] = s
		}
	}
	return dest
}

// isLikelyObjectAt performs a lightweight check whether an object header or dict begins at off.
func (r *Reader) isLikelyObjectAt(off int64) bool {
	if off < 0 || off >= r.end {
		return false
	}
	buf := make([]byte, 64)
	n, err := r.f.ReadAt(buf, off)
	if err != nil && err != io.EOF {
		return false
	}
	s := bytes.TrimLeft(buf[:n], " \t\r\n")
	return objHeaderRE.Match(s) || bytes.HasPrefix(s, []byte("<<")) || bytes.HasPrefix(s, []byte("%PDF-"))
}

// scanForObjectAt searches a +-window around approx for "<id> <gen> obj" and returns found offset or -1.
func (r *Reader) scanForObjectAt(id uint32, gen uint16, approx int64, window int64) int64 {
	start := approx - window
	if start < 0 {
		start = 0
	}
	end := approx + window
	if end > r.end {
		end = r.end
	}
	if end <= start {
		return -1
	}
	buf := make([]byte, end-start)
	n, err := r.f.ReadAt(buf, start)
	if err != nil && err != io.EOF {
		return -1
	}
	re := regexp.MustCompile(fmt.Sprintf(`\b%d\s+%d\s+obj\b`, id, gen))
	loc := re.FindIndex(buf[:n])
	if loc == nil {
		return -1
	}
	return start + int64(loc[0])
}

// validateAndRepairXrefEntries checks offsets in table and tries to repair with a small-window scan.
// Returns counts: repaired entries and invalid (unrepairable) entries.
func (r *Reader) validateAndRepairXrefEntries(table []xref) (repaired int, invalid int) {
	for i, ent := range table {
		if ent.ptr == (objptr{}) || ent.inStream || ent.offset == 0 {
			continue
		}
		if r.isLikelyObjectAt(ent.offset) {
			continue
		}
		if found := r.scanForObjectAt(ent.ptr.id, ent.ptr.gen, ent.offset, 1024); found >= 0 {
			table[i].offset = found
			repaired++
			continue
		}
		invalid++
	}
	return
}

// handleTrailerXRefStm parses the stream named by the trailer's /XRefStm, if
// any, and merges its entries into table. A stream whose entries look mostly
// invalid is rejected so the caller can fall back to the classic tables.
func (r *Reader) handleTrailerXRefStm(table []xref, trailer dict) ([]xref, dict, error) {
	xrefstm := trailer[name("XRefStm")]
	if xrefstm == nil {
		return table, trailer, nil
	}
	off, ok := xrefstm.(int64)
	if !ok || off < 0 || off >= r.end {
		return table, trailer, fmt.Errorf("malformed PDF: invalid XRefStm %v", objfmt(xrefstm))
	}
	b := newBuffer(io.NewSectionReader(r.f, off, r.end-off), off)
	srcTable, _, _, err := readXrefStream(r, b)
	if err != nil {
		return table, trailer, fmt.Errorf("parsing XRefStm at %d: %w", off, err)
	}
	_, invalid := r.validateAndRepairXrefEntries(srcTable)
	total := 0
	for _, e := range srcTable {
		if e.ptr != (objptr{}) {
			total++
		}
	}
	if total > 0 && float64(invalid)/float64(total) > 0.30 {
		return table, trailer, fmt.Errorf("xref stream at %d appears invalid: %d/%d invalid entries", off, invalid, total)
	}
	return mergeXrefTables(table, srcTable), trailer, nil
}
