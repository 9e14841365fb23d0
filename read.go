// Copyright © 2026, SAS Institute Inc., Cary, NC, USA.  All Rights Reserved.
// SPDX-License-Identifier: BSD-3-Clause

// Package pdflayers extracts page layouts from PDF files, either as one
// layout per page or, for documents with optional content, as one layout per
// layer combination in addition to the full layout.
//
// # Overview
//
// A PDF document is a graph of Values, each of which has one of the
// following Kinds:
//
//	Null, for the null object.
//	Integer, for an integer.
//	Real, for a floating-point number.
//	Bool, for a boolean value.
//	Name, for a name constant (as in /Helvetica).
//	String, for a string constant.
//	Dict, for a dictionary of name-value pairs.
//	Array, for an array of values.
//	Stream, for an opaque data stream and associated header dictionary.
//
// The accessors on Value return a zero result when there is no appropriate
// view of the data, which makes it possible to traverse a PDF quickly without
// writing error checks at every step.
//
// On top of the Value graph the package interprets page content streams and
// drives a Device. The Aggregator device multiplexes the content of optional
// content groups (OCGs, "layers") into one layout per combination of layers
// while building the full layout in the same pass. ParseLayered and
// ParseGeneric are the document-level entry points.
package pdflayers

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/sassoftware/viya-pdf-layers/logger"
)

// DebugOn is responsible for logging messages into stdout. If problems arise during reading, set it true.
var DebugOn = false

// A Reader is a single PDF file open for reading.
type Reader struct {
	f          io.ReaderAt
	end        int64
	xref       []xref
	trailer    dict
	trailerptr objptr
	key        []byte
	useAES     bool
	encrypted  bool
}

type xref struct {
	ptr      objptr
	inStream bool
	stream   objptr
	offset   int64
}

// Open opens the named file. The caller is responsible for closing the
// returned file once the Reader is no longer used.
func Open(file string) (*os.File, *Reader, error) {
	logger.Debug("Open file", true)
	f, err := os.Open(file)
	if err != nil {
		return nil, nil, err
	}
	fi, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, nil, err
	}
	logger.Debug(fmt.Sprintf("document: file:%s -- opened (size=%d)", file, fi.Size()), true)
	reader, err := NewReader(f, fi.Size())
	if err != nil {
		f.Close()
		return nil, nil, err
	}
	return f, reader, nil
}

// NewReader opens a file for reading, using the data in f with the given total size.
func NewReader(f io.ReaderAt, size int64) (*Reader, error) {
	logger.Debug("Checking Header", true)
	if err := CheckHeader(f); err != nil {
		return nil, err
	}

	logger.Debug("Checking End of file Marker", true)
	if err := ValidateEOFMarker(f, size); err != nil {
		return nil, err
	}

	logger.Debug("Checking Startxref", true)
	startxref, err := FindStartXref(f, size)
	if err != nil {
		return nil, err
	}

	logger.Debug("Checking xref table + trailer", true)
	r := &Reader{f: f, end: size}
	b := newBuffer(io.NewSectionReader(r.f, startxref, r.end-startxref), startxref)
	xref, trailerptr, trailer, err := readXref(r, b)
	if err != nil {
		return nil, err
	}
	r.xref = xref
	r.trailer = trailer
	r.trailerptr = trailerptr

	if trailer["Encrypt"] != nil {
		r.encrypted = true
		if err := r.initEncrypt(""); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// CheckHeader validates the PDF header at the beginning of the file.
// It ensures the file starts with "%PDF-x.y" and the version is within 1.0–1.7 or 2.0.
func CheckHeader(f io.ReaderAt) error {
	buf := make([]byte, 1024)
	n, err := f.ReadAt(buf, 0)
	if err != nil && err != io.EOF {
		logger.Error("Failed to read initial bytes for header check: %v", err)
		return err
	}
	if n == 0 {
		return errors.New("not a PDF file: empty")
	}
	buf = buf[:n]
	// %PDF- may follow a BOM or some garbage bytes
	p := bytes.Index(buf, []byte("%PDF-"))
	if p < 0 {
		return errors.New("not a PDF file: invalid header (missing %PDF-)")
	}
	line := buf[p:]
	if lineEnd := bytes.IndexAny(line, "\r\n"); lineEnd >= 0 {
		line = line[:lineEnd]
	}
	line = bytes.TrimRight(line, " \t\x00")

	var major, minor int
	if _, err := fmt.Sscanf(string(line), "%%PDF-%d.%d", &major, &minor); err != nil {
		return fmt.Errorf("not a PDF file: malformed version %q", line)
	}
	if !((major == 1 && minor >= 0 && minor <= 7) || (major == 2 && minor == 0)) {
		return fmt.Errorf("unsupported PDF version %d.%d", major, minor)
	}
	logger.Debug(fmt.Sprintf("header: PDF-%d.%d", major, minor), true)
	return nil
}

// ValidateEOFMarker checks the last chunk of the file for the "%%EOF" marker.
func ValidateEOFMarker(f io.ReaderAt, size int64) error {
	const endChunk = 1024
	off := size - endChunk
	if off < 0 {
		off = 0
	}
	buf := make([]byte, size-off)
	n, err := f.ReadAt(buf, off)
	if err != nil && err != io.EOF {
		return err
	}
	buf = bytes.TrimRight(buf[:n], "\r\n\t \x00")
	if !bytes.HasSuffix(buf, []byte("%%EOF")) {
		return errors.New("not a PDF file: missing %%EOF")
	}
	return nil
}

// FindStartXref locates and parses the "startxref" pointer near the end of the file.
// Returns the byte offset where the cross-reference table/stream begins.
func FindStartXref(f io.ReaderAt, size int64) (int64, error) {
	const endChunk = 1024
	off := size - endChunk
	if off < 0 {
		off = 0
	}
	buf := make([]byte, size-off)
	n, err := f.ReadAt(buf, off)
	if err != nil && err != io.EOF {
		return 0, err
	}
	buf = buf[:n]
	i := findLastLine(buf, "startxref")
	if i < 0 {
		return 0, errors.New("malformed PDF file: missing final startxref")
	}
	pos := off + int64(i)
	b := newBuffer(io.NewSectionReader(f, pos, size-pos), pos)
	b.allowEOF = true

	if tok := b.readToken(); tok != keyword("startxref") {
		return 0, fmt.Errorf("malformed PDF file: missing startxref: %v", tok)
	}
	startxref, ok := b.readToken().(int64)
	if !ok {
		return 0, errors.New("malformed PDF file: startxref not followed by integer")
	}
	if startxref < 0 || startxref >= size {
		return 0, fmt.Errorf("malformed PDF file: startxref %d out of range", startxref)
	}
	logger.Debug(fmt.Sprintf("xref: FindStartXref -- startxref=%d", startxref), true)
	return startxref, nil
}

// Trailer returns the file's Trailer value.
func (r *Reader) Trailer() Value {
	return Value{r, r.trailerptr, r.trailer}
}

// Catalog returns the document catalog (the trailer's /Root).
func (r *Reader) Catalog() Value {
	return r.Trailer().Key("Root")
}

// findLastLine searches backwards in buf for the last occurrence of the
// keyword s (e.g. "startxref") that is followed by an end-of-line marker.
// Producers often put spaces, tabs or NULs between the keyword and the
// newline, so any PDF white space may precede the EOL.
func findLastLine(buf []byte, s string) int {
	bs := []byte(s)
	for end := len(buf); end > 0; {
		i := bytes.LastIndex(buf[:end], bs)
		if i < 0 {
			break
		}
		j := SkipWhitespace(buf, i+len(bs))
		if EndsWithEOL(buf, i+len(bs), j) {
			return i
		}
		end = i
	}
	return -1
}

var wsBits [4]uint64 // 256 bits = 4 * 64

func init() {
	for _, b := range []byte{0x00, 0x09, 0x0A, 0x0C, 0x0D, 0x20} {
		wsBits[b>>6] |= 1 << (b & 63)
	}
}

// isWhitespace reports whether b is one of the six whitespace characters
// defined by ISO 32000-1 §7.2.2 for PDF syntax: 00, 09, 0A, 0C, 0D, 20.
func isWhitespace(b byte) bool {
	return (wsBits[b>>6] & (1 << (b & 63))) != 0
}

// SkipWhitespace advances j past all whitespace.
func SkipWhitespace(buf []byte, j int) int {
	for j < len(buf) && isWhitespace(buf[j]) {
		j++
	}
	return j
}

// EndsWithEOL checks if the last skipped char is CR or LF.
func EndsWithEOL(buf []byte, start, end int) bool {
	if end > start {
		last := buf[end-1]
		return last == '\n' || last == '\r'
	}
	return false
}

// logDebugf routes low-level reader diagnostics to the package logger when
// DebugOn is set.
func logDebugf(format string, args ...interface{}) {
	if DebugOn {
		logger.Debug(fmt.Sprintf(format, args...))
	}
}
