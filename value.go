// Copyright © 2026, SAS Institute Inc., Cary, NC, USA.  All Rights Reserved.
// SPDX-License-Identifier: BSD-3-Clause

package pdflayers

import (
	"bytes"
	"compress/zlib"
	"encoding/ascii85"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"sort"
	"strconv"
)

// A Value is a single PDF value, such as an integer, dictionary, or array.
// The zero Value is a PDF null (Kind() == Null, IsNull() = true).
type Value struct {
	r    *Reader
	ptr  objptr
	data interface{}
}

// IsNull reports whether the value is a null. It is equivalent to Kind() == Null.
func (v Value) IsNull() bool {
	return v.data == nil
}

// A ValueKind specifies the kind of data underlying a Value.
type ValueKind int

// The PDF value kinds.
const (
	Null ValueKind = iota
	Bool
	Integer
	Real
	String
	Name
	Dict
	Array
	Stream
)

// Kind reports the kind of value underlying v.
func (v Value) Kind() ValueKind {
	switch v.data.(type) {
	default:
		return Null
	case bool:
		return Bool
	case int64:
		return Integer
	case float64:
		return Real
	case string:
		return String
	case name:
		return Name
	case dict:
		return Dict
	case array:
		return Array
	case stream:
		return Stream
	}
}

// String returns a textual representation of the value v.
// Note that String is not the accessor for values with Kind() == String.
// To access such values, see RawString and Text.
func (v Value) String() string {
	return objfmt(v.data)
}

func objfmt(x interface{}) string {
	switch x := x.(type) {
	default:
		return fmt.Sprint(x)
	case string:
		if isPDFDocEncoded(x) {
			return strconv.Quote(pdfDocDecode(x))
		}
		if isUTF16(x) {
			return strconv.Quote(utf16Decode(x[2:]))
		}
		return strconv.Quote(x)
	case name:
		return "/" + string(x)
	case dict:
		var keys []string
		for k := range x {
			keys = append(keys, string(k))
		}
		sort.Strings(keys)
		var buf bytes.Buffer
		buf.WriteString("<<")
		for i, k := range keys {
			if i > 0 {
				buf.WriteString(" ")
			}
			buf.WriteString("/")
			buf.WriteString(k)
			buf.WriteString(" ")
			buf.WriteString(objfmt(x[name(k)]))
		}
		buf.WriteString(">>")
		return buf.String()
	case array:
		var buf bytes.Buffer
		buf.WriteString("[")
		for i, elem := range x {
			if i > 0 {
				buf.WriteString(" ")
			}
			buf.WriteString(objfmt(elem))
		}
		buf.WriteString("]")
		return buf.String()
	case stream:
		return fmt.Sprintf("%v@%d", objfmt(x.hdr), x.offset)
	case objptr:
		return fmt.Sprintf("%d %d R", x.id, x.gen)
	case objdef:
		return fmt.Sprintf("{%d %d obj}%v", x.ptr.id, x.ptr.gen, objfmt(x.obj))
	}
}

// Bool returns v's boolean value.
// If v.Kind() != Bool, Bool returns false.
func (v Value) Bool() bool {
	x, _ := v.data.(bool)
	return x
}

// Int64 returns v's int64 value.
// If v.Kind() != Int64, Int64 returns 0.
func (v Value) Int64() int64 {
	x, _ := v.data.(int64)
	return x
}

// Float64 returns v's float64 value, converting from integer if necessary.
// If v.Kind() != Float64 and v.Kind() != Int64, Float64 returns 0.
func (v Value) Float64() float64 {
	switch x := v.data.(type) {
	case float64:
		return x
	case int64:
		return float64(x)
	}
	return 0
}

// RawString returns v's string value.
// If v.Kind() != String, RawString returns the empty string.
func (v Value) RawString() string {
	x, _ := v.data.(string)
	return x
}

// Text returns v's string value interpreted as a “text string” (defined in the PDF spec)
// and converted to UTF-8.
// If v.Kind() != String, Text returns the empty string.
func (v Value) Text() string {
	x, ok := v.data.(string)
	if !ok {
		return ""
	}
	return decodeText(x)
}

// Name returns v's name value.
// If v.Kind() != Name, Name returns the empty string.
// The returned name does not include the leading slash:
// if v corresponds to the name written using the syntax /Helvetica,
// Name() == "Helvetica".
func (v Value) Name() string {
	x, _ := v.data.(name)
	return string(x)
}

// Key returns the value associated with the given name key in the dictionary v.
// Like the result of the Name method, the key should not include a leading slash.
// If v is a stream, Key applies to the stream's header dictionary.
// If v.Kind() != Dict and v.Kind() != Stream, Key returns a null Value.
func (v Value) Key(key string) Value {
	x, ok := v.data.(dict)
	if !ok {
		strm, ok := v.data.(stream)
		if !ok {
			return Value{}
		}
		x = strm.hdr
	}
	return v.r.resolve(v.ptr, x[name(key)])
}

// Keys returns a sorted list of the keys in the dictionary v.
// If v is a stream, Keys applies to the stream's header dictionary.
// If v.Kind() != Dict and v.Kind() != Stream, Keys returns nil.
func (v Value) Keys() []string {
	x, ok := v.data.(dict)
	if !ok {
		strm, ok := v.data.(stream)
		if !ok {
			return nil
		}
		x = strm.hdr
	}
	keys := []string{} // not nil
	for k := range x {
		keys = append(keys, string(k))
	}
	sort.Strings(keys)
	return keys
}

// Index returns the i'th element in the array v.
// If v.Kind() != Array or if i is outside the array bounds,
// Index returns a null Value.
func (v Value) Index(i int) Value {
	x, ok := v.data.(array)
	if !ok || i < 0 || i >= len(x) {
		return Value{}
	}
	return v.r.resolve(v.ptr, x[i])
}

// Len returns the length of the array v.
// If v.Kind() != Array, Len returns 0.
func (v Value) Len() int {
	x, _ := v.data.(array)
	return len(x)
}

// Floats returns the numeric elements of the array v.
// Non-numeric elements read as 0.
func (v Value) Floats() []float64 {
	out := make([]float64, v.Len())
	for i := range out {
		out[i] = v.Index(i).Float64()
	}
	return out
}

// ref reports the indirect reference v was reached through, if any.
func (v Value) ref() objptr {
	return v.ptr
}

func (r *Reader) resolve(parent objptr, x interface{}) Value {
	if ptr, ok := x.(objptr); ok {
		if r == nil || ptr.id >= uint32(len(r.xref)) {
			return Value{}
		}
		xref := r.xref[ptr.id]
		if xref.ptr != ptr || !xref.inStream && xref.offset == 0 {
			return Value{}
		}
		if xref.inStream {
			x = r.resolveInStream(parent, ptr, xref)
		} else {
			x = r.resolveAt(ptr, xref.offset)
		}
		parent = ptr
	}

	switch x := x.(type) {
	case nil, bool, int64, float64, name, dict, array, stream, string:
		return Value{r, parent, x}
	default:
		panic(fmt.Errorf("unexpected value type %T in resolve", x))
	}
}

func (r *Reader) resolveAt(ptr objptr, offset int64) object {
	def, err := r.readObjdefAt(offset)
	if err != nil || def.ptr != ptr {
		// Offsets in damaged files are often off by a few bytes.
		found := r.scanForObjectAt(ptr.id, ptr.gen, offset, 1024)
		if found < 0 {
			if err == nil {
				err = fmt.Errorf("found %v", def.ptr)
			}
			panic(fmt.Errorf("loading %v: %v", ptr, err))
		}
		if def, err = r.readObjdefAt(found); err != nil || def.ptr != ptr {
			panic(fmt.Errorf("loading %v: object not found near offset %d", ptr, offset))
		}
	}
	return def.obj
}

func (r *Reader) readObjdefAt(offset int64) (def objdef, err error) {
	defer func() {
		if e := recover(); e != nil {
			err = fmt.Errorf("%v", e)
		}
	}()
	b := newBuffer(io.NewSectionReader(r.f, offset, r.end-offset), offset)
	b.key = r.key
	b.useAES = r.useAES
	obj := b.readObject()
	def, ok := obj.(objdef)
	if !ok {
		return objdef{}, fmt.Errorf("found %T instead of objdef", obj)
	}
	return def, nil
}

func (r *Reader) resolveInStream(parent, ptr objptr, xref xref) object {
	strm := r.resolve(parent, xref.stream)
	for {
		if strm.Kind() != Stream {
			panic(errors.New("object stream reference is not a stream"))
		}
		if strm.Key("Type").Name() != "ObjStm" {
			panic(errors.New("not an object stream"))
		}
		n := int(strm.Key("N").Int64())
		first := strm.Key("First").Int64()
		if first == 0 {
			panic(errors.New("object stream missing First"))
		}
		b := newBuffer(strm.Reader(), 0)
		b.allowEOF = true
		for i := 0; i < n; i++ {
			id, _ := b.readToken().(int64)
			off, _ := b.readToken().(int64)
			if uint32(id) == ptr.id {
				b.seekForward(first + off)
				return b.readObject()
			}
		}
		ext := strm.Key("Extends")
		if ext.Kind() != Stream {
			panic(fmt.Errorf("cannot find object %v in stream", ptr))
		}
		strm = ext
	}
}

type errorReadCloser struct {
	err error
}

func (e *errorReadCloser) Read([]byte) (int, error) {
	return 0, e.err
}

func (e *errorReadCloser) Close() error {
	return e.err
}

// Reader returns the data contained in the stream v.
// If v.Kind() != Stream, Reader returns a ReadCloser that
// responds to all reads with a “stream not present” error.
func (v Value) Reader() io.ReadCloser {
	x, ok := v.data.(stream)
	if !ok {
		return &errorReadCloser{errors.New("stream not present")}
	}
	var rd io.Reader
	rd = io.NewSectionReader(v.r.f, x.offset, v.Key("Length").Int64())
	if v.r.key != nil {
		rd = decryptStream(v.r.key, v.r.useAES, x.ptr, rd)
	}
	filter := v.Key("Filter")
	param := v.Key("DecodeParms")
	var err error
	switch filter.Kind() {
	default:
		err = fmt.Errorf("unsupported filter %v", filter)
	case Null:
		// ok
	case Name:
		rd, err = applyFilter(rd, filter.Name(), param)
	case Array:
		for i := 0; i < filter.Len() && err == nil; i++ {
			rd, err = applyFilter(rd, filter.Index(i).Name(), param.Index(i))
		}
	}
	if err != nil {
		return &errorReadCloser{err}
	}
	return io.NopCloser(rd)
}

func applyFilter(rd io.Reader, name string, param Value) (io.Reader, error) {
	switch name {
	default:
		return nil, fmt.Errorf("unknown filter %s", name)
	case "FlateDecode", "Fl":
		zr, err := zlib.NewReader(rd)
		if err != nil {
			return nil, fmt.Errorf("FlateDecode: %w", err)
		}
		return applyPredictor(zr, param)
	case "ASCII85Decode", "A85":
		return ascii85.NewDecoder(newAlphaReader(rd)), nil
	case "ASCIIHexDecode", "AHx":
		data, err := io.ReadAll(rd)
		if err != nil {
			return nil, err
		}
		return bytes.NewReader(decodeASCIIHex(data)), nil
	}
}

func applyPredictor(rd io.Reader, param Value) (io.Reader, error) {
	pred := param.Key("Predictor").Int64()
	if pred <= 1 {
		return rd, nil
	}
	if pred == 2 {
		return nil, errors.New("TIFF predictor is not supported")
	}
	columns := param.Key("Columns").Int64()
	if columns == 0 {
		columns = 1
	}
	colors := param.Key("Colors").Int64()
	if colors == 0 {
		colors = 1
	}
	bpc := param.Key("BitsPerComponent").Int64()
	if bpc == 0 {
		bpc = 8
	}
	rowLen := (columns*colors*bpc + 7) / 8
	bpp := (colors*bpc + 7) / 8
	return &pngReader{
		r:    rd,
		bpp:  int(bpp),
		hist: make([]byte, rowLen),
		tmp:  make([]byte, 1+rowLen),
	}, nil
}

// decodeASCIIHex decodes hex digits up to the '>' end marker, skipping white
// space. An odd final digit is followed by an implied 0.
func decodeASCIIHex(data []byte) []byte {
	digits := make([]byte, 0, len(data))
	for _, c := range data {
		if c == '>' {
			break
		}
		if unhex(c) >= 0 {
			digits = append(digits, c)
		}
	}
	if len(digits)%2 == 1 {
		digits = append(digits, '0')
	}
	out := make([]byte, len(digits)/2)
	hex.Decode(out, digits)
	return out
}

// alphaReader drops everything an ASCII85 decoder cannot consume: bytes
// outside '!'..'u' (plus 'z') become NULs, which the decoder skips, and
// nothing after the "~>" terminator is passed on.
type alphaReader struct {
	reader io.Reader
	done   bool
}

func newAlphaReader(reader io.Reader) *alphaReader {
	return &alphaReader{reader: reader}
}

func checkASCII85(r byte) byte {
	if r >= '!' && r <= 'u' {
		return r
	}
	return 0
}

func (a *alphaReader) Read(p []byte) (int, error) {
	n, err := a.reader.Read(p)
	if err != nil && n == 0 {
		return n, err
	}
	for i := 0; i < n; i++ {
		if a.done {
			p[i] = 0
			continue
		}
		if p[i] == '~' && i+1 < n && p[i+1] == '>' {
			a.done = true
			p[i] = 0
			continue
		}
		if p[i] == 'z' {
			continue
		}
		p[i] = checkASCII85(p[i])
	}
	return n, err
}

// pngReader undoes the PNG row filters used with /Predictor 10-15.
type pngReader struct {
	r    io.Reader
	bpp  int
	hist []byte
	tmp  []byte
	pend []byte
}

func (r *pngReader) Read(b []byte) (int, error) {
	n := 0
	for len(b) > 0 {
		if len(r.pend) > 0 {
			m := copy(b, r.pend)
			n += m
			b = b[m:]
			r.pend = r.pend[m:]
			continue
		}
		if _, err := io.ReadFull(r.r, r.tmp); err != nil {
			return n, err
		}
		if err := r.unfilter(r.tmp[0], r.tmp[1:]); err != nil {
			return n, err
		}
		r.pend = r.hist
	}
	return n, nil
}

func (r *pngReader) unfilter(ft byte, cur []byte) error {
	prev := r.hist
	switch ft {
	case 0:
		copy(prev, cur)
	case 1:
		for i := range cur {
			var left byte
			if i >= r.bpp {
				left = prev[i-r.bpp]
			}
			prev[i] = cur[i] + left
		}
	case 2:
		for i := range cur {
			prev[i] += cur[i]
		}
	case 3:
		for i := range cur {
			var left int
			if i >= r.bpp {
				left = int(prev[i-r.bpp])
			}
			prev[i] = cur[i] + byte((left+int(prev[i]))/2)
		}
	case 4:
		// prev[i] still holds the row above until overwritten; keep the
		// upper-left byte in a small ring before each write.
		upLeft := make([]byte, r.bpp)
		for i := range cur {
			var a, c int
			if i >= r.bpp {
				a = int(prev[i-r.bpp])
				c = int(upLeft[i%r.bpp])
			}
			up := int(prev[i])
			upLeft[i%r.bpp] = prev[i]
			prev[i] = cur[i] + byte(paeth(a, up, c))
		}
	default:
		return fmt.Errorf("malformed PNG predictor row type %d", ft)
	}
	return nil
}

func paeth(a, b, c int) int {
	p := a + b - c
	pa, pb, pc := abs(p-a), abs(p-b), abs(p-c)
	switch {
	case pa <= pb && pa <= pc:
		return a
	case pb <= pc:
		return b
	}
	return c
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
