// Copyright © 2026, SAS Institute Inc., Cary, NC, USA.  All Rights Reserved.
// SPDX-License-Identifier: BSD-3-Clause

package pdflayers

import (
	"github.com/sassoftware/viya-pdf-layers/logger"
)

type byteRange struct {
	low  string
	high string
}

type bfchar struct {
	orig string
	repl string
}

type bfrange struct {
	lo  string
	hi  string
	dst Value
}

type cidrange struct {
	lo  string
	hi  string
	cid int
}

// A cmap is a parsed CMap program. ToUnicode CMaps fill the bf* mappings;
// encoding CMaps of Type 0 fonts fill the cid* mappings.
type cmap struct {
	space    [4][]byteRange // codespace range
	bfrange  []bfrange
	bfchar   []bfchar
	cidrange []cidrange
	wmode    int
}

// Decode translates raw character codes into Unicode text using the CMap
// rules. Codes with no mapping keep their raw bytes, decoded as UTF-8 when
// valid and byte by byte otherwise.
func (m *cmap) Decode(raw string) string {
	var runes []rune
	for len(raw) > 0 {
		code, width := m.findNextCodespace(raw)
		if width == 0 {
			runes = append(runes, DecodeUTF8OrPreserve(raw[:1])...)
			raw = raw[1:]
			continue
		}
		if decoded, ok := m.resolveCodeMapping(code, width); ok {
			runes = append(runes, decoded...)
		} else {
			runes = append(runes, DecodeUTF8OrPreserve(code)...)
		}
		raw = raw[width:]
	}
	return string(runes)
}

// codes splits raw into character codes using the codespace ranges.
// Bytes outside every codespace form one-byte codes.
func (m *cmap) codes(raw string) []string {
	var out []string
	for len(raw) > 0 {
		code, width := m.findNextCodespace(raw)
		if width == 0 {
			code, width = raw[:1], 1
		}
		out = append(out, code)
		raw = raw[width:]
	}
	return out
}

// cid maps a character code to a CID through the cidrange mappings.
func (m *cmap) cid(code string) (int, bool) {
	for _, r := range m.cidrange {
		if len(r.lo) == len(code) && r.lo <= code && code <= r.hi {
			return r.cid + codeInt(code) - codeInt(r.lo), true
		}
	}
	return 0, false
}

// findNextCodespace checks raw for a valid codespace sequence of length 1–4.
// Returns the matched bytes and its length, or ("", 0) if no codespace matches.
func (m *cmap) findNextCodespace(raw string) (string, int) {
	for n := 1; n <= 4 && n <= len(raw); n++ {
		for _, space := range m.space[n-1] {
			if space.low <= raw[:n] && raw[:n] <= space.high {
				return raw[:n], n
			}
		}
	}
	return "", 0
}

// resolveCodeMapping tries to map a code using bfchar or bfrange rules.
// Returns decoded runes and true if a mapping was found.
func (m *cmap) resolveCodeMapping(code string, width int) ([]rune, bool) {
	for _, bfchar := range m.bfchar {
		if len(bfchar.orig) == width && bfchar.orig == code {
			return []rune(utf16Decode(bfchar.repl)), true
		}
	}
	for _, br := range m.bfrange {
		if len(br.lo) == width && br.lo <= code && code <= br.hi {
			switch br.dst.Kind() {
			case String:
				return resolveBfrangeWithString(br, code), true
			case Array:
				return resolveBfrangeWithArray(br, code), true
			}
		}
	}
	return nil, false
}

// resolveBfrangeWithString handles bfrange mappings where dst is a String.
func resolveBfrangeWithString(br bfrange, code string) []rune {
	s := br.dst.RawString()
	if br.lo != code && len(s) > 0 {
		// increment last byte according to offset within range
		b := []byte(s)
		b[len(b)-1] += code[len(code)-1] - br.lo[len(br.lo)-1]
		s = string(b)
	}
	return []rune(utf16Decode(s))
}

// resolveBfrangeWithArray handles bfrange mappings where dst is an Array.
func resolveBfrangeWithArray(br bfrange, code string) []rune {
	idx := code[len(code)-1] - br.lo[len(br.lo)-1]
	v := br.dst.Index(int(idx))
	if v.Kind() == String {
		return []rune(utf16Decode(v.RawString()))
	}
	return nil
}

func codeInt(code string) int {
	x := 0
	for i := 0; i < len(code); i++ {
		x = x<<8 | int(code[i])
	}
	return x
}

// readCmap parses a CMap stream. It returns nil when the program is
// malformed.
func readCmap(strm Value) (m *cmap) {
	defer func() {
		if r := recover(); r != nil {
			logger.Debug("readCmap: malformed CMap", "err", r)
			m = nil
		}
	}()

	n := -1
	m = &cmap{wmode: int(strm.Key("WMode").Int64())}
	ok := true
	Interpret(strm, func(stk *Stack, op string) {
		if !ok {
			return
		}
		switch op {
		case "findresource":
			stk.Pop() // category
			stk.Pop() // key
			stk.Push(newDict())
		case "begincmap":
			stk.Push(newDict())
		case "endcmap":
			stk.Pop()
		case "usecmap":
			stk.Pop()
		case "begincodespacerange", "beginbfchar", "beginbfrange", "begincidrange", "begincidchar", "beginnotdefrange":
			n = int(stk.Pop().Int64())
		case "endcodespacerange":
			if n < 0 {
				ok = false
				return
			}
			for i := 0; i < n; i++ {
				hi, lo := stk.Pop().RawString(), stk.Pop().RawString()
				if len(lo) == 0 || len(lo) > 4 || len(lo) != len(hi) {
					ok = false
					return
				}
				m.space[len(lo)-1] = append(m.space[len(lo)-1], byteRange{lo, hi})
			}
			n = -1
		case "endbfchar":
			if n < 0 {
				panic("missing beginbfchar")
			}
			for i := 0; i < n; i++ {
				repl, orig := stk.Pop().RawString(), stk.Pop().RawString()
				m.bfchar = append(m.bfchar, bfchar{orig, repl})
			}
			n = -1
		case "endbfrange":
			if n < 0 {
				panic("missing beginbfrange")
			}
			for i := 0; i < n; i++ {
				dst, srcHi, srcLo := stk.Pop(), stk.Pop().RawString(), stk.Pop().RawString()
				m.bfrange = append(m.bfrange, bfrange{srcLo, srcHi, dst})
			}
			n = -1
		case "endcidrange":
			if n < 0 {
				panic("missing begincidrange")
			}
			for i := 0; i < n; i++ {
				cid, hi, lo := stk.Pop().Int64(), stk.Pop().RawString(), stk.Pop().RawString()
				m.cidrange = append(m.cidrange, cidrange{lo, hi, int(cid)})
			}
			n = -1
		case "endcidchar":
			if n < 0 {
				panic("missing begincidchar")
			}
			for i := 0; i < n; i++ {
				cid, code := stk.Pop().Int64(), stk.Pop().RawString()
				m.cidrange = append(m.cidrange, cidrange{code, code, int(cid)})
			}
			n = -1
		case "endnotdefrange":
			for i := 0; i < 3*n; i++ {
				stk.Pop()
			}
			n = -1
		case "defineresource":
			stk.Pop() // category
			value := stk.Pop()
			stk.Pop() // key
			stk.Push(value)
		default:
			logDebugf("cmap: ignoring operator %s", op)
		}
	})
	if !ok {
		return nil
	}
	return m
}
