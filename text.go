// Copyright © 2026, SAS Institute Inc., Cary, NC, USA.  All Rights Reserved.
// SPDX-License-Identifier: BSD-3-Clause

package pdflayers

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
	xunicode "golang.org/x/text/encoding/unicode"
)

const noRune = unicode.ReplacementChar

// Single-byte encoding tables, indexed by character code.
var (
	pdfDocEncoding      [256]rune
	winAnsiEncoding     [256]rune
	macRomanEncoding    [256]rune
	standardEncoding    [256]rune
	pdfDocHighOverrides = map[byte]rune{
		0x18: 0x02D8, 0x19: 0x02C7, 0x1A: 0x02C6, 0x1B: 0x02D9,
		0x1C: 0x02DD, 0x1D: 0x02DB, 0x1E: 0x02DA, 0x1F: 0x02DC,
		0x80: 0x2022, 0x81: 0x2020, 0x82: 0x2021, 0x83: 0x2026,
		0x84: 0x2014, 0x85: 0x2013, 0x86: 0x0192, 0x87: 0x2044,
		0x88: 0x2039, 0x89: 0x203A, 0x8A: 0x2212, 0x8B: 0x2030,
		0x8C: 0x201E, 0x8D: 0x201C, 0x8E: 0x201D, 0x8F: 0x2018,
		0x90: 0x2019, 0x91: 0x201A, 0x92: 0x2122, 0x93: 0xFB01,
		0x94: 0xFB02, 0x95: 0x0141, 0x96: 0x0152, 0x97: 0x0160,
		0x98: 0x0178, 0x99: 0x017D, 0x9A: 0x0131, 0x9B: 0x0142,
		0x9C: 0x0153, 0x9D: 0x0161, 0x9E: 0x017E, 0xA0: 0x20AC,
	}
)

// Codes of the standard Latin text encoding that differ from ASCII or are
// defined above 0x7F; everything else in 0x20..0x7E is ASCII.
var standardEncodingOverrides = map[byte]rune{
	0x27: 0x2019, 0x60: 0x2018,
	0xA1: 0x00A1, 0xA2: 0x00A2, 0xA3: 0x00A3, 0xA4: 0x2044, 0xA5: 0x00A5, 0xA6: 0x0192, 0xA7: 0x00A7,
	0xA8: 0x00A4, 0xA9: 0x0027, 0xAA: 0x201C, 0xAB: 0x00AB, 0xAC: 0x2039, 0xAD: 0x203A, 0xAE: 0xFB01, 0xAF: 0xFB02,
	0xB1: 0x2013, 0xB2: 0x2020, 0xB3: 0x2021, 0xB4: 0x00B7, 0xB6: 0x00B6, 0xB7: 0x2022,
	0xB8: 0x201A, 0xB9: 0x201E, 0xBA: 0x201D, 0xBB: 0x00BB, 0xBC: 0x2026, 0xBD: 0x2030, 0xBF: 0x00BF,
	0xC1: 0x0060, 0xC2: 0x00B4, 0xC3: 0x02C6, 0xC4: 0x02DC, 0xC5: 0x00AF, 0xC6: 0x02D8, 0xC7: 0x02D9,
	0xC8: 0x00A8, 0xCA: 0x02DA, 0xCB: 0x00B8, 0xCD: 0x02DD, 0xCE: 0x02DB, 0xCF: 0x02C7,
	0xD0: 0x2014,
	0xE1: 0x00C6, 0xE3: 0x00AA, 0xE8: 0x0141, 0xE9: 0x00D8, 0xEA: 0x0152, 0xEB: 0x00BA,
	0xF1: 0x00E6, 0xF5: 0x0131, 0xF8: 0x0142, 0xF9: 0x00F8, 0xFA: 0x0153, 0xFB: 0x00DF,
}

func init() {
	for i := 0; i < 256; i++ {
		b := byte(i)
		switch {
		case b == '\t' || b == '\n' || b == '\r':
			pdfDocEncoding[i] = rune(b)
		case b < 0x18 || b == 0x7F || b == 0x9F || b == 0xAD:
			pdfDocEncoding[i] = noRune
		default:
			pdfDocEncoding[i] = rune(b)
		}
		if r, ok := pdfDocHighOverrides[b]; ok {
			pdfDocEncoding[i] = r
		}

		winAnsiEncoding[i] = charmap.Windows1252.DecodeByte(b)
		macRomanEncoding[i] = charmap.Macintosh.DecodeByte(b)

		standardEncoding[i] = noRune
		if 0x20 <= b && b < 0x7F {
			standardEncoding[i] = rune(b)
		}
		if r, ok := standardEncodingOverrides[b]; ok {
			standardEncoding[i] = r
		}
	}
}

// isPDFDocEncoded reports whether s is a PDF text string that can be decoded
// with PDFDocEncoding alone.
func isPDFDocEncoded(s string) bool {
	if isUTF16(s) {
		return false
	}
	for i := 0; i < len(s); i++ {
		if pdfDocEncoding[s[i]] == noRune {
			return false
		}
	}
	return true
}

func pdfDocDecode(s string) string {
	for i := 0; i < len(s); i++ {
		if s[i] >= 0x80 || pdfDocEncoding[s[i]] != rune(s[i]) {
			goto Decode
		}
	}
	return s

Decode:
	r := make([]rune, len(s))
	for i := 0; i < len(s); i++ {
		r[i] = pdfDocEncoding[s[i]]
	}
	return string(r)
}

// isUTF16 reports whether s carries the UTF-16BE byte order mark.
func isUTF16(s string) bool {
	return len(s) >= 2 && s[0] == 0xfe && s[1] == 0xff && len(s)%2 == 0
}

var (
	utf16BE = xunicode.UTF16(xunicode.BigEndian, xunicode.IgnoreBOM)
	utf16LE = xunicode.UTF16(xunicode.LittleEndian, xunicode.IgnoreBOM)
)

// utf16Decode decodes big-endian UTF-16 without a byte order mark.
func utf16Decode(s string) string {
	out, err := utf16BE.NewDecoder().String(s)
	if err != nil {
		return ""
	}
	return out
}

// utf16LEDecode decodes little-endian UTF-16 without a byte order mark.
// A trailing odd byte and malformed surrogates are dropped.
func utf16LEDecode(s string) string {
	out, err := utf16LE.NewDecoder().String(s[:len(s)&^1])
	if err != nil {
		return ""
	}
	return strings.ReplaceAll(out, string(unicode.ReplacementChar), "")
}

// decodeText decodes a PDF text string: UTF-16BE when it carries a byte
// order mark, PDFDocEncoding otherwise.
func decodeText(s string) string {
	if isUTF16(s) {
		return utf16Decode(s[2:])
	}
	if isPDFDocEncoded(s) {
		return pdfDocDecode(s)
	}
	r := make([]rune, 0, len(s))
	for i := 0; i < len(s); i++ {
		if c := pdfDocEncoding[s[i]]; c != noRune {
			r = append(r, c)
		}
	}
	return string(r)
}

// DecodeUTF8OrPreserve returns the runes of s when s is valid UTF-8 and
// otherwise one rune per byte, so that no input byte is lost.
func DecodeUTF8OrPreserve(s string) []rune {
	if utf8.ValidString(s) {
		return []rune(s)
	}
	r := make([]rune, len(s))
	for i := 0; i < len(s); i++ {
		r[i] = rune(s[i])
	}
	return r
}
