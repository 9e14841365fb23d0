// Copyright © 2026, SAS Institute Inc., Cary, NC, USA.  All Rights Reserved.
// SPDX-License-Identifier: BSD-3-Clause

package pdflayers

import (
	"strconv"
	"strings"
)

// nameToRune maps the glyph names of the standard Latin character set to
// Unicode. Names outside this set are resolved by glyphRune.
var nameToRune = map[string]rune{
	"space": ' ', "exclam": '!', "quotedbl": '"', "numbersign": '#', "dollar": '$',
	"percent": '%', "ampersand": '&', "quotesingle": '\'', "quoteright": 0x2019,
	"parenleft": '(', "parenright": ')', "asterisk": '*', "plus": '+', "comma": ',',
	"hyphen": '-', "period": '.', "slash": '/',
	"zero": '0', "one": '1', "two": '2', "three": '3', "four": '4',
	"five": '5', "six": '6', "seven": '7', "eight": '8', "nine": '9',
	"colon": ':', "semicolon": ';', "less": '<', "equal": '=', "greater": '>',
	"question": '?', "at": '@', "bracketleft": '[', "backslash": '\\',
	"bracketright": ']', "asciicircum": '^', "underscore": '_', "grave": '`',
	"quoteleft": 0x2018, "braceleft": '{', "bar": '|', "braceright": '}', "asciitilde": '~',

	"exclamdown": 0x00A1, "cent": 0x00A2, "sterling": 0x00A3, "fraction": 0x2044,
	"yen": 0x00A5, "florin": 0x0192, "section": 0x00A7, "currency": 0x00A4,
	"quotedblleft": 0x201C, "guillemotleft": 0x00AB, "guilsinglleft": 0x2039,
	"guilsinglright": 0x203A, "fi": 0xFB01, "fl": 0xFB02, "endash": 0x2013,
	"dagger": 0x2020, "daggerdbl": 0x2021, "periodcentered": 0x00B7,
	"paragraph": 0x00B6, "bullet": 0x2022, "quotesinglbase": 0x201A,
	"quotedblbase": 0x201E, "quotedblright": 0x201D, "guillemotright": 0x00BB,
	"ellipsis": 0x2026, "perthousand": 0x2030, "questiondown": 0x00BF,
	"acute": 0x00B4, "circumflex": 0x02C6, "tilde": 0x02DC, "macron": 0x00AF,
	"breve": 0x02D8, "dotaccent": 0x02D9, "dieresis": 0x00A8, "ring": 0x02DA,
	"cedilla": 0x00B8, "hungarumlaut": 0x02DD, "ogonek": 0x02DB, "caron": 0x02C7,
	"emdash": 0x2014, "AE": 0x00C6, "ordfeminine": 0x00AA, "Lslash": 0x0141,
	"Oslash": 0x00D8, "OE": 0x0152, "ordmasculine": 0x00BA, "ae": 0x00E6,
	"dotlessi": 0x0131, "lslash": 0x0142, "oslash": 0x00F8, "oe": 0x0153,
	"germandbls": 0x00DF, "Euro": 0x20AC, "trademark": 0x2122, "copyright": 0x00A9,
	"registered": 0x00AE, "degree": 0x00B0, "plusminus": 0x00B1, "multiply": 0x00D7,
	"divide": 0x00F7, "minus": 0x2212, "mu": 0x00B5, "logicalnot": 0x00AC,
	"brokenbar": 0x00A6, "onehalf": 0x00BD, "onequarter": 0x00BC,
	"threequarters": 0x00BE, "onesuperior": 0x00B9, "twosuperior": 0x00B2,
	"threesuperior": 0x00B3, "nbspace": 0x00A0, "sfthyphen": 0x00AD,
	"Scaron": 0x0160, "scaron": 0x0161, "Zcaron": 0x017D, "zcaron": 0x017E,
	"Ydieresis": 0x0178, "Eth": 0x00D0, "eth": 0x00F0, "Thorn": 0x00DE, "thorn": 0x00FE,

	"Agrave": 0x00C0, "Aacute": 0x00C1, "Acircumflex": 0x00C2, "Atilde": 0x00C3,
	"Adieresis": 0x00C4, "Aring": 0x00C5, "Ccedilla": 0x00C7, "Egrave": 0x00C8,
	"Eacute": 0x00C9, "Ecircumflex": 0x00CA, "Edieresis": 0x00CB, "Igrave": 0x00CC,
	"Iacute": 0x00CD, "Icircumflex": 0x00CE, "Idieresis": 0x00CF, "Ntilde": 0x00D1,
	"Ograve": 0x00D2, "Oacute": 0x00D3, "Ocircumflex": 0x00D4, "Otilde": 0x00D5,
	"Odieresis": 0x00D6, "Ugrave": 0x00D9, "Uacute": 0x00DA, "Ucircumflex": 0x00DB,
	"Udieresis": 0x00DC, "Yacute": 0x00DD,
	"agrave": 0x00E0, "aacute": 0x00E1, "acircumflex": 0x00E2, "atilde": 0x00E3,
	"adieresis": 0x00E4, "aring": 0x00E5, "ccedilla": 0x00E7, "egrave": 0x00E8,
	"eacute": 0x00E9, "ecircumflex": 0x00EA, "edieresis": 0x00EB, "igrave": 0x00EC,
	"iacute": 0x00ED, "icircumflex": 0x00EE, "idieresis": 0x00EF, "ntilde": 0x00F1,
	"ograve": 0x00F2, "oacute": 0x00F3, "ocircumflex": 0x00F4, "otilde": 0x00F5,
	"odieresis": 0x00F6, "ugrave": 0x00F9, "uacute": 0x00FA, "ucircumflex": 0x00FB,
	"udieresis": 0x00FC, "yacute": 0x00FD, "ydieresis": 0x00FF,
}

// glyphRune resolves a glyph name to a rune: names of the standard Latin set,
// single ASCII letters, and the uniXXXX and uXXXX[XX] forms. Suffixes after
// a period (as in "a.sc") are ignored.
func glyphRune(glyph string) (rune, bool) {
	if i := strings.IndexByte(glyph, '.'); i > 0 {
		glyph = glyph[:i]
	}
	if r, ok := nameToRune[glyph]; ok {
		return r, true
	}
	if len(glyph) == 1 {
		c := glyph[0]
		if ('a' <= c && c <= 'z') || ('A' <= c && c <= 'Z') {
			return rune(c), true
		}
	}
	switch {
	case strings.HasPrefix(glyph, "uni") && len(glyph) == 7:
		return parseGlyphHex(glyph[3:])
	case strings.HasPrefix(glyph, "u") && len(glyph) >= 5 && len(glyph) <= 7:
		return parseGlyphHex(glyph[1:])
	}
	return 0, false
}

func parseGlyphHex(s string) (rune, bool) {
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil || v == 0 || v > 0x10FFFF {
		return 0, false
	}
	return rune(v), true
}
