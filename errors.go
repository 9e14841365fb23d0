// Copyright © 2026, SAS Institute Inc., Cary, NC, USA.  All Rights Reserved.
// SPDX-License-Identifier: BSD-3-Clause

package pdflayers

import "errors"

var (
	// ErrNoOptionalContent is returned by layered extraction when the
	// catalog has no /OCProperties or no /OCGs.
	ErrNoOptionalContent = errors.New("document has no optional content groups")

	// ErrNoDefaultOrder is returned by layered extraction when the default
	// configuration has no /Order array.
	ErrNoDefaultOrder = errors.New("document has no default layer order")

	// ErrMalformedOrder reports a nested /Order array that does not directly
	// follow a layer entry.
	ErrMalformedOrder = errors.New("malformed layer order: nested list without preceding layer")

	// ErrUnbalancedMarkedContent reports an EMC with no open marked-content
	// sequence.
	ErrUnbalancedMarkedContent = errors.New("unbalanced marked content: end without begin")

	// ErrUnbalancedScope reports a figure or text group end without its
	// begin, or a scope still open at the end of the page.
	ErrUnbalancedScope = errors.New("unbalanced layout scope")

	// ErrExtractionNotAllowed is returned when the document permissions
	// forbid content extraction.
	ErrExtractionNotAllowed = errors.New("content extraction is not allowed")

	// ErrUndefinedMapping is returned by FontMetrics.ToUnicode when a
	// character has no text mapping. It is handled by the text device.
	ErrUndefinedMapping = errors.New("undefined character mapping")
)
