// Copyright © 2026, SAS Institute Inc., Cary, NC, USA.  All Rights Reserved.
// SPDX-License-Identifier: BSD-3-Clause

package pdflayers

import (
	"fmt"
	"strings"
)

// An OrderNode is one entry of the default layer order: an OCG name and
// the layers nested under it.
type OrderNode struct {
	Name     string
	Children OrderTree
}

// An OrderTree is the default nesting of optional content groups. Siblings
// are mutually exclusive alternatives; children are dependent sub-choices.
type OrderTree []OrderNode

// OCGInfo reads the optional content groups declared in the catalog.
// names is nil when the catalog has no /OCProperties or no /OCGs; order is
// null when the default configuration has no /Order.
func (r *Reader) OCGInfo() (names []string, order Value) {
	ocp := r.Catalog().Key("OCProperties")
	if ocp.Kind() != Dict {
		return nil, Value{}
	}
	ocgs := ocp.Key("OCGs")
	if ocgs.Kind() != Array {
		return nil, Value{}
	}
	names = make([]string, 0, ocgs.Len())
	for i := 0; i < ocgs.Len(); i++ {
		names = append(names, DecodeName(ocgs.Index(i).Key("Name").RawString()))
	}
	order = ocp.Key("D").Key("Order")
	if order.Kind() != Array {
		return names, Value{}
	}
	return names, order
}

// DecodeName decodes an OCG name. Besides the standard PDF text string
// encodings it accepts UTF-16LE with a byte order mark, which some
// producers write.
func DecodeName(raw string) string {
	if strings.HasPrefix(raw, "\xff\xfe") {
		return utf16LEDecode(raw[2:])
	}
	return decodeText(raw)
}

// BuildOrderTree converts an /Order array into an OrderTree. A nested array
// must directly follow the OCG it belongs to; otherwise BuildOrderTree
// fails with ErrMalformedOrder. Text labels of named groups are skipped.
// When the same name occurs twice among siblings, the entry keeps its first
// position and takes the later occurrence's children.
func BuildOrderTree(order Value) (OrderTree, error) {
	return buildOrderTree(order, 0)
}

const maxOrderDepth = 64

func buildOrderTree(order Value, depth int) (OrderTree, error) {
	if depth > maxOrderDepth {
		return nil, fmt.Errorf("%w: nesting deeper than %d", ErrMalformedOrder, maxOrderDepth)
	}
	var tree OrderTree
	index := map[string]int{}
	prev := -1
	for i := 0; i < order.Len(); i++ {
		item := order.Index(i)
		switch item.Kind() {
		case Array:
			if prev < 0 {
				return nil, fmt.Errorf("%w at index %d", ErrMalformedOrder, i)
			}
			sub, err := buildOrderTree(item, depth+1)
			if err != nil {
				return nil, err
			}
			tree[prev].Children = sub
			prev = -1
		case Dict:
			name := DecodeName(item.Key("Name").RawString())
			if j, ok := index[name]; ok {
				tree[j].Children = nil
				prev = j
				continue
			}
			index[name] = len(tree)
			prev = len(tree)
			tree = append(tree, OrderNode{Name: name})
		default:
			// label of a named group: ["Label" ocg ocg ...]
			prev = -1
		}
	}
	return tree, nil
}

// OCMap maps each optional content property of the page's resources to the
// decoded name of its OCG. Membership dictionaries (/OCMD) are not mapped.
func (p Page) OCMap() map[string]string {
	return ocMap(p.Resources())
}

func ocMap(resources Value) map[string]string {
	props := resources.Key("Properties")
	out := map[string]string{}
	for _, key := range props.Keys() {
		v := props.Key(key)
		if v.Key("Type").Name() != "OCG" {
			continue
		}
		out[key] = DecodeName(v.Key("Name").RawString())
	}
	return out
}

// PropertiesFor returns the property names of the page that refer to the
// OCG called ocg, in sorted order.
func (p Page) PropertiesFor(ocg string) []string {
	var out []string
	m := p.OCMap()
	for _, key := range p.Resources().Key("Properties").Keys() {
		if name, ok := m[key]; ok && name == ocg {
			out = append(out, key)
		}
	}
	return out
}

// ocScope resolves the operands of a marked-content operator to an OC
// stack entry. Only the OC tag opens a layer scope; other tags push an
// untagged entry, which is transparent.
//
// A property that is not an OCG, usually an /OCMD membership dictionary, is
// kept under its resource name. That name matches no layer, so the content
// is hidden in every combination and only appears in the full layout.
// Making it transparent instead would leak content that the membership
// policy may switch off into layers it does not belong to.
func ocScope(tag string, props Value, resources Value) Scope {
	if tag != "OC" {
		return Scope{}
	}
	switch props.Kind() {
	case Name:
		if name, ok := ocMap(resources)[props.Name()]; ok {
			return Scope{OCG: name, Tagged: true}
		}
		return Scope{OCG: props.Name(), Tagged: true}
	case Dict:
		return Scope{OCG: DecodeName(props.Key("Name").RawString()), Tagged: true}
	}
	return Scope{}
}
