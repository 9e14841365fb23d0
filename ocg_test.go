// Copyright © 2026, SAS Institute Inc., Cary, NC, USA.  All Rights Reserved.
// SPDX-License-Identifier: BSD-3-Clause

package pdflayers

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ocgDict(n string) dict {
	return dict{"Type": name("OCG"), "Name": n}
}

func TestBuildOrderTree(t *testing.T) {
	tests := []struct {
		name    string
		order   array
		want    OrderTree
		wantErr error
	}{
		{
			name:  "flat",
			order: array{ocgDict("A"), ocgDict("B")},
			want:  OrderTree{{Name: "A"}, {Name: "B"}},
		},
		{
			name:  "nested",
			order: array{ocgDict("A"), array{ocgDict("A1"), ocgDict("A2")}, ocgDict("B")},
			want: OrderTree{
				{Name: "A", Children: OrderTree{{Name: "A1"}, {Name: "A2"}}},
				{Name: "B"},
			},
		},
		{
			name:  "labelled group",
			order: array{ocgDict("A"), array{"Streets", ocgDict("S1"), ocgDict("S2")}},
			want: OrderTree{
				{Name: "A", Children: OrderTree{{Name: "S1"}, {Name: "S2"}}},
			},
		},
		{
			name:  "utf16 names",
			order: array{ocgDict("\xfe\xff\x00A\x00b"), ocgDict("\xff\xfeC\x00d\x00")},
			want:  OrderTree{{Name: "Ab"}, {Name: "Cd"}},
		},
		{
			name:  "duplicate takes later children",
			order: array{ocgDict("A"), array{ocgDict("X")}, ocgDict("B"), ocgDict("A"), array{ocgDict("Y")}},
			want: OrderTree{
				{Name: "A", Children: OrderTree{{Name: "Y"}}},
				{Name: "B"},
			},
		},
		{
			name:  "duplicate without children clears them",
			order: array{ocgDict("A"), array{ocgDict("X")}, ocgDict("A")},
			want:  OrderTree{{Name: "A"}},
		},
		{
			name:    "leading array",
			order:   array{array{ocgDict("A")}},
			wantErr: ErrMalformedOrder,
		},
		{
			name:    "two arrays in a row",
			order:   array{ocgDict("A"), array{ocgDict("X")}, array{ocgDict("Y")}},
			wantErr: ErrMalformedOrder,
		},
		{
			name:    "array after label",
			order:   array{ocgDict("A"), array{"Label", array{ocgDict("X")}}},
			wantErr: ErrMalformedOrder,
		},
		{
			name:  "empty",
			order: array{},
			want:  nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := BuildOrderTree(Value{data: tt.order})
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("BuildOrderTree() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestBuildOrderTree_DepthLimit(t *testing.T) {
	var order array = array{ocgDict("leaf")}
	for i := 0; i < maxOrderDepth+2; i++ {
		order = array{ocgDict("n"), order}
	}
	_, err := BuildOrderTree(Value{data: order})
	assert.ErrorIs(t, err, ErrMalformedOrder)
}

func testResources() Value {
	return Value{data: dict{
		"Properties": dict{
			"MC0": ocgDict("Roads"),
			"MC1": dict{"Type": name("OCMD"), "OCGs": array{ocgDict("Roads")}},
			"MC2": ocgDict("Rivers"),
			"MC3": ocgDict("Roads"),
		},
	}}
}

func TestOCMap(t *testing.T) {
	got := ocMap(testResources())
	assert.Equal(t, map[string]string{"MC0": "Roads", "MC2": "Rivers", "MC3": "Roads"}, got)
	assert.Empty(t, ocMap(Value{}))
}

func TestOCScope(t *testing.T) {
	res := testResources()
	tests := []struct {
		name  string
		tag   string
		props Value
		want  Scope
	}{
		{"ocg property", "OC", Value{data: name("MC2")}, Scope{OCG: "Rivers", Tagged: true}},
		{"membership dict keeps resource name", "OC", Value{data: name("MC1")}, Scope{OCG: "MC1", Tagged: true}},
		{"missing property", "OC", Value{data: name("MC9")}, Scope{OCG: "MC9", Tagged: true}},
		{"inline dict", "OC", Value{data: ocgDict("Inline")}, Scope{OCG: "Inline", Tagged: true}},
		{"other tag", "Span", Value{data: name("MC0")}, Scope{}},
		{"no properties", "OC", Value{}, Scope{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ocScope(tt.tag, tt.props, res))
		})
	}
}
