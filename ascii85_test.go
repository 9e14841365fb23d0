// Copyright © 2026, SAS Institute Inc., Cary, NC, USA.  All Rights Reserved.
// SPDX-License-Identifier: BSD-3-Clause

package pdflayers

import (
	"bytes"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAlphaReader_Read(t *testing.T) {
	// indices: 0:'!' 1:'u' 2:'x' (invalid) 3:'z' (zero group) 4:'~' 5:'>' 6:'A' (after terminator)
	src := []byte("!uxz~>A")
	r := newAlphaReader(bytes.NewReader(src))

	buf := make([]byte, len(src))
	n, err := r.Read(buf)

	assert.NoError(t, err)
	assert.Equal(t, len(src), n, "Read should return number of bytes read from underlying reader")
	assert.Equal(t, []byte{'!', 'u', 0, 'z', 0, 0, 0}, buf)
}

func TestApplyFilter_ASCII85(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain", "87cURD]i,\"Ebo7~>", "Hello World"},
		{"with whitespace", "87cU RD]i,\n\"Ebo7~>", "Hello World"},
		{"zero group", "z~>", "\x00\x00\x00\x00"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rd, err := applyFilter(bytes.NewReader([]byte(tt.in)), "ASCII85Decode", Value{})
			require.NoError(t, err)
			got, err := io.ReadAll(rd)
			require.NoError(t, err)
			assert.Equal(t, tt.want, string(got))
		})
	}
}

func TestApplyFilter_ASCIIHex(t *testing.T) {
	rd, err := applyFilter(bytes.NewReader([]byte("48 65 6C6C6F7>")), "AHx", Value{})
	require.NoError(t, err)
	got, err := io.ReadAll(rd)
	require.NoError(t, err)
	assert.Equal(t, "Hellop", string(got))
}

func TestApplyFilter_Unsupported(t *testing.T) {
	_, err := applyFilter(bytes.NewReader(nil), "JBIG2Decode", Value{})
	assert.Error(t, err)
}
