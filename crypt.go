// Copyright © 2026, SAS Institute Inc., Cary, NC, USA.  All Rights Reserved.
// SPDX-License-Identifier: BSD-3-Clause

package pdflayers

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"crypto/md5"
	"crypto/rc4"
	"errors"
	"fmt"
	"io"
)

// ErrInvalidPassword is returned when the document cannot be opened with the
// empty user password.
var ErrInvalidPassword = errors.New("encrypted PDF: invalid password")

var passwordPad = []byte{
	0x28, 0xBF, 0x4E, 0x5E, 0x4E, 0x75, 0x8A, 0x41, 0x64, 0x00, 0x4E, 0x56, 0xFF, 0xFA, 0x01, 0x08,
	0x2E, 0x2E, 0x00, 0xB6, 0xD0, 0x68, 0x3E, 0x80, 0x2F, 0x0C, 0xA9, 0xFE, 0x64, 0x53, 0x69, 0x7A,
}

// initEncrypt derives the file key of the standard security handler
// (revisions 2 to 4) from password and checks it against /U.
func (r *Reader) initEncrypt(password string) error {
	encrypt, _ := r.resolve(objptr{}, r.trailer["Encrypt"]).data.(dict)
	if encrypt["Filter"] != name("Standard") {
		return fmt.Errorf("unsupported PDF: encryption filter %v", objfmt(encrypt["Filter"]))
	}
	n, _ := encrypt["Length"].(int64)
	if n == 0 {
		n = 40
	}
	if n%8 != 0 || n > 128 || n < 40 {
		return fmt.Errorf("malformed PDF: %d-bit encryption key", n)
	}
	V, _ := encrypt["V"].(int64)
	if V != 1 && V != 2 && (V != 4 || !okayV4(encrypt)) {
		return fmt.Errorf("unsupported PDF: encryption version V=%d; %v", V, objfmt(encrypt))
	}
	if V == 4 {
		n = 128
	}

	ids, ok := r.trailer["ID"].(array)
	if !ok || len(ids) < 1 {
		return errors.New("malformed PDF: missing ID in trailer")
	}
	idstr, ok := ids[0].(string)
	if !ok {
		return errors.New("malformed PDF: missing ID in trailer")
	}
	ID := []byte(idstr)

	R, _ := encrypt["R"].(int64)
	if R < 2 {
		return fmt.Errorf("malformed PDF: encryption revision R=%d", R)
	}
	if R > 4 {
		return fmt.Errorf("unsupported PDF: encryption revision R=%d", R)
	}
	O, _ := encrypt["O"].(string)
	U, _ := encrypt["U"].(string)
	if len(O) != 32 || len(U) != 32 {
		return errors.New("malformed PDF: missing O= or U= encryption parameters")
	}
	p, _ := encrypt["P"].(int64)
	P := uint32(p)

	pw := []byte(password)
	h := md5.New()
	if len(pw) >= 32 {
		h.Write(pw[:32])
	} else {
		h.Write(pw)
		h.Write(passwordPad[:32-len(pw)])
	}
	h.Write([]byte(O))
	h.Write([]byte{byte(P), byte(P >> 8), byte(P >> 16), byte(P >> 24)})
	h.Write(ID)
	if R >= 4 {
		if meta, ok := encrypt["EncryptMetadata"].(bool); ok && !meta {
			h.Write([]byte{0xff, 0xff, 0xff, 0xff})
		}
	}
	key := h.Sum(nil)

	if R >= 3 {
		for i := 0; i < 50; i++ {
			h.Reset()
			h.Write(key[:n/8])
			key = h.Sum(key[:0])
		}
		key = key[:n/8]
	} else {
		key = key[:40/8]
	}

	c, err := rc4.NewCipher(key)
	if err != nil {
		return fmt.Errorf("malformed PDF: invalid RC4 key: %v", err)
	}

	var u []byte
	if R == 2 {
		u = make([]byte, 32)
		copy(u, passwordPad)
		c.XORKeyStream(u, u)
	} else {
		h.Reset()
		h.Write(passwordPad)
		h.Write(ID)
		u = h.Sum(nil)
		c.XORKeyStream(u, u)

		for i := 1; i <= 19; i++ {
			key1 := make([]byte, len(key))
			copy(key1, key)
			for j := range key1 {
				key1[j] ^= byte(i)
			}
			c, _ = rc4.NewCipher(key1)
			c.XORKeyStream(u, u)
		}
	}

	if !bytes.HasPrefix([]byte(U), u) {
		return ErrInvalidPassword
	}

	r.key = key
	r.useAES = V == 4
	return nil
}

func okayV4(encrypt dict) bool {
	cf, ok := encrypt["CF"].(dict)
	if !ok {
		return false
	}
	stmf, ok := encrypt["StmF"].(name)
	if !ok {
		return false
	}
	strf, ok := encrypt["StrF"].(name)
	if !ok || stmf != strf {
		return false
	}
	cfparam, _ := cf[stmf].(dict)
	if cfparam["AuthEvent"] != nil && cfparam["AuthEvent"] != name("DocOpen") {
		return false
	}
	if cfparam["Length"] != nil && cfparam["Length"] != int64(16) {
		return false
	}
	return cfparam["CFM"] == name("AESV2")
}

func cryptKey(key []byte, useAES bool, ptr objptr) []byte {
	h := md5.New()
	h.Write(key)
	h.Write([]byte{byte(ptr.id), byte(ptr.id >> 8), byte(ptr.id >> 16), byte(ptr.gen), byte(ptr.gen >> 8)})
	if useAES {
		h.Write([]byte("sAlT"))
	}
	n := len(key) + 5
	if n > 16 {
		n = 16
	}
	return h.Sum(nil)[:n]
}

func decryptString(key []byte, useAES bool, ptr objptr, x string) string {
	key = cryptKey(key, useAES, ptr)
	if useAES {
		s := []byte(x)
		if len(s) < 2*aes.BlockSize || len(s)%aes.BlockSize != 0 {
			panic(errors.New("encrypted string has invalid length for AES"))
		}
		block, _ := aes.NewCipher(key)
		cbc := cipher.NewCBCDecrypter(block, s[:aes.BlockSize])
		s = s[aes.BlockSize:]
		cbc.CryptBlocks(s, s)
		return string(unpad(s))
	}
	c, _ := rc4.NewCipher(key)
	data := []byte(x)
	c.XORKeyStream(data, data)
	return string(data)
}

// unpad strips PKCS#5 padding, leaving malformed input untouched.
func unpad(s []byte) []byte {
	if len(s) == 0 {
		return s
	}
	p := int(s[len(s)-1])
	if p == 0 || p > aes.BlockSize || p > len(s) {
		return s
	}
	return s[:len(s)-p]
}

func decryptStream(key []byte, useAES bool, ptr objptr, rd io.Reader) io.Reader {
	key = cryptKey(key, useAES, ptr)
	if useAES {
		data, err := io.ReadAll(rd)
		if err != nil {
			return &errorReadCloser{err}
		}
		if len(data) < 2*aes.BlockSize || len(data)%aes.BlockSize != 0 {
			return &errorReadCloser{errors.New("encrypted stream has invalid length for AES")}
		}
		block, _ := aes.NewCipher(key)
		cbc := cipher.NewCBCDecrypter(block, data[:aes.BlockSize])
		data = data[aes.BlockSize:]
		cbc.CryptBlocks(data, data)
		return bytes.NewReader(unpad(data))
	}
	c, _ := rc4.NewCipher(key)
	return &cipher.StreamReader{S: c, R: rd}
}

// IsEncrypted reports whether the document carries an /Encrypt dictionary.
func (r *Reader) IsEncrypted() bool {
	return r.encrypted
}
