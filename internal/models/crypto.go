// internal/models/crypto.go
//
// A document mapping and routing layer for the jam-build data services
// Copyright (c) 2026 Alex Grant <info@localnerve.com> (https://www.localnerve.com), LocalNerve LLC
//
// This file is part of propsodm.
// propsodm is free software: you can redistribute it and/or modify it
// under the terms of the GNU Affero General Public License as published by the Free Software
// Foundation, either version 3 of the License, or (at your option) any later version.
// propsodm is distributed in the hope that it will be useful, but WITHOUT ANY WARRANTY;
// without even the implied warranty of MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.
// See the GNU Affero General Public License for more details.
// You should have received a copy of the GNU Affero General Public License along with propsodm.
// If not, see <https://www.gnu.org/licenses/>.
// Additional terms under GNU AGPL version 3 section 7:
// a) The reasonable legal notice of original copyright and author attribution must be preserved
//    by including the string: "Copyright (c) 2026 Alex Grant <info@localnerve.com> (https://www.localnerve.com), LocalNerve LLC"
//    in this material, copies, or source code of derived works.

package models

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"golang.org/x/crypto/hkdf"
)

const (
	ivSize  = 12
	tagSize = 16
)

var keyInfo = []byte("propsodm field encryption")

// Encrypt seals the JSON encoding of value with AES-256-GCM under a key
// derived from cipherKey. The result is "ciphertext.tag.iv", each segment
// URL-safe base64. A fresh IV is drawn for every call.
func Encrypt(value any, cipherKey string) (string, error) {
	aead, err := newAEAD(cipherKey)
	if err != nil {
		return "", err
	}
	plain, err := json.Marshal(value)
	if err != nil {
		return "", fmt.Errorf("encode plaintext: %w", err)
	}
	iv := make([]byte, ivSize)
	if _, err := io.ReadFull(rand.Reader, iv); err != nil {
		return "", fmt.Errorf("read iv: %w", err)
	}
	sealed := aead.Seal(nil, iv, plain, nil)
	ct, tag := sealed[:len(sealed)-tagSize], sealed[len(sealed)-tagSize:]

	enc := base64.RawURLEncoding
	return enc.EncodeToString(ct) + "." + enc.EncodeToString(tag) + "." + enc.EncodeToString(iv), nil
}

// Decrypt reverses Encrypt. A value without exactly three segments is an
// error. When the segments do not decode or authenticate, the decoded
// ciphertext text is returned as is, so plaintext values survive a field
// being switched to encryption.
func Decrypt(text, cipherKey string) (any, error) {
	parts := strings.Split(text, ".")
	if len(parts) != 3 {
		return nil, fmt.Errorf("%w: expected 3 segments, got %d", ErrMalformedCiphertext, len(parts))
	}
	aead, err := newAEAD(cipherKey)
	if err != nil {
		return nil, err
	}

	enc := base64.RawURLEncoding
	ct, err := enc.DecodeString(parts[0])
	if err != nil {
		return text, nil
	}
	tag, errTag := enc.DecodeString(parts[1])
	iv, errIV := enc.DecodeString(parts[2])
	if errTag != nil || errIV != nil || len(iv) != ivSize || len(tag) != tagSize {
		return string(ct), nil
	}
	plain, err := aead.Open(nil, iv, append(ct, tag...), nil)
	if err != nil {
		return string(ct), nil
	}
	var out any
	if err := json.Unmarshal(plain, &out); err != nil {
		return string(plain), nil
	}
	return out, nil
}

func newAEAD(cipherKey string) (cipher.AEAD, error) {
	if cipherKey == "" {
		return nil, ErrNoCipherKey
	}
	key := make([]byte, 32)
	if _, err := io.ReadFull(hkdf.New(sha256.New, []byte(cipherKey), nil, keyInfo), key); err != nil {
		return nil, fmt.Errorf("derive key: %w", err)
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}
