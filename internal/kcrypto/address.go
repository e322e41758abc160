// Package kcrypto implements Kromer's address-derivation and hashing
// primitives: the v2 "protein walk" address scheme, sha256/double-sha256
// helpers, and CSPRNG password generation.
//
// Import hygiene: kcrypto depends only on the standard library crypto
// packages. It does NOT import store, eventbus, or httpapi, staying at the
// lowest tier of the dependency graph.
package kcrypto

import (
	crand "crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// AddressLength is the length in characters of a v2 address, including the
// one-character prefix.
const AddressLength = 10

// proteinSize is the number of distinct byte slots ("protein") consumed
// while walking the hash stream during address derivation.
const proteinSize = 9

// Sha256Hex returns the lowercase hex SHA-256 digest of s.
func Sha256Hex(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}

// DoubleSha256Hex returns sha256(sha256(s)), both stages lowercase hex.
func DoubleSha256Hex(s string) string {
	return Sha256Hex(Sha256Hex(s))
}

// hexToBase36 maps a byte value 0..255 onto the Krist address alphabet:
// '0'-'9' for b/7 in 0..9, 'a'-'z' for 10..35, and 'e' as the overflow
// character for 36 (b/7 == 36 for b in 252..255).
func hexToBase36(b byte) byte {
	v := int(b) / 7
	switch {
	case v <= 9:
		return '0' + byte(v)
	case v <= 35:
		return 'a' + byte(v-10)
	default:
		return 'e'
	}
}

// MakeV2Address deterministically derives a (1+proteinSize)-character
// address from a private key and a single-character prefix.
//
// Algorithm (must stay byte-for-byte reproducible against the wire vector
// MakeV2Address("test123", 'k') == "krcgbmalxg"):
//
//  1. Seed a rolling hash with double-SHA-256(privateKey).
//  2. Fill a 9-slot "protein" by taking the first byte of the rolling hash
//     and then re-hashing (double-SHA-256) it, nine times.
//  3. Continue rolling the hash; at each step read the byte at position
//     2*i as a hex pair and reduce it mod 9 to pick a protein slot. If
//     that slot has already been consumed, re-hash and try the same i
//     again. Otherwise consume it, append hexToBase36(slot value) to the
//     address, mark the slot consumed, and advance i.
func MakeV2Address(privateKey string, prefix byte) string {
	var protein [proteinSize]byte
	var consumed [proteinSize]bool

	hash := DoubleSha256Hex(privateKey)
	for i := 0; i < proteinSize; i++ {
		protein[i] = hexByteAt(hash, 0)
		hash = DoubleSha256Hex(hash)
	}

	out := make([]byte, 0, AddressLength)
	out = append(out, prefix)

	for i := 0; i < proteinSize; {
		slot := int(hexByteAt(hash, i)) % proteinSize
		if consumed[slot] {
			hash = Sha256Hex(hash)
			continue
		}
		out = append(out, hexToBase36(protein[slot]))
		consumed[slot] = true
		i++
	}
	return string(out)
}

// hexByteAt decodes the hex pair at character offset 2*i within hexStr into
// a single byte. hexStr is always a 64-character sha256 hex digest here, so
// the offset is taken modulo its length as a defensive measure.
func hexByteAt(hexStr string, i int) byte {
	pos := (2 * i) % len(hexStr)
	b, err := hex.DecodeString(hexStr[pos : pos+2])
	if err != nil || len(b) == 0 {
		return 0
	}
	return b[0]
}

// RandomPassword returns a 32-character secret drawn from a CSPRNG over the
// charset [A-Za-z0-9_-].
func RandomPassword() (string, error) {
	const charset = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789_-"
	const length = 32

	buf := make([]byte, length)
	if _, err := crand.Read(buf); err != nil {
		return "", fmt.Errorf("random password: %w", err)
	}
	out := make([]byte, length)
	for i, b := range buf {
		out[i] = charset[int(b)%len(charset)]
	}
	return string(out), nil
}
