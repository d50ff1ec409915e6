package crypto

import (
	"encoding/hex"
	"fmt"
	"strings"
)

// DefaultXORKey is the client key for BMD v12 payloads.
var DefaultXORKey = [16]byte{
	0xD1, 0x73, 0x52, 0xF6, 0xD2, 0x9A, 0xCB, 0x27,
	0x3E, 0xAF, 0x59, 0x31, 0x37, 0xB3, 0xE7, 0xA2,
}

// TRSXORKey is the 3-byte key of ItemTRSData.bmd records.
var TRSXORKey = [3]byte{0xFC, 0xCF, 0xAB}

// LEAKeyDelta holds the LEA key-schedule constants.
var LEAKeyDelta = [8]uint32{
	0xc3efe9db, 0x44626b02, 0x79e27c8a, 0x78df30ec,
	0x715ea49e, 0xc785da0a, 0xe04ef22a, 0xe5c40957,
}

// Keys are the decryption keys used for encrypted BMD versions.
// A nil LEA key means v15 files cannot be read.
type Keys struct {
	XOR [16]byte
	LEA *[32]byte
}

// DefaultKeys returns the built-in XOR key and no LEA key.
func DefaultKeys() Keys {
	return Keys{XOR: DefaultXORKey}
}

// ParseKeys builds Keys from hex strings. Empty strings keep the defaults.
func ParseKeys(xorHex, leaHex string) (Keys, error) {
	keys := DefaultKeys()
	if xorHex != "" {
		b, err := decodeHex(xorHex, 16)
		if err != nil {
			return Keys{}, fmt.Errorf("crypto: xor key: %w", err)
		}
		copy(keys.XOR[:], b)
	}
	if leaHex != "" {
		b, err := decodeHex(leaHex, 32)
		if err != nil {
			return Keys{}, fmt.Errorf("crypto: lea key: %w", err)
		}
		var lea [32]byte
		copy(lea[:], b)
		keys.LEA = &lea
	}
	return keys, nil
}

func decodeHex(s string, size int) ([]byte, error) {
	s = strings.NewReplacer(" ", "", ":", "", "0x", "").Replace(strings.TrimSpace(s))
	b, err := hex.DecodeString(s)
	if err != nil {
		return nil, err
	}
	if len(b) != size {
		return nil, fmt.Errorf("want %d bytes, got %d", size, len(b))
	}
	return b, nil
}
