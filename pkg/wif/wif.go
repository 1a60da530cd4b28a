// Package wif decodes the Wallet Import Format private keys the
// createnodevss CLI setup surface accepts (spec.md §6), the same
// base58check encoding rust-bitcoin's PrivateKey::from_wif uses.
package wif

import (
	"bytes"
	"crypto/sha256"
	"errors"
	"math/big"

	"github.com/azuchi/tapyrus-signer/pkg/curve"
)

// ErrMalformedWIF is returned when the input is not a validly checksummed,
// correctly sized WIF string.
var ErrMalformedWIF = errors.New("wif: malformed private key")

var base58Alphabet = []byte("123456789ABCDEFGHJKLMNPQRSTUVWXYZabcdefghijkmnopqrstuvwxyz")

// Decode parses a base58check WIF string into its raw 32-byte private key
// and whether it encodes a compressed public key. The network version
// byte is accepted but not validated against a specific network, since
// this engine has no notion of mainnet/testnet beyond what the federation
// operator configures out of band.
func Decode(s string) (key *curve.Scalar, compressed bool, err error) {
	raw, err := base58CheckDecode(s)
	if err != nil {
		return nil, false, err
	}
	// version(1) + key(32) [+ compression flag(1)]
	switch len(raw) {
	case 33:
		compressed = false
	case 34:
		if raw[33] != 0x01 {
			return nil, false, ErrMalformedWIF
		}
		compressed = true
	default:
		return nil, false, ErrMalformedWIF
	}
	key = curve.ScalarFromBytes(raw[1:33])
	if key.IsZero() {
		return nil, false, ErrMalformedWIF
	}
	return key, compressed, nil
}

// base58CheckDecode decodes a base58check string (payload + 4-byte
// double-SHA256 checksum) and verifies the checksum, by hand: no pack
// example wires a base58 library whose encoding is confirmed compatible
// with this single-byte-version WIF framing (see DESIGN.md).
func base58CheckDecode(s string) ([]byte, error) {
	decoded, err := base58Decode(s)
	if err != nil {
		return nil, err
	}
	if len(decoded) < 4 {
		return nil, ErrMalformedWIF
	}
	payload, checksum := decoded[:len(decoded)-4], decoded[len(decoded)-4:]
	first := sha256.Sum256(payload)
	second := sha256.Sum256(first[:])
	if !bytes.Equal(second[:4], checksum) {
		return nil, ErrMalformedWIF
	}
	return payload, nil
}

func base58Decode(s string) ([]byte, error) {
	if s == "" {
		return nil, ErrMalformedWIF
	}
	index := make(map[byte]int64, len(base58Alphabet))
	for i, c := range base58Alphabet {
		index[c] = int64(i)
	}

	num := big.NewInt(0)
	base := big.NewInt(58)
	for i := 0; i < len(s); i++ {
		digit, ok := index[s[i]]
		if !ok {
			return nil, ErrMalformedWIF
		}
		num.Mul(num, base)
		num.Add(num, big.NewInt(digit))
	}

	decoded := num.Bytes()

	leadingZeros := 0
	for i := 0; i < len(s) && s[i] == base58Alphabet[0]; i++ {
		leadingZeros++
	}

	out := make([]byte, leadingZeros+len(decoded))
	copy(out[leadingZeros:], decoded)
	return out, nil
}
