package codes

import (
	"crypto/rand"
	"fmt"
)

// codeAlphabet deliberately omits characters that are easy to misread when a
// code is written down or read aloud (0/O, 1/I/L).
const codeAlphabet = "ABCDEFGHJKMNPQRSTUVWXYZ23456789"

// CodeLength is the number of characters in a minted access code.
const CodeLength = 8

// Issuer mints access codes when the pre-seeded pool cannot supply one.
// Minted codes are treated as pre-assigned: they never enter the pool.
type Issuer struct{}

// NewIssuer constructs an Issuer backed by crypto/rand.
func NewIssuer() *Issuer {
	return &Issuer{}
}

// Mint generates a fresh random access code. With an alphabet of 31 symbols
// and 8 positions the space is ~8.5e11 values, so collisions with previously
// issued codes are negligible; the unique constraint on profiles.code is the
// final guard.
func (i *Issuer) Mint() (string, error) {
	buf := make([]byte, CodeLength)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("mint access code: %w", err)
	}
	for idx, b := range buf {
		buf[idx] = codeAlphabet[int(b)%len(codeAlphabet)]
	}
	return string(buf), nil
}

// MintBatch generates n distinct codes. Used to seed or top up the code pool.
func (i *Issuer) MintBatch(n int) ([]string, error) {
	seen := make(map[string]struct{}, n)
	out := make([]string, 0, n)
	for len(out) < n {
		code, err := i.Mint()
		if err != nil {
			return nil, err
		}
		if _, dup := seen[code]; dup {
			continue
		}
		seen[code] = struct{}{}
		out = append(out, code)
	}
	return out, nil
}
