package claims

import (
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/crypto/sha3"
)

// Hash is a Keccak-256 content address.
type Hash [32]byte

// ZeroHash is the unset hash.
var ZeroHash Hash

func (h Hash) String() string { return "0x" + hex.EncodeToString(h[:]) }

func (h Hash) IsZero() bool { return h == ZeroHash }

// MarshalText encodes the hash as 0x-prefixed hex.
func (h Hash) MarshalText() ([]byte, error) { return []byte(h.String()), nil }

// UnmarshalText parses 0x-prefixed (or bare) hex.
func (h *Hash) UnmarshalText(b []byte) error {
	parsed, err := ParseHash(string(b))
	if err != nil {
		return err
	}
	*h = parsed
	return nil
}

// ParseHash parses a 32-byte hex string, with or without 0x prefix.
func ParseHash(s string) (Hash, error) {
	var h Hash
	raw, err := hex.DecodeString(strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X"))
	if err != nil {
		return h, fmt.Errorf("invalid hash %q: %w", s, err)
	}
	if len(raw) != len(h) {
		return h, fmt.Errorf("invalid hash %q: want %d bytes, got %d", s, len(h), len(raw))
	}
	copy(h[:], raw)
	return h, nil
}

// PolicyHashOf computes H(policyholder, claimsAllowedFrom, policyDocumentRef).
func PolicyHashOf(policyholder Address, claimsAllowedFrom time.Time, docRef string) Hash {
	return keccak(
		[]byte(policyholder),
		uint64Bytes(uint64(claimsAllowedFrom.Unix())),
		[]byte(docRef),
	)
}

// ClaimHashOf computes H(policyHash, claimant, claimAmount, evidenceRef).
// Identical parameters always resolve to the same claim.
func ClaimHashOf(policyHash Hash, claimant Address, amount decimal.Decimal, evidenceRef string) Hash {
	return keccak(
		policyHash[:],
		[]byte(claimant),
		[]byte(amount.String()),
		[]byte(evidenceRef),
	)
}

// keccak hashes length-prefixed fields so adjacent fields cannot be shifted
// into one another.
func keccak(fields ...[]byte) Hash {
	d := sha3.NewLegacyKeccak256()
	for _, f := range fields {
		d.Write(uint64Bytes(uint64(len(f))))
		d.Write(f)
	}
	var h Hash
	copy(h[:], d.Sum(nil))
	return h
}

func uint64Bytes(v uint64) []byte {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], v)
	return b[:]
}
