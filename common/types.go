// Copyright 2024 The the-core Authors
// This file is part of the the-core library.
//
// The the-core library is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// The the-core library is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with the the-core library. If not, see <http://www.gnu.org/licenses/>.

// Package common holds the primitive value types shared by every layer of
// the consensus core: addresses, hashes, atomic-unit amounts and heights.
package common

import (
	"encoding/hex"
	"fmt"
	"math/big"
	"strings"
)

const (
	AddressLength = 20
	HashLength    = 32
)

// Address is an opaque 20-byte account/vault/institution identifier.
type Address [AddressLength]byte

// BytesToAddress truncates or zero-pads b into an Address, keeping the
// rightmost bytes, mirroring the teacher lineage's common.BytesToAddress.
func BytesToAddress(b []byte) Address {
	var a Address
	if len(b) > AddressLength {
		b = b[len(b)-AddressLength:]
	}
	copy(a[AddressLength-len(b):], b)
	return a
}

// HexToAddress parses a 0x-prefixed (or bare) hex string into an Address.
func HexToAddress(s string) Address {
	return BytesToAddress(fromHex(s))
}

func (a Address) Bytes() []byte { return a[:] }

func (a Address) Hex() string { return "0x" + hex.EncodeToString(a[:]) }

func (a Address) String() string { return a.Hex() }

// IsZero reports whether a is the all-zero address, used throughout the
// engine as the burn / unset sentinel.
func (a Address) IsZero() bool { return a == Address{} }

// MarshalText and UnmarshalText let Address serve as a JSON object key
// (encoding/json only accepts map keys that are strings or implement
// encoding.TextMarshaler), used by the replay CLI's snapshot persistence.
func (a Address) MarshalText() ([]byte, error) { return []byte(a.Hex()), nil }

func (a *Address) UnmarshalText(text []byte) error {
	*a = HexToAddress(string(text))
	return nil
}

// Hash is a 32-byte hex-encoded digest.
type Hash [HashLength]byte

func BytesToHash(b []byte) Hash {
	var h Hash
	if len(b) > HashLength {
		b = b[len(b)-HashLength:]
	}
	copy(h[HashLength-len(b):], b)
	return h
}

func HexToHash(s string) Hash { return BytesToHash(fromHex(s)) }

func (h Hash) Bytes() []byte { return h[:] }

func (h Hash) Hex() string { return "0x" + hex.EncodeToString(h[:]) }

func (h Hash) String() string { return h.Hex() }

func (h Hash) IsZero() bool { return h == Hash{} }

// MarshalText and UnmarshalText render Hash as hex in JSON, rather than as
// an array of 32 numbers, and let it serve as a map key (used by the replay
// CLI's snapshot persistence).
func (h Hash) MarshalText() ([]byte, error) { return []byte(h.Hex()), nil }

func (h *Hash) UnmarshalText(text []byte) error {
	*h = HexToHash(string(text))
	return nil
}

// Big returns the hash interpreted as a big-endian unsigned integer, used
// by the PoW target comparison.
func (h Hash) Big() *big.Int { return new(big.Int).SetBytes(h[:]) }

func fromHex(s string) []byte {
	s = strings.TrimPrefix(s, "0x")
	s = strings.TrimPrefix(s, "0X")
	if len(s)%2 == 1 {
		s = "0" + s
	}
	b, err := hex.DecodeString(s)
	if err != nil {
		return nil
	}
	return b
}

// Height is a block height; genesis is height 0.
type Height uint64

// Amount is an arbitrary-precision, always-non-negative integer denominated
// in atomic units. The zero value is the zero amount. No floating point
// ever appears in monetary arithmetic built on top of Amount.
type Amount struct {
	v *big.Int
}

// ZeroAmount returns the additive identity.
func ZeroAmount() Amount { return Amount{v: new(big.Int)} }

// NewAmount builds an Amount from an int64; panics on a negative input
// since a negative amount can never legitimately be constructed in the
// core — callers at the boundary should validate first via coinpolicy.
func NewAmount(v int64) Amount {
	if v < 0 {
		panic(fmt.Sprintf("common: negative amount literal %d", v))
	}
	return Amount{v: big.NewInt(v)}
}

// AmountFromBigInt copies b into a new Amount. b may be negative; callers
// that need validation should run it through coinpolicy.
func AmountFromBigInt(b *big.Int) Amount {
	if b == nil {
		return ZeroAmount()
	}
	return Amount{v: new(big.Int).Set(b)}
}

// AmountFromString parses a base-10 decimal string (the wire encoding).
func AmountFromString(s string) (Amount, error) {
	b, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return Amount{}, fmt.Errorf("common: invalid decimal amount %q", s)
	}
	return Amount{v: b}, nil
}

func (a Amount) Int() *big.Int {
	if a.v == nil {
		return new(big.Int)
	}
	return new(big.Int).Set(a.v)
}

func (a Amount) String() string {
	if a.v == nil {
		return "0"
	}
	return a.v.String()
}

func (a Amount) Sign() int {
	if a.v == nil {
		return 0
	}
	return a.v.Sign()
}

func (a Amount) IsZero() bool { return a.Sign() == 0 }

func (a Amount) Add(b Amount) Amount {
	return Amount{v: new(big.Int).Add(a.Int(), b.Int())}
}

func (a Amount) Sub(b Amount) Amount {
	return Amount{v: new(big.Int).Sub(a.Int(), b.Int())}
}

func (a Amount) Mul(b Amount) Amount {
	return Amount{v: new(big.Int).Mul(a.Int(), b.Int())}
}

func (a Amount) MulInt64(n int64) Amount {
	return Amount{v: new(big.Int).Mul(a.Int(), big.NewInt(n))}
}

// QuoRem returns (a/b, a%b) using Euclidean truncating division, mirroring
// big.Int.QuoRem semantics used by coinpolicy.Quantize.
func (a Amount) QuoRem(b Amount) (Amount, Amount) {
	q, r := new(big.Int), new(big.Int)
	q.QuoRem(a.Int(), b.Int(), r)
	return Amount{v: q}, Amount{v: r}
}

func (a Amount) Cmp(b Amount) int { return a.Int().Cmp(b.Int()) }

func (a Amount) LessThan(b Amount) bool    { return a.Cmp(b) < 0 }
func (a Amount) GreaterThan(b Amount) bool { return a.Cmp(b) > 0 }
func (a Amount) Equal(b Amount) bool       { return a.Cmp(b) == 0 }

// MarshalJSON encodes the amount as a decimal-string JSON number per the
// canonical wire format (§6): amounts are never raw JSON numbers, since
// those are float64-bounded in most JSON decoders.
func (a Amount) MarshalJSON() ([]byte, error) {
	return []byte(`"` + a.String() + `"`), nil
}

func (a *Amount) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	if s == "" || s == "null" {
		*a = ZeroAmount()
		return nil
	}
	parsed, err := AmountFromString(s)
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}
