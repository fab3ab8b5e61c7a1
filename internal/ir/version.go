package ir

import (
	"fmt"
	"math/big"
)

// Version is an arbitrary-precision schema version number.
//
// The zero value is version 0. Version is an immutable value type: every
// arithmetic method returns a new Version and never modifies the receiver.
type Version struct {
	n *big.Int
}

// NewVersion creates a Version from a machine integer.
func NewVersion(n int64) Version {
	return Version{n: big.NewInt(n)}
}

// VersionFromBig creates a Version from a big.Int. The value is copied.
func VersionFromBig(b *big.Int) Version {
	if b == nil {
		return Version{}
	}
	return Version{n: new(big.Int).Set(b)}
}

// ParseVersion parses a base-10 version number.
func ParseVersion(s string) (Version, error) {
	n, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return Version{}, fmt.Errorf("invalid version %q", s)
	}
	return Version{n: n}, nil
}

func (v Version) int() *big.Int {
	if v.n == nil {
		return new(big.Int)
	}
	return v.n
}

// Big returns a copy of the version as a big.Int.
func (v Version) Big() *big.Int {
	return new(big.Int).Set(v.int())
}

// Cmp compares v and o, returning -1, 0 or +1.
func (v Version) Cmp(o Version) int {
	return v.int().Cmp(o.int())
}

// Equal reports whether v and o denote the same version.
func (v Version) Equal(o Version) bool {
	return v.Cmp(o) == 0
}

// Add returns v + delta.
func (v Version) Add(delta int64) Version {
	return Version{n: new(big.Int).Add(v.int(), big.NewInt(delta))}
}

// Int64 returns the version as an int64 and whether it fits.
func (v Version) Int64() (int64, bool) {
	n := v.int()
	if !n.IsInt64() {
		return 0, false
	}
	return n.Int64(), true
}

// String returns the base-10 representation.
func (v Version) String() string {
	return v.int().String()
}

// MarshalText implements encoding.TextMarshaler.
func (v Version) MarshalText() ([]byte, error) {
	return []byte(v.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (v *Version) UnmarshalText(text []byte) error {
	parsed, err := ParseVersion(string(text))
	if err != nil {
		return err
	}
	*v = parsed
	return nil
}
