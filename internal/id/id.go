// Package id generates the account and client identifiers handed out by the
// table service.
package id

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"io"

	"github.com/coder/quartz"
)

// Length of a canonical identifier, e.g. 0190a4b2-7c3e-7d41-8f2a-1b2c3d4e5f60.
const Length = 36

// Generator produces UUIDv7 identifiers.
type Generator struct {
	clock quartz.Clock
	rand  io.Reader
}

// NewGenerator creates a generator. A nil clock uses the real clock and a nil
// reader uses crypto/rand.
func NewGenerator(clock quartz.Clock, random io.Reader) *Generator {
	if clock == nil {
		clock = quartz.NewReal()
	}
	if random == nil {
		random = rand.Reader
	}
	return &Generator{clock: clock, rand: random}
}

// New returns a fresh identifier using the real clock and crypto/rand.
func New() string {
	return NewGenerator(nil, nil).New()
}

// New returns a fresh identifier.
func (g *Generator) New() string {
	return format(g.uuid())
}

// uuid builds a 128-bit UUIDv7:
// 48-bit unix millisecond timestamp, 4-bit version, 12 random bits,
// 2-bit variant, 62 random bits.
func (g *Generator) uuid() [16]byte {
	var u [16]byte
	now := g.clock.Now().UnixMilli()
	u[0] = byte(now >> 40)
	u[1] = byte(now >> 32)
	u[2] = byte(now >> 24)
	u[3] = byte(now >> 16)
	u[4] = byte(now >> 8)
	u[5] = byte(now)

	if _, err := io.ReadFull(g.rand, u[6:]); err != nil {
		panic("id: failed to read random bytes: " + err.Error())
	}

	u[6] = (u[6] & 0x0f) | 0x70
	u[8] = (u[8] & 0x3f) | 0x80
	return u
}

func format(u [16]byte) string {
	var buf [Length]byte
	hex.Encode(buf[0:8], u[0:4])
	buf[8] = '-'
	hex.Encode(buf[9:13], u[4:6])
	buf[13] = '-'
	hex.Encode(buf[14:18], u[6:8])
	buf[18] = '-'
	hex.Encode(buf[19:23], u[8:10])
	buf[23] = '-'
	hex.Encode(buf[24:], u[10:])
	return string(buf[:])
}

// Validate checks that s is a canonical lowercase UUID.
func Validate(s string) error {
	if len(s) != Length {
		return fmt.Errorf("id must be exactly %d characters, got %d", Length, len(s))
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch i {
		case 8, 13, 18, 23:
			if c != '-' {
				return fmt.Errorf("expected '-' at position %d, got %c", i, c)
			}
		default:
			if !('0' <= c && c <= '9' || 'a' <= c && c <= 'f') {
				return fmt.Errorf("invalid character %c at position %d", c, i)
			}
		}
	}
	return nil
}

// Valid reports whether s is a canonical identifier.
func Valid(s string) bool {
	return Validate(s) == nil
}

// Absent reports whether a client-supplied id should be treated as missing.
// Browsers send the literal strings "undefined" and "null" for unset values.
func Absent(s string) bool {
	return s == "" || s == "undefined" || s == "null"
}
