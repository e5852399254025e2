package chat

import (
	"fmt"
	"strings"

	nanoid "github.com/jaevor/go-nanoid"
)

const (
	// DefaultCodeLength is the number of characters in a room code.
	DefaultCodeLength = 6
	// CodeAlphabet lists the characters a room code is drawn from.
	CodeAlphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"
)

// NewCodeGenerator returns a generator of random room codes of the given
// length drawn from CodeAlphabet.
func NewCodeGenerator(length int) (func() string, error) {
	gen, err := nanoid.CustomASCII(CodeAlphabet, length)
	if err != nil {
		return nil, fmt.Errorf("room code generator (length %d): %w", length, err)
	}
	return gen, nil
}

// NormalizeCode trims and upper-cases a client supplied room code.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
