// Package shareid generates short public tokens that key share records.
package shareid

import (
	gonanoid "github.com/matoous/go-nanoid/v2"
)

// Alphabet excludes look-alike characters (0/O, 1/l/I, o/i).
const Alphabet = "ABCDEFGHJKLMNPQRSTUVWXYZabcdefghjkmnpqrstuvwxyz23456789"

// Length of a generated identifier.
const Length = 6

var generate = gonanoid.Generate

// New returns a random identifier. Uniqueness is not checked: a collision
// overwrites the older share with the same id.
func New() (string, error) {
	return generate(Alphabet, Length)
}
