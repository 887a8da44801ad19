// Package id generates the prefixed identifiers used for bricks, images and links.
package id

import (
	"fmt"
	"strings"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

// Prefixes for each identifier family.
const (
	PrefixBrick = "brick"
	PrefixImage = "img"
	PrefixLink  = "link"
)

// Generate creates a prefixed unique ID using NanoID.
// Format: prefix-nanoid (e.g., "img-V1StGXR8_Z5jdHi6B-myT").
//
// Returns an error if the system has insufficient entropy for secure random generation.
func Generate(prefix string) (string, error) {
	id, err := gonanoid.New()
	if err != nil {
		return "", fmt.Errorf("generate nanoid: %w", err)
	}
	return prefix + "-" + id, nil
}

// MustGenerate is like Generate but panics if ID generation fails.
func MustGenerate(prefix string) string {
	id, err := Generate(prefix)
	if err != nil {
		panic(fmt.Sprintf("failed to generate ID: %v", err))
	}
	return id
}

// NewBrickID returns a fresh brick identifier.
func NewBrickID() (string, error) { return Generate(PrefixBrick) }

// NewImageID returns a fresh blob reference identifier.
func NewImageID() (string, error) { return Generate(PrefixImage) }

// NewLinkID returns a fresh external link identifier.
func NewLinkID() (string, error) { return Generate(PrefixLink) }

// IsImageID reports whether s has the shape of a blob reference.
func IsImageID(s string) bool {
	return strings.HasPrefix(s, PrefixImage+"-")
}
