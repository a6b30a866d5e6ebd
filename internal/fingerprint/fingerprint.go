// Package fingerprint computes perceptual fingerprints for images and
// measures how far apart two fingerprints are.
//
// A fingerprint is a DCT-based perceptual hash rendered as a fixed-width
// hexadecimal string: hash side length N yields N*N bits, so the default
// 16 gives 256 bits and 64 hex digits. Perceptual hashes survive rescaling
// and recompression, unlike byte hashes.
package fingerprint

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"math/bits"

	"github.com/corona10/goimagehash"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"
)

// MismatchDistance is returned when two fingerprints cannot be compared
// (different lengths or undecodable content). It is far above any sensible
// similarity threshold, so mismatched pairs never cluster together.
const MismatchDistance = 999

// DefaultHashSize is the perceptual hash side length: 16x16 = 256 bits.
const DefaultHashSize = 16

// FromImage decodes raw image bytes and computes a perceptual fingerprint
// with the given hash side length.
func FromImage(data []byte, hashSize int) (string, error) {
	if hashSize <= 0 {
		hashSize = DefaultHashSize
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("failed to decode image: %w", err)
	}

	hash, err := goimagehash.ExtPerceptionHash(img, hashSize, hashSize)
	if err != nil {
		return "", fmt.Errorf("failed to compute perceptual hash: %w", err)
	}

	var buf bytes.Buffer
	for _, word := range hash.GetHash() {
		fmt.Fprintf(&buf, "%016x", word)
	}
	return buf.String(), nil
}

// HammingDistance counts the differing bit positions between two hex-encoded
// fingerprints. Comparison is exact at the bit level: two hex digits that
// differ can be anywhere from 1 to 4 bits apart. Fingerprints of unequal
// length, or containing non-hex characters, yield MismatchDistance instead
// of an error.
func HammingDistance(fp1, fp2 string) int {
	if len(fp1) != len(fp2) {
		return MismatchDistance
	}

	distance := 0
	for i := 0; i < len(fp1); i++ {
		n1, ok1 := hexNibble(fp1[i])
		n2, ok2 := hexNibble(fp2[i])
		if !ok1 || !ok2 {
			return MismatchDistance
		}
		distance += bits.OnesCount8(n1 ^ n2)
	}
	return distance
}

// Similar returns true if two fingerprints are within the given threshold.
func Similar(fp1, fp2 string, threshold int) bool {
	return HammingDistance(fp1, fp2) <= threshold
}

func hexNibble(c byte) (uint8, bool) {
	switch {
	case c >= '0' && c <= '9':
		return c - '0', true
	case c >= 'a' && c <= 'f':
		return c - 'a' + 10, true
	case c >= 'A' && c <= 'F':
		return c - 'A' + 10, true
	}
	return 0, false
}
