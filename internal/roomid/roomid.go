// Package roomid turns room display names into URL-safe room identifiers.
package roomid

import (
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// MaxLength caps the slug length in runes, suffix excluded
const MaxLength = 64

const (
	suffixMin = 1000
	suffixMax = 9999
)

// ErrEmptyRoomID is returned when a name has no usable characters
var ErrEmptyRoomID = errors.New("room name has no usable characters")

// FormatStringToRoomID normalizes a display name into a slug:
// accents stripped, lowercased, runs of anything but [a-z0-9] collapsed to "-".
func FormatStringToRoomID(name string) (string, error) {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, name)
	if err != nil {
		return "", fmt.Errorf("normalize room name: %w", err)
	}

	var b strings.Builder
	n := 0
	dash := false
	for _, r := range strings.ToLower(folded) {
		if n >= MaxLength {
			break
		}
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			if dash && b.Len() > 0 {
				b.WriteByte('-')
				n++
				if n >= MaxLength {
					break
				}
			}
			dash = false
			b.WriteRune(r)
			n++
			continue
		}
		dash = true
	}

	slug := strings.Trim(b.String(), "-")
	if slug == "" {
		return "", ErrEmptyRoomID
	}
	return slug, nil
}

// AppendRandomSuffix returns id with a random 4-digit suffix, e.g. "sprint-12-4821"
func AppendRandomSuffix(id string) (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(suffixMax-suffixMin+1))
	if err != nil {
		return "", fmt.Errorf("generate room suffix: %w", err)
	}
	return fmt.Sprintf("%s-%d", id, n.Int64()+suffixMin), nil
}
