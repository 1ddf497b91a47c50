package store

import (
	"crypto/rand"
	"fmt"

	"github.com/google/uuid"
)

// Generator produces upload identifiers.
type Generator func() string

// urlAlphabet is the 64-symbol URL-safe alphabet used by nanoid.
const urlAlphabet = "useandom-26T198340PX75pxJACKVERYMINDBUSHWOLF_GQZbfghjklqvwyzrict"

// NanoID returns a Generator producing URL-safe ids of the given length.
func NanoID(length int) Generator {
	return func() string {
		buf := make([]byte, length)
		if _, err := rand.Read(buf); err != nil {
			panic("store: crypto/rand failed: " + err.Error())
		}
		for i := range buf {
			buf[i] = urlAlphabet[buf[i]&63]
		}
		return string(buf)
	}
}

// UUIDv7 returns a Generator producing time-ordered RFC 9562 UUIDs.
func UUIDv7() Generator {
	return func() string {
		return uuid.Must(uuid.NewV7()).String()
	}
}

// Id formats accepted by GeneratorFor.
const (
	FormatNanoID = "nanoid"
	FormatUUIDv7 = "uuidv7"
)

// GeneratorFor returns the Generator for a configured id format. length only
// applies to nanoid; an empty format means nanoid.
func GeneratorFor(format string, length int) (Generator, error) {
	switch format {
	case "", FormatNanoID:
		if length < 1 || length > 64 {
			return nil, fmt.Errorf("nanoid length %d must be between 1 and 64", length)
		}
		return NanoID(length), nil
	case FormatUUIDv7:
		return UUIDv7(), nil
	default:
		return nil, fmt.Errorf("unknown id format %q", format)
	}
}

// DefaultGenerator matches the short ids handed out to browser clients.
var DefaultGenerator = NanoID(8)
