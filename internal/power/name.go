package power

import (
	"strings"

	"codeberg.org/mutker/tweakctl/internal/errors"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// decodeFriendlyName converts the NUL-terminated UTF-16LE buffer filled by
// PowerReadFriendlyName.
func decodeFriendlyName(buf []byte) (string, error) {
	if len(buf)%2 != 0 {
		buf = buf[:len(buf)-1]
	}

	decoder := unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM).NewDecoder()
	out, _, err := transform.Bytes(decoder, buf)
	if err != nil {
		return "", errors.New().Wrap(ErrInvalidName, err)
	}

	name := string(out)
	if i := strings.IndexRune(name, 0); i >= 0 {
		name = name[:i]
	}

	return strings.TrimSpace(name), nil
}
