// Package phone implements the reversible split of an 11-digit phone
// number into the (prefix, suffix) pair used to address the database's
// shard arrays.
//
// This mirrors the original implementation's DefaultHash<std::string>
// specialization: a phone number is validated for length, then sliced
// into two decimal substrings which are parsed as integers.
package phone

import (
	"fmt"
	"strconv"

	"phonebook/models"
)

// Hasher splits 11-digit phone numbers into (prefix, suffix) pairs
// according to a fixed (LEx, LIn) digit split.
type Hasher struct {
	LEx int
	LIn int
}

// NewHasher builds a Hasher for the given digit split. The caller is
// responsible for having validated LEx+LIn == 10 (config.Validate does
// this at startup); NewHasher itself does not re-check it so that it can
// be used in tests with deliberately invalid splits.
func NewHasher(lEx, lIn int) Hasher {
	return Hasher{LEx: lEx, LIn: lIn}
}

// Hash splits number into (prefix, suffix). number must be exactly 11
// characters, all decimal digits; otherwise it fails with
// models.KindBadKey. The leading digit is skipped and not checked.
func (h Hasher) Hash(number string) (prefix, suffix int, err error) {
	if len(number) != 11 {
		return 0, 0, models.NewError(models.KindBadKey,
			"phone number %q has length %d, want 11", number, len(number))
	}
	for _, c := range number {
		if c < '0' || c > '9' {
			return 0, 0, models.NewError(models.KindBadKey,
				"phone number %q contains a non-digit character", number)
		}
	}

	prefixStart := 1
	prefixEnd := 1 + h.LEx
	suffixEnd := prefixEnd + h.LIn

	p, err := strconv.Atoi(number[prefixStart:prefixEnd])
	if err != nil {
		return 0, 0, models.NewError(models.KindBadKey, "phone number %q: bad prefix: %v", number, err)
	}
	s, err := strconv.Atoi(number[prefixEnd:suffixEnd])
	if err != nil {
		return 0, 0, models.NewError(models.KindBadKey, "phone number %q: bad suffix: %v", number, err)
	}
	return p, s, nil
}

// Unhash reverses Hash: it zero-pads prefix to LEx digits and suffix to
// LIn digits and prepends "8", producing an 11-character number such
// that Hash(Unhash(p, s)) == (p, s).
func (h Hasher) Unhash(prefix, suffix int) string {
	format := "8%0" + strconv.Itoa(h.LEx) + "d%0" + strconv.Itoa(h.LIn) + "d"
	return fmt.Sprintf(format, prefix, suffix)
}
