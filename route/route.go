package route

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/pkg/errors"
)

// Suffix is the directional suffix of a route identifier. WSDOT reuses a base
// route code for the mainline and for increasing/decreasing ramps, so the
// suffix is part of route identity.
type Suffix int

const (
	SuffixNone Suffix = iota
	SuffixIncreasing
	SuffixDecreasing
)

func (s Suffix) String() string {
	switch s {
	case SuffixIncreasing:
		return "i"
	case SuffixDecreasing:
		return "d"
	}
	return ""
}

// ID is a canonical route identifier: an upper-case base code plus an
// optional directional suffix.
type ID struct {
	Base   string
	Suffix Suffix
}

func (id ID) String() string {
	return id.Base + id.Suffix.String()
}

// SuffixMask controls how strict suffix comparison is when two route IDs are
// matched. Every mask matches unsuffixed IDs against unsuffixed IDs; the
// stricter masks additionally require equal suffixes from the allowed set,
// while MaskAll ignores suffixes entirely.
type SuffixMask int

const (
	// MaskNone matches only unsuffixed IDs against unsuffixed IDs.
	MaskNone SuffixMask = iota
	// MaskIncreasing additionally matches equal "i" suffixes.
	MaskIncreasing
	// MaskDecreasing additionally matches equal "d" suffixes.
	MaskDecreasing
	// MaskAll treats the suffix as a wildcard, only bases are compared.
	MaskAll
)

func (m SuffixMask) String() string {
	switch m {
	case MaskNone:
		return "none"
	case MaskIncreasing:
		return "i"
	case MaskDecreasing:
		return "d"
	case MaskAll:
		return "all"
	}
	return fmt.Sprintf("[!UNKNOWN SuffixMask %d]", int(m))
}

// MaskFromString parses the textual mask names used in config files and on
// the CLI.
func MaskFromString(s string) (SuffixMask, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "none":
		return MaskNone, nil
	case "i":
		return MaskIncreasing, nil
	case "d":
		return MaskDecreasing, nil
	case "all":
		return MaskAll, nil
	}
	return MaskNone, errors.Errorf("unknown suffix mask %q (expected one of: none, i, d, all)", s)
}

func (m SuffixMask) allows(s Suffix) bool {
	switch m {
	case MaskNone:
		return s == SuffixNone
	case MaskIncreasing:
		return s == SuffixNone || s == SuffixIncreasing
	case MaskDecreasing:
		return s == SuffixNone || s == SuffixDecreasing
	case MaskAll:
		return true
	}
	return false
}

// InvalidIDError marks route identifier text that cannot be parsed.
type InvalidIDError struct {
	Raw string
}

func (e *InvalidIDError) Error() string {
	return fmt.Sprintf("invalid route ID %q", e.Raw)
}

// UnknownDirectionError marks direction text that maps to neither the
// increasing nor the decreasing suffix.
type UnknownDirectionError struct {
	Direction string
}

func (e *UnknownDirectionError) Error() string {
	return fmt.Sprintf("unknown direction %q", e.Direction)
}

// Parse normalizes raw route identifier text into an ID. Whitespace is
// stripped, the base is upper-cased and a trailing "i"/"d" (any case) becomes
// the directional suffix. Parsing only fails when the remaining base is
// empty.
func Parse(raw string) (ID, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return ID{}, &InvalidIDError{Raw: raw}
	}

	suffix := SuffixNone
	switch trimmed[len(trimmed)-1] {
	case 'i', 'I':
		suffix = SuffixIncreasing
	case 'd', 'D':
		suffix = SuffixDecreasing
	}
	if suffix != SuffixNone {
		trimmed = trimmed[:len(trimmed)-1]
	}

	base := strings.ToUpper(trimmed)
	if base == "" {
		return ID{}, &InvalidIDError{Raw: raw}
	}

	return ID{Base: base, Suffix: suffix}, nil
}

// Matches reports whether two route IDs identify the same route under the
// given mask. Bases are compared case-insensitively and exactly, there is no
// fuzzy matching.
func Matches(a ID, b ID, mask SuffixMask) bool {
	if !strings.EqualFold(a.Base, b.Base) {
		return false
	}
	if mask == MaskAll {
		return true
	}
	return a.Suffix == b.Suffix && mask.allows(a.Suffix)
}

// Combine builds an ID from separate route-code and direction columns. The
// base must be a standardizable route code. Direction text starting with "d"
// maps to the decreasing suffix, text starting with "i" (or blank text) to
// the increasing one. Any other direction text yields an ID with no suffix
// plus an UnknownDirectionError so that callers can decide how strict to be.
func Combine(base string, direction string) (ID, error) {
	code, err := Standardize(base, MaskNone)
	if err != nil {
		return ID{}, err
	}

	id := ID{Base: code}
	dir := strings.TrimSpace(direction)
	switch {
	case dir == "" || dir[0] == 'i' || dir[0] == 'I':
		id.Suffix = SuffixIncreasing
	case dir[0] == 'd' || dir[0] == 'D':
		id.Suffix = SuffixDecreasing
	default:
		return id, &UnknownDirectionError{Direction: direction}
	}
	return id, nil
}

// routeIDPattern matches a WSDOT route identifier: a 3-digit state route
// number, an optional related-route type (RRT) with its up to 6 character
// qualifier (RRQ) and an optional direction suffix.
var routeIDPattern = regexp.MustCompile(`^(\d{3}((?:AR|CO|F[ST]|PR|RL|SP|TB|TR|LX|[CFH][DI]|[PQRS][1-9]|UC)[A-Z0-9]{0,6})?)([id]?)$`)

// routeLabelPattern matches label formats such as "I-5", "US-101", "WA-8" or
// "SR 8". The numeric part is captured.
var routeLabelPattern = regexp.MustCompile(`^[A-Z]+[-\s](\d{0,3})$`)

// Standardize converts route identifier text from an event table into the
// canonical string format used by a route layer with the given suffix
// policy. Unsuffixed output (MaskNone) strips any direction suffix; all other
// policies keep a parsed suffix and default to "i" when there is none. Label
// formats like "I-5" are padded to the three-digit route code.
func Standardize(raw string, policy SuffixMask) (string, error) {
	trimmed := strings.TrimSpace(raw)

	if match := routeIDPattern.FindStringSubmatch(trimmed); match != nil {
		unsuffixed := match[1]
		direction := match[3]
		if policy == MaskNone {
			return unsuffixed, nil
		}
		if direction != "" {
			return unsuffixed + direction, nil
		}
		return unsuffixed + "i", nil
	}

	match := routeLabelPattern.FindStringSubmatch(strings.ToUpper(trimmed))
	if match == nil {
		return "", &InvalidIDError{Raw: raw}
	}

	unsuffixed := match[1]
	for len(unsuffixed) < 3 {
		unsuffixed = "0" + unsuffixed
	}
	if policy == MaskIncreasing || policy == MaskAll {
		return unsuffixed + "i", nil
	}
	return unsuffixed, nil
}
