package mcver

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var (
	ErrInvalidFormat   = errors.New("unsupported version format")
	ErrInvalidRange    = errors.New("unsupported version number")
	ErrUnmappedVersion = errors.New("no year-drop mapping defined")
	ErrUnknownScheme   = errors.New("unknown version scheme")
)

// Family is the naming convention a Version was written in.
type Family int

const (
	DropFamily Family = iota
	ClassicFamily
)

func (f Family) String() string {
	if f == ClassicFamily {
		return "classic"
	}
	return "drop"
}

// Version is a parsed version number. Classic versions always have a Major of
// 1, drop versions store the two-digit year in Major and the drop index in
// Minor. A zero Patch is never rendered.
type Version struct {
	Classic bool
	Major   int
	Minor   int
	Patch   int
}

var versionRe = regexp.MustCompile(`^([0-9]+)\.([0-9]+)(?:\.([0-9]+))?$`)

// Parse parses a classic (1.x[.y]) or drop (year.drop[.hotfix]) version. It
// only checks the structure, not whether the version was ever released.
func Parse(text string) (Version, error) {
	m := versionRe.FindStringSubmatch(strings.TrimSpace(text))
	if m == nil {
		return Version{}, fmt.Errorf("%w: %q", ErrInvalidFormat, text)
	}

	var c [3]int
	for i := range c {
		if m[i+1] == "" {
			continue
		}
		n, err := strconv.Atoi(m[i+1])
		if err != nil {
			// only reachable for components which overflow an int
			return Version{}, fmt.Errorf("%w: %q: %v", ErrInvalidFormat, text, err)
		}
		c[i] = n
	}

	switch {
	case c[0] == 1:
		return Version{Classic: true, Major: 1, Minor: c[1], Patch: c[2]}, nil
	case c[0] >= 11 && c[0] <= 99:
		return Version{Classic: false, Major: c[0], Minor: c[1], Patch: c[2]}, nil
	default:
		return Version{}, fmt.Errorf("%w: %q", ErrInvalidRange, text)
	}
}

// MustParse is like Parse, but panics on error. It is intended for constants
// and tests.
func MustParse(text string) Version {
	v, err := Parse(text)
	if err != nil {
		panic(fmt.Sprintf("MustParse: %v", err))
	}
	return v
}

// String returns the plain dotted form without any translation.
func (v Version) String() string {
	return joinVersion(v.Major, v.Minor, v.Patch, v.Patch != 0)
}

func (v Version) Family() Family {
	if v.Classic {
		return ClassicFamily
	}
	return DropFamily
}

// Describe returns the plain form labelled with the family, e.g. "drop 25.4".
func (v Version) Describe() string {
	return v.Family().String() + " " + v.String()
}

func (v Version) MarshalText() ([]byte, error) {
	return []byte(v.String()), nil
}

func (v *Version) UnmarshalText(b []byte) error {
	x, err := Parse(string(b))
	if err != nil {
		return err
	}
	*v = x
	return nil
}

func joinVersion(a, b, c int, withC bool) string {
	s := strconv.Itoa(a) + "." + strconv.Itoa(b)
	if withC {
		s += "." + strconv.Itoa(c)
	}
	return s
}
