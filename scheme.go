package mcver

import (
	"fmt"
	"strings"
)

// Scheme converts versions between the classic and drop naming conventions.
type Scheme interface {
	// Name is the identifier LookupScheme accepts.
	Name() string

	// ToClassic returns the classic form of v. Drop versions without a
	// classic equivalent are returned in their drop form.
	ToClassic(v Version) string

	// ToDrop returns the drop form of v. It fails with ErrUnmappedVersion if
	// a classic version has no drop equivalent.
	ToDrop(v Version) (string, error)
}

var (
	// Historical follows the release history as published.
	Historical Scheme = historical{}

	// CustomAlias is Historical with 1.22 as an alias for 1.21.11 and later.
	CustomAlias Scheme = customAlias{base: historical{}}
)

var schemes = []Scheme{Historical, CustomAlias}

var schemeAliases = map[string]Scheme{
	"historical": Historical,
	"mojang":     Historical,
	"custom":     CustomAlias,
	"croa":       CustomAlias,
}

// Schemes returns the available schemes.
func Schemes() []Scheme {
	return append([]Scheme(nil), schemes...)
}

// LookupScheme finds a scheme by name (case-insensitive).
func LookupScheme(name string) (Scheme, error) {
	if s, ok := schemeAliases[strings.ToLower(strings.TrimSpace(name))]; ok {
		return s, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownScheme, name)
}

// ToClassic parses text and converts it with s.
func ToClassic(s Scheme, text string) (string, error) {
	v, err := Parse(text)
	if err != nil {
		return "", err
	}
	return s.ToClassic(v), nil
}

// ToDrop parses text and converts it with s.
func ToDrop(s Scheme, text string) (string, error) {
	v, err := Parse(text)
	if err != nil {
		return "", err
	}
	return s.ToDrop(v)
}

type historical struct{}

func (historical) Name() string {
	return "historical"
}

func (historical) ToClassic(v Version) string {
	if v.Classic {
		return classicString(v.Minor, v.Patch)
	}

	year := v.Major
	if year >= 11 && year <= 25 {
		if minor, patch, ok := dropCell(year, v.Minor, v.Patch); ok {
			return classicString(minor, patch)
		}
	}

	if year >= 26 {
		if minor, ok := continuationMinor(21, year, v.Minor); ok {
			return joinVersion(1, minor, v.Patch, v.Patch > 0)
		}
	}

	return dropString(v.Major, v.Minor, v.Patch)
}

func (historical) ToDrop(v Version) (string, error) {
	if !v.Classic {
		return dropString(v.Major, v.Minor, v.Patch), nil
	}

	c, ok := classicCell(v.Minor, v.Patch)
	if !ok {
		return "", fmt.Errorf("%w for %s", ErrUnmappedVersion, joinVersion(1, v.Minor, v.Patch, true))
	}

	hotfix, ok := addInt(v.Patch, -c.Baseline)
	if !ok || hotfix < 0 {
		hotfix = 0
	}
	return dropString(c.Year, c.Drop, hotfix), nil
}

type customAlias struct {
	base historical
}

// aliasMinor is the classic line aliased onto 1.21.aliasBaseline and later
// (i.e., drop 25.4).
const (
	aliasMinor    = 22
	aliasBaseline = 11
)

func (customAlias) Name() string {
	return "custom"
}

func (c customAlias) ToClassic(v Version) string {
	if v.Classic {
		if v.Minor == 21 && v.Patch >= aliasBaseline {
			p := v.Patch - aliasBaseline
			return joinVersion(1, aliasMinor, p, p > 0)
		}
		return c.base.ToClassic(v)
	}

	year, drop, hotfix := v.Major, v.Minor, v.Patch
	switch {
	case year == 25 && drop == 4:
		return joinVersion(1, aliasMinor, hotfix, hotfix > 0)
	case year >= 11 && year <= 25:
		return c.base.ToClassic(v)
	case year >= 26:
		if minor, ok := continuationMinor(aliasMinor, year, drop); ok {
			return joinVersion(1, minor, hotfix, hotfix > 0)
		}
	}
	return dropString(year, drop, hotfix)
}

func (c customAlias) ToDrop(v Version) (string, error) {
	if v.Classic && v.Minor == aliasMinor {
		p, ok := addInt(aliasBaseline, v.Patch)
		if !ok {
			return "", fmt.Errorf("%w for %s", ErrUnmappedVersion, joinVersion(1, v.Minor, v.Patch, true))
		}
		v = Version{Classic: true, Major: 1, Minor: 21, Patch: p}
	}
	return c.base.ToDrop(v)
}

// continuationMinor numbers the classic lines from 26.1 on, which follow the
// last table line one drop at a time and one year at a time. The bool is false
// if the minor doesn't fit in an int.
func continuationMinor(last, year, drop int) (int, bool) {
	n, ok := addInt(last, year-26)
	if !ok {
		return 0, false
	}
	return addInt(n, drop)
}

// addInt adds a and b, reporting false on overflow.
func addInt(a, b int) (int, bool) {
	c := a + b
	if (b > 0 && c < a) || (b < 0 && c > a) {
		return 0, false
	}
	return c, true
}

// classicString renders 1.minor[.patch]. The 1.0 line always shows its patch.
func classicString(minor, patch int) string {
	return joinVersion(1, minor, patch, patch > 0 || minor == 0)
}

func dropString(year, drop, hotfix int) string {
	return joinVersion(year, drop, hotfix, hotfix > 0)
}
