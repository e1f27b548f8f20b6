package respcache

import (
	"strconv"
	"strings"
)

// Directives is the parsed form of a Cache-Control header (spec §6.5).
type Directives struct {
	NoStore         bool
	NoCache         bool
	Private         bool
	Public          bool
	MaxAge          int
	MaxAgeSet       bool
	SMaxAge         int
	SMaxAgeSet      bool
	MustRevalidate  bool
	Immutable       bool
}

// ParseCacheControl splits a raw Cache-Control header value into its
// directives, per spec §6.5's grammar (comma-separated tokens, optional
// `=value`, case-insensitive names). Unknown directives are ignored.
func ParseCacheControl(header string) Directives {
	var d Directives
	for _, part := range strings.Split(header, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		name, value, hasValue := strings.Cut(part, "=")
		name = strings.ToLower(strings.TrimSpace(name))
		value = strings.Trim(strings.TrimSpace(value), `"`)

		switch name {
		case "no-store":
			d.NoStore = true
		case "no-cache":
			d.NoCache = true
		case "private":
			d.Private = true
		case "public":
			d.Public = true
		case "must-revalidate":
			d.MustRevalidate = true
		case "immutable":
			d.Immutable = true
		case "max-age":
			if hasValue {
				if n, err := strconv.Atoi(value); err == nil {
					d.MaxAge = n
					d.MaxAgeSet = true
				}
			}
		case "s-maxage":
			if hasValue {
				if n, err := strconv.Atoi(value); err == nil {
					d.SMaxAge = n
					d.SMaxAgeSet = true
				}
			}
		}
	}
	return d
}

// Cacheable reports whether a response may be stored at all, given the
// parsed directives and whether the cache is configured to honor `private`.
// `private` is NOT honored by default, since the bundled stores are
// process-local; honorPrivate=true refuses private responses, for a store
// shared across users.
func (d Directives) Cacheable(honorPrivate bool) bool {
	if d.NoStore {
		return false
	}
	if d.Private && honorPrivate {
		return false
	}
	return true
}

// FreshnessWindow returns the effective max-age in seconds, preferring
// s-maxage per RFC 9111 §5.2.2.9 when present.
func (d Directives) FreshnessWindow() (int, bool) {
	if d.SMaxAgeSet {
		return d.SMaxAge, true
	}
	if d.MaxAgeSet {
		return d.MaxAge, true
	}
	return 0, false
}
