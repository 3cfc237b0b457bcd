package router

import (
	"regexp"
	"strconv"

	"github.com/google/uuid"
)

var slugRe = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)

// Int matches base-10 signed integers that fit in 64 bits.
func Int(value string) bool {
	_, err := strconv.ParseInt(value, 10, 64)
	return err == nil
}

// UUID matches canonical hyphenated UUIDs. The braced, urn and unhyphenated
// forms uuid.Parse also accepts are rejected.
func UUID(value string) bool {
	if len(value) != 36 {
		return false
	}
	_, err := uuid.Parse(value)
	return err == nil
}

// Slug matches lowercase words joined by single hyphens.
func Slug(value string) bool {
	return slugRe.MatchString(value)
}

// Builtin returns the matchers shipped with the router, keyed by type name.
// Application param files with the same name take precedence when loaded
// after these.
func Builtin() map[string]Matcher {
	return map[string]Matcher{
		"int":  Int,
		"uuid": UUID,
		"slug": Slug,
	}
}
