package routepath

import (
	"path"
	"regexp"
	"strings"
)

// Marker file names. A route file is a Go file whose base name, without the
// .go extension, is one of these.
var markerNames = map[string]bool{
	"endpoint": true,
	"route":    true,
}

var (
	typedRe    = regexp.MustCompile(`^\[([\w.~-]+?)=([a-zA-Z]+?)\]$`)
	optionalRe = regexp.MustCompile(`^\[\[([\w.~-]+?)\]\]$`)
	restRe     = regexp.MustCompile(`^\[\.\.\.([\w.~-]+?)\]$`)
)

// IsMarker reports whether name (a file base name) marks a route file.
func IsMarker(name string) bool {
	if path.Ext(name) != ".go" {
		return false
	}
	return markerNames[strings.TrimSuffix(name, ".go")]
}

// Compile converts a path relative to the routes root into a pattern string.
//
// The rules run in a fixed order and each segment is rewritten by the first
// rule that applies:
//
//	[name=type] → :name=type
//	[[name]]    → :name?
//	[...name]   → *name
//	[name]      → :name
//
// A trailing marker file is dropped; directories named like a marker are
// kept. An empty result is the root pattern "/".
func Compile(relPath string) string {
	relPath = strings.ReplaceAll(relPath, "\\", "/")

	segs := strings.Split(relPath, "/")
	if last := len(segs) - 1; IsMarker(segs[last]) {
		segs = segs[:last]
	}

	var out []string
	for _, seg := range segs {
		if seg == "" || seg == "." {
			continue
		}
		out = append(out, compileSegment(seg))
	}

	if len(out) == 0 {
		return "/"
	}
	return "/" + strings.Join(out, "/")
}

func compileSegment(seg string) string {
	if m := typedRe.FindStringSubmatch(seg); m != nil {
		return ":" + m[1] + "=" + m[2]
	}
	if m := optionalRe.FindStringSubmatch(seg); m != nil {
		return ":" + m[1] + "?"
	}
	if m := restRe.FindStringSubmatch(seg); m != nil {
		return "*" + m[1]
	}
	seg = strings.ReplaceAll(seg, "[", ":")
	return strings.ReplaceAll(seg, "]", "")
}

var safeRe = regexp.MustCompile(`[:*]([\w.~-]+)`)

// SafeDir rewrites parameter markers in a pattern so the result can be used as
// a directory path: "/blog/:slug" becomes "blog/_slug_" and "/files/*path"
// becomes "files/_path_". The root pattern maps to "".
func SafeDir(pattern string) string {
	p := strings.TrimPrefix(pattern, "/")
	p = strings.ReplaceAll(p, "?", "")
	return safeRe.ReplaceAllString(p, "_${1}_")
}
