package routepath

import (
	"errors"
	"fmt"
	"strings"
)

// SegmentKind identifies how a pattern segment matches. The numeric order is
// the match precedence: lower kinds win when two patterns differ at the same
// position.
type SegmentKind int

const (
	// Static matches its text exactly.
	Static SegmentKind = iota
	// Typed matches one segment accepted by the named matcher.
	Typed
	// Dynamic matches any one segment.
	Dynamic
	// Optional matches zero or one trailing segment.
	Optional
	// Rest matches one or more trailing segments.
	Rest
)

func (k SegmentKind) String() string {
	switch k {
	case Static:
		return "static"
	case Typed:
		return "typed"
	case Dynamic:
		return "dynamic"
	case Optional:
		return "optional"
	case Rest:
		return "rest"
	}
	return fmt.Sprintf("SegmentKind(%d)", int(k))
}

// Segment is one element of a compiled pattern.
type Segment struct {
	Kind SegmentKind

	// Text is the literal for static segments.
	Text string

	// Name is the parameter name for non-static segments.
	Name string

	// Type is the matcher name for typed segments.
	Type string
}

// IsParam reports whether the segment binds a parameter.
func (s Segment) IsParam() bool {
	return s.Kind != Static
}

func (s Segment) String() string {
	switch s.Kind {
	case Typed:
		return ":" + s.Name + "=" + s.Type
	case Dynamic:
		return ":" + s.Name
	case Optional:
		return ":" + s.Name + "?"
	case Rest:
		if s.Name == "*" {
			return "*"
		}
		return "*" + s.Name
	}
	return s.Text
}

// Pattern errors.
var (
	ErrRestNotLast     = errors.New("rest segment must be the last segment")
	ErrOptionalNotLast = errors.New("optional segment must be the last segment")
	ErrDuplicateParam  = errors.New("duplicate parameter name")
	ErrEmptyParam      = errors.New("empty parameter name")
	ErrInvalidSegment  = errors.New("invalid segment")
)

// Pattern is a parsed route pattern.
type Pattern struct {
	Segments []Segment
}

// Parse parses a pattern string such as "/blog/:slug" or "/files/*path".
func Parse(pattern string) (Pattern, error) {
	var p Pattern
	seen := make(map[string]bool)

	raw := strings.Split(strings.Trim(pattern, "/"), "/")
	for i, part := range raw {
		if part == "" {
			continue
		}

		seg, err := parseSegment(part)
		if err != nil {
			return Pattern{}, fmt.Errorf("%s: segment %q: %w", pattern, part, err)
		}

		last := i == len(raw)-1
		if seg.Kind == Rest && !last {
			return Pattern{}, fmt.Errorf("%s: %w", pattern, ErrRestNotLast)
		}
		if seg.Kind == Optional && !last {
			return Pattern{}, fmt.Errorf("%s: %w", pattern, ErrOptionalNotLast)
		}
		if seg.IsParam() {
			if seen[seg.Name] {
				return Pattern{}, fmt.Errorf("%s: %w %q", pattern, ErrDuplicateParam, seg.Name)
			}
			seen[seg.Name] = true
		}

		p.Segments = append(p.Segments, seg)
	}

	return p, nil
}

func parseSegment(part string) (Segment, error) {
	switch part[0] {
	case '*':
		name := part[1:]
		if name == "" {
			name = "*"
		}
		return Segment{Kind: Rest, Name: name}, nil

	case ':':
		body := part[1:]
		if strings.HasSuffix(body, "?") {
			name := strings.TrimSuffix(body, "?")
			if name == "" {
				return Segment{}, ErrEmptyParam
			}
			if strings.Contains(name, "=") {
				return Segment{}, ErrInvalidSegment
			}
			return Segment{Kind: Optional, Name: name}, nil
		}
		if name, typ, ok := strings.Cut(body, "="); ok {
			if name == "" {
				return Segment{}, ErrEmptyParam
			}
			if typ == "" {
				return Segment{}, ErrInvalidSegment
			}
			return Segment{Kind: Typed, Name: name, Type: typ}, nil
		}
		if body == "" {
			return Segment{}, ErrEmptyParam
		}
		return Segment{Kind: Dynamic, Name: body}, nil
	}

	return Segment{Kind: Static, Text: part}, nil
}

// String returns the canonical pattern string.
func (p Pattern) String() string {
	if len(p.Segments) == 0 {
		return "/"
	}
	parts := make([]string, len(p.Segments))
	for i, s := range p.Segments {
		parts[i] = s.String()
	}
	return "/" + strings.Join(parts, "/")
}

// Len returns the number of segments.
func (p Pattern) Len() int {
	return len(p.Segments)
}

// StaticPrefix counts the static segments before the first parameter.
func (p Pattern) StaticPrefix() int {
	n := 0
	for _, s := range p.Segments {
		if s.Kind != Static {
			break
		}
		n++
	}
	return n
}

// Tail returns the kind of the last segment, or Static for the root pattern.
func (p Pattern) Tail() SegmentKind {
	if len(p.Segments) == 0 {
		return Static
	}
	return p.Segments[len(p.Segments)-1].Kind
}

// HasVariableTail reports whether the pattern ends in an optional or rest
// segment, i.e. whether it matches more than one path length.
func (p Pattern) HasVariableTail() bool {
	t := p.Tail()
	return t == Optional || t == Rest
}

// Params lists the parameter names in order.
func (p Pattern) Params() []string {
	var names []string
	for _, s := range p.Segments {
		if s.IsParam() {
			names = append(names, s.Name)
		}
	}
	return names
}

// Shape returns a key that is equal for patterns matching exactly the same
// set of paths regardless of parameter names: "/blog/:slug" and "/blog/:id"
// share a shape, "/blog/:id=int" does not.
func (p Pattern) Shape() string {
	var b strings.Builder
	for _, s := range p.Segments {
		b.WriteByte('/')
		switch s.Kind {
		case Static:
			b.WriteString(s.Text)
		case Typed:
			b.WriteString(":=" + s.Type)
		case Dynamic:
			b.WriteString(":")
		case Optional:
			b.WriteString(":?")
		case Rest:
			b.WriteString("*")
		}
	}
	if b.Len() == 0 {
		return "/"
	}
	return b.String()
}
