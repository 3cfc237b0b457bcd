package routepath

import (
	"errors"
	"testing"
)

func TestCanonicalize(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr error
	}{
		{name: "root", input: "/", want: "/"},
		{name: "empty", input: "", want: "/"},
		{name: "no leading slash", input: "about", want: "/about"},
		{name: "collapse slashes", input: "/blog//post", want: "/blog/post"},
		{name: "single dot", input: "/blog/./post", want: "/blog/post"},
		{name: "double dot", input: "/blog/posts/../other", want: "/blog/other"},
		{name: "double dot to root", input: "/blog/../", want: "/"},
		{name: "trailing slash", input: "/blog/", want: "/blog"},
		{name: "valid escape", input: "/a%20b", want: "/a%20b"},
		{name: "backslash", input: "/a\\b", wantErr: ErrBackslashInPath},
		{name: "encoded nul", input: "/a%00", wantErr: ErrNullByteInPath},
		{name: "bad escape", input: "/a%GG", wantErr: ErrInvalidPercentEscape},
		{name: "short escape", input: "/a%2", wantErr: ErrInvalidPercentEscape},
		{name: "escapes root", input: "/../secret", wantErr: ErrPathEscapesRoot},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Canonicalize(tt.input)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("Canonicalize(%q) error = %v, want %v", tt.input, err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Canonicalize(%q) unexpected error: %v", tt.input, err)
			}
			if got != tt.want {
				t.Errorf("Canonicalize(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}
