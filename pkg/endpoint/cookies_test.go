package endpoint

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func newCookieJar(target, cookieHeader string) *Cookies {
	r := httptest.NewRequest(http.MethodGet, target, nil)
	if cookieHeader != "" {
		r.Header.Set("Cookie", cookieHeader)
	}
	return NewEvent(r, nil, nil).Cookies
}

func TestCookiesGetFromRequest(t *testing.T) {
	jar := newCookieJar("http://localhost/", "theme=dark; greeting=hello%20world")

	if v, ok := jar.Get("theme"); !ok || v != "dark" {
		t.Errorf("Get(theme) = %q, %v", v, ok)
	}
	if v, _ := jar.Get("greeting"); v != "hello world" {
		t.Errorf("Get(greeting) = %q, want decoded value", v)
	}
	if _, ok := jar.Get("missing"); ok {
		t.Error("Get(missing) reported a cookie")
	}
}

func TestCookiesSetShadowsRequest(t *testing.T) {
	jar := newCookieJar("http://localhost/account", "theme=dark")
	jar.Set("theme", "light")

	if v, _ := jar.Get("theme"); v != "light" {
		t.Errorf("Get(theme) = %q, want light", v)
	}
}

func TestCookiesPathAndDomainVisibility(t *testing.T) {
	jar := newCookieJar("http://app.example.com/account/settings", "theme=dark")

	jar.Set("theme", "light", WithPath("/admin"))
	if v, _ := jar.Get("theme"); v != "dark" {
		t.Errorf("cookie with non-matching path was visible: %q", v)
	}

	jar.Set("theme", "blue", WithPath("/account/"), WithDomain(".example.com"))
	if v, _ := jar.Get("theme"); v != "blue" {
		t.Errorf("cookie with matching path and parent domain not visible: %q", v)
	}

	jar.Set("theme", "red", WithDomain("other.com"))
	if v, _ := jar.Get("theme"); v != "dark" {
		t.Errorf("cookie for another domain was visible: %q", v)
	}
}

func TestCookiesGetAll(t *testing.T) {
	jar := newCookieJar("http://localhost/", "b=2; a=1; c=3")
	jar.Set("d", "4")
	jar.Delete("c")

	var names []string
	for _, c := range jar.GetAll() {
		names = append(names, c.Name+"="+c.Value)
	}
	if got := strings.Join(names, ","); got != "a=1,b=2,d=4" {
		t.Errorf("GetAll() = %s", got)
	}
}

func TestCookiesDefaults(t *testing.T) {
	tests := []struct {
		name       string
		target     string
		wantSecure bool
	}{
		{"localhost over http", "http://localhost/", false},
		{"loopback over http", "http://127.0.0.1:3000/", false},
		{"remote host", "http://example.com/", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			jar := newCookieJar(tt.target, "")
			jar.Set("session", "abc")

			h := make(http.Header)
			jar.Apply(h)
			line := h.Get("Set-Cookie")

			for _, want := range []string{"session=abc", "Path=/", "HttpOnly", "SameSite=Lax"} {
				if !strings.Contains(line, want) {
					t.Errorf("Set-Cookie %q missing %q", line, want)
				}
			}
			if got := strings.Contains(line, "Secure"); got != tt.wantSecure {
				t.Errorf("Secure = %v, want %v (%q)", got, tt.wantSecure, line)
			}
		})
	}
}

func TestCookiesApplyOrderAndEncoding(t *testing.T) {
	jar := newCookieJar("http://localhost/", "")
	jar.Set("first", "a b;c")
	jar.Set("second", "2", WithHTTPOnly(false), WithSameSite(http.SameSiteStrictMode))
	jar.Set("first", "again")
	jar.Delete("gone")

	h := make(http.Header)
	jar.Apply(h)
	lines := h.Values("Set-Cookie")
	if len(lines) != 3 {
		t.Fatalf("Set-Cookie count = %d, want 3: %v", len(lines), lines)
	}

	if !strings.HasPrefix(lines[0], "first=again") {
		t.Errorf("lines[0] = %q", lines[0])
	}
	if strings.Contains(lines[1], "HttpOnly") || !strings.Contains(lines[1], "SameSite=Strict") {
		t.Errorf("lines[1] = %q", lines[1])
	}
	if !strings.Contains(lines[2], "Max-Age=0") {
		t.Errorf("deleted cookie not expired: %q", lines[2])
	}

	jar = newCookieJar("http://localhost/", "")
	jar.Set("enc", "a b;c")
	h = make(http.Header)
	jar.Apply(h)
	if got := h.Get("Set-Cookie"); !strings.HasPrefix(got, "enc=a%20b%3Bc") {
		t.Errorf("encoded cookie = %q", got)
	}
}

func TestDomainMatches(t *testing.T) {
	tests := []struct {
		host, domain string
		want         bool
	}{
		{"example.com", "", true},
		{"example.com", "example.com", true},
		{"app.example.com", ".example.com", true},
		{"app.example.com", "example.com", true},
		{"badexample.com", "example.com", false},
		{"example.com", "app.example.com", false},
	}
	for _, tt := range tests {
		if got := domainMatches(tt.host, tt.domain); got != tt.want {
			t.Errorf("domainMatches(%q, %q) = %v, want %v", tt.host, tt.domain, got, tt.want)
		}
	}
}

func TestPathMatches(t *testing.T) {
	tests := []struct {
		path, cookiePath string
		want             bool
	}{
		{"/", "/", true},
		{"/a/b", "/", true},
		{"/a", "/a", true},
		{"/a/b", "/a/", true},
		{"/ab", "/a", false},
		{"/", "/a", false},
	}
	for _, tt := range tests {
		if got := pathMatches(tt.path, tt.cookiePath); got != tt.want {
			t.Errorf("pathMatches(%q, %q) = %v, want %v", tt.path, tt.cookiePath, got, tt.want)
		}
	}
}
