package endpoint

import (
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"
)

// CookieOption adjusts a cookie before it is stored in the jar.
type CookieOption func(*http.Cookie)

// WithPath sets the cookie path.
func WithPath(path string) CookieOption {
	return func(c *http.Cookie) { c.Path = path }
}

// WithDomain sets the cookie domain.
func WithDomain(domain string) CookieOption {
	return func(c *http.Cookie) { c.Domain = domain }
}

// WithMaxAge sets Max-Age in seconds.
func WithMaxAge(seconds int) CookieOption {
	return func(c *http.Cookie) { c.MaxAge = seconds }
}

// WithExpires sets the Expires attribute.
func WithExpires(t time.Time) CookieOption {
	return func(c *http.Cookie) { c.Expires = t }
}

// WithHTTPOnly overrides the HttpOnly default.
func WithHTTPOnly(on bool) CookieOption {
	return func(c *http.Cookie) { c.HttpOnly = on }
}

// WithSecure overrides the Secure default.
func WithSecure(on bool) CookieOption {
	return func(c *http.Cookie) { c.Secure = on }
}

// WithSameSite overrides the SameSite default.
func WithSameSite(mode http.SameSite) CookieOption {
	return func(c *http.Cookie) { c.SameSite = mode }
}

var localHosts = map[string]bool{
	"localhost": true,
	"127.0.0.1": true,
	"::1":       true,
}

// Cookies is a per-request cookie jar. Request cookies are parsed on first
// read; cookies set during the request are kept until Apply writes them to
// the response.
type Cookies struct {
	req      *http.Request
	url      *url.URL
	secure   bool
	incoming map[string]string
	pending  map[string]*http.Cookie
	order    []string
}

// NewCookies creates the jar for r. u is the absolute request URL.
func NewCookies(r *http.Request, u *url.URL) *Cookies {
	return &Cookies{
		req:     r,
		url:     u,
		secure:  !(localHosts[u.Hostname()] && u.Scheme == "http"),
		pending: make(map[string]*http.Cookie),
	}
}

func (c *Cookies) parse() map[string]string {
	if c.incoming != nil {
		return c.incoming
	}
	c.incoming = make(map[string]string)
	for _, ck := range c.req.Cookies() {
		if _, seen := c.incoming[ck.Name]; seen {
			continue
		}
		c.incoming[ck.Name] = decodeValue(ck.Value)
	}
	return c.incoming
}

// visible reports whether a cookie set during this request applies to the
// request URL.
func (c *Cookies) visible(ck *http.Cookie) bool {
	return domainMatches(c.url.Hostname(), ck.Domain) && pathMatches(c.url.Path, ck.Path)
}

// Get returns the named cookie. A cookie set during this request takes
// precedence over the request header when its domain and path apply.
func (c *Cookies) Get(name string) (string, bool) {
	if ck, ok := c.pending[name]; ok && c.visible(ck) {
		if ck.MaxAge < 0 {
			return "", false
		}
		return ck.Value, true
	}
	v, ok := c.parse()[name]
	return v, ok
}

// GetAll returns every cookie visible to the request, sorted by name.
func (c *Cookies) GetAll() []*http.Cookie {
	merged := make(map[string]string)
	for k, v := range c.parse() {
		merged[k] = v
	}
	for name, ck := range c.pending {
		if !c.visible(ck) {
			continue
		}
		if ck.MaxAge < 0 {
			delete(merged, name)
			continue
		}
		merged[name] = ck.Value
	}

	out := make([]*http.Cookie, 0, len(merged))
	for k, v := range merged {
		out = append(out, &http.Cookie{Name: k, Value: v})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Set stores a cookie for the response. Defaults are HttpOnly, Path "/",
// SameSite Lax, and Secure unless the request is plain http to localhost.
func (c *Cookies) Set(name, value string, opts ...CookieOption) {
	ck := &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   c.secure,
	}
	for _, opt := range opts {
		opt(ck)
	}

	if _, exists := c.pending[name]; !exists {
		c.order = append(c.order, name)
	}
	c.pending[name] = ck
}

// Delete expires the named cookie.
func (c *Cookies) Delete(name string, opts ...CookieOption) {
	c.Set(name, "", append(opts, WithMaxAge(-1))...)
}

// Apply appends a Set-Cookie header for every cookie set during the request,
// in the order they were first set.
func (c *Cookies) Apply(h http.Header) {
	for _, name := range c.order {
		ck := *c.pending[name]
		ck.Value = encodeValue(ck.Value)
		if s := ck.String(); s != "" {
			h.Add("Set-Cookie", s)
		}
	}
}

func encodeValue(v string) string {
	return strings.ReplaceAll(url.QueryEscape(v), "+", "%20")
}

func decodeValue(v string) string {
	if d, err := url.PathUnescape(v); err == nil {
		return d
	}
	return v
}

// domainMatches implements RFC 6265 §5.1.3 with a leading dot ignored.
func domainMatches(hostname, domain string) bool {
	if domain == "" {
		return true
	}
	normalized := strings.TrimPrefix(domain, ".")
	if hostname == normalized {
		return true
	}
	return strings.HasSuffix(hostname, "."+normalized)
}

// pathMatches implements RFC 6265 §5.1.4 with a trailing slash ignored.
func pathMatches(path, cookiePath string) bool {
	normalized := strings.TrimSuffix(cookiePath, "/")
	if path == normalized {
		return true
	}
	return strings.HasPrefix(path, normalized+"/")
}
