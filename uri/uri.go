// Package uri implements the mutable URI type used to address resources
// in the directory: scheme://user@host:port/path?query#fragment, plus the
// simpler relative and absolute path forms.
//
// Unlike net/url.URL, this type keeps its query parameters as an
// insertion-ordered, unique-by-key mapping (net/url.Values is an unordered
// multimap) because canonical string round-tripping and CURIE/wildcard path
// handling both depend on stable parameter ordering.
package uri

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	xerrors "github.com/tunaoezer/Intercom/errors"
)

// DefaultPort indicates that the default port for the scheme should be used.
const DefaultPort = -1

// Uri is a mutable representation of a URI. The zero value is not useful;
// construct with Parse, New, or Copy.
type Uri struct {
	scheme   string
	user     string
	host     string
	port     int
	path     string
	params   *orderedParams
	fragment string
}

// New creates a Uri from an explicit scheme, host and path. Scheme and host
// must both be empty or both be non-empty. Port defaults to DefaultPort.
func New(scheme, host, path string) (*Uri, error) {
	if (scheme != "" && host == "") || (scheme == "" && host != "") {
		return nil, xerrors.WrapInvalid(xerrors.ErrInvalidURI, "uri", "New",
			"scheme and host must be both empty or both non-empty")
	}
	u := &Uri{
		scheme: scheme,
		port:   DefaultPort,
		params: newOrderedParams(),
	}
	h, p, hasPort := strings.Cut(host, ":")
	u.host = h
	if hasPort {
		if port, err := strconv.Atoi(p); err == nil {
			u.port = port
		}
	}
	u.SetPath(path)
	return u, nil
}

// Parse parses a URI string of the form
// [scheme://[user@]host[:port]]path[?query][#fragment], or the simpler
// relative/absolute path forms "path" and "/path". Fails with ErrInvalidURI
// if the string cannot be parsed.
func Parse(raw string) (*Uri, error) {
	parsed, err := url.Parse(raw)
	if err != nil {
		return nil, xerrors.WrapInvalid(fmt.Errorf("%w: %v", xerrors.ErrInvalidURI, err), "uri", "Parse", raw)
	}
	u := &Uri{
		scheme:   parsed.Scheme,
		host:     parsed.Hostname(),
		path:     parsed.Path,
		fragment: parsed.Fragment,
		params:   newOrderedParams(),
	}
	if parsed.User != nil {
		u.user = parsed.User.Username()
	}
	u.port = DefaultPort
	if p := parsed.Port(); p != "" {
		if port, err := strconv.Atoi(p); err == nil {
			u.port = port
		}
	}
	if parsed.RawQuery != "" {
		for _, pair := range strings.Split(parsed.RawQuery, "&") {
			if pair == "" {
				continue
			}
			name, value, _ := strings.Cut(pair, "=")
			if name == "" {
				continue
			}
			u.params.set(name, value)
		}
	}
	// Opaque form (e.g. "path" with no leading slash, no scheme) lands in Opaque.
	if u.path == "" && parsed.Opaque != "" {
		u.path = parsed.Opaque
	}
	return u, nil
}

// Copy returns a deep copy of u, including an independent parameter map.
func Copy(u *Uri) *Uri {
	cp := &Uri{
		scheme:   u.scheme,
		user:     u.user,
		host:     u.host,
		port:     u.port,
		path:     u.path,
		fragment: u.fragment,
		params:   u.params.clone(),
	}
	return cp
}

func (u *Uri) Scheme() string { return u.scheme }
func (u *Uri) User() string   { return u.user }
func (u *Uri) Host() string   { return u.host }
func (u *Uri) Port() int      { return u.port }
func (u *Uri) Path() string   { return u.path }
func (u *Uri) Fragment() string { return u.fragment }

func (u *Uri) SetUser(user string)         { u.user = user }
func (u *Uri) SetHost(host string)         { u.host = host }
func (u *Uri) SetPort(port int)            { u.port = port }
func (u *Uri) SetFragment(fragment string) { u.fragment = fragment }

// SetPath sets the resource path. If the URI has a host, the path is forced
// to be absolute (a leading '/' is prepended if missing).
func (u *Uri) SetPath(path string) {
	if u.host != "" && (path == "" || path[0] != '/') {
		path = "/" + path
	}
	u.path = path
}

func (u *Uri) HasParameter(name string) bool     { return u.params.has(name) }
func (u *Uri) GetParameter(name string) string   { v, _ := u.params.get(name); return v }
func (u *Uri) SetParameter(name, value string)   { u.params.set(name, value) }
func (u *Uri) RemoveParameter(name string)       { u.params.remove(name) }
func (u *Uri) ParameterNames() []string          { return u.params.keys() }

// String returns the canonical string form: empty components are omitted,
// and any '@' in the user info is written as "%40"; no other character is
// escaped.
func (u *Uri) String() string {
	var b strings.Builder
	if u.scheme != "" {
		b.WriteString(u.scheme)
		b.WriteString("://")
		if u.user != "" {
			b.WriteString(strings.ReplaceAll(u.user, "@", "%40"))
			b.WriteByte('@')
		}
		b.WriteString(u.host)
		if u.port != DefaultPort {
			fmt.Fprintf(&b, ":%d", u.port)
		}
	}
	b.WriteString(u.path)
	if qs := u.params.queryString(); qs != "" {
		b.WriteByte('?')
		b.WriteString(qs)
	}
	if u.fragment != "" {
		b.WriteByte('#')
		b.WriteString(u.fragment)
	}
	return b.String()
}

// orderedParams is an insertion-ordered, unique-by-key string map.
type orderedParams struct {
	keysOrder []string
	values    map[string]string
}

func newOrderedParams() *orderedParams {
	return &orderedParams{values: make(map[string]string)}
}

func (p *orderedParams) has(name string) bool {
	_, ok := p.values[name]
	return ok
}

func (p *orderedParams) get(name string) (string, bool) {
	v, ok := p.values[name]
	return v, ok
}

func (p *orderedParams) set(name, value string) {
	if _, exists := p.values[name]; !exists {
		p.keysOrder = append(p.keysOrder, name)
	}
	p.values[name] = value
}

func (p *orderedParams) remove(name string) {
	if _, exists := p.values[name]; !exists {
		return
	}
	delete(p.values, name)
	for i, k := range p.keysOrder {
		if k == name {
			p.keysOrder = append(p.keysOrder[:i], p.keysOrder[i+1:]...)
			break
		}
	}
}

func (p *orderedParams) keys() []string {
	out := make([]string, len(p.keysOrder))
	copy(out, p.keysOrder)
	return out
}

func (p *orderedParams) clone() *orderedParams {
	cp := newOrderedParams()
	for _, k := range p.keysOrder {
		cp.set(k, p.values[k])
	}
	return cp
}

func (p *orderedParams) queryString() string {
	var b strings.Builder
	for _, k := range p.keysOrder {
		if b.Len() > 0 {
			b.WriteByte('&')
		}
		b.WriteString(k)
		if v := p.values[k]; v != "" {
			b.WriteByte('=')
			b.WriteString(v)
		}
	}
	return b.String()
}
