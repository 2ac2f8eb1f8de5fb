// Package deeplink finds share identifiers in incoming URLs.
package deeplink

import (
	"net/url"
	"regexp"
	"strings"
)

// QueryParam is the query key that carries a share id.
const QueryParam = "share"

var (
	sharePathPattern = regexp.MustCompile(`/s/([a-zA-Z0-9]+)`)
	exactPathPattern = regexp.MustCompile(`^/s/([a-zA-Z0-9]+)$`)
	idPattern        = regexp.MustCompile(`^[a-zA-Z0-9]+$`)
)

// Extract returns the share id referenced by raw, or "" and false.
// The share query parameter wins over a /s/<id> path. A share value that is
// not purely alphanumeric is ignored and the path is tried instead.
func Extract(raw string) (string, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", false
	}

	u, err := url.Parse(raw)
	if err != nil || u.Scheme == "" {
		// 標準のURLとして読めないものは正規表現で探す
		return matchPath(raw)
	}

	if id := u.Query().Get(QueryParam); id != "" && idPattern.MatchString(id) {
		return id, true
	}

	// カスタムスキーム（luckydraw://s/<id>）では "s" がホストになる
	path := u.EscapedPath()
	if u.Host != "" && u.Scheme != "http" && u.Scheme != "https" {
		path = "/" + u.Host + path
	}
	if id, ok := matchPath(path); ok {
		return id, true
	}
	return "", false
}

// FromWebLaunch reads the query string and path of a page load. Only an
// exact /s/<id> path counts here.
func FromWebLaunch(query url.Values, path string) (string, bool) {
	if id := query.Get(QueryParam); id != "" && idPattern.MatchString(id) {
		return id, true
	}
	if m := exactPathPattern.FindStringSubmatch(path); m != nil {
		return m[1], true
	}
	return "", false
}

func matchPath(s string) (string, bool) {
	m := sharePathPattern.FindStringSubmatch(s)
	if m == nil {
		return "", false
	}
	return m[1], true
}
