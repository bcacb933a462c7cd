package client

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// ErrMalformedLink is returned when a Link header announces a next page but
// no cursor can be read from it.
var ErrMalformedLink = errors.New("malformed pagination link")

type link struct {
	target string
	rels   []string
}

// NextCursor extracts the cursor query parameter from the rel="next" entry
// of an RFC 8288 Link header. ok is false when there is no next page.
func NextCursor(header string) (cursor string, ok bool, err error) {
	if strings.TrimSpace(header) == "" {
		return "", false, nil
	}

	links, err := parseLinks(header)
	if err != nil {
		return "", false, err
	}

	for _, l := range links {
		if !hasRel(l.rels, "next") {
			continue
		}
		u, err := url.Parse(l.target)
		if err != nil {
			return "", false, fmt.Errorf("%w: %v", ErrMalformedLink, err)
		}
		cursor := u.Query().Get("cursor")
		if cursor == "" {
			return "", false, fmt.Errorf("%w: next link %q has no cursor", ErrMalformedLink, l.target)
		}
		return cursor, true, nil
	}
	return "", false, nil
}

func parseLinks(header string) ([]link, error) {
	var links []link
	rest := strings.TrimSpace(header)

	for rest != "" {
		if rest[0] != '<' {
			return nil, fmt.Errorf("%w: expected '<' in %q", ErrMalformedLink, header)
		}
		end := strings.IndexByte(rest, '>')
		if end < 0 {
			return nil, fmt.Errorf("%w: unterminated target in %q", ErrMalformedLink, header)
		}
		target := rest[1:end]
		rest = rest[end+1:]

		params := rest
		rest = ""
		if i := nextLinkStart(params); i >= 0 {
			rest = strings.TrimSpace(params[i+1:])
			params = params[:i]
		}

		links = append(links, link{target: target, rels: parseRels(params)})
	}
	return links, nil
}

// nextLinkStart returns the index of the comma separating this entry from the
// next "<...>" entry, or -1.
func nextLinkStart(s string) int {
	for i := 0; i < len(s); i++ {
		if s[i] == ',' && strings.HasPrefix(strings.TrimLeft(s[i+1:], " \t"), "<") {
			return i
		}
	}
	return -1
}

func parseRels(params string) []string {
	var rels []string
	for _, p := range strings.Split(params, ";") {
		name, value, found := strings.Cut(strings.TrimSpace(p), "=")
		if !found || !strings.EqualFold(strings.TrimSpace(name), "rel") {
			continue
		}
		value = strings.Trim(strings.TrimSpace(value), `"`)
		rels = append(rels, strings.Fields(strings.ToLower(value))...)
	}
	return rels
}

func hasRel(rels []string, want string) bool {
	for _, r := range rels {
		if r == want {
			return true
		}
	}
	return false
}
