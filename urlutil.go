package webtk

import (
	"net/url"
	"sort"
	"strings"
)

// NormalizeHost lowercases a host and trims whitespace and trailing dots.
func NormalizeHost(host string) string {
	return strings.ToLower(strings.Trim(strings.TrimSpace(host), "."))
}

// Host extracts the normalized host from a URL, or "" if the URL has none.
func Host(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Hostname() == "" {
		return ""
	}
	return NormalizeHost(u.Hostname())
}

// HostMatchesDomain reports whether host equals domain or is a subdomain
// of it. Both sides are normalized before comparison.
func HostMatchesDomain(host, domain string) bool {
	d := NormalizeHost(domain)
	if d == "" {
		return false
	}
	h := NormalizeHost(host)
	return h == d || strings.HasSuffix(h, "."+d)
}

// NormalizeURL canonicalizes a URL for fingerprinting and match comparison:
// lowercased scheme and host, default port dropped, query keys sorted,
// fragment stripped. The path is preserved as-is except that a lone trailing
// slash on a non-root path is removed.
func NormalizeURL(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}

	u.Scheme = strings.ToLower(u.Scheme)
	host := strings.ToLower(u.Hostname())
	if port := u.Port(); port != "" && !isDefaultPort(u.Scheme, port) {
		host += ":" + port
	}
	u.Host = host

	if u.Path != "/" {
		u.Path = strings.TrimSuffix(u.Path, "/")
	}

	if u.RawQuery != "" {
		values, err := url.ParseQuery(u.RawQuery)
		if err == nil {
			keys := make([]string, 0, len(values))
			for k := range values {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			var parts []string
			for _, k := range keys {
				vs := values[k]
				sort.Strings(vs)
				for _, v := range vs {
					parts = append(parts, url.QueryEscape(k)+"="+url.QueryEscape(v))
				}
			}
			u.RawQuery = strings.Join(parts, "&")
		}
	}

	u.Fragment = ""
	u.User = nil
	return u.String()
}

func isDefaultPort(scheme, port string) bool {
	return (scheme == "http" && port == "80") || (scheme == "https" && port == "443")
}

// RedactURL strips userinfo, query, and fragment from a URL, keeping
// scheme, host, and path.
func RedactURL(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}
	u.User = nil
	u.RawQuery = ""
	u.Fragment = ""
	return u.String()
}
