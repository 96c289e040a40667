package storage

import (
	"net/url"
	"strings"

	"github.com/weppos/publicsuffix-go/publicsuffix"
)

// ExtractRootDomain returns the registrable domain of a URL or host.
// e.g., "http://sub.foo.example.co.uk/path" -> "example.co.uk", true
func ExtractRootDomain(s string) (string, bool) {
	host := s

	// url.Parse won't find a host in a bare domain.
	if !strings.Contains(s, "://") && strings.Contains(s, ".") {
		s = "http://" + s
	}

	if u, err := url.Parse(s); err == nil && u.Host != "" {
		host = u.Hostname()
	} else {
		host = strings.Split(host, "/")[0]
		host = strings.Split(host, ":")[0]
	}
	if !strings.Contains(host, ".") {
		return "", false
	}

	domain, err := publicsuffix.Domain(host)
	if err != nil {
		return "", false
	}
	return domain, true
}
