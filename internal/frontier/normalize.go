// Package frontier owns URL canonicalisation, the FIFO crawl queue and the
// per-URL crawl state used to guarantee each page is fetched at most once.
package frontier

import (
	"net/url"
	"strings"
)

var defaultPorts = map[string]string{
	"http":  "80",
	"https": "443",
}

// Normalizer canonicalises links and filters them to a single domain.
type Normalizer struct {
	domain string
}

// NewNormalizer builds a normalizer for the given domain. A leading "www."
// is ignored on both the domain and the candidate hosts.
func NewNormalizer(domain string) *Normalizer {
	domain = strings.ToLower(strings.TrimSpace(domain))
	return &Normalizer{domain: strings.TrimPrefix(domain, "www.")}
}

// Domain returns the bare domain the normalizer accepts.
func (n *Normalizer) Domain() string {
	return n.domain
}

// Normalize resolves href against base (when given), forces https, strips the
// fragment and default port, and returns false for anything off-domain.
func (n *Normalizer) Normalize(href, base string) (string, bool) {
	href = strings.TrimSpace(href)
	if href == "" {
		return "", false
	}

	target, err := url.Parse(href)
	if err != nil {
		return "", false
	}
	if base = strings.TrimSpace(base); base != "" {
		baseURL, err := url.Parse(base)
		if err != nil {
			return "", false
		}
		target = baseURL.ResolveReference(target)
	}

	scheme := strings.ToLower(target.Scheme)
	if scheme != "http" && scheme != "https" {
		return "", false
	}
	if !n.InDomain(target.Hostname()) {
		return "", false
	}

	target.Scheme = "https"
	target.Host = normalizeHost(target, scheme)
	target.Fragment = ""
	target.RawFragment = ""
	target.Opaque = ""
	if target.Path == "" {
		target.Path = "/"
		target.RawPath = ""
	}
	return target.String(), true
}

// InDomain reports whether host, minus a leading "www.", is the configured domain.
func (n *Normalizer) InDomain(host string) bool {
	host = strings.TrimPrefix(strings.ToLower(host), "www.")
	return host != "" && host == n.domain
}

func normalizeHost(u *url.URL, originalScheme string) string {
	hostname := strings.ToLower(u.Hostname())
	port := u.Port()
	if port == "" {
		return hostname
	}
	for _, scheme := range []string{originalScheme, "https"} {
		if def, ok := defaultPorts[scheme]; ok && port == def {
			return hostname
		}
	}
	if strings.Contains(hostname, ":") {
		return "[" + hostname + "]:" + port
	}
	return hostname + ":" + port
}
