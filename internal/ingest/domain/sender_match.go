package domain

import (
	"net/mail"
	"strings"
)

// NormalizeAddress extracts the bare lowercase address from a From header
// value like `Name <addr@example.com>`. Falls back to the trimmed input when
// the header does not parse.
func NormalizeAddress(from string) string {
	if addr, err := mail.ParseAddress(from); err == nil {
		return strings.ToLower(addr.Address)
	}
	return strings.ToLower(strings.TrimSpace(from))
}

// MatchSender resolves the From header against the sender table. Exact
// matches are case-insensitive; "*@domain" wildcards match any local part of
// that domain or its subdomains, mirroring how newsletter platforms send from
// per-publication hosts. Returns nil when no sender matches.
func MatchSender(senders []*Sender, from string) *Sender {
	addr := NormalizeAddress(from)
	if addr == "" {
		return nil
	}

	var domainPart string
	if at := strings.LastIndex(addr, "@"); at >= 0 {
		domainPart = addr[at+1:]
	}

	for _, s := range senders {
		pattern := strings.ToLower(strings.TrimSpace(s.Email))
		if pattern == addr {
			return s
		}
		if rest, ok := strings.CutPrefix(pattern, "*@"); ok && domainPart != "" {
			if rest == domainPart || strings.HasSuffix(domainPart, "."+rest) {
				return s
			}
		}
	}
	return nil
}
