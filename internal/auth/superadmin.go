package auth

import "strings"

// IsSuperAdminEmail reports whether email belongs to the trusted super-admin domain.
// An empty domain trusts nobody.
func IsSuperAdminEmail(email, domain string) bool {
	domain = strings.TrimPrefix(strings.TrimSpace(domain), "@")
	if domain == "" {
		return false
	}
	return strings.HasSuffix(strings.ToLower(strings.TrimSpace(email)), "@"+strings.ToLower(domain))
}
