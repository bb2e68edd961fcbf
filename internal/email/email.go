// Package email validates invitee addresses and classifies public sector
// email domains.
package email

import (
	"regexp"
	"strings"
)

// Domains that identify UK public sector organisations. Sourced from the
// list used by the notifications platform.
var publicSectorDomains = []string{
	`assembly\.wales`,
	`cynulliad\.cymru`,
	`gov\.scot`,
	`gov\.uk`,
	`gov\.wales`,
	`hmcts\.net`,
	`judiciary\.uk`,
	`llyw\.cymru`,
	`mil\.uk`,
	`mod\.uk`,
	`naturalengland\.org\.uk`,
	`nhs\.net`,
	`nhs\.uk`,
	`parliament\.scot`,
	`parliament\.uk`,
	`police\.uk`,
	`scotent\.co\.uk`,
	`slc\.co\.uk`,
	`ucds\.email`,
}

var (
	publicSectorPattern = compilePublicSectorPattern()
	addressPattern      = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)
)

func compilePublicSectorPattern() *regexp.Regexp {
	domains := strings.Join(publicSectorDomains, "|")
	// Subdomain labels may contain alphanumerics and hyphens but must not
	// start or end with a hyphen.
	label := `[a-z0-9](?:[a-z0-9-]*[a-z0-9])?`
	return regexp.MustCompile(`^(?:` + domains + `)$|^(?:` + label + `\.)+(?:` + domains + `)$`)
}

// IsValid reports whether the address is syntactically plausible: a single
// "@" with a non-empty local part and a dotted domain.
func IsValid(address string) bool {
	return addressPattern.MatchString(address)
}

// IsPublicSector reports whether the address belongs to a recognised UK
// public sector domain, including subdomains of those domains.
func IsPublicSector(address string) bool {
	parts := strings.Split(strings.ToLower(address), "@")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return false
	}
	return publicSectorPattern.MatchString(parts[1])
}
