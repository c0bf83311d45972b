package scan

import (
	"strings"

	"github.com/heartmarshall/coral-backend/internal/domain"
)

// ResolveScope selects the sites a scan probes, in catalog priority order.
// It depends only on sites and opts.
//
// An explicit site list replaces the tag filter and the top-sites cap.
// Disabled sites need IncludeDisabled and dns sites need CheckDomains.
func ResolveScope(sites []domain.Site, opts domain.ScanOptions) []domain.Site {
	var allow map[string]bool
	if len(opts.SiteList) > 0 {
		allow = make(map[string]bool, len(opts.SiteList))
		for _, name := range opts.SiteList {
			allow[strings.ToLower(name)] = true
		}
	}

	var scope []domain.Site
	for _, s := range sites {
		switch {
		case allow != nil && !allow[strings.ToLower(s.Name)]:
			continue
		case allow == nil && len(opts.Tags) > 0 && !s.HasAnyTag(opts.Tags):
			continue
		case s.Disabled && !opts.IncludeDisabled:
			continue
		case s.CheckType == domain.CheckDNS && !opts.CheckDomains:
			continue
		}
		scope = append(scope, s)
	}

	if allow == nil && !opts.AllSites && opts.TopSites > 0 && len(scope) > opts.TopSites {
		scope = scope[:opts.TopSites]
	}
	return scope
}

// skipReason reports why a scoped site is not probed for username, or "".
func skipReason(site domain.Site, username string, opts domain.ScanOptions) string {
	if site.RequiresCookies && !opts.UseCookies {
		return "requires cookies"
	}
	if !site.AcceptsUsername(username) {
		return "username not accepted by site"
	}
	return ""
}
