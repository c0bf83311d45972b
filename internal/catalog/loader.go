package catalog

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/heartmarshall/coral-backend/internal/domain"
)

//go:embed default_sites.json
var defaultSites []byte

// siteJSON is one entry of a maigret-compatible data.json.
type siteJSON struct {
	URL             string   `json:"url"`
	URLMain         string   `json:"urlMain"`
	URLProbe        string   `json:"urlProbe"`
	CheckType       string   `json:"checkType"`
	PresenseStrs    []string `json:"presenseStrs"`
	AbsenceStrs     []string `json:"absenceStrs"`
	Tags            []string `json:"tags"`
	Disabled        bool     `json:"disabled"`
	RequiresCookies bool     `json:"requiresCookies"`
	AlexaRank       int      `json:"alexaRank"`
	RegexCheck      string   `json:"regexCheck"`
}

type fileJSON struct {
	Sites map[string]siteJSON `json:"sites"`
}

// Load reads a catalog from path, or the embedded default catalog when path is empty.
func Load(path string) (*Catalog, error) {
	if path == "" {
		return Parse(defaultSites)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("catalog: read %s: %w", path, err)
	}
	c, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("catalog: %s: %w", path, err)
	}
	return c, nil
}

// Parse decodes maigret-compatible JSON. Entries with an unknown check type
// or a URL without {username} are rejected; the whole load fails.
func Parse(data []byte) (*Catalog, error) {
	var f fileJSON
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("decode catalog: %w", err)
	}
	if len(f.Sites) == 0 {
		return nil, fmt.Errorf("decode catalog: no sites")
	}

	sites := make([]domain.Site, 0, len(f.Sites))
	for name, raw := range f.Sites {
		site, err := toSite(name, raw)
		if err != nil {
			return nil, err
		}
		sites = append(sites, site)
	}
	return New(sites), nil
}

func toSite(name string, raw siteJSON) (domain.Site, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return domain.Site{}, fmt.Errorf("site with empty name")
	}

	checkType := domain.CheckType(raw.CheckType)
	if raw.CheckType == "" {
		checkType = domain.CheckStatusCode
	}
	if !checkType.IsValid() {
		return domain.Site{}, fmt.Errorf("site %s: unknown checkType %q", name, raw.CheckType)
	}
	if !strings.Contains(raw.URL, "{username}") {
		return domain.Site{}, fmt.Errorf("site %s: url must contain {username}", name)
	}

	site := domain.Site{
		Name:            name,
		URL:             raw.URL,
		URLMain:         raw.URLMain,
		ProbeURL:        raw.URLProbe,
		CheckType:       checkType,
		PresenceStrs:    raw.PresenseStrs,
		AbsenceStrs:     raw.AbsenceStrs,
		Tags:            raw.Tags,
		Disabled:        raw.Disabled,
		RequiresCookies: raw.RequiresCookies,
		Rank:            raw.AlexaRank,
	}
	if raw.RegexCheck != "" {
		re, err := regexp.Compile(raw.RegexCheck)
		if err != nil {
			return domain.Site{}, fmt.Errorf("site %s: regexCheck: %w", name, err)
		}
		site.UsernameRegex = re
	}
	return site, nil
}
