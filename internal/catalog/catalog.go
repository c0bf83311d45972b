// Package catalog loads the Site Catalog: the registry of external probe
// targets used by username scans. The catalog is read-only after loading.
package catalog

import (
	"sort"
	"strings"

	"github.com/heartmarshall/coral-backend/internal/domain"
)

// Catalog is an immutable, priority-ordered set of sites.
type Catalog struct {
	sites  []domain.Site
	byName map[string]int
}

// New builds a Catalog from sites. Names must be unique case-insensitively;
// later duplicates are dropped.
func New(sites []domain.Site) *Catalog {
	c := &Catalog{byName: make(map[string]int, len(sites))}
	for _, s := range sites {
		key := strings.ToLower(s.Name)
		if _, dup := c.byName[key]; dup {
			continue
		}
		c.byName[key] = len(c.sites)
		c.sites = append(c.sites, s)
	}

	sort.SliceStable(c.sites, func(i, j int) bool { return less(c.sites[i], c.sites[j]) })
	for i, s := range c.sites {
		c.byName[strings.ToLower(s.Name)] = i
	}
	return c
}

// less orders by rank ascending with unranked sites last, then by name.
func less(a, b domain.Site) bool {
	ra, rb := a.Rank, b.Rank
	if ra != rb {
		if ra == 0 {
			return false
		}
		if rb == 0 {
			return true
		}
		return ra < rb
	}
	return strings.ToLower(a.Name) < strings.ToLower(b.Name)
}

// Ranked returns all sites in priority order. The slice must not be modified.
func (c *Catalog) Ranked() []domain.Site {
	return c.sites
}

// Len returns the number of sites.
func (c *Catalog) Len() int { return len(c.sites) }

// Get returns the site named name (case-insensitive).
func (c *Catalog) Get(name string) (domain.Site, bool) {
	i, ok := c.byName[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return domain.Site{}, false
	}
	return c.sites[i], true
}

// TagCount is the number of sites carrying a tag.
type TagCount struct {
	Tag   string
	Count int
}

// Tags returns every tag with its site count, most common first.
func (c *Catalog) Tags() []TagCount {
	counts := make(map[string]int)
	for _, s := range c.sites {
		for _, t := range s.Tags {
			counts[strings.ToLower(t)]++
		}
	}

	out := make([]TagCount, 0, len(counts))
	for t, n := range counts {
		out = append(out, TagCount{Tag: t, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Tag < out[j].Tag
	})
	return out
}
