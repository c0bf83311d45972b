package scan

import (
	"time"

	"github.com/heartmarshall/coral-backend/internal/domain"
	"github.com/heartmarshall/coral-backend/internal/validate"
)

// Input is a scan request as received from a caller. Zero numeric values mean
// "use the default".
type Input struct {
	Username        string        `validate:"required,max=100"`
	TopSites        int           `validate:"gte=0"`
	Timeout         time.Duration `validate:"gte=0s"`
	MaxConnections  int           `validate:"gte=0"`
	Retries         int           `validate:"gte=0"`
	Tags            []string
	SiteList        []string
	AllSites        bool
	IncludeDisabled bool
	CheckDomains    bool
	UseCookies      bool
}

// Validate checks all fields and collects all errors.
func (i Input) Validate() error {
	i.Username = domain.NormalizeUsername(i.Username)
	return validate.Struct(i)
}

// Resolve applies defaults and clamps values to limits. The input must
// already be valid.
func (l Limits) Resolve(in Input) domain.ScanOptions {
	return domain.ScanOptions{
		TopSites:        bounded(in.TopSites, l.DefaultTopSites, l.MaxTopSites),
		Timeout:         bounded(in.Timeout, l.DefaultTimeout, l.MaxTimeout),
		MaxConnections:  bounded(in.MaxConnections, l.DefaultMaxConnections, l.MaxConnections),
		Retries:         bounded(in.Retries, 0, l.MaxRetries),
		Tags:            domain.CleanList(in.Tags),
		SiteList:        domain.CleanList(in.SiteList),
		AllSites:        in.AllSites,
		IncludeDisabled: in.IncludeDisabled,
		CheckDomains:    in.CheckDomains,
		UseCookies:      in.UseCookies,
	}
}

func bounded[T int | time.Duration](v, def, limit T) T {
	if v == 0 {
		v = def
	}
	if limit > 0 && v > limit {
		v = limit
	}
	return v
}
