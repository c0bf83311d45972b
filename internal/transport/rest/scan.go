package rest

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/heartmarshall/coral-backend/internal/catalog"
	"github.com/heartmarshall/coral-backend/internal/domain"
	"github.com/heartmarshall/coral-backend/internal/service/scan"
)

type scanService interface {
	Scan(ctx context.Context, in scan.Input) (*domain.ScanReport, error)
}

type siteCatalog interface {
	Ranked() []domain.Site
	Tags() []catalog.TagCount
}

// ScanHandler serves the scan and site catalog endpoints.
type ScanHandler struct {
	svc     scanService
	catalog siteCatalog
	log     *slog.Logger
}

// NewScanHandler creates a ScanHandler.
func NewScanHandler(svc scanService, catalog siteCatalog, logger *slog.Logger) *ScanHandler {
	return &ScanHandler{svc: svc, catalog: catalog, log: logger.With("handler", "scan")}
}

type scanRequest struct {
	Username        string     `json:"username"`
	TopSites        int        `json:"top_sites"`
	Timeout         float64    `json:"timeout"`
	MaxConnections  int        `json:"max_connections"`
	Retries         int        `json:"retries"`
	Tags            stringList `json:"tags"`
	SiteList        stringList `json:"site_list"`
	AllSites        bool       `json:"all_sites"`
	IncludeDisabled bool       `json:"include_disabled"`
	CheckDomains    bool       `json:"check_domains"`
	UseCookies      bool       `json:"use_cookies"`
}

// Scan handles POST /scan. timeout is in seconds. The scan is bound to the
// request: if the client disconnects, pending probes are abandoned.
func (h *ScanHandler) Scan(w http.ResponseWriter, r *http.Request) {
	var req scanRequest
	if err := decodeJSON(w, r, &req, 0); err != nil {
		handleError(h.log, w, r, err)
		return
	}

	report, err := h.svc.Scan(r.Context(), scan.Input{
		Username:        req.Username,
		TopSites:        req.TopSites,
		Timeout:         time.Duration(req.Timeout * float64(time.Second)),
		MaxConnections:  req.MaxConnections,
		Retries:         req.Retries,
		Tags:            req.Tags,
		SiteList:        req.SiteList,
		AllSites:        req.AllSites,
		IncludeDisabled: req.IncludeDisabled,
		CheckDomains:    req.CheckDomains,
		UseCookies:      req.UseCookies,
	})
	if err != nil {
		handleError(h.log, w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, NewScanResponse(report))
}

// Sites handles GET /sites?tags=a,b. Sites are returned in rank order.
func (h *ScanHandler) Sites(w http.ResponseWriter, r *http.Request) {
	tags := domain.SplitList(r.URL.Query().Get("tags"))

	sites := make([]siteResponse, 0)
	for _, s := range h.catalog.Ranked() {
		if len(tags) > 0 && !s.HasAnyTag(tags) {
			continue
		}
		sites = append(sites, toSiteResponse(s))
	}

	writeJSON(w, http.StatusOK, map[string]any{"sites": sites, "total": len(sites)})
}

type tagResponse struct {
	Tag   string `json:"tag"`
	Count int    `json:"count"`
}

// Tags handles GET /sites/tags.
func (h *ScanHandler) Tags(w http.ResponseWriter, r *http.Request) {
	counts := h.catalog.Tags()
	out := make([]tagResponse, len(counts))
	for i, c := range counts {
		out[i] = tagResponse{Tag: c.Tag, Count: c.Count}
	}
	writeJSON(w, http.StatusOK, map[string]any{"tags": out})
}
