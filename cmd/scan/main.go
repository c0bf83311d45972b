// Command scan runs a single username scan from the command line and prints
// the report as JSON. It needs no database.
//
// Exit codes: 0 = success, 1 = error, 2 = bad arguments.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/heartmarshall/coral-backend/internal/app"
	"github.com/heartmarshall/coral-backend/internal/config"
	"github.com/heartmarshall/coral-backend/internal/domain"
	"github.com/heartmarshall/coral-backend/internal/service/scan"
	"github.com/heartmarshall/coral-backend/internal/transport/rest"
)

func main() {
	var (
		topSites     = flag.Int("top", 0, "number of top-ranked sites to check (0 = default)")
		allSites     = flag.Bool("all", false, "check every site in the catalog")
		timeout      = flag.Duration("timeout", 0, "per-site timeout (0 = default)")
		maxConns     = flag.Int("connections", 0, "maximum concurrent probes (0 = default)")
		retries      = flag.Int("retries", 0, "extra attempts on transient failures")
		tags         = flag.String("tags", "", "comma-separated tag filter")
		sites        = flag.String("sites", "", "comma-separated explicit site list")
		withDisabled = flag.Bool("include-disabled", false, "include disabled sites")
		checkDomains = flag.Bool("domains", false, "include domain (dns) checks")
		useCookies   = flag.Bool("cookies", false, "send the configured cookie jar")
	)
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: %s [flags] <username>\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()
	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := config.LoadScan()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logger := app.NewLogger(cfg.Log, "coral-scan")

	svc, _, err := app.NewScanService(cfg.Scan, logger)
	if err != nil {
		logger.Error("init scan", slog.String("error", err.Error()))
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	started := time.Now()
	report, err := svc.Scan(ctx, scan.Input{
		Username:        flag.Arg(0),
		TopSites:        *topSites,
		Timeout:         *timeout,
		MaxConnections:  *maxConns,
		Retries:         *retries,
		Tags:            domain.SplitList(*tags),
		SiteList:        domain.SplitList(*sites),
		AllSites:        *allSites,
		IncludeDisabled: *withDisabled,
		CheckDomains:    *checkDomains,
		UseCookies:      *useCookies,
	})
	if err != nil {
		logger.Error("scan failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(rest.NewScanResponse(report)); err != nil {
		logger.Error("write report", slog.String("error", err.Error()))
		os.Exit(1)
	}

	logger.Info("scan completed",
		slog.Int("found", report.Stats.FoundSites),
		slog.Int("checked", report.Stats.CheckedSites),
		slog.Bool("cancelled", report.Cancelled),
		slog.Duration("elapsed", time.Since(started)),
	)
}
