// Package main implements parcelctl, a command-line consumer of the parcel
// frontend settings. It talks to the backend the settings point at, or
// answers from the local GeoJSON asset when the API is disabled.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/phrazzld/parcel-api/internal/client"
	"github.com/phrazzld/parcel-api/internal/config"
	"github.com/phrazzld/parcel-api/internal/frontend"
	"github.com/phrazzld/parcel-api/internal/geo"
	"github.com/phrazzld/parcel-api/internal/platform/logger"
	"github.com/spf13/pflag"
)

const usage = `usage: parcelctl [flags] <command>

commands:
  health         check the backend health endpoint
  parcel <pid>   look up a parcel (from the API, or the GeoJSON asset in local mode)
  config         print the frontend settings as JSON

flags:
`

// Exit codes.
const (
	exitOK       = 0
	exitFailure  = 1
	exitUsage    = 2
	exitNotFound = 3
)

type cli struct {
	configPath string
	geojson    string
	idProperty string
	timeout    time.Duration
	logLevel   string
}

func main() {
	os.Exit(run(context.Background(), os.Args[1:], os.Stdout, os.Stderr))
}

// run executes one parcelctl invocation and returns the process exit code.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	var c cli
	fs := pflag.NewFlagSet("parcelctl", pflag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() {
		_, _ = fmt.Fprint(stderr, usage)
		fs.PrintDefaults()
	}
	fs.StringVar(&c.configPath, "config", "", "path to a config file")
	fs.StringVar(&c.geojson, "geojson", "", "local GeoJSON file used in local-only mode (default: <static_dir>/<geojson_url>)")
	fs.StringVar(&c.idProperty, "id-property", client.DefaultIDProperty, "GeoJSON property holding the parcel id")
	fs.DurationVar(&c.timeout, "timeout", 10*time.Second, "timeout for backend requests")
	fs.StringVar(&c.logLevel, "log-level", "warn", "log level (debug, info, warn, error)")

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return exitOK
		}
		return exitUsage
	}
	if fs.NArg() == 0 {
		fs.Usage()
		return exitUsage
	}

	l, err := logger.Setup(logger.LoggerConfig{Level: c.logLevel, Output: stderr})
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "parcelctl: %v\n", err)
		return exitUsage
	}

	cfg, err := config.LoadFrom(c.configPath)
	if err != nil {
		l.Error("failed to load configuration", "error", err)
		return exitFailure
	}
	settings, err := frontend.New(cfg.Frontend)
	if err != nil {
		l.Error("invalid frontend settings", "error", err)
		return exitFailure
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	api := client.New(settings,
		client.WithHTTPClient(&http.Client{Timeout: c.timeout}),
		client.WithLogger(l),
	)

	cmd, rest := fs.Arg(0), fs.Args()[1:]
	switch cmd {
	case "config":
		return c.printJSON(stdout, stderr, settings)
	case "health":
		return c.health(ctx, api, stdout, stderr)
	case "parcel":
		if len(rest) != 1 {
			_, _ = fmt.Fprintln(stderr, "parcelctl: parcel requires exactly one parcel id")
			return exitUsage
		}
		return c.parcel(ctx, api, cfg, rest[0], stdout, stderr, l)
	default:
		_, _ = fmt.Fprintf(stderr, "parcelctl: unknown command %q\n", cmd)
		fs.Usage()
		return exitUsage
	}
}

func (c *cli) health(ctx context.Context, api *client.Client, stdout, stderr io.Writer) int {
	status, err := api.Health(ctx)
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "parcelctl: health: %v\n", err)
		return exitFailure
	}
	if code := c.printJSON(stdout, stderr, status); code != exitOK {
		return code
	}
	if !status.OK() {
		return exitFailure
	}
	return exitOK
}

func (c *cli) parcel(
	ctx context.Context,
	api *client.Client,
	cfg *config.Config,
	parcelID string,
	stdout, stderr io.Writer,
	l *slog.Logger,
) int {
	var local *geo.FeatureCollection
	if !api.Settings().UsingAPI() {
		var err error
		local, err = c.loadLocal(ctx, api.Settings(), cfg.Frontend.StaticDir)
		if err != nil {
			_, _ = fmt.Fprintf(stderr, "parcelctl: %v\n", err)
			return exitFailure
		}
		l.Debug("loaded local parcel data", "features", len(local.Features))
	}

	result, err := client.NewResolver(api, local, c.idProperty).Lookup(ctx, parcelID)
	switch {
	case errors.Is(err, client.ErrParcelNotFound):
		_, _ = fmt.Fprintf(stderr, "parcelctl: parcel %q not found\n", parcelID)
		return exitNotFound
	case err != nil:
		_, _ = fmt.Fprintf(stderr, "parcelctl: parcel: %v\n", err)
		return exitFailure
	}

	if result.Source == client.SourceLocal {
		return c.printJSON(stdout, stderr, result.Feature)
	}
	return c.printJSON(stdout, stderr, result.View)
}

// loadLocal reads the GeoJSON asset for local-only mode. Relative asset
// locations are read from the static directory; absolute http(s) URLs are
// fetched, since that is where a browser would load them from.
func (c *cli) loadLocal(ctx context.Context, settings frontend.Settings, staticDir string) (*geo.FeatureCollection, error) {
	if c.geojson != "" {
		return geo.LoadFile(c.geojson)
	}

	loc, err := settings.ResolveGeoJSON(nil)
	if err != nil {
		return nil, err
	}
	if !loc.IsAbs() {
		return geo.LoadFile(filepath.Join(staticDir, filepath.FromSlash(loc.Path)))
	}
	if loc.Scheme != "http" && loc.Scheme != "https" {
		return nil, fmt.Errorf("unsupported geojson location %q", loc.String())
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, loc.String(), nil)
	if err != nil {
		return nil, err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch geojson: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch geojson: unexpected status %d", resp.StatusCode)
	}
	return geo.Load(resp.Body)
}

func (c *cli) printJSON(stdout, stderr io.Writer, v interface{}) int {
	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		_, _ = fmt.Fprintf(stderr, "parcelctl: encode output: %v\n", err)
		return exitFailure
	}
	return exitOK
}
