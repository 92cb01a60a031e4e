package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/danielgtaylor/huma/v2/humacli"
	"github.com/oklog/run"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/joeblew999/plat-quake/internal/config"
	"github.com/joeblew999/plat-quake/internal/db"
	"github.com/joeblew999/plat-quake/internal/observability"
	"github.com/joeblew999/plat-quake/internal/server"
	"github.com/joeblew999/plat-quake/internal/service"
)

// Options defines all CLI flags and env vars for the quake map server.
// Flags: --host, --port, --mapbox-token, --config, --fetch-timeout, --fetch-retries, --log-level
// Env vars: SERVICE_HOST, SERVICE_PORT, SERVICE_MAPBOX_TOKEN, SERVICE_CONFIG, ...
type Options struct {
	Host         string `doc:"Host to bind to" default:"0.0.0.0"`
	Port         int    `doc:"Port to listen on" short:"p" default:"8087"`
	MapboxToken  string `doc:"Mapbox access token for the base map tiles"`
	Config       string `doc:"Optional YAML map file overriding viewport, base layer styles and feed URLs"`
	FetchTimeout int    `doc:"Per-attempt feed timeout in seconds" default:"30"`
	FetchRetries int    `doc:"Extra attempts for a failing feed; 0 disables retrying" default:"2"`
	LogLevel     string `doc:"Log level (debug, info, warn, error)" default:"info"`
}

// app is everything a subcommand needs, built from Options.
type app struct {
	logger   *logrus.Logger
	canvas   *service.Canvas
	snapshot *service.Snapshot
	closeDB  func() error
}

func newApp(opts *Options, fs afero.Fs, metrics *observability.Metrics) (*app, error) {
	logger, err := observability.NewLogger(opts.LogLevel)
	if err != nil {
		return nil, err
	}

	cfg := service.DefaultCanvasConfig()
	cfg.MapboxToken = opts.MapboxToken
	if opts.Config != "" {
		f, err := config.Load(fs, opts.Config)
		if err != nil {
			return nil, err
		}
		if err := f.Apply(&cfg); err != nil {
			return nil, errors.Wrapf(err, "map file %s", opts.Config)
		}
	}

	a := &app{logger: logger, closeDB: func() error { return nil }}

	conn, err := db.Open(db.Config{})
	if err != nil {
		logger.WithError(err).Warn("duckdb unavailable, snapshot disabled")
	} else {
		a.snapshot, err = service.NewSnapshot(context.Background(), conn)
		if err != nil {
			conn.Close()
			logger.WithError(err).Warn("snapshot schema failed, snapshot disabled")
		} else {
			a.closeDB = conn.Close
		}
	}

	fetcher := service.NewFeedFetcher(service.FetcherConfig{
		Timeout: time.Duration(opts.FetchTimeout) * time.Second,
		Retries: opts.FetchRetries,
	}, logger)

	deps := service.CanvasDeps{
		Fetcher: fetcher,
		Logger:  logger,
		Metrics: metrics,
	}
	// A nil *Snapshot must not become a non-nil Snapshotter.
	if a.snapshot != nil {
		deps.Snapshot = a.snapshot
	}
	a.canvas, err = service.NewCanvas(cfg, deps)
	if err != nil {
		a.closeDB()
		return nil, err
	}
	return a, nil
}

func (a *app) server(opts *Options) (*server.Server, error) {
	return server.New(server.Config{Host: opts.Host, Port: opts.Port}, a.canvas, a.snapshot, a.logger)
}

// serve runs the HTTP server and the feed loader until ctx is cancelled or
// the server fails.
func serve(ctx context.Context, a *app, srv *server.Server) error {
	var g run.Group

	g.Add(srv.Start, func(error) {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			a.logger.WithError(err).Warn("shutdown")
		}
	})

	// The loader keeps running after Load so that only ctx or a server
	// failure ends the group.
	loadCtx, cancelLoad := context.WithCancel(ctx)
	g.Add(func() error {
		a.canvas.Load(loadCtx)
		<-loadCtx.Done()
		return nil
	}, func(error) {
		cancelLoad()
	})

	return g.Run()
}

// printCounts writes one line per overlay group and reports whether any
// group failed.
func printCounts(w io.Writer, overlays []service.OverlaySummary) (failed bool) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "OVERLAY\tSTATUS\tFEATURES\tERROR")
	for _, o := range overlays {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%s\n", o.ID, o.Status, o.Count, o.Error)
		if o.Status != service.StatusLoaded {
			failed = true
		}
	}
	tw.Flush()
	return failed
}

func main() {
	fs := afero.NewOsFs()

	cli := humacli.New(func(hooks humacli.Hooks, opts *Options) {
		ctx, cancel := context.WithCancel(context.Background())
		done := make(chan struct{})

		hooks.OnStart(func() {
			defer close(done)
			a, err := newApp(opts, fs, observability.NewMetrics())
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
				os.Exit(1)
			}
			defer a.closeDB()

			srv, err := a.server(opts)
			if err != nil {
				a.logger.WithError(err).Fatal("create server")
			}

			displayHost := opts.Host
			if displayHost == "0.0.0.0" {
				displayHost = "localhost"
			}
			baseURL := fmt.Sprintf("http://%s:%d", displayHost, opts.Port)
			a.logger.WithFields(logrus.Fields{
				"map":     baseURL + "/",
				"docs":    baseURL + "/docs",
				"openapi": baseURL + "/openapi.json",
			}).Info("plat-quake starting")

			if err := serve(ctx, a, srv); err != nil {
				a.logger.WithError(err).Fatal("server error")
			}
		})

		hooks.OnStop(func() {
			cancel()
			<-done
		})
	})

	cli.Root().Use = "quake"
	cli.Root().Short = "Earthquake and tectonic plate map"
	cli.Root().Version = "0.1.0"

	// spec subcommand: export OpenAPI spec
	specCmd := &cobra.Command{
		Use:   "spec",
		Short: "Export OpenAPI spec (JSON by default, --yaml for YAML)",
		Run: humacli.WithOptions(func(cmd *cobra.Command, args []string, opts *Options) {
			a, err := newApp(opts, fs, observability.NewMetrics())
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
				os.Exit(1)
			}
			defer a.closeDB()
			srv, err := a.server(opts)
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
				os.Exit(1)
			}
			spec := srv.OpenAPI()

			useYAML, _ := cmd.Flags().GetBool("yaml")

			var output []byte
			if useYAML {
				output, err = yaml.Marshal(spec)
			} else {
				output, err = json.MarshalIndent(spec, "", "  ")
			}
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error marshaling spec: %v\n", err)
				os.Exit(1)
			}
			fmt.Println(string(output))
		}),
	}
	specCmd.Flags().BoolP("yaml", "y", false, "Output as YAML instead of JSON")
	cli.Root().AddCommand(specCmd)

	// fetch subcommand: load every feed once and report
	fetchCmd := &cobra.Command{
		Use:   "fetch",
		Short: "Fetch every feed once and print per-overlay feature counts",
		Run: humacli.WithOptions(func(cmd *cobra.Command, args []string, opts *Options) {
			a, err := newApp(opts, fs, observability.NewMetrics())
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
				os.Exit(1)
			}
			a.canvas.Load(cmd.Context())
			failed := printCounts(cmd.OutOrStdout(), a.canvas.Overlays())
			a.closeDB()
			if failed {
				os.Exit(1)
			}
		}),
	}
	cli.Root().AddCommand(fetchCmd)

	cli.Run()
}
