package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/abdul-hamid-achik/routekit/pkg/server"
	"github.com/abdul-hamid-achik/routekit/pkg/watch"
	"github.com/fatih/color"
	"github.com/pkg/browser"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the dev server",
	Long: `Serve the routes directory over HTTP with live route reloading.

Pages are served with their front matter stripped; unmatched paths get the
fallback route with status 404. Inspection endpoints:

  /__routes   route table as JSON
  /__nav      navigation tree as JSON (?prefix=)
  /__match    resolve a path (?path=)
  /__data     data store dump
  /__index    navigation as HTML
  /__events   change notifications (Server-Sent Events)
  /__metrics  Prometheus metrics

Examples:
  routekit serve
  routekit serve --port 8080 --open
  routekit serve --no-watch`,
	Run: runServe,
}

var (
	servePort    int
	serveHost    string
	serveOpen    bool
	serveNoWatch bool
	serveLayouts string
)

func init() {
	serveCmd.Flags().IntVarP(&servePort, "port", "p", 0, "Port to listen on (default: server.port)")
	serveCmd.Flags().StringVar(&serveHost, "host", "", "Host to bind to (default: server.host)")
	serveCmd.Flags().BoolVar(&serveOpen, "open", false, "Open the index page in a browser")
	serveCmd.Flags().BoolVar(&serveNoWatch, "no-watch", false, "Disable file watching")
	serveCmd.Flags().StringVar(&serveLayouts, "layouts", "layouts", "Layouts directory watched for page cache flushes")
}

func runServe(cmd *cobra.Command, args []string) {
	cyan := color.New(color.FgCyan).SprintFunc()
	green := color.New(color.FgGreen).SprintFunc()
	yellow := color.New(color.FgYellow).SprintFunc()

	cfg, err := loadConfig()
	if err != nil {
		exitWithError(err)
	}
	if servePort != 0 {
		cfg.Server.Port = servePort
	}
	if serveHost != "" {
		cfg.Server.Host = serveHost
	}

	log := newLogger(cfg)
	t := cfg.NewTable(log)

	srv, err := server.New(t, server.Options{
		Host:          cfg.Server.Host,
		Port:          cfg.Server.Port,
		PageCacheSize: cfg.Server.PageCache,
		Logger:        log,
	})
	if err != nil {
		exitWithError(err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if !jsonOutput {
		fmt.Printf("\n  %s Dev Server\n\n", cyan("routekit"))
		fmt.Printf("  → Scanning %s...\n", cfg.Dir)
	}

	if err := srv.Load(ctx); err != nil {
		exitWithError(fmt.Errorf("failed to load routes: %w", err))
	}

	if !serveNoWatch {
		w, err := watch.New(t, watch.Options{
			Dirs: []string{serveLayouts},
			OnChange: func(ev watch.Event) {
				srv.Notify(server.Change{Kind: string(ev.Kind), Path: ev.Path, Removed: ev.Removed})
			},
			Logger: log,
		})
		if err != nil {
			exitWithError(fmt.Errorf("failed to start watcher: %w", err))
		}
		defer func() { _ = w.Close() }()

		go func() {
			if err := w.Run(ctx); err != nil && ctx.Err() == nil {
				log.Error("watcher stopped", "error", err)
			}
		}()
	}

	url := "http://" + srv.Addr()

	if jsonOutput {
		printSuccess(ServeOutput{Status: "running", URL: url, Routes: t.Len(), Watch: !serveNoWatch})
	} else {
		fmt.Printf("  %s Found %d routes\n", green("✓"), t.Len())
		if !serveNoWatch {
			fmt.Printf("  %s Watching for changes...\n", green("✓"))
		}
		fmt.Printf("\n  ➜ Local:   %s\n", cyan(url))
		fmt.Printf("  ➜ Index:   %s\n\n", cyan(url+"/__index"))
	}

	if serveOpen {
		if err := browser.OpenURL(url + "/__index"); err != nil && !jsonOutput {
			fmt.Printf("  %s Could not open browser: %v\n", yellow("!"), err)
		}
	}

	if err := srv.ListenAndServe(ctx); err != nil {
		exitWithError(err)
	}
}
