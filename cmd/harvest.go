package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/brogergvhs/reciterd/internal/config"
	"github.com/brogergvhs/reciterd/internal/harvest"
	"github.com/brogergvhs/reciterd/internal/ui"
	"github.com/brogergvhs/reciterd/internal/util"
)

var (
	// source
	flagBaseURL    string
	flagMaxPages   int
	flagPageSuffix string
	flagPathPrefix string
	flagAllowExt   string

	// runtime
	flagOutput      string
	flagTimeout     time.Duration
	flagImagePause  time.Duration
	flagPagePause   time.Duration
	flagMaxRPS      float64
	flagDryRun      bool
	flagNoProgress  bool
	flagMetricsAddr string

	// headers/auth
	flagCookie     string
	flagCookieFile string
	flagUserAgent  string
	flagCloudflare bool
)

// harvestTransport replaces the network transport when non-nil.
var harvestTransport http.RoundTripper

func init() {
	harvestCmd := &cobra.Command{
		Use:   "harvest [base_url] [output_dir] [max_pages]",
		Short: "Download reciter portraits. Uses the defaults from the selected config, overwritten by env and CLI flags",
		Args:  cobra.MaximumNArgs(3),
		RunE:  runHarvest,
	}

	// source
	harvestCmd.Flags().StringVar(&flagBaseURL, "url", "", "listing base URL (page 1)")
	harvestCmd.Flags().IntVar(&flagMaxPages, "max-pages", 0, "stop after this many pages (0 = until an empty page)")
	harvestCmd.Flags().StringVar(&flagPageSuffix, "page-suffix", "", "path appended to the base URL for page N, with one %d")
	harvestCmd.Flags().StringVar(&flagPathPrefix, "path-prefix", "", "src prefix that marks portrait images")
	harvestCmd.Flags().StringVar(&flagAllowExt, "allow-ext", "", "extensions kept in file names (e.g. \"jpg|png|webp\")")

	// runtime
	harvestCmd.Flags().StringVar(&flagOutput, "output", "", "output folder for images")
	harvestCmd.Flags().DurationVar(&flagTimeout, "timeout", 0, "per-request timeout")
	harvestCmd.Flags().DurationVar(&flagImagePause, "image-pause", 0, "pause after each downloaded image")
	harvestCmd.Flags().DurationVar(&flagPagePause, "page-pause", 0, "pause between pages")
	harvestCmd.Flags().Float64Var(&flagMaxRPS, "max-rps", 0, "cap on requests per second (0 = no cap)")
	harvestCmd.Flags().BoolVar(&flagDryRun, "dry-run", false, "list what would be downloaded, don't download")
	harvestCmd.Flags().BoolVar(&flagNoProgress, "no-progress", false, "disable progress bars")
	harvestCmd.Flags().StringVar(&flagMetricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address (e.g. :9090)")

	// headers/auth
	harvestCmd.Flags().StringVar(&flagCookie, "cookie", "", "cookie string, e.g. \"key=value; other=123\"")
	harvestCmd.Flags().StringVar(&flagCookieFile, "cookie-file", "", "path to a text file with cookies (one header line)")
	harvestCmd.Flags().StringVar(&flagUserAgent, "user-agent", "", "override User-Agent")
	harvestCmd.Flags().BoolVar(&flagCloudflare, "cloudflare-bypass", false, "route requests through the Cloudflare bypass transport")

	rootCmd.AddCommand(harvestCmd)
}

func harvestOptions(cmd *cobra.Command, args []string) (config.Options, error) {
	opts := config.Options{
		IgnoreConfig:     flagIgnoreConfig,
		EnvFile:          flagEnvFile,
		Debug:            flagDebug,
		BaseURL:          flagBaseURL,
		Output:           flagOutput,
		PageSuffix:       flagPageSuffix,
		PathPrefix:       flagPathPrefix,
		Timeout:          flagTimeout,
		MaxRPS:           flagMaxRPS,
		Cookie:           flagCookie,
		CookieFile:       flagCookieFile,
		UserAgent:        flagUserAgent,
		CloudflareBypass: flagCloudflare,
		NoProgress:       flagNoProgress,
		MetricsAddr:      flagMetricsAddr,
	}

	if flagAllowExt != "" {
		opts.AllowExt = config.SplitList(flagAllowExt)
	}
	if cmd.Flags().Changed("max-pages") {
		opts.MaxPages = &flagMaxPages
	}
	if cmd.Flags().Changed("image-pause") {
		opts.ImagePause = &flagImagePause
	}
	if cmd.Flags().Changed("page-pause") {
		opts.PagePause = &flagPagePause
	}

	// positional form: harvest [base_url] [output_dir] [max_pages]
	if len(args) > 0 {
		opts.BaseURL = args[0]
	}
	if len(args) > 1 {
		opts.Output = args[1]
	}
	if len(args) > 2 {
		n, err := strconv.Atoi(args[2])
		if err != nil || n < 0 {
			return opts, fmt.Errorf("max_pages must be a non-negative integer, got %q", args[2])
		}
		opts.MaxPages = &n
	}

	return opts, nil
}

func runHarvest(cmd *cobra.Command, args []string) error {
	opts, err := harvestOptions(cmd, args)
	if err != nil {
		return err
	}

	cfg, usedPath, err := config.LoadMerged(opts)
	if err != nil {
		return err
	}

	runID := uuid.NewString()
	logSvc := ui.NewLogger(cfg.Debug).With("run", runID[:8])

	out := cmd.OutOrStdout()
	if usedPath != "" {
		fmt.Fprintf(out, "Config file: %s\n", usedPath)
	}
	fmt.Fprintln(out, "Full config:")
	cfg.Print(out)
	fmt.Fprintln(out)

	store, err := harvest.NewDirStore(cfg.Output)
	if err != nil {
		return err
	}

	client, err := util.NewHTTPClient(util.HTTPClientOptions{
		Timeout:          cfg.Timeout,
		UserAgent:        cfg.UserAgent,
		Cookie:           cfg.Cookie,
		CookieFile:       cfg.CookieFile,
		CloudflareBypass: cfg.CloudflareBypass,
		Transport:        harvestTransport,
		DebugLogger:      logSvc,
	})
	if err != nil {
		return err
	}

	metrics := harvest.NewMetrics()
	if cfg.MetricsAddr != "" {
		stop := serveMetrics(cfg.MetricsAddr, metrics, logSvc)
		defer stop()
	}

	ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	hopts := cfg.HarvestOptions()
	hopts.DryRun = flagDryRun
	hopts.RunID = runID
	hopts.Logger = logSvc
	hopts.Metrics = metrics

	var pm *ui.ProgressManager
	if !cfg.NoProgress && !flagDryRun {
		pm = ui.NewProgressManager(os.Stderr)
		hopts.Progress = pm.ForPage
	}

	fetcher := harvest.NewHTTPFetcher(client, cfg.MaxRPS, metrics)
	hv, err := harvest.New(fetcher, store, hopts)
	if err != nil {
		return err
	}

	logSvc.Infof("Harvesting %s into %s", cfg.BaseURL, store.Dir())
	sum := hv.Run(ctx)

	if pm != nil {
		pm.Close()
	}

	if sum.StopReason == harvest.StopCancelled {
		logSvc.Warnf("Interrupted, cleaning up")
		cleanupInterrupted(store, logSvc)
	}

	ui.PrintSummary(out, sum)

	if sum.StopReason == harvest.StopCancelled {
		return errors.New("harvest interrupted")
	}
	return nil
}

// cleanupInterrupted drops unfinished .part files. The output directory goes
// too, but only when this run created it and nothing landed in it.
func cleanupInterrupted(store *harvest.DirStore, log *ui.Logger) {
	util.CleanupPartialFiles(store.Dir(), harvest.PartialSuffix, log)
	if store.Created() {
		util.RemoveIfEmpty(store.Dir(), log)
	}
}

func serveMetrics(addr string, m *harvest.Metrics, log *ui.Logger) func() {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{}))

	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Errorf("Metrics server: %v", err)
		}
	}()
	log.Infof("Metrics on http://%s/metrics", addr)

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	}
}
