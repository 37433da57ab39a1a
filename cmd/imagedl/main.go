// Command imagedl downloads the images of a Diakrit portal order.
//
//	imagedl [options] <orderId>
//
// Example: fetch order 13011948 as raw, unwatermarked .jpg and .png
// files, five at a time, with a run log:
//
//	imagedl -e .jpg,.png -raw-image -no-watermark -p -l 13011948
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"imagedl/internal/config"
	"imagedl/internal/download"
	"imagedl/internal/extract"
	httpc "imagedl/internal/http"
	ioutils "imagedl/internal/io"
	"imagedl/internal/logger"
	"imagedl/internal/portal"
	"imagedl/internal/progress"
	"imagedl/internal/transform"
)

const (
	exitOK          = 0
	exitFatal       = 1
	exitPartial     = 2
	exitInterrupted = 130
)

func main() {
	os.Exit(run())
}

func run() int {
	var (
		extensionsFlag  = flag.String("e", "", "comma-separated image extensions to download (default .jpg)")
		outputFlag      = flag.String("o", "", "output directory (default downloaded_images)")
		baseURLFlag     = flag.String("b", "", "portal base URL (default https://portal.diakrit.com)")
		removeFlag      = flag.String("remove-params", "", "comma-separated extra query parameters to strip")
		rawImageFlag    = flag.Bool("raw-image", false, "strip width and height query parameters")
		noWatermarkFlag = flag.Bool("no-watermark", false, "strip the watermark query parameter")
		parallelFlag    = flag.Bool("p", false, "download in parallel")
		workersFlag     = flag.Int("workers", 0, "parallel worker count (with -p)")
		logFlag         = flag.Bool("l", false, "append run events to the log file")
		logFileFlag     = flag.String("log-file", "", "log file path (default image_downloader.log)")
		configFlag      = flag.String("config", "", "path to a JSON settings file")
		verboseFlag     = flag.Bool("verbose", false, "show debug output")
		dryRunFlag      = flag.Bool("dry-run", false, "list download URLs without downloading")
	)

	flag.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: imagedl [options] <orderId>")
		fmt.Fprintln(os.Stderr)
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() != 1 {
		flag.Usage()
		return exitFatal
	}
	orderID := flag.Arg(0)

	settings := config.DefaultSettings()
	if *configFlag != "" {
		var err error
		settings, err = config.Load(*configFlag)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
			return exitFatal
		}
	}

	// Flags that were given on the command line win over the file.
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "e":
			settings.Extensions = splitList(*extensionsFlag)
		case "o":
			settings.OutputDir = *outputFlag
		case "b":
			settings.BaseURL = *baseURLFlag
		case "remove-params":
			settings.RemoveParams = splitList(*removeFlag)
		case "raw-image":
			settings.RemoveWidthHeight = *rawImageFlag
		case "no-watermark":
			settings.RemoveWatermark = *noWatermarkFlag
		case "p":
			settings.Parallel = *parallelFlag
		case "workers":
			settings.Workers = *workersFlag
		case "l":
			settings.LogEnabled = *logFlag
		case "log-file":
			settings.LogFile = *logFileFlag
		case "verbose":
			settings.Verbose = *verboseFlag
		}
	})

	if err := settings.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return exitFatal
	}

	logCfg := logger.Config{Verbose: settings.Verbose}
	if settings.LogEnabled {
		logCfg.FilePath = settings.LogFile
	}
	log, err := logger.NewWithConfig("imagedl", logCfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return exitFatal
	}
	defer log.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Info().Str("order_id", orderID).Msg("starting download run")

	if err := ioutils.EnsureDir(settings.OutputDir); err != nil {
		log.Error().Err(err).Str("dir", settings.OutputDir).Msg("cannot create output directory")
		return exitFatal
	}

	client := httpc.NewClient(settings.HTTPOptions())
	pc, err := portal.NewClient(settings.BaseURL, client, settings.RetryPolicy(), log)
	if err != nil {
		log.Error().Err(err).Msg("invalid portal configuration")
		return exitFatal
	}

	html, err := pc.FetchListing(ctx, orderID)
	if err != nil {
		log.Error().Err(err).Msg("fatal: listing page unavailable")
		return exitFatal
	}

	refs, err := extract.Links(html, pc.Base(), extract.Options{
		Extensions:   settings.Extensions,
		PathContains: "/orderfiles/",
	})
	if err != nil {
		log.Error().Err(err).Msg("fatal: cannot parse listing page")
		return exitFatal
	}
	if len(refs) == 0 {
		log.Error().Str("order_id", orderID).Msg("no matching images found on listing page")
		return exitFatal
	}
	log.Info().Int("count", len(refs)).Msg("discovered image references")

	if *dryRunFlag {
		for _, ref := range refs {
			fmt.Println(transform.Apply(ref.URL, settings.TransformConfig()))
		}
		return exitOK
	}

	manager := download.NewManager(download.Options{
		Client:     client,
		Retry:      settings.RetryPolicy(),
		Transform:  settings.TransformConfig(),
		OutputDir:  settings.OutputDir,
		Workers:    settings.WorkerCount(),
		OnProgress: progress.ConsoleCallback(os.Stdout),
		Log:        log,
	})

	summary, err := manager.Run(ctx, refs)
	if err != nil {
		log.Error().Err(err).Msg("fatal: download run failed")
		return exitFatal
	}

	fmt.Printf("Done: %d succeeded, %d failed, %d total", summary.Succeeded, summary.Failed, summary.Total)
	if summary.Skipped > 0 {
		fmt.Printf(" (%d already present)", summary.Skipped)
	}
	fmt.Println()

	for _, res := range summary.Results {
		if res.Err != "" {
			fmt.Fprintf(os.Stderr, "  failed: %s (%d attempts): %s\n", res.URL, res.Attempts, res.Err)
		}
	}

	if summary.Cancelled {
		fmt.Println("Interrupted: partial results written.")
		return exitInterrupted
	}
	if summary.Failed > 0 {
		fmt.Println("Partial failure: see log for details.")
		return exitPartial
	}
	return exitOK
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
