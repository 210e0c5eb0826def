package main

import (
	"context"
	_ "embed"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/peterbourgon/ff/v4"
	"github.com/peterbourgon/ff/v4/ffhelp"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/zombor/receipt-processor/internal/logging"
	"github.com/zombor/receipt-processor/internal/receipt"
	"github.com/zombor/receipt-processor/internal/scanning"
)

//go:embed VERSION.txt
var versionFile string

var version = strings.TrimSpace(versionFile)

func main() {
	if err := run(os.Args[1:]); err != nil {
		slog.Error("Fatal error", "error", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	fs := ff.NewFlagSet("receipt-processor")
	var (
		port            = fs.IntLong("port", 8080, "HTTP server port")
		logLevel        = fs.StringLong("log-level", "info", "Log level: debug, info, warn or error")
		scannerType     = fs.StringLong("scanner", "none", "Receipt image scanner: 'none', 'gemini' or 'ollama'")
		geminiKey       = fs.StringLong("gemini-key", "", "Google Gemini API key (or set GEMINI_API_KEY env var)")
		geminiModel     = fs.StringLong("gemini-model", scanning.DefaultGeminiModel, "Google Gemini model name")
		ollamaURL       = fs.StringLong("ollama-url", scanning.DefaultOllamaURL, "Ollama API base URL")
		ollamaModel     = fs.StringLong("ollama-model", scanning.DefaultOllamaModel, "Ollama vision model name")
		scanArchive     = fs.StringLong("scan-archive", "", "Directory to archive scanned uploads in (optional)")
		scanRate        = fs.Float64Long("scan-rate", 1, "Sustained scan requests per second")
		scanBurst       = fs.IntLong("scan-burst", 3, "Scan requests allowed in a burst")
		maxUploadMB     = fs.IntLong("max-upload-mb", 20, "Maximum scan upload size in MB")
		shutdownTimeout = fs.DurationLong("shutdown-timeout", 10*time.Second, "Time allowed for in-flight requests on shutdown")
		showVersion     = fs.BoolLong("version", "Show version information")
	)

	if err := ff.Parse(fs, args,
		ff.WithEnvVarPrefix("RECEIPT_PROCESSOR"),
	); err != nil {
		fmt.Fprintf(os.Stderr, "%s\n", ffhelp.Flags(fs))
		return err
	}

	if *showVersion {
		fmt.Println(version)
		return nil
	}

	level, err := logging.ParseLevel(*logLevel)
	if err != nil {
		return err
	}
	logging.Setup(os.Stderr, level)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	scanner, err := newScanner(ctx, *scannerType, *geminiKey, *geminiModel, *ollamaURL, *ollamaModel)
	if err != nil {
		return err
	}
	if scanner != nil {
		defer scanner.Close()
	}

	var archive receipt.Storage
	if *scanArchive != "" {
		slog.Info("Initializing scan archive...", "path", *scanArchive)
		local, err := receipt.NewLocalStorage(*scanArchive)
		if err != nil {
			return fmt.Errorf("initializing scan archive: %w", err)
		}
		archive = local
	}

	service := receipt.NewServiceWithDeps(receipt.NewMemoryStore(), scanner, archive)
	server := receipt.NewServer(service, receipt.ServerOptions{
		ScanRate:       rate.Limit(*scanRate),
		ScanBurst:      *scanBurst,
		MaxUploadBytes: int64(*maxUploadMB) << 20,
	})

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return server.Start(fmt.Sprintf(":%d", *port))
	})
	g.Go(func() error {
		<-ctx.Done()
		slog.Info("Shutting down...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), *shutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	slog.Info("Server started", "version", version, "port", *port, "scanner", *scannerType)
	return g.Wait()
}

// newScanner builds the configured scanner; "none" disables scanning and returns nil
func newScanner(ctx context.Context, kind, geminiKey, geminiModel, ollamaURL, ollamaModel string) (scanning.Scanner, error) {
	switch kind {
	case "", "none":
		return nil, nil
	case "gemini":
		apiKey := geminiKey
		if apiKey == "" {
			apiKey = os.Getenv("GEMINI_API_KEY")
		}
		if apiKey == "" {
			return nil, fmt.Errorf("gemini API key is required: set --gemini-key or GEMINI_API_KEY")
		}
		slog.Info("Initializing Gemini scanner...", "model", geminiModel)
		scanner, err := scanning.NewGemini(ctx, apiKey, geminiModel)
		if err != nil {
			return nil, fmt.Errorf("initializing gemini: %w", err)
		}
		return scanner, nil
	case "ollama":
		slog.Info("Initializing Ollama scanner...", "url", ollamaURL, "model", ollamaModel)
		scanner, err := scanning.NewOllama(ollamaURL, ollamaModel)
		if err != nil {
			return nil, fmt.Errorf("initializing ollama: %w", err)
		}
		return scanner, nil
	default:
		return nil, fmt.Errorf("invalid scanner type %q: valid types are none, gemini or ollama", kind)
	}
}
