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

	"github.com/zombor/pdfswift/internal/delivery"
	"github.com/zombor/pdfswift/internal/document"
	"github.com/zombor/pdfswift/internal/imaging"
	"github.com/zombor/pdfswift/internal/library"
	"github.com/zombor/pdfswift/internal/ocr"
	"github.com/zombor/pdfswift/internal/ocr/tesseract"
	"github.com/zombor/pdfswift/internal/optimize"
	"github.com/zombor/pdfswift/internal/workflow"
)

//go:embed VERSION.txt
var versionFile string

var version = strings.TrimSpace(versionFile)

func main() {
	// Check for version flag before parsing other flags
	for _, arg := range os.Args[1:] {
		if arg == "--version" || arg == "-version" || arg == "-v" {
			fmt.Println(version)
			os.Exit(0)
		}
	}

	fs := ff.NewFlagSet("pdfswift")
	var (
		port           = fs.IntLong("port", 8080, "HTTP server port")
		dbPath         = fs.StringLong("db", "pdfswift.db", "Database file path")
		storagePath    = fs.StringLong("storage", "./documents", "Storage directory path")
		pageSize       = fs.StringLong("page-size", "a4", "Page size of built documents: 'a4' or 'letter'")
		maxDimension   = fs.IntLong("max-image-dimension", 0, "Downscale captures so their longest side is at most this many pixels (0 keeps full resolution)")
		jpegQuality    = fs.IntLong("jpeg-quality", imaging.DefaultJPEGQuality, "JPEG quality (1-100) for re-encoded captures")
		ocrBackend     = fs.StringLong("ocr-backend", "tesseract", "OCR backend: 'tesseract', 'ollama' or 'gemini'")
		ocrLanguage    = fs.StringLong("ocr-language", ocr.DefaultLanguage, "OCR language")
		ocrConcurrency = fs.IntLong("ocr-concurrency", 1, "Maximum number of OCR calls in flight")
		ollamaURL      = fs.StringLong("ollama-url", ocr.DefaultOllamaURL, "Ollama API base URL")
		ollamaModel    = fs.StringLong("ollama-model", ocr.DefaultOllamaModel, "Ollama vision model name (e.g., llava, llava-phi3, qwen2-vl)")
		geminiKey      = fs.StringLong("gemini-key", "", "Google Gemini API key (or set GEMINI_API_KEY env var)")
		geminiModel    = fs.StringLong("gemini-model", ocr.DefaultGeminiModel, "Google Gemini model name")
		shareURL       = fs.StringLong("share-url", "", "Share target URL (sharing falls back to saving when empty)")
		shareMaxBytes  = fs.Int64Long("share-max-bytes", delivery.DefaultShareMaxBytes, "Largest artifact the share target accepts")
		shareTimeout   = fs.DurationLong("share-timeout", 5*time.Minute, "How long to wait for the share target")
		strictCancel   = fs.BoolLong("share-strict-cancel", "Only treat a 499 or {\"status\":\"cancelled\"} reply as a user cancellation; by default any share error mentioning cancel or abort counts")
		authUser       = fs.StringLong("auth-user", "", "Basic auth username (optional)")
		authPass       = fs.StringLong("auth-pass", "", "Basic auth password (optional)")
		logLevel       = fs.StringLong("log-level", "info", "Log level: debug, info, warn or error")
		showVersion    = fs.BoolLong("version", "Show version information")
	)

	if err := ff.Parse(fs, os.Args[1:],
		ff.WithEnvVarPrefix("PDF_SWIFT"),
	); err != nil {
		fmt.Fprintf(os.Stderr, "%s\n", ffhelp.Flags(fs))
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	// Check version flag after parsing
	if *showVersion {
		fmt.Println(version)
		os.Exit(0)
	}

	var level slog.Level
	if err := level.UnmarshalText([]byte(*logLevel)); err != nil {
		fmt.Fprintf(os.Stderr, "error: invalid log level %q\n", *logLevel)
		os.Exit(1)
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	size, err := document.ParsePageSize(*pageSize)
	if err != nil {
		slog.Error("Invalid page size", "error", err)
		os.Exit(1)
	}

	// Initialize database
	slog.Info("Initializing database...")
	db, err := library.NewBoltDB(*dbPath)
	if err != nil {
		slog.Error("Failed to initialize database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	// Initialize storage
	slog.Info("Initializing storage...")
	store, err := library.NewLocalStorage(*storagePath)
	if err != nil {
		slog.Error("Failed to initialize storage", "error", err)
		os.Exit(1)
	}
	lib := library.New(db, store)

	// Initialize OCR based on backend
	var factory ocr.WorkerFactory
	switch *ocrBackend {
	case "tesseract":
		slog.Info("Initializing Tesseract OCR...", "language", *ocrLanguage)
		factory = tesseract.NewFactory()
	case "ollama":
		slog.Info("Initializing Ollama OCR...", "url", *ollamaURL, "model", *ollamaModel)
		factory = ocr.NewOllamaFactory(*ollamaURL, *ollamaModel)
	case "gemini":
		// Get Gemini API key from flag or environment
		apiKey := *geminiKey
		if apiKey == "" {
			apiKey = os.Getenv("GEMINI_API_KEY")
		}
		slog.Info("Initializing Gemini OCR...", "model", *geminiModel)
		factory, err = ocr.NewGeminiFactory(apiKey, *geminiModel)
		if err != nil {
			slog.Error("Failed to initialize Gemini. Set --gemini-key flag or GEMINI_API_KEY environment variable", "error", err)
			os.Exit(1)
		}
	default:
		slog.Error("Invalid OCR backend", "backend", *ocrBackend, "valid", "tesseract, ollama or gemini")
		os.Exit(1)
	}
	engine := ocr.NewEngine(factory,
		ocr.WithLanguage(*ocrLanguage),
		ocr.WithConcurrency(*ocrConcurrency),
	)

	// Initialize delivery
	var sharer delivery.Sharer = delivery.Unavailable{}
	if *shareURL != "" {
		slog.Info("Sharing enabled", "url", *shareURL)
		sharer = delivery.NewWebhookSharer(*shareURL, *shareMaxBytes, *shareTimeout)
	}
	detectCancel := delivery.MessageHeuristic
	if *strictCancel {
		detectCancel = delivery.IsCancelled
	}
	dispatcher := delivery.NewDispatcher(sharer, lib, delivery.WithCancelDetector(detectCancel))

	// Initialize service
	builder := document.NewBuilder(document.NewFPDF(), size)
	imageOptions := imaging.Options{MaxDimension: *maxDimension, JPEGQuality: *jpegQuality}
	service := workflow.NewService(builder, engine, optimize.New(), dispatcher, lib, imageOptions)

	// Initialize server
	basicAuth := workflow.BasicAuth{
		Username: *authUser,
		Password: *authPass,
	}
	server := workflow.NewServer(service, basicAuth)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	addr := fmt.Sprintf(":%d", *port)
	slog.Info("Server started", "address", fmt.Sprintf("http://localhost%s", addr), "version", version)
	if *authUser != "" || *authPass != "" {
		slog.Info("Basic auth enabled", "user", *authUser)
	}

	if err := server.Start(ctx, addr); err != nil {
		slog.Error("Server error", "error", err)
		os.Exit(1)
	}

	slog.Info("Shutting down...")
}
