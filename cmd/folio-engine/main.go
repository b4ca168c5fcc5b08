package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/foliolab/folio-engine/internal/cache"
	"github.com/foliolab/folio-engine/internal/catalog"
	"github.com/foliolab/folio-engine/internal/config"
	"github.com/foliolab/folio-engine/internal/copywriter"
	"github.com/foliolab/folio-engine/internal/intent"
	"github.com/foliolab/folio-engine/internal/kb"
	"github.com/foliolab/folio-engine/internal/llm"
	"github.com/foliolab/folio-engine/internal/media"
	"github.com/foliolab/folio-engine/internal/orchestrator"
	"github.com/foliolab/folio-engine/internal/query"
	"github.com/foliolab/folio-engine/internal/render"
	"github.com/foliolab/folio-engine/internal/settings"
)

var (
	// Version is set via -ldflags at build time.
	Version = "dev"
	// Commit is set via -ldflags at build time.
	Commit = "unknown"
	// BuildTime is set via -ldflags at build time.
	BuildTime = "unknown"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(2)
	}

	switch os.Args[1] {
	case "init":
		initCmd(os.Args[2:])
	case "query":
		queryCmd(os.Args[2:])
	case "version":
		fmt.Printf("folio-engine %s (%s) %s\n", Version, Commit, BuildTime)
	default:
		printUsage()
		os.Exit(2)
	}
}

func printUsage() {
	fmt.Fprintf(os.Stderr, `folio-engine

Usage:
  folio-engine init [flags]
  folio-engine query [flags] "<free-text query>"
  folio-engine version

Commands:
  init      Write a starter config file and store the provider API key.
  query     Run the generation pipeline for one query and print the page document.
  version   Print build information.

`)
}

func initCmd(args []string) {
	fs := flag.NewFlagSet("init", flag.ExitOnError)

	providerType := fs.String("provider", "anthropic", "Provider type: openai|anthropic|openai_compatible")
	model := fs.String("model", "", "Default model name (required)")
	apiKey := fs.String("api-key", "", "Provider API key (required; stored in the secrets file, not the config)")
	baseURL := fs.String("base-url", "", "Provider base URL (required for openai_compatible)")

	storageURL := fs.String("storage-url", "", "Media storage base URL (e.g. https://abc123.supabase.co)")
	storageKey := fs.String("storage-key", "", "Storage service key for signing media URLs")
	kbPath := fs.String("kb", "", "Knowledge-base sqlite path (default: next to the config)")
	legacyDir := fs.String("kb-legacy", "", "Legacy knowledge-base directory used as fallback")

	cfgPath := fs.String("config", config.DefaultConfigPath(), "Config file path")
	logFormat := fs.String("log-format", "json", "Log format: json|text")
	logLevel := fs.String("log-level", "info", "Log level: debug|info|warn|error")

	_ = fs.Parse(args)

	if *model == "" || *apiKey == "" {
		fs.Usage()
		os.Exit(2)
	}

	dbPath := *kbPath
	if dbPath == "" {
		dbPath = filepath.Join(filepath.Dir(*cfgPath), "kb.db")
	}

	cfg := &config.Config{
		AI: config.AIConfig{
			Providers: []config.AIProvider{{
				ID:      "default",
				Name:    *providerType,
				Type:    *providerType,
				BaseURL: *baseURL,
				Models:  []config.AIProviderModel{{ModelName: *model, IsDefault: true}},
			}},
		},
		Media: config.MediaConfig{
			StorageBaseURL: *storageURL,
		},
		KBDatabasePath: dbPath,
		KBLegacyDir:    *legacyDir,
		LogFormat:      *logFormat,
		LogLevel:       *logLevel,
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "invalid config: %v\n", err)
		os.Exit(1)
	}
	if err := config.Save(*cfgPath, cfg); err != nil {
		fmt.Fprintf(os.Stderr, "failed to write config: %v\n", err)
		os.Exit(1)
	}

	secrets := settings.NewSecretsStore(config.DefaultSecretsPath())
	if err := secrets.SetAIProviderAPIKey("default", *apiKey); err != nil {
		fmt.Fprintf(os.Stderr, "failed to store api key: %v\n", err)
		os.Exit(1)
	}
	if *storageKey != "" {
		if err := secrets.SetStorageServiceKey(*storageKey); err != nil {
			fmt.Fprintf(os.Stderr, "failed to store storage key: %v\n", err)
			os.Exit(1)
		}
	}

	fmt.Printf("Config written: %s\n", filepath.Clean(*cfgPath))
}

func queryCmd(args []string) {
	fs := flag.NewFlagSet("query", flag.ExitOnError)
	cfgPath := fs.String("config", config.DefaultConfigPath(), "Config file path")
	rendered := fs.Bool("rendered", false, "Print the rendered tree instead of the raw page document")
	mock := fs.Bool("mock", false, "Answer from canned demo pages without any model or config")
	timeout := fs.Duration("timeout", 2*time.Minute, "Overall pipeline timeout")
	_ = fs.Parse(args)

	userQuery := strings.TrimSpace(strings.Join(fs.Args(), " "))
	if userQuery == "" {
		fs.Usage()
		os.Exit(2)
	}

	if *mock {
		doc := query.MockPage(userQuery)
		var out any = doc
		if *rendered {
			out = render.New(catalog.Default(), slog.Default()).Render(doc)
		}
		emitJSON(out)
		return
	}

	cfg, err := config.Load(filepath.Clean(*cfgPath))
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	log, err := buildLogger(cfg.LogFormat, cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}

	h, closeFn, err := buildHandler(cfg, log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to init pipeline: %v\n", err)
		os.Exit(1)
	}
	defer closeFn()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-stop
		cancel()
	}()

	var out any
	if *rendered {
		_, tree := h.HandleAndRender(ctx, userQuery)
		out = tree
	} else {
		out = h.Handle(ctx, userQuery)
	}
	emitJSON(out)
}

func emitJSON(out any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		fmt.Fprintf(os.Stderr, "failed to encode output: %v\n", err)
		os.Exit(1)
	}
}

// buildHandler wires the full pipeline from config: knowledge base, caches,
// model clients, media resolution, orchestration, rendering.
func buildHandler(cfg *config.Config, log *slog.Logger) (*query.Handler, func(), error) {
	secrets := settings.NewSecretsStore(config.DefaultSecretsPath())

	client, model, err := llm.NewFromConfig(&cfg.AI, secrets)
	if err != nil {
		return nil, nil, err
	}
	plannerModel := cfg.AI.PlannerModel
	if plannerModel == "" {
		plannerModel = model
	}

	store, err := kb.Open(cfg.KBDatabasePath)
	if err != nil {
		return nil, nil, err
	}
	closeFn := func() { _ = store.Close() }

	var legacy *kb.Legacy
	if cfg.KBLegacyDir != "" {
		legacy = kb.NewLegacy(cfg.KBLegacyDir)
	}

	var signer media.Signer
	if cfg.Media.StorageBaseURL != "" {
		storageKey, _, err := secrets.GetStorageServiceKey()
		if err != nil {
			closeFn()
			return nil, nil, err
		}
		ttl := time.Duration(cfg.Media.SignedURLTTLSeconds) * time.Second
		signer = media.NewStorageClient(cfg.Media.StorageBaseURL, storageKey, ttl)
	}
	allow := media.NewAllowList(cfg.Media.StorageBaseURL, cfg.Media.PlaceholderImageURL)
	resolver := media.NewResolver(store, signer, allow, log)

	cat := catalog.Default()
	h := query.NewHandler(
		kb.NewAccessor(store, legacy, log),
		cache.New(),
		intent.NewResolver(client, model, log),
		copywriter.New(client, model, log),
		orchestrator.New(cat, resolver, orchestrator.NewPlanner(client, plannerModel, log), log),
		render.New(cat, log),
		log,
	)
	return h, closeFn, nil
}

func buildLogger(format, level string) (*slog.Logger, error) {
	var lvl slog.Level
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "", "info":
		lvl = slog.LevelInfo
	case "debug":
		lvl = slog.LevelDebug
	case "warn", "warning":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		return nil, fmt.Errorf("unknown log level: %s", level)
	}

	opts := &slog.HandlerOptions{Level: lvl}

	var h slog.Handler
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "", "json":
		h = slog.NewJSONHandler(os.Stderr, opts)
	case "text":
		h = slog.NewTextHandler(os.Stderr, opts)
	default:
		return nil, fmt.Errorf("unknown log format: %s", format)
	}

	return slog.New(h), nil
}
