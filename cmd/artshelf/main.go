package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/mmcdole/artshelf/internal/adapter"
	"github.com/mmcdole/artshelf/internal/adapter/artapi"
	"github.com/mmcdole/artshelf/internal/catalog"
	"github.com/mmcdole/artshelf/internal/domain"
	"github.com/mmcdole/artshelf/internal/engagement"
	"github.com/mmcdole/artshelf/internal/store"
	"golang.org/x/term"
)

// Version is set at build time via -ldflags
var Version = "dev"

const usage = `usage: artshelf [flags] <command> [args]

commands:
  setup                        configure the API URL and key
  list     [-page N] [-size N] [-tag T]...
  random   [-limit N] [-tag T]...
  category <name> [-page N] [-size N]
  all      [-size N] [-tag T]...      load every page
  show     <id>
  like     <id>                toggle like
  bookmark <id>                toggle bookmark
  create   -file-id ID [-url U] [-thumb U] [-tag T]...
  update   <id> [-url U] [-thumb U] [-tag T]...
  delete   <id>
  upload   <file> -title T -artist A [-description D] [-category C] [-avatar U] [-tag T]... [-raw]
  file-info   <path>
  file-delete <path>
  search   <query> [-size N]   fuzzy search over every loaded page
  tags     <query>             suggest tags from the first page
  ledger   [likes|bookmarks]   list local engagement records
  clear    <likes|bookmarks> [id]
`

func main() {
	var showVersion bool
	flag.BoolVar(&showVersion, "v", false, "print version")
	flag.BoolVar(&showVersion, "version", false, "print version")
	flag.Usage = func() { fmt.Fprint(os.Stderr, usage) }
	flag.Parse()

	if showVersion {
		fmt.Printf("artshelf %s\n", Version)
		return
	}

	if err := run(flag.Args()); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	if len(args) == 0 {
		flag.Usage()
		return errors.New("no command given")
	}

	// Load configuration
	cfg, err := adapter.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// Setup logger
	logger, err := adapter.SetupLogger(&cfg.Logging)
	if err != nil {
		// Fall back to null logger if file logging fails
		logger = adapter.NullLogger()
	}
	slog.SetDefault(logger)

	logger.Info("starting artshelf", "version", Version, "command", args[0])

	if args[0] == "setup" {
		return runSetupFlow(cfg)
	}
	if !cfg.IsConfigured() {
		logger.Debug("no API key configured, requests are anonymous")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(cfg, logger)
	if err != nil {
		return err
	}
	defer a.close()

	return a.dispatch(ctx, args[0], args[1:])
}

// runSetupFlow prompts for the API location and key and saves them
func runSetupFlow(cfg *adapter.Config) error {
	fmt.Println()
	fmt.Println("Welcome to artshelf!")
	fmt.Println()

	reader := bufio.NewReader(os.Stdin)
	fmt.Printf("API base URL [%s]: ", cfg.API.BaseURL)
	input, err := reader.ReadString('\n')
	if err != nil {
		return fmt.Errorf("failed to read input: %w", err)
	}
	if baseURL := strings.TrimSpace(input); baseURL != "" {
		cfg.API.BaseURL = baseURL
	}

	fmt.Print("API key (leave empty for anonymous access): ")
	keyBytes, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Println()
	if err != nil {
		return fmt.Errorf("failed to read API key: %w", err)
	}
	cfg.API.APIKey = strings.TrimSpace(string(keyBytes))

	if err := cfg.Validate(); err != nil {
		return err
	}

	if err := adapter.SaveConfig(adapter.DefaultConfigPath(), cfg); err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}

	fmt.Println()
	fmt.Println("✓ Configuration saved!")
	return nil
}

// app wires the client, ledgers and catalog for one command
type app struct {
	cfg       *adapter.Config
	logger    *slog.Logger
	store     *store.KVStore
	client    *artapi.Client
	likes     *engagement.Ledger
	bookmarks *engagement.Ledger
	catalog   *catalog.Catalog
	metrics   *adapter.Metrics
}

func newApp(cfg *adapter.Config, logger *slog.Logger) (*app, error) {
	observer, metrics := adapter.NewObserver(&cfg.Metrics)

	kv, err := store.NewKVStore(cfg.Store.Path, cfg.API.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open store: %w", err)
	}

	clientCfg := artapi.Config{
		BaseURL:  cfg.API.BaseURL,
		APIKey:   cfg.API.APIKey,
		Timeout:  cfg.API.Timeout,
		Observer: observer,
	}
	if cfg.Cache.Enabled {
		clientCfg.CacheSize = cfg.Cache.SizeMB * 1024 * 1024
		clientCfg.CacheTTL = cfg.Cache.TTL
	}
	client := artapi.NewClient(clientCfg, logger)

	likes, err := engagement.NewLedger(domain.KindLike, client, kv, observer, logger)
	if err != nil {
		kv.Close()
		return nil, err
	}
	bookmarks, err := engagement.NewLedger(domain.KindBookmark, client, kv, observer, logger)
	if err != nil {
		kv.Close()
		return nil, err
	}

	cat := catalog.New(client, likes, bookmarks, catalog.Options{
		PageSize:    cfg.Catalog.PageSize,
		RandomLimit: cfg.Catalog.RandomLimit,
	}, logger)

	return &app{
		cfg:       cfg,
		logger:    logger,
		store:     kv,
		client:    client,
		likes:     likes,
		bookmarks: bookmarks,
		catalog:   cat,
		metrics:   metrics,
	}, nil
}

func (a *app) close() {
	if a.metrics != nil && a.cfg.Metrics.Textfile != "" {
		if err := a.metrics.WriteTextfile(a.cfg.Metrics.Textfile); err != nil {
			a.logger.Error("failed to write metrics", "error", err)
		}
	}
	if err := a.store.Close(); err != nil {
		a.logger.Error("failed to close store", "error", err)
	}
	a.logger.Info("shutting down")
}

func (a *app) dispatch(ctx context.Context, cmd string, args []string) error {
	switch cmd {
	case "list":
		return a.cmdList(ctx, args)
	case "random":
		return a.cmdRandom(ctx, args)
	case "category":
		return a.cmdCategory(ctx, args)
	case "all":
		return a.cmdAll(ctx, args)
	case "show":
		return a.cmdShow(ctx, args)
	case "like":
		return a.cmdToggle(ctx, domain.KindLike, args)
	case "bookmark":
		return a.cmdToggle(ctx, domain.KindBookmark, args)
	case "create":
		return a.cmdCreate(ctx, args)
	case "update":
		return a.cmdUpdate(ctx, args)
	case "delete":
		return a.cmdDelete(ctx, args)
	case "upload":
		return a.cmdUpload(ctx, args)
	case "file-info":
		return a.cmdFileInfo(ctx, args)
	case "file-delete":
		return a.cmdFileDelete(ctx, args)
	case "search":
		return a.cmdSearch(ctx, args)
	case "tags":
		return a.cmdTags(ctx, args)
	case "ledger":
		return a.cmdLedger(args)
	case "clear":
		return a.cmdClear(args)
	default:
		flag.Usage()
		return fmt.Errorf("unknown command %q", cmd)
	}
}
