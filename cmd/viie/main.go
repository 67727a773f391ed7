// Package main is the viie CLI entry point.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/hyperjump/viie/internal/cli"
	"github.com/hyperjump/viie/internal/config"
	"github.com/hyperjump/viie/internal/embedding"
	"github.com/hyperjump/viie/internal/ingest"
	"github.com/hyperjump/viie/internal/models"
	"github.com/hyperjump/viie/internal/server"
	"github.com/hyperjump/viie/internal/shell"
	"github.com/hyperjump/viie/internal/store"
	"github.com/hyperjump/viie/pkg/utils"
)

var version = "dev"

const defaultConfigPath = "/usr/local/etc/viie/config.yaml"

// loadConfig resolves the config file. An explicit path must exist. Without
// one, ./config.yaml is preferred over the system-wide file, and built-in
// defaults are used when neither exists. The returned path is empty when no
// file was loaded.
func loadConfig(path string) (*config.Config, string, error) {
	if path != "" {
		cfg, err := config.Load(path)
		if err != nil {
			return nil, "", err
		}
		return cfg, path, nil
	}
	candidates := []string{defaultConfigPath}
	if cwd, err := os.Getwd(); err == nil {
		candidates = append([]string{filepath.Join(cwd, "config.yaml")}, candidates...)
	}
	for _, c := range candidates {
		if _, err := os.Stat(c); err == nil {
			cfg, err := config.Load(c)
			if err != nil {
				return nil, "", err
			}
			return cfg, c, nil
		}
	}
	cfg, err := config.Default()
	return cfg, "", err
}

func main() {
	if len(os.Args) < 2 {
		printUsage(os.Stderr)
		os.Exit(1)
	}
	var err error
	switch command := os.Args[1]; command {
	case "shell":
		err = runShell(os.Args[2:])
	case "server":
		err = runServer(os.Args[2:])
	case "ingest":
		err = runIngest(os.Args[2:], os.Stdout)
	case "search":
		err = runSearch(os.Args[2:], os.Stdout)
	case "version", "--version", "-v":
		fmt.Printf("viie version %s\n", version)
	case "help", "--help", "-h":
		printUsage(os.Stdout)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		printUsage(os.Stderr)
		os.Exit(1)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// components are the long-lived pieces shared by the commands.
type components struct {
	Engine *embedding.Engine
	Store  *store.Store
}

// Close releases the embedding engine.
func (c *components) Close() {
	if c.Store != nil {
		_ = c.Store.Close()
	}
	if c.Engine != nil {
		_ = c.Engine.Close()
	}
}

func initializeComponents(cfg *config.Config, logger *zap.Logger) (*components, error) {
	embedCfg, err := cfg.EmbeddingConfig()
	if err != nil {
		return nil, err
	}
	opts := []embedding.Option{
		embedding.WithLogger(logger),
		embedding.WithCacheSize(cfg.Embedding.CacheSize),
	}
	if cfg.Embedding.Seed != 0 {
		opts = append(opts, embedding.WithSeed(cfg.Embedding.Seed))
	}
	if cfg.Embedding.RateLimit > 0 {
		opts = append(opts, embedding.WithRateLimit(cfg.Embedding.RateLimit, 1))
	}
	engine := embedding.NewEngine(opts...)
	st := store.New(
		store.WithEngine(engine),
		store.WithEmbeddingConfig(embedCfg),
		store.WithLogger(logger),
	)
	return &components{Engine: engine, Store: st}, nil
}

// newIngester creates the ingest collection when missing and returns an ingester for it.
func newIngester(cfg *config.Config, st *store.Store, logger *zap.Logger) (*ingest.Ingester, error) {
	err := st.CreateCollection(cfg.Ingest.Collection, cfg.Ingest.Dimension)
	if err != nil && !errors.Is(err, store.ErrCollectionExists) {
		return nil, err
	}
	return ingest.New(st, cfg.Ingest.Collection,
		ingest.WithTechnique(cfg.Ingest.Technique),
		ingest.WithExtensions(cfg.Ingest.Extensions),
		ingest.WithChunkSize(cfg.Ingest.ChunkSize),
		ingest.WithLogger(logger),
	)
}

func setup(configPath string, debug bool) (*config.Config, string, *zap.Logger, error) {
	cfg, resolved, err := loadConfig(configPath)
	if err != nil {
		return nil, "", nil, fmt.Errorf("load config: %w", err)
	}
	logger, err := utils.NewLogger(cfg.Debug || debug)
	if err != nil {
		return nil, "", nil, fmt.Errorf("create logger: %w", err)
	}
	logger.Debug("config loaded", zap.String("config_path", resolved))
	return cfg, resolved, logger, nil
}

func runShell(args []string) error {
	fs := flag.NewFlagSet("shell", flag.ExitOnError)
	configPath := fs.String("config", "", "config file path")
	debug := fs.Bool("debug", false, "enable debug logging")
	noColor := fs.Bool("no-color", false, "disable coloured output")
	_ = fs.Parse(args)

	cfg, _, logger, err := setup(*configPath, *debug)
	if err != nil {
		return err
	}
	defer logger.Sync()
	c, err := initializeComponents(cfg, logger)
	if err != nil {
		return err
	}
	defer c.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	sh := shell.New(c.Store, os.Stdin, os.Stdout,
		shell.WithTopK(cfg.Shell.TopK),
		shell.WithPrompt(cfg.Shell.Prompt),
		shell.WithColor(cfg.Shell.ColorOrDefault() && !*noColor),
		shell.WithLogger(logger),
	)
	err = sh.Run(ctx)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func runServer(args []string) error {
	fs := flag.NewFlagSet("server", flag.ExitOnError)
	configPath := fs.String("config", "", "config file path")
	debug := fs.Bool("debug", false, "enable debug logging (requests, file ingestion, etc.)")
	_ = fs.Parse(args)

	cfg, resolved, logger, err := setup(*configPath, *debug)
	if err != nil {
		return err
	}
	defer logger.Sync()
	c, err := initializeComponents(cfg, logger)
	if err != nil {
		return err
	}
	defer c.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	in, err := newIngester(cfg, c.Store, logger)
	if err != nil {
		return fmt.Errorf("ingest collection: %w", err)
	}
	watch := ingest.NewWatcher(in, ingest.WatchRecursive(cfg.Ingest.RecursiveOrDefault()))
	if err := watch.Start(ctx, cfg.Ingest.Directories...); err != nil {
		return fmt.Errorf("start watcher: %w", err)
	}
	defer watch.Stop()
	go func() {
		n, err := watch.Sync(ctx)
		if err != nil {
			logger.Warn("initial sync incomplete", zap.Error(err))
		}
		logger.Info("initial sync done", zap.Int("files", n), zap.String("collection", in.Collection()))
	}()

	srv := server.NewServer(c.Store, &cfg.Server, logger, watch, resolved, cfg)
	errCh := make(chan error, 1)
	go func() { errCh <- srv.Start() }()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}
	logger.Info("Shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Stop(shutdownCtx)
}

func runIngest(args []string, out io.Writer) error {
	fs := flag.NewFlagSet("ingest", flag.ExitOnError)
	configPath := fs.String("config", "", "config file path")
	debug := fs.Bool("debug", false, "enable debug logging")
	collection := fs.String("collection", "", "target collection (default from config)")
	dim := fs.Int("dim", 0, "collection dimension (default from config)")
	technique := fs.String("technique", "", "embedding technique (default from config)")
	query := fs.String("query", "", "search the ingested collection with this text afterwards")
	topK := fs.Int("top-k", 5, "number of results for --query")
	outputFormat := fs.String("output", "text", "output format for --query: text or json")
	_ = fs.Parse(reorderArgs(args))

	if fs.NArg() < 1 {
		return errors.New("usage: viie ingest [flags] <file-or-directory>...")
	}
	format, err := parseFormat(*outputFormat)
	if err != nil {
		return err
	}
	cfg, _, logger, err := setup(*configPath, *debug)
	if err != nil {
		return err
	}
	defer logger.Sync()
	if *collection != "" {
		cfg.Ingest.Collection = *collection
	}
	if *dim > 0 {
		cfg.Ingest.Dimension = *dim
	}
	if *technique != "" {
		cfg.Ingest.Technique = *technique
	}
	c, err := initializeComponents(cfg, logger)
	if err != nil {
		return err
	}
	defer c.Close()
	in, err := newIngester(cfg, c.Store, logger)
	if err != nil {
		return err
	}

	ctx := context.Background()
	var errs []error
	for _, path := range fs.Args() {
		info, err := os.Stat(path)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if info.IsDir() {
			n, err := in.IngestDirectory(ctx, path)
			fmt.Fprintf(out, "%s: %d files\n", path, n)
			if err != nil {
				errs = append(errs, err)
			}
			continue
		}
		n, err := in.IngestFile(ctx, path)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", path, err))
			continue
		}
		fmt.Fprintf(out, "%s: %d chunks\n", path, n)
	}
	total, _ := c.Store.Len(in.Collection())
	fmt.Fprintf(out, "collection %q holds %d vectors\n", in.Collection(), total)

	if *query != "" {
		start := time.Now()
		results, err := c.Store.SearchText(ctx, in.Collection(), *query, cfg.Ingest.Technique, *topK)
		if err != nil {
			errs = append(errs, err)
		} else if err := cli.WriteSearchResults(out, models.NewSearchResponse(in.Collection(), results, time.Since(start)), format); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func parseFormat(s string) (cli.SearchOutputFormat, error) {
	switch s {
	case "text":
		return cli.OutputText, nil
	case "json":
		return cli.OutputJSON, nil
	default:
		return "", fmt.Errorf("unknown output format %q; use text or json", s)
	}
}

// reorderArgs moves flags that follow positional arguments to the front so
// flag.Parse sees them; the flag package stops at the first non-flag.
func reorderArgs(args []string) []string {
	for i, a := range args {
		if len(a) > 0 && a[0] == '-' {
			if i == 0 {
				return args
			}
			reordered := make([]string, 0, len(args))
			reordered = append(reordered, args[i:]...)
			reordered = append(reordered, args[:i]...)
			return reordered
		}
	}
	return args
}

// buildSearchRequest turns the positional arguments into a request: a
// parseable list of numbers is a vector query, anything else is text.
func buildSearchRequest(args []string, technique string, topK int) models.SearchRequest {
	q := strings.TrimSpace(strings.Join(args, " "))
	req := models.SearchRequest{TopK: topK}
	if values, err := cli.ParseVector(q); err == nil {
		req.Vector = values
		return req
	}
	req.Content = q
	req.Technique = technique
	return req
}

func runSearch(args []string, out io.Writer) error {
	fs := flag.NewFlagSet("search", flag.ExitOnError)
	serverURL := fs.String("server", "http://localhost:8080", "server URL")
	collection := fs.String("collection", "", "collection to search (required)")
	topK := fs.Int("top-k", models.DefaultTopK, "number of results")
	technique := fs.String("technique", "", "embedding technique for text queries")
	outputFormat := fs.String("output", "text", "output format: text or json")
	_ = fs.Parse(reorderArgs(args))

	if *collection == "" || fs.NArg() < 1 {
		return errors.New("usage: viie search --collection <name> [flags] <f,f,...|text>")
	}
	format, err := parseFormat(*outputFormat)
	if err != nil {
		return err
	}
	req := buildSearchRequest(fs.Args(), *technique, *topK)
	resp, err := searchViaHTTP(*serverURL, *collection, req)
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}
	return cli.WriteSearchResults(out, resp, format)
}

func searchViaHTTP(serverURL, collection string, req models.SearchRequest) (*models.SearchResponse, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, err
	}
	endpoint := strings.TrimRight(serverURL, "/") + "/api/v1/collections/" + url.PathEscape(collection) + "/search"
	resp, err := http.Post(endpoint, "application/json", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("server returned %d: %s", resp.StatusCode, strings.TrimSpace(string(b)))
	}
	var out models.SearchResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return &out, nil
}

func printUsage(w io.Writer) {
	fmt.Fprintf(w, `viie - in-memory vector store with pluggable embedders

Usage:
  viie shell  [--config path] [--no-color]          interactive command shell
  viie server [--config path] [--debug]             HTTP API and directory watcher
  viie ingest [--collection c] [--dim d] [--technique t] [--query text] <path>...
  viie search --collection c [--server URL] [--top-k n] [--output text|json] <f,f,...|text>
  viie version
  viie help

Techniques: %s
`, strings.Join(methodNames(), ", "))
}

func methodNames() []string {
	methods := embedding.Methods()
	names := make([]string, len(methods))
	for i, m := range methods {
		names[i] = m.String()
	}
	return names
}
