// Package main is the Naosu CLI entry point.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/hyperjump/naosu/internal/cache"
	"github.com/hyperjump/naosu/internal/config"
	"github.com/hyperjump/naosu/internal/ingest"
	"github.com/hyperjump/naosu/internal/models"
	"github.com/hyperjump/naosu/internal/patch"
	"github.com/hyperjump/naosu/internal/pipeline"
	"github.com/hyperjump/naosu/internal/server"
	"github.com/hyperjump/naosu/internal/watcher"
	"github.com/hyperjump/naosu/pkg/utils"
	"go.uber.org/zap"
)

var version = "dev"

const defaultConfigPath = "/usr/local/etc/naosu/config.yaml"

// loadConfig loads config from path. When path is the default, it first looks
// for config.yaml in the current directory (for development); if that exists
// it is used. Returns the config and the path that was actually loaded.
func loadConfig(path string) (*config.Config, string, error) {
	if path == defaultConfigPath {
		if cwd, cwdErr := os.Getwd(); cwdErr == nil {
			fallback := filepath.Join(cwd, "config.yaml")
			if _, statErr := os.Stat(fallback); statErr == nil {
				cfg, loadErr := config.Load(fallback)
				if loadErr != nil {
					return nil, "", loadErr
				}
				return cfg, fallback, nil
			}
		}
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, "", err
	}
	return cfg, path, nil
}

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}
	command := os.Args[1]
	switch command {
	case "server":
		runServer()
	case "ingest":
		runIngest()
	case "process":
		runProcess()
	case "patch":
		runPatch()
	case "version", "--version", "-v":
		fmt.Printf("naosu version %s\n", version)
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Printf("Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

// stack is the wired set of core components shared by all subcommands.
type stack struct {
	cache    *cache.IndexCache
	ingest   *ingest.Pipeline
	analysis *pipeline.Analysis
	executor *patch.Executor
	logger   *zap.Logger
}

func buildStack(cfg *config.Config, logger *zap.Logger) *stack {
	c := cache.New(cache.WithLogger(logger))
	return &stack{
		cache:    c,
		ingest:   ingest.NewPipeline(c, logger),
		analysis: pipeline.NewAnalysis(c, logger, pipeline.WithDefaultScope(cfg.Pipeline.DefaultScope)),
		executor: patch.NewExecutor(c, patch.NewPatcher(logger), logger),
		logger:   logger,
	}
}

func runServer() {
	fs := flag.NewFlagSet("server", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	debug := fs.Bool("debug", false, "enable debug logging")
	_ = fs.Parse(os.Args[2:])

	cfg, loadedPath, err := loadConfig(*configPath)
	if err != nil {
		fatalf("load config: %v", err)
	}
	logger, err := utils.NewLogger(cfg.Debug || *debug)
	if err != nil {
		fatalf("create logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()
	logger.Info("config loaded", zap.String("path", loadedPath))

	s := buildStack(cfg, logger)

	if cfg.Watch.Enabled {
		w := watcher.NewWatcher(cfg.Watch.Extensions, func(documentID, path string) {
			if _, err := s.ingest.Ingest(documentID, path); err != nil {
				logger.Warn("re-ingest after change failed",
					zap.String("document_id", documentID), zap.Error(err))
			}
		}, watcher.WithLogger(logger))
		if err := w.Start(); err != nil {
			fatalf("start watcher: %v", err)
		}
		defer w.Stop()
		s.ingest = ingest.NewPipeline(s.cache, logger, ingest.WithOnIngest(func(documentID, path string) {
			if err := w.Track(documentID, path); err != nil {
				logger.Warn("track source file failed", zap.String("path", path), zap.Error(err))
			}
		}))
	}

	srv := server.NewServer(s.cache, s.ingest, s.analysis, s.executor, cfg, logger)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		logger.Info("shutting down")
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Stop(ctx)
	}()

	if err := srv.Start(); err != nil {
		logger.Error("server stopped", zap.Error(err))
	}
}

func runIngest() {
	fs := flag.NewFlagSet("ingest", flag.ExitOnError)
	file := fs.String("file", "", "document file to ingest")
	id := fs.String("id", "", "document id (minted when empty)")
	debug := fs.Bool("debug", false, "enable debug logging")
	_ = fs.Parse(os.Args[2:])
	if *file == "" {
		fatalf("ingest: -file is required")
	}

	s, _ := localStack(*debug)
	index, err := s.ingest.Ingest(*id, *file)
	if err != nil {
		fatalf("ingest: %v", err)
	}
	printJSON(map[string]any{
		"document_id": index.DocumentID,
		"blocks":      len(index.Blocks),
		"file_type":   index.FileType,
	})
}

func runProcess() {
	fs := flag.NewFlagSet("process", flag.ExitOnError)
	file := fs.String("file", "", "document file to ingest and process")
	query := fs.String("query", "", "instruction to run against the document")
	blocks := fs.String("blocks", "", "comma-separated block ids to scope to")
	debug := fs.Bool("debug", false, "enable debug logging")
	_ = fs.Parse(os.Args[2:])
	if *file == "" || *query == "" {
		fatalf("process: -file and -query are required")
	}

	s, _ := localStack(*debug)
	index, err := s.ingest.Ingest("", *file)
	if err != nil {
		fatalf("process: ingest: %v", err)
	}
	result, err := s.analysis.Run(index.DocumentID, *query, splitIDs(*blocks))
	if err != nil {
		fatalf("process: %v", err)
	}
	printJSON(result)
}

func runPatch() {
	fs := flag.NewFlagSet("patch", flag.ExitOnError)
	file := fs.String("file", "", "document file to patch")
	query := fs.String("query", "", "patch instruction")
	blocks := fs.String("blocks", "", "comma-separated target block ids")
	oldText := fs.String("old", "", "exact text to replace")
	newText := fs.String("new", "", "replacement text")
	output := fs.String("output", "", "output file path (default: <name>_patched in the configured patch output dir)")
	debug := fs.Bool("debug", false, "enable debug logging")
	_ = fs.Parse(os.Args[2:])
	if *file == "" || *query == "" || *oldText == "" || *newText == "" {
		fatalf("patch: -file, -query, -old, and -new are required")
	}

	s, cfg := localStack(*debug)
	index, err := s.ingest.Ingest("", *file)
	if err != nil {
		fatalf("patch: ingest: %v", err)
	}
	result, err := s.analysis.Run(index.DocumentID, *query, splitIDs(*blocks))
	if err != nil {
		fatalf("patch: %v", err)
	}
	if result.Mode != "patch_plan" {
		fatalf("patch: instruction did not classify as a patch (got %s)", result.Mode)
	}
	for i := range result.Plan.Operations {
		result.Plan.Operations[i].Instruction = models.PatchInstruction{
			OldText: *oldText,
			NewText: *newText,
		}
	}

	outPath := *output
	if outPath == "" {
		base := filepath.Base(*file)
		ext := filepath.Ext(base)
		outPath = filepath.Join(cfg.Pipeline.PatchOutputDir,
			strings.TrimSuffix(base, ext)+"_patched"+ext)
	}
	final, err := s.executor.Execute(result.Plan, *file, outPath)
	if err != nil {
		fatalf("patch: %v", err)
	}
	printJSON(map[string]any{
		"patched_file":  final,
		"steps_applied": len(result.Plan.Operations),
	})
}

// localStack builds an in-process stack with default config for one-shot
// subcommands.
func localStack(debug bool) (*stack, *config.Config) {
	cfg := &config.Config{}
	config.ApplyDefaults(cfg)
	logger, err := utils.NewLogger(debug)
	if err != nil {
		fatalf("create logger: %v", err)
	}
	return buildStack(cfg, logger), cfg
}

func splitIDs(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func printJSON(v any) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		fatalf("encode output: %v", err)
	}
	fmt.Println(string(data))
}

func fatalf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}

func printUsage() {
	fmt.Println(`naosu - document block extraction and surgical patching

Usage:
  naosu server  [-config path] [-debug]       start the HTTP API server
  naosu ingest  -file path [-id id] [-debug]  ingest a document and print its index summary
  naosu process -file path -query text [-blocks id,...] [-debug]
                                              route an instruction (read/analyze/patch plan)
  naosu patch   -file path -query text -old text -new text [-blocks id,...] [-output path] [-debug]
                                              plan and apply a surgical patch
  naosu version                               print version
  naosu help                                  show this help`)
}
