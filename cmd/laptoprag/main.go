package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"laptoprag/internal/api"
	"laptoprag/internal/catalog"
	"laptoprag/internal/config"
	"laptoprag/internal/conversation"
	"laptoprag/internal/domain"
	"laptoprag/internal/embedding/openai"
	"laptoprag/internal/embedding/tfidf"
	"laptoprag/internal/events"
	"laptoprag/internal/generator"
	"laptoprag/internal/llm/gemini"
	llmopenai "laptoprag/internal/llm/openai"
	"laptoprag/internal/observability"
	"laptoprag/internal/retrieval"
	"laptoprag/internal/service"
	"laptoprag/internal/vectorstore/memory"
	"laptoprag/internal/vectorstore/pgvector"
	"laptoprag/internal/vectorstore/pinecone"
	"laptoprag/internal/vectorstore/qdrant"
)

func main() {
	_ = godotenv.Load()

	var cfgPath, writeConfig string
	flag.StringVar(&cfgPath, "config", "", "Path to YAML config file (optional; uses ./config.yaml or ~/.config/laptoprag/config.yaml)")
	flag.StringVar(&writeConfig, "write-config", "", "Write the effective config to this path and exit")
	flag.Parse()

	var cfg *config.AppConfig
	var err error
	if cfgPath == "" {
		cfg, cfgPath, err = config.LoadDefault()
	} else {
		cfg, err = config.Load(cfgPath)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	if writeConfig != "" {
		if err := config.Save(writeConfig, cfg); err != nil {
			fmt.Fprintf(os.Stderr, "failed to write config: %v\n", err)
			os.Exit(1)
		}
		return
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "invalid config: %v\n", err)
		os.Exit(1)
	}

	setupLogging(cfg.Server.LogLevel)
	slog.Info("laptoprag starting", "addr", cfg.Server.Addr, "config", cfgPath)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	metrics := observability.NewMetrics(cfg.Metrics.Namespace)

	emb, err := newEmbedder(cfg)
	if err != nil {
		fatal("embedder init failed", err)
	}

	index, closeIndex, err := newVectorIndex(ctx, cfg)
	if err != nil {
		fatal("vector store init failed", err)
	}
	defer closeIndex()

	llm, err := newCompleter(cfg)
	if err != nil {
		fatal("chat model init failed", err)
	}

	cat, closeCatalog, err := newCatalog(cfg)
	if err != nil {
		fatal("catalog init failed", err)
	}
	defer closeCatalog()

	// Events are optional; the service runs without them.
	var publisher service.Publisher
	if cfg.Events.NatsURL != "" {
		ev, err := events.NewClient(cfg.Events.NatsURL, cfg.Events.NatsToken, cfg.Events.SubjectPrefix, slog.Default())
		if err != nil {
			fatal("failed to connect to NATS", err)
		}
		defer ev.Close()
		publisher = ev
		slog.Info("NATS connected", "url", cfg.Events.NatsURL)
	} else {
		slog.Warn("events not configured, running without NATS")
	}

	engine := retrieval.NewEngine(emb, index, retrieval.Options{
		TopK:       cfg.Retrieval.TopK,
		Candidates: cfg.Retrieval.Candidates,
	}, metrics, slog.Default())
	gen := generator.New(llm, cfg.LLM.MaxOutputTokens, metrics, slog.Default())

	svc := service.NewRAGService(engine, gen, conversation.NewStore(cfg.Conversation.MaxTurns),
		emb, index, cat, publisher, service.Options{
			HistoryPrompts: cfg.Retrieval.HistoryPrompts,
			TopK:           cfg.Retrieval.TopK,
			SeedBatchSize:  cfg.Seeding.BatchSize,
			SeedBatchDelay: cfg.SeedBatchDelay(),
		}, slog.Default())

	// The TF-IDF vocabulary lives in memory, so it has to be rebuilt from the
	// catalog on every start; seeding does that as a side effect.
	if cfg.Seeding.OnStartup || emb.Name() == "tfidf" {
		report, err := svc.Seed(ctx)
		if err != nil {
			fatal("startup seeding failed", err)
		}
		metrics.SeededListings.Add(float64(report.Listings))
	}

	srv := api.NewServer(cfg.Server.Addr, svc, metrics, slog.Default())
	go func() {
		if err := srv.Start(); err != nil {
			slog.Error("HTTP server error", "error", err)
			cancel()
		}
	}()

	slog.Info("laptoprag ready", "embedder", emb.Name(), "vector_store", cfg.VectorStore.Type, "llm", cfg.LLM.Type)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-sigCh:
	case <-ctx.Done():
	}
	slog.Info("shutting down")

	shutdownCtx, stop := context.WithTimeout(context.Background(), time.Duration(cfg.Server.ShutdownTimeout)*time.Second)
	defer stop()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("graceful shutdown failed", "error", err)
	}
	cancel()
	slog.Info("laptoprag stopped")
}

func newEmbedder(cfg *config.AppConfig) (domain.Embedder, error) {
	switch cfg.Embedder.Type {
	case "openai":
		oc := cfg.Embedder.OpenAI
		return openai.NewClient(openai.Config{
			BaseURL:   oc.BaseURL,
			APIKeyEnv: oc.APIKeyEnv,
			Model:     oc.Model,
			Timeout:   time.Duration(oc.TimeoutSecs) * time.Second,
		})
	default:
		return tfidf.NewEmbedder(), nil
	}
}

func newVectorIndex(ctx context.Context, cfg *config.AppConfig) (domain.VectorIndex, func(), error) {
	noop := func() {}
	switch cfg.VectorStore.Type {
	case "qdrant":
		q := cfg.VectorStore.Qdrant
		return qdrant.NewStorage(qdrant.Config{
			URL:        q.URL,
			APIKey:     q.APIKey,
			Collection: q.Collection,
			Timeout:    time.Duration(q.TimeoutSecs) * time.Second,
		}), noop, nil
	case "pinecone":
		p := cfg.VectorStore.Pinecone
		st, err := pinecone.NewStorage(pinecone.Config{
			Host:      p.Host,
			APIKeyEnv: p.APIKeyEnv,
			Namespace: p.Namespace,
			Timeout:   time.Duration(p.TimeoutSecs) * time.Second,
		})
		return st, noop, err
	case "pgvector":
		p := cfg.VectorStore.Pgvector
		st, err := pgvector.New(ctx, p.DatabaseURL, p.Table)
		if err != nil {
			return nil, noop, err
		}
		slog.Info("database connected", "table", p.Table)
		return st, st.Close, nil
	default:
		return memory.NewStorage(), noop, nil
	}
}

func newCompleter(cfg *config.AppConfig) (domain.Completer, error) {
	switch cfg.LLM.Type {
	case "openai":
		o := cfg.LLM.OpenAI
		return llmopenai.NewClient(llmopenai.Config{
			BaseURL:   o.BaseURL,
			APIKeyEnv: o.APIKeyEnv,
			Model:     o.Model,
			Timeout:   time.Duration(o.TimeoutSecs) * time.Second,
		})
	default:
		g := cfg.LLM.Gemini
		return gemini.NewClient(gemini.Config{
			BaseURL:   g.BaseURL,
			APIKeyEnv: g.APIKeyEnv,
			Model:     g.Model,
			Timeout:   time.Duration(g.TimeoutSecs) * time.Second,
		})
	}
}

func newCatalog(cfg *config.AppConfig) (domain.Catalog, func(), error) {
	if cfg.Catalog.Type == "sqlite" {
		db, err := catalog.OpenSQLite(cfg.Catalog.Path)
		if err != nil {
			return nil, func() {}, err
		}
		return db, func() { db.Close() }, nil
	}
	return catalog.NewFile(cfg.Catalog.Path), func() {}, nil
}

func fatal(msg string, err error) {
	slog.Error(msg, "error", err)
	os.Exit(1)
}

func setupLogging(level string) {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lvl})
	slog.SetDefault(slog.New(handler))
}
