// SPDX-License-Identifier: Apache-2.0

// Command assistant runs the student assistant backend: the reasoning loop
// with its calendar and web-search tools behind a JSON API.
package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "modernc.org/sqlite"

	"github.com/ogyreck/ai-assistent-students/pkg/agent"
	"github.com/ogyreck/ai-assistent-students/pkg/calendar"
	"github.com/ogyreck/ai-assistent-students/pkg/chat"
	"github.com/ogyreck/ai-assistent-students/pkg/config"
	"github.com/ogyreck/ai-assistent-students/pkg/llm"
	"github.com/ogyreck/ai-assistent-students/pkg/memory"
	"github.com/ogyreck/ai-assistent-students/pkg/memory/ollama"
	"github.com/ogyreck/ai-assistent-students/pkg/memory/qdrant"
	"github.com/ogyreck/ai-assistent-students/pkg/prompts"
	"github.com/ogyreck/ai-assistent-students/pkg/rag"
	"github.com/ogyreck/ai-assistent-students/pkg/server"
	"github.com/ogyreck/ai-assistent-students/pkg/telemetry"
	"github.com/ogyreck/ai-assistent-students/pkg/websearch"
)

const serviceName = "ai-assistent-students"

var version = "dev"

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "fatal:", err)
		os.Exit(1)
	}
}

func run() error {
	configPath := flag.String("config", "", "path to config file (YAML)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger := telemetry.ConfigureSlog(os.Stderr, cfg.Log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTelemetry, err := telemetry.Init(serviceName, version, cfg.Telemetry)
	if err != nil {
		return fmt.Errorf("init telemetry: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTelemetry(shutdownCtx); err != nil {
			logger.Error("telemetry shutdown failed", slog.String("error", err.Error()))
		}
	}()

	metrics, err := telemetry.NewAgentMetrics()
	if err != nil {
		logger.Warn("agent metrics disabled", slog.String("error", err.Error()))
	}

	db, err := sql.Open("sqlite", cfg.Calendar.DBPath)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	taskStore, err := calendar.NewSQLiteStore(db)
	if err != nil {
		return fmt.Errorf("init calendar store: %w", err)
	}
	history, err := memory.NewSQLiteConversation(db)
	if err != nil {
		return fmt.Errorf("init conversation store: %w", err)
	}

	provider, err := buildProvider(cfg)
	if err != nil {
		return err
	}

	caps := agent.NewCapabilities(
		agent.NewCalendarTool(taskStore, cfg.Calendar.DefaultUserID, logger, nil),
		agent.NewSearchTool(websearch.NewTavily(cfg.Search.BaseURL, cfg.Search.APIKey), logger),
		logger,
	)

	loop := agent.NewLoop(provider, caps,
		agent.WithSystemPromptFunc(func() string {
			return prompts.MustRender("agent_system_prompt", map[string]string{
				"CurrentTime": time.Now().Format("02.01.2006 15:04:05"),
			})
		}),
		agent.WithModel(cfg.LLM.Model),
		agent.WithTemperature(cfg.LLM.Temperature),
		agent.WithMaxIterations(cfg.Agent.MaxIterations),
		agent.WithTimeout(cfg.Agent.Timeout()),
		agent.WithLogger(logger),
		agent.WithMetrics(metrics),
	)

	chatOpts := []chat.Option{
		chat.WithHistoryWindow(cfg.Agent.HistoryWindow),
		chat.WithLogger(logger),
	}
	if cfg.Memory.Enabled {
		retriever, err := buildRetriever(ctx, cfg, logger)
		if err != nil {
			logger.Warn("knowledge base disabled", slog.String("error", err.Error()))
		} else {
			chatOpts = append(chatOpts, chat.WithRetriever(retriever))
		}
	}
	chatSvc := chat.NewService(loop, history, chatOpts...)

	srv := server.New(cfg.Server.Addr, chatSvc, taskStore, logger)

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	logger.Info("assistant started",
		slog.String("version", version),
		slog.String("addr", cfg.Server.Addr),
		slog.String("llm_provider", cfg.LLM.Provider))

	select {
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func buildProvider(cfg *config.Config) (llm.Provider, error) {
	switch cfg.LLM.Provider {
	case "openai":
		return llm.NewOpenAI(cfg.LLM.BaseURL, cfg.LLM.APIKey), nil
	case "mock":
		return &llm.MockProvider{Response: "ОТВЕТ:\nМок-провайдер активен."}, nil
	default:
		return nil, fmt.Errorf("unknown llm provider: %s", cfg.LLM.Provider)
	}
}

func buildRetriever(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*rag.Retriever, error) {
	store, err := qdrant.New(cfg.Memory.QdrantAddr)
	if err != nil {
		return nil, err
	}
	embedder := ollama.NewEmbedder(cfg.Memory.EmbedderBaseURL, cfg.Memory.EmbedderModel)

	retriever := rag.New(embedder, store, cfg.Memory.Collection,
		cfg.Memory.TopK, float32(cfg.Memory.ScoreThreshold))
	if err := retriever.EnsureCollection(ctx); err != nil {
		// An existing collection reports an error from the create call;
		// retrieval still works, so keep going.
		logger.Debug("ensure collection", slog.String("error", err.Error()))
	}
	return retriever, nil
}
