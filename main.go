package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/tanpawarit/agentic-query-router/agent/agents/branch"
	"github.com/tanpawarit/agentic-query-router/agent/agents/classifier"
	"github.com/tanpawarit/agentic-query-router/agent/agents/router"
	llmx "github.com/tanpawarit/agentic-query-router/agent/llm"
	"github.com/tanpawarit/agentic-query-router/agent/meeting"
	promptx "github.com/tanpawarit/agentic-query-router/agent/prompt"
	"github.com/tanpawarit/agentic-query-router/agent/retriever"
	"github.com/tanpawarit/agentic-query-router/agent/sqlagent"
	"github.com/tanpawarit/agentic-query-router/agent/vectorstore"
	"github.com/tanpawarit/agentic-query-router/api"
	configx "github.com/tanpawarit/agentic-query-router/pkg/config"
	databasex "github.com/tanpawarit/agentic-query-router/pkg/database"
	"github.com/tanpawarit/agentic-query-router/pkg/logger/autoload"
	weatherx "github.com/tanpawarit/agentic-query-router/pkg/weather"
	"github.com/tanpawarit/agentic-query-router/pkg/websearch"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		log.Fatal().Err(err).Msg("query router stopped")
	}
}

func run(ctx context.Context) error {
	llmCfg := configx.MustNew[llmx.Config]("LLM")
	// LOG_* values that only live in the .env file are visible from here on.
	autoload.Reload()

	embeddingCfg := configx.MustNew[retriever.EmbeddingConfig]("EMBEDDING")
	weatherCfg := configx.MustNew[weatherx.Config]("WEATHER")
	searchCfg := configx.MustNew[websearch.Config]("SEARCH")
	dbCfg := configx.MustNew[databasex.Config]("DB")
	ragCfg := configx.MustNew[retriever.Config]("RAG")
	vectorCfg := configx.MustNew[vectorstore.Config]("VECTOR")
	sqlCfg := configx.MustNew[sqlagent.Config]("SQLAGENT")
	httpCfg := configx.MustNew[api.Config]("HTTP")

	prompts := promptx.LoadPromptSet()
	models, err := llmx.NewModels(ctx, *llmCfg)
	if err != nil {
		return fmt.Errorf("init models: %w", err)
	}

	db, err := databasex.Open(ctx, *dbCfg)
	if err != nil {
		return err
	}
	defer db.Close()

	meetings, err := meeting.NewStore(db)
	if err != nil {
		return err
	}
	if err := meetings.EnsureSchema(ctx); err != nil {
		return err
	}

	var rdb *redis.Client
	if strings.EqualFold(strings.TrimSpace(vectorCfg.Backend), vectorstore.BackendRedis) {
		redisCfg := configx.MustNew[databasex.RedisConfig]("REDIS")
		rdb, err = databasex.NewRedis(ctx, *redisCfg)
		if err != nil {
			return err
		}
		defer rdb.Close()
	}
	chunks, err := vectorstore.New(*vectorCfg, rdb)
	if err != nil {
		return err
	}

	embedder, err := retriever.NewOpenAIEmbedder(*embeddingCfg)
	if err != nil {
		return err
	}
	searcher, err := websearch.New(*searchCfg)
	if err != nil {
		return err
	}
	docs, err := retriever.New(ctx, *ragCfg, embedder, chunks, searcher, models.Answer, prompts)
	if err != nil {
		return fmt.Errorf("init retriever: %w", err)
	}

	sqlAgent, err := sqlagent.New(ctx, *sqlCfg, db, models.SQL, prompts.SQL)
	if err != nil {
		return err
	}

	weatherClient, err := weatherx.NewClient(*weatherCfg)
	if err != nil {
		return err
	}

	queryRouter, err := newRouter(ctx, models, prompts, weatherClient, docs, sqlAgent)
	if err != nil {
		return err
	}

	server, err := api.New(queryRouter, docs, meetings, *httpCfg)
	if err != nil {
		return err
	}
	return serve(ctx, *httpCfg, server.Handler())
}

func newRouter(
	ctx context.Context,
	models llmx.Models,
	prompts promptx.PromptSet,
	weatherClient *weatherx.Client,
	docs *retriever.Service,
	sqlAgent *sqlagent.Agent,
) (*router.Router, error) {
	cls, err := classifier.New(ctx, models.Classifier, prompts.Classifier)
	if err != nil {
		return nil, err
	}
	cities, err := branch.NewCityExtractor(ctx, models.Extractor, prompts.City)
	if err != nil {
		return nil, err
	}

	weather, err := branch.NewWeather(cities, weatherClient)
	if err != nil {
		return nil, err
	}
	scheduling, err := branch.NewScheduling(cities, weatherClient)
	if err != nil {
		return nil, err
	}
	document, err := branch.NewDocument(docs)
	if err != nil {
		return nil, err
	}
	database, err := branch.NewDatabase(sqlAgent)
	if err != nil {
		return nil, err
	}

	return router.New(cls, router.Branches{
		Weather:    weather,
		Document:   document,
		Scheduling: scheduling,
		Database:   database,
	})
}

func serve(ctx context.Context, cfg api.Config, h http.Handler) error {
	httpServer := api.NewHTTPServer(cfg, h)

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", httpServer.Addr).Msg("query router listening")
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	log.Info().Msg("shutdown signal received")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http shutdown: %w", err)
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	log.Info().Msg("query router stopped")
	return nil
}
