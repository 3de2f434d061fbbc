// cmd/context-engine/main.go
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	_ "net/http/pprof"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"finsight-context/internal/assembler"
	"finsight-context/internal/cache"
	"finsight-context/internal/common/config"
	"finsight-context/internal/common/database"
	"finsight-context/internal/common/logger"
	"finsight-context/internal/common/observability"
	"finsight-context/internal/common/validation"
	"finsight-context/internal/embedding"
	"finsight-context/internal/models"
	"finsight-context/internal/retrieval"
	"finsight-context/internal/storage"
	"finsight-context/internal/vectorstore"
)

func main() {
	var (
		queryText      = flag.String("query", "", "assemble context for a single query and print the bundle")
		tenantID       = flag.String("tenant", "", "tenant id for -query")
		conversationID = flag.String("conversation", "", "conversation id for -query")
		optionsJSON    = flag.String("options", "", "query options as JSON for -query")
	)
	flag.Parse()

	zapLog := logger.New("info", "console")
	defer zapLog.Sync()

	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting context engine...")

	cfg, err := config.Load()
	if err != nil {
		zapLog.Fatal("config load failed", zap.Error(err))
	}

	obs := observability.New("context-engine")
	defer obs.Shutdown()

	ctx := context.Background()

	// --- Init Redis (cache backend; local memory fallback on failure) ---
	var redisStore *cache.RedisStore
	redisClient, err := database.NewRedis(cfg.Database.Redis)
	if err != nil {
		zapLog.Warn("Redis unavailable, cache will fall back to local memory", zap.Error(err))
	} else {
		defer redisClient.Close()
		redisStore = cache.NewRedisStore(redisClient.Client, cfg.Cache, log)
	}
	store := cache.New(ctx, cfg.Cache, redisStore, log)

	// --- Init Elasticsearch (vector search) ---
	esClient, err := database.NewElasticsearch(cfg.Database.Elasticsearch)
	if err != nil {
		zapLog.Fatal("Elasticsearch initialization failed", zap.Error(err))
	}
	vectors := vectorstore.NewElasticsearchStore(esClient.Client, cfg.Database.Elasticsearch.IndexPrefix, log)

	// --- Init PostgreSQL (conversation graph + spending aggregates) ---
	pgClient, err := database.NewPostgres(cfg.Database.Postgres)
	if err != nil {
		zapLog.Fatal("PostgreSQL initialization failed", zap.Error(err))
	}
	defer pgClient.Close()

	conversations := storage.NewConversationStore(pgClient.DB, log)
	insights := storage.NewInsightStore(pgClient.DB, log)

	// --- Embedding gateway ---
	gateway := embedding.NewGateway(embedding.NewHTTPProvider(cfg.Embedding), store, cfg.Embedding, log)

	// --- Retrieval sources ---
	sources := []retrieval.Source{
		retrieval.NewReceiptSource(vectors, store, log),
		retrieval.NewWarrantySource(vectors, store, log),
		retrieval.NewConversationSource(vectors, store, conversations, log),
		retrieval.NewAnalyticsSource(vectors, store, insights, log),
	}

	contextTypes := make([]models.SourceType, 0, len(cfg.Assembler.ContextTypes))
	for _, t := range cfg.Assembler.ContextTypes {
		contextTypes = append(contextTypes, models.SourceType(t))
	}

	engine := assembler.New(gateway, sources, store, obs, log, assembler.Config{
		MaxItems:            cfg.Assembler.MaxItems,
		HardMaxItems:        cfg.Assembler.HardMaxItems,
		SourceTimeout:       cfg.Assembler.SourceTimeout(),
		DefaultContextTypes: contextTypes,
	})

	if *queryText != "" {
		runOnce(ctx, engine, *queryText, *tenantID, *conversationID, *optionsJSON, zapLog)
		return
	}

	// --- Metrics endpoint ---
	go func() {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
			fmt.Fprint(w, "ok")
		})

		addr := fmt.Sprintf(":%d", cfg.Metrics.Port)
		zapLog.Info("Metrics server listening", zap.String("addr", addr))
		if err := http.ListenAndServe(addr, mux); err != nil {
			zapLog.Error("metrics server failed", zap.Error(err))
		}
	}()

	zapLog.Info("Context engine ready",
		zap.String("environment", cfg.App.Environment),
		zap.Int("maxItems", cfg.Assembler.MaxItems),
	)

	// --- Graceful shutdown ---
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	zapLog.Info("Shutting down context engine...")
	if memStore, ok := store.(*cache.MemoryStore); ok {
		memStore.Close()
	}
	time.Sleep(500 * time.Millisecond)
	zapLog.Info("Shutdown complete")
}

// runOnce assembles a single bundle and prints it as JSON.
func runOnce(ctx context.Context, engine *assembler.Assembler, queryText, tenantID, conversationID, optionsJSON string, zapLog *zap.Logger) {
	var opts models.QueryOptions
	if optionsJSON != "" {
		parsed, err := validation.ParseOptions([]byte(optionsJSON))
		if err != nil {
			zapLog.Fatal("invalid query options", zap.Error(err))
		}
		opts = parsed
	}

	callCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	bundle, err := engine.Assemble(callCtx, queryText, tenantID, conversationID, opts)
	if err != nil {
		zapLog.Fatal("context assembly failed", zap.Error(err))
	}

	out, err := json.MarshalIndent(bundle, "", "  ")
	if err != nil {
		zapLog.Fatal("bundle encoding failed", zap.Error(err))
	}
	fmt.Println(string(out))
}
