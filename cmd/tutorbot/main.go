package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/studioverse/tutormind/internal/assistant"
	"github.com/studioverse/tutormind/internal/config"
	"github.com/studioverse/tutormind/internal/convstore"
	"github.com/studioverse/tutormind/internal/embed"
	"github.com/studioverse/tutormind/internal/enroll"
	"github.com/studioverse/tutormind/internal/genai"
	"github.com/studioverse/tutormind/internal/logger"
	"github.com/studioverse/tutormind/internal/ratelimit"
	"github.com/studioverse/tutormind/internal/retrieval"
	"github.com/studioverse/tutormind/internal/telegram"
	"github.com/studioverse/tutormind/internal/vecstore"
	"github.com/studioverse/tutormind/internal/worker"
)

// chunkStore is the subset of vector store behavior the pipeline needs,
// satisfied by both the Milvus-backed and the in-memory store.
type chunkStore interface {
	retrieval.ChunkStore
	Close(ctx context.Context) error
}

type memoryStoreCloser struct {
	*vecstore.MemoryStore
}

func (memoryStoreCloser) Close(ctx context.Context) error { return nil }

func main() {
	configPath := flag.String("config", "", "Path to YAML config file")
	debug := flag.Bool("debug", false, "Enable debug logging")
	ingestFile := flag.String("ingest", "", "Index a lesson file and exit instead of serving chat")
	ingestCourse := flag.String("course", "", "Course id for -ingest")
	ingestLesson := flag.String("lesson", "", "Lesson id for -ingest")
	flag.Parse()

	if err := godotenv.Load(); err != nil {
		logger.Info("No .env file found, using process environment")
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Error("Failed to load configuration: %v", err)
		os.Exit(1)
	}
	logger.Init(*debug || cfg.Debug)

	if cfg.TelegramToken == "" {
		logger.Error("TG_BOT_TOKEN environment variable is required")
		os.Exit(1)
	}
	if cfg.Gemini.APIKey == "" {
		logger.Error("GEMINI_API_KEY environment variable is required")
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	logger.Info("Initializing services...")

	store, err := openChunkStore(ctx, cfg)
	if err != nil {
		logger.Error("Failed to initialize vector store: %v", err)
		os.Exit(1)
	}

	timeout := time.Duration(cfg.Gemini.TimeoutSecs) * time.Second
	embedder := embed.NewGeminiEmbedder(cfg.Gemini.APIKey, cfg.Gemini.EmbedModel, cfg.Milvus.Dim, timeout)
	generator := genai.NewGeminiClient(cfg.Gemini.APIKey, cfg.Gemini.Model, timeout)

	if *ingestFile != "" {
		if err := runIngest(ctx, embedder, store, *ingestFile, *ingestCourse, *ingestLesson); err != nil {
			logger.Error("Ingest failed: %v", err)
			os.Exit(1)
		}
		return
	}

	index := retrieval.NewIndex(embedder, store)
	limiter := ratelimit.New(cfg.RateLimit.Limit, time.Duration(cfg.RateLimit.WindowSecs)*time.Second)

	enrollments := enroll.NewMemoryService()
	if cfg.Enrollments != "" {
		if err := enrollments.Seed(cfg.Enrollments); err != nil {
			logger.Error("Failed to seed enrollments: %v", err)
			os.Exit(1)
		}
	}

	pool, err := worker.NewPool(worker.DefaultSize)
	if err != nil {
		logger.Error("Failed to create worker pool: %v", err)
		os.Exit(1)
	}
	defer pool.Release()

	keys := assistant.NewKeyRegistry(cfg.Gemini.APIKey)

	tutor := assistant.New(
		enrollments,
		convstore.NewMemoryStore(),
		limiter,
		index,
		generator,
		keys,
		pool,
		assistant.Options{
			HistoryTurns:   cfg.Assistant.HistoryTurns,
			TopK:           cfg.Assistant.TopK,
			MaxPromptChars: cfg.Assistant.MaxPromptChars,
		},
	)

	tgBot, err := telegram.NewBot(cfg.TelegramToken, "", tutor)
	if err != nil {
		logger.Error("Failed to initialize Telegram bot: %v", err)
		os.Exit(1)
	}

	logger.Info("Starting bot...")
	go tgBot.Start(ctx)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down...")

	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := store.Close(shutdownCtx); err != nil {
		logger.Error("Failed to close vector store: %v", err)
	}

	logger.Info("Bot has been shut down")
}

// runIngest chunks and indexes one lesson file, then reports what landed.
func runIngest(ctx context.Context, embedder retrieval.Embedder, store chunkStore, path, courseID, lessonID string) error {
	defer func() {
		if err := store.Close(context.Background()); err != nil {
			logger.Error("Failed to close vector store: %v", err)
		}
	}()

	if courseID == "" {
		return fmt.Errorf("-course is required with -ingest")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read lesson file: %w", err)
	}

	indexer := retrieval.NewIndexer(embedder, store)
	scope := vecstore.Scope{CourseID: courseID, LessonID: lessonID}
	report, err := indexer.IndexLesson(ctx, scope, filepath.Base(path), string(data))
	if err != nil {
		return err
	}
	logger.Info("Indexed %s: %d chunks, %d stored, %d skipped", path, report.Chunks, report.Stored, report.Skipped)
	return nil
}

// openChunkStore connects to Milvus when a host is configured and falls
// back to the in-memory store otherwise, which keeps local development
// free of infrastructure.
func openChunkStore(ctx context.Context, cfg *config.AppConfig) (chunkStore, error) {
	if cfg.Milvus.Host == "" {
		logger.Info("MILVUS_HOST not set, using in-memory vector store")
		return memoryStoreCloser{vecstore.NewMemoryStore(cfg.Milvus.Dim)}, nil
	}
	addr := cfg.Milvus.Host + ":" + cfg.Milvus.Port
	logger.Info("Connecting to Milvus at %s", addr)
	return vecstore.NewMilvusStore(ctx, addr, cfg.Milvus.Collection, cfg.Milvus.Dim)
}
