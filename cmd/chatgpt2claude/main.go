package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"github.com/xxxsen/common/logger"
	"github.com/xxxsen/common/logutil"
	"github.com/xxxsen/common/webapi"
	"go.uber.org/zap"

	"github.com/laifehacker/chatgpt2claude/internal/ai"
	"github.com/laifehacker/chatgpt2claude/internal/chunker"
	"github.com/laifehacker/chatgpt2claude/internal/config"
	"github.com/laifehacker/chatgpt2claude/internal/db"
	"github.com/laifehacker/chatgpt2claude/internal/embedcache"
	"github.com/laifehacker/chatgpt2claude/internal/handler"
	"github.com/laifehacker/chatgpt2claude/internal/job"
	"github.com/laifehacker/chatgpt2claude/internal/middleware"
	appErr "github.com/laifehacker/chatgpt2claude/internal/pkg/errors"
	"github.com/laifehacker/chatgpt2claude/internal/pkg/timeutil"
	"github.com/laifehacker/chatgpt2claude/internal/repo"
	"github.com/laifehacker/chatgpt2claude/internal/schedule"
	"github.com/laifehacker/chatgpt2claude/internal/search"
	"github.com/laifehacker/chatgpt2claude/internal/service"
)

func main() {
	var configPath string

	rootCmd := &cobra.Command{
		Use:   "chatgpt2claude",
		Short: "import and search your ChatGPT conversation history",
	}
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to config.json")

	var force bool
	importCmd := &cobra.Command{
		Use:   "import <export.zip>",
		Short: "import a ChatGPT data export ZIP",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, conn, err := setup(configPath)
			if err != nil {
				return err
			}
			defer conn.Close()
			return runImport(cmd.Context(), cfg, conn, args[0], force)
		},
	}
	importCmd.Flags().BoolVar(&force, "force", false, "re-import conversations that already exist")

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "run the search API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, conn, err := setup(configPath)
			if err != nil {
				return err
			}
			defer conn.Close()
			return runServer(cfg, conn)
		},
	}

	statsCmd := &cobra.Command{
		Use:   "stats",
		Short: "show statistics about the imported history",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, conn, err := setup(configPath)
			if err != nil {
				return err
			}
			defer conn.Close()
			return runStats(cmd.Context(), cfg, conn)
		},
	}

	var confirmed bool
	resetCmd := &cobra.Command{
		Use:   "reset",
		Short: "delete all imported data",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !confirmed {
				return fmt.Errorf("refusing to delete data without --yes")
			}
			_, conn, err := setup(configPath)
			if err != nil {
				return err
			}
			defer conn.Close()
			return runReset(cmd.Context(), conn)
		},
	}
	resetCmd.Flags().BoolVar(&confirmed, "yes", false, "confirm deletion")

	rootCmd.AddCommand(importCmd, serveCmd, statsCmd, resetCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func setup(configPath string) (*config.Config, *sql.DB, error) {
	if configPath == "" {
		return nil, nil, fmt.Errorf("--config is required")
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, err
	}
	logger.Init(
		cfg.LogConfig.File,
		cfg.LogConfig.Level,
		int(cfg.LogConfig.FileCount),
		int(cfg.LogConfig.FileSize),
		int(cfg.LogConfig.KeepDays),
		cfg.LogConfig.Console,
	)
	logutil.GetLogger(context.Background()).Info("config loaded", zap.String("config", configPath))

	conn, err := db.Open(cfg.Database)
	if err != nil {
		return nil, nil, fmt.Errorf("open db: %w", err)
	}
	if err := db.ApplyMigrations(conn); err != nil {
		conn.Close()
		return nil, nil, fmt.Errorf("migrations: %w", err)
	}
	return cfg, conn, nil
}

func buildEmbedder(cfg *config.Config, cacheRepo *repo.EmbeddingCacheRepo) (ai.IEmbedder, error) {
	provider, err := ai.NewEmbedProvider(cfg.AI.EmbedProvider, cfg.AI.Data)
	if err != nil {
		return nil, fmt.Errorf("init embed provider: %w", err)
	}
	embedder := ai.NewEmbedder(provider, cfg.AI.EmbedModel)
	embedder = embedcache.WrapDBCacheToEmbedder(embedder, cacheRepo)
	embedder = embedcache.WrapLruCacheToEmbedder(embedder, cfg.Cache.LRUSize, time.Duration(cfg.Cache.LRUTTLMinutes)*time.Minute)
	return embedder, nil
}

func chunkParams(cfg *config.Config) chunker.Params {
	overlap := 0
	if cfg.Chunking.OverlapPairs != nil {
		overlap = *cfg.Chunking.OverlapPairs
	}
	return chunker.Params{
		TurnPairs:    cfg.Chunking.TurnPairs,
		OverlapPairs: overlap,
		MaxChars:     cfg.Chunking.MaxChars,
	}
}

func runImport(ctx context.Context, cfg *config.Config, conn *sql.DB, zipPath string, force bool) error {
	convRepo := repo.NewConversationRepo(conn)
	chunkRepo := repo.NewChunkRepo(conn)
	importRepo := repo.NewImportRepo(conn)
	cacheRepo := repo.NewEmbeddingCacheRepo(conn)

	embedder, err := buildEmbedder(cfg, cacheRepo)
	if err != nil {
		return err
	}
	importService := service.NewImportService(convRepo, chunkRepo, importRepo, embedder, chunkParams(cfg))

	summary, err := importService.ImportArchive(ctx, zipPath, force)
	if err != nil {
		return err
	}

	fmt.Println("Import complete!")
	fmt.Printf("  Found:    %d conversations in export\n", summary.Found)
	fmt.Printf("  Imported: %d conversations (%d messages)\n", summary.Imported, summary.Messages)
	if summary.Skipped > 0 {
		fmt.Printf("  Skipped:  %d (already imported, use --force to re-import)\n", summary.Skipped)
	}
	if summary.Failed > 0 {
		fmt.Printf("  Failed:   %d (see log for details)\n", summary.Failed)
	}
	fmt.Printf("  Chunks:   %d (indexed for semantic search)\n", summary.Chunks)
	return nil
}

func runStats(ctx context.Context, cfg *config.Config, conn *sql.DB) error {
	convRepo := repo.NewConversationRepo(conn)
	chunkRepo := repo.NewChunkRepo(conn)
	conversations := service.NewConversationService(convRepo, chunkRepo)

	stats, err := conversations.Stats(ctx)
	if errors.Is(err, appErr.ErrNoData) {
		fmt.Println("No data imported yet. Run the import command first.")
		return nil
	}
	if err != nil {
		return err
	}
	fmt.Println("ChatGPT Import Statistics")
	fmt.Printf("  Conversations:  %d\n", stats.TotalConversations)
	fmt.Printf("  Messages:       %d\n", stats.TotalMessages)
	fmt.Printf("  Avg msgs/conv:  %.1f\n", stats.AvgMessages)
	fmt.Printf("  Indexed chunks: %d\n", stats.IndexedChunks)
	if stats.DateRangeStart != nil {
		fmt.Printf("  Date range:     %s - %s\n", timeutil.FormatDate(stats.DateRangeStart), timeutil.FormatDate(stats.DateRangeEnd))
	}
	if len(stats.TopModels) > 0 {
		fmt.Println("  Models used:")
		for _, m := range stats.TopModels {
			fmt.Printf("    %s: %d\n", m.Model, m.Count)
		}
	}
	return nil
}

func runReset(ctx context.Context, conn *sql.DB) error {
	if err := repo.NewConversationRepo(conn).Reset(ctx); err != nil {
		return err
	}
	if err := repo.NewChunkRepo(conn).Reset(ctx); err != nil {
		return err
	}
	if err := repo.NewImportRepo(conn).Reset(ctx); err != nil {
		return err
	}
	fmt.Println("All imported data deleted.")
	return nil
}

func runServer(cfg *config.Config, conn *sql.DB) error {
	logutil.GetLogger(context.Background()).Info(
		"starting server",
		zap.Int("port", cfg.Port),
		zap.String("embed_provider", cfg.AI.EmbedProvider),
	)

	convRepo := repo.NewConversationRepo(conn)
	chunkRepo := repo.NewChunkRepo(conn)
	cacheRepo := repo.NewEmbeddingCacheRepo(conn)

	embedder, err := buildEmbedder(cfg, cacheRepo)
	if err != nil {
		return err
	}

	weights := search.Weights{
		Semantic: cfg.Search.SemanticWeight,
		Keyword:  cfg.Search.KeywordWeight,
	}
	searchService := service.NewSearchService(chunkRepo, convRepo, embedder, weights, cfg.Search.DefaultLimit)
	conversationService := service.NewConversationService(convRepo, chunkRepo)

	deps := handler.RouterDeps{
		Search:           handler.NewSearchHandler(searchService),
		Conversations:    handler.NewConversationHandler(conversationService),
		Stats:            handler.NewStatsHandler(conversationService),
		SearchRateWindow: 200 * time.Millisecond,
	}

	engine, err := webapi.NewEngine(
		"/api/v1",
		fmt.Sprintf("0.0.0.0:%d", cfg.Port),
		webapi.WithRegister(func(group *gin.RouterGroup) {
			handler.RegisterRoutes(group, deps)
		}),
		webapi.WithExtraMiddlewares(
			middleware.CORS(cfg.CORSHosts),
			gzip.Gzip(gzip.DefaultCompression),
		),
	)
	if err != nil {
		return fmt.Errorf("init web engine: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	scheduler := schedule.NewCronScheduler()
	if err := scheduler.AddJob(job.NewEmbeddingCacheCleanupJob(cacheRepo, cfg.Cache.DBMaxAgeDays), cfg.Cache.CleanupCronTab); err != nil {
		return err
	}
	scheduler.Start(ctx)
	defer scheduler.Stop()

	logutil.GetLogger(ctx).Info("http server listening", zap.String("addr", fmt.Sprintf("0.0.0.0:%d", cfg.Port)))
	go func() {
		if err := engine.Run(); err != nil && err != http.ErrServerClosed {
			logutil.GetLogger(context.Background()).Error("server error", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logutil.GetLogger(context.Background()).Info("server stopping...")
	return nil
}
