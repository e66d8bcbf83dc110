package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"codecraft/backend/internal/config"
	assist_app "codecraft/backend/internal/features/assist/application"
	assist_infra "codecraft/backend/internal/features/assist/infrastructure"
	assist_http "codecraft/backend/internal/features/assist/presentation/http"
	config_app "codecraft/backend/internal/features/config/application"
	config_http "codecraft/backend/internal/features/config/presentation/http"
	export_app "codecraft/backend/internal/features/export/application"
	export_infra "codecraft/backend/internal/features/export/infrastructure"
	export_http "codecraft/backend/internal/features/export/presentation/http"
	generation_app "codecraft/backend/internal/features/generation/application"
	generation_infra "codecraft/backend/internal/features/generation/infrastructure"
	generation_http "codecraft/backend/internal/features/generation/presentation/http"
	preview_app "codecraft/backend/internal/features/preview/application"
	preview_infra "codecraft/backend/internal/features/preview/infrastructure"
	preview_http "codecraft/backend/internal/features/preview/presentation/http"
	"codecraft/backend/internal/middleware"
	"codecraft/backend/internal/observability"
)

func main() {
	// Load .env file
	envErr := godotenv.Load()

	logger := observability.NewLogger(getEnv("LOG_LEVEL", "info"), getEnv("LOG_FORMAT", "json"))
	if envErr != nil {
		logger.Info().Msg("No .env file found, using environment variables")
	}

	appConfigService := config.NewAppConfigService(getEnv("CODECRAFT_APP_CONFIG", "config/app_config.json"), logger)
	appConfig, err := appConfigService.LoadAppConfig()
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to load app config")
	}

	baseCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Generation
	registry, err := generation_infra.NewRegistry(appConfig.Providers, generation_infra.RegistryOptions{
		LookupEnv:  os.Getenv,
		HTTPClient: &http.Client{},
		Logger:     logger,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to build provider registry")
	}
	generationService := generation_app.NewGenerationService(registry, generation_app.NewPromptBuilder(*appConfig), logger)

	// Preview
	sandbox, err := preview_infra.NewSandbox(time.Duration(appConfig.PreviewTimeoutMillis) * time.Millisecond)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to create preview sandbox")
	}
	renderer := preview_app.NewRenderer(preview_infra.Transpiler{}, sandbox, logger)

	sessions := generation_app.NewSessionRegistry(generationService, generation_app.SessionRegistryOptions{
		Size:         getEnvInt("SESSION_CACHE_SIZE", 256),
		TTL:          getEnvDuration("SESSION_TTL", 2*time.Hour),
		Timeout:      time.Duration(appConfig.GenerationTimeoutSeconds) * time.Second,
		AutoFixLimit: appConfig.AutoFixLimit,
		Renderer:     renderer,
		BaseContext:  baseCtx,
		Logger:       logger,
	})

	// Export
	exportOpts := export_app.ExportOptions{
		ShareTTL: getEnvDuration("SHARE_LINK_TTL", 24*time.Hour),
		Logger:   logger,
	}
	if deployer, err := export_infra.NewVercelClient(export_infra.VercelConfig{
		Token:  os.Getenv("VERCEL_TOKEN"),
		TeamID: os.Getenv("VERCEL_TEAM_ID"),
		Logger: logger,
	}); err == nil {
		exportOpts.Deployer = deployer
	} else {
		logger.Warn().Err(err).Msg("Deployments disabled")
	}
	if endpoint := os.Getenv("SHARE_S3_ENDPOINT"); endpoint != "" {
		store, err := export_infra.NewS3ShareStore(export_infra.S3Config{
			Endpoint:  endpoint,
			Region:    os.Getenv("SHARE_S3_REGION"),
			AccessKey: os.Getenv("SHARE_S3_ACCESS_KEY"),
			SecretKey: os.Getenv("SHARE_S3_SECRET_KEY"),
			Bucket:    getEnv("SHARE_S3_BUCKET", "codecraft-shares"),
			UseSSL:    getEnvBool("SHARE_S3_USE_SSL", true),
		})
		if err != nil {
			logger.Fatal().Err(err).Msg("Failed to create share store")
		}
		exportOpts.Shares = store
	}
	exportService := export_app.NewExportService(exportOpts)

	// Assist
	var enhancer assist_infra.PromptEnhancer
	if e, err := assist_infra.NewGeminiEnhancer(baseCtx, assist_infra.GeminiConfig{
		APIKey: os.Getenv("GOOGLE_AI_API_KEY"),
		Model:  appConfig.EnhanceModel,
	}); err == nil {
		enhancer = e
	} else {
		logger.Warn().Err(err).Msg("Prompt enhancement disabled, prompts are echoed")
	}
	var analyzer assist_infra.ImageAnalyzer
	if a, err := assist_infra.NewVisionClient(assist_infra.VisionConfig{
		APIKey: os.Getenv("TOGETHER_API_KEY"),
		Model:  appConfig.VisionModel,
	}); err == nil {
		analyzer = a
	} else {
		logger.Warn().Err(err).Msg("Image analysis disabled")
	}
	assistService := assist_app.NewAssistService(enhancer, analyzer, *appConfig, logger)

	if os.Getenv("GIN_MODE") == "" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger(logger))
	origins := splitList(getEnv("CORS_ORIGINS", ""))
	r.Use(middleware.CORS(origins))

	r.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": "pong",
		})
	})

	api := r.Group("/api")
	limit := middleware.RateLimiter(getEnvFloat("RATE_LIMIT_RPS", 5), getEnvInt("RATE_LIMIT_BURST", 10))
	{
		generateHandler := generation_http.NewGenerateHandler(generationService)
		api.POST("/generateCode", limit, generateHandler.GenerateCodeHandler)

		assistHandler := assist_http.NewAssistHandler(assistService)
		api.POST("/enhancePrompt", limit, assistHandler.EnhancePromptHandler)
		api.POST("/analyzeImage", limit, assistHandler.AnalyzeImageHandler)

		api.POST("/deployToVercel", export_http.NewExportHandler(exportService).DeployHandler)
		api.POST("/preview", preview_http.NewPreviewHandler(renderer).RenderHandler)

		configHandler := config_http.NewAppConfigHandler(appConfigService, config_app.NewModelCatalogService(appConfig.Providers, os.Getenv))
		api.GET("/models", configHandler.ListModelsHandler)
		api.GET("/config/app", configHandler.GetAppConfigHandler)
		api.POST("/config/app", configHandler.SaveAppConfigHandler)

		generation_http.NewSessionHandler(sessions, exportService, middleware.AllowOrigin(origins), logger).
			Register(api.Group("/sessions"), limit)
	}

	srv := &http.Server{
		Addr:              ":" + getEnv("PORT", "8080"),
		Handler:           h2c.NewHandler(r, &http2.Server{}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info().Str("addr", srv.Addr).Strs("models", generationService.Models()).Msg("Server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("Server failed")
		}
	}()

	<-baseCtx.Done()
	logger.Info().Msg("Shutting down")
	sessions.Close()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("Graceful shutdown failed")
	}
}

func getEnv(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func getEnvInt(key string, def int) int {
	if v, err := strconv.Atoi(getEnv(key, "")); err == nil {
		return v
	}
	return def
}

func getEnvFloat(key string, def float64) float64 {
	if v, err := strconv.ParseFloat(getEnv(key, ""), 64); err == nil {
		return v
	}
	return def
}

func getEnvBool(key string, def bool) bool {
	if v, err := strconv.ParseBool(getEnv(key, "")); err == nil {
		return v
	}
	return def
}

func getEnvDuration(key string, def time.Duration) time.Duration {
	if v, err := time.ParseDuration(getEnv(key, "")); err == nil {
		return v
	}
	return def
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
