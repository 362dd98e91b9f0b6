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
	"time"

	"golang.org/x/sync/errgroup"

	redisclient "github.com/jasperedu/jasper-backend/internal/clients/redis"
	"github.com/jasperedu/jasper-backend/internal/db"
	"github.com/jasperedu/jasper-backend/internal/handlers"
	"github.com/jasperedu/jasper-backend/internal/logger"
	"github.com/jasperedu/jasper-backend/internal/middleware"
	"github.com/jasperedu/jasper-backend/internal/observability"
	"github.com/jasperedu/jasper-backend/internal/repos"
	"github.com/jasperedu/jasper-backend/internal/server"
	"github.com/jasperedu/jasper-backend/internal/services"
	"github.com/jasperedu/jasper-backend/internal/sse"
	"github.com/jasperedu/jasper-backend/internal/utils"
)

func main() {
	// Logger
	logMode := os.Getenv("LOG_MODE")
	if logMode == "" {
		logMode = "development"
	}
	log, err := logger.New(logMode)
	if err != nil {
		fmt.Printf("Failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Env
	log.Info("Loading environment variables from main...")
	jwtSecretKey := utils.GetEnv("JWT_SECRET_KEY", "defaultsecret", log)
	accessTokenTTL := utils.GetEnvAsInt("ACCESS_TOKEN_TTL", 3600, log)
	refreshTokenTTL := utils.GetEnvAsInt("REFRESH_TOKEN_TTL", 86400, log)
	promptOverridePath := utils.GetEnv("JASPER_PROMPT_MODULES_FILE", "", log)
	allowedOrigins := utils.GetEnv("CORS_ALLOWED_ORIGINS", "", log)

	// Tracing (opt-in via OTEL_ENABLED)
	otelShutdown := observability.InitOTel(ctx, log, observability.OtelConfig{
		ServiceName: "jasper-backend",
		Environment: os.Getenv("APP_ENV"),
		Version:     os.Getenv("APP_VERSION"),
	})

	// Postgres
	postgresService, err := db.NewPostgresService(log)
	if err != nil {
		log.Fatal("Postgres init failed", "error", err)
	}
	if err = postgresService.AutoMigrateAll(); err != nil {
		log.Fatal("Postgres auto migration failed", "error", err)
	}
	thePG := postgresService.DB()

	// Repos
	log.Info("Setting up Repos from main...")
	userRepo := repos.NewUserRepo(thePG, log)
	userTokenRepo := repos.NewUserTokenRepo(thePG, log)
	conversationRepo := repos.NewConversationRepo(thePG, log)
	chatMessageRepo := repos.NewChatMessageRepo(thePG, log)
	chatTurnRepo := repos.NewChatTurnRepo(thePG, log)
	aiCallLogRepo := repos.NewAICallLogRepo(thePG, log)

	// SSE
	log.Info("Setting up SSE hub now...")
	sseHub := sse.NewSSEHub(log)

	var emitter services.SSEEmitter = &services.HubEmitter{Hub: sseHub}
	sseBus, busErr := redisclient.NewSSEBus(log)
	if busErr != nil {
		log.Warn("Redis SSE bus unavailable, using in-process hub only", "error", busErr)
	} else {
		emitter = &services.RedisEmitter{Bus: sseBus}
		if err := sseBus.StartForwarder(ctx, func(m sse.SSEMessage) { sseHub.Broadcast(m) }); err != nil {
			log.Warn("Redis SSE forwarder failed to start", "error", err)
			emitter = &services.HubEmitter{Hub: sseHub}
		}
	}

	// Services
	log.Info("Setting up Services from main...")
	openaiClient, err := services.NewOpenAIClient(log)
	if err != nil {
		log.Fatal("Could not init OpenAIClient", "error", err)
	}
	promptService := services.NewPromptModuleService(log, promptOverridePath)
	modelRouter := services.NewModelRouter(log, openaiClient)
	validator := services.NewValidator(log)
	widgetExtractor := services.NewWidgetExtractor(log)
	stateService := services.NewConversationStateService(log, conversationRepo)
	assistantService := services.NewAssistantService(log, promptService, modelRouter, validator, widgetExtractor, stateService, aiCallLogRepo)
	chatNotifier := services.NewChatNotifier(emitter)
	chatService := services.NewChatService(log, thePG, conversationRepo, chatMessageRepo, chatTurnRepo, stateService, assistantService, chatNotifier)
	authService := services.NewAuthService(thePG, log, userRepo, userTokenRepo, jwtSecretKey,
		time.Duration(accessTokenTTL)*time.Second, time.Duration(refreshTokenTTL)*time.Second)

	// Handlers
	log.Info("Setting up handlers from main...")
	authHandler := handlers.NewAuthHandler(authService)
	chatHandler := handlers.NewChatHandler(chatService)
	sseHandler := handlers.NewSSEHandler(log, sseHub)

	// Middleware
	authMiddleware := middleware.NewAuthMiddleware(log, authService)

	// Router
	log.Info("Setting up router from main...")
	var origins []string
	for _, o := range strings.Split(allowedOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	router := server.NewRouter(server.RouterConfig{
		ServiceName:    "jasper-backend",
		AllowedOrigins: origins,
		TracingEnabled: otelShutdown != nil,
		AuthHandler:    authHandler,
		AuthMiddleware: authMiddleware,
		ChatHandler:    chatHandler,
		SSEHandler:     sseHandler,
	})

	port := utils.GetEnv("PORT", "8080", log)
	srv := &http.Server{
		Addr:    ":" + port,
		Handler: router,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("Server listening", "port", port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if otelShutdown != nil {
			_ = otelShutdown(shutdownCtx)
		}
		if sseBus != nil {
			_ = sseBus.Close()
		}
		return srv.Shutdown(shutdownCtx)
	})
	if err := g.Wait(); err != nil {
		log.Error("Server exited with error", "error", err)
		os.Exit(1)
	}
	log.Info("Server stopped")
}
