package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/mdp/qrterminal/v3"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"
	"venue-manager/auth"
	"venue-manager/broker"
	"venue-manager/chat"
	"venue-manager/db"
	"venue-manager/handlers"
	"venue-manager/ocr"
	"venue-manager/persistence"
	"venue-manager/utils"
)

// Params holds the command line settings passed to the fx module.
type Params struct {
	ConfigPath string
}

func main() {
	configPath := flag.String("config", "config.json", "configuration file (.json, .yaml, .yml or .toml)")
	flag.Parse()

	app := fx.New(
		Module(Params{ConfigPath: *configPath}),
		fx.WithLogger(func(l *zap.Logger) fxevent.Logger {
			return &fxevent.ZapLogger{Logger: l.Named("fx")}
		}),
	)
	app.Run()
}

// Module composes every service of the venue server.
func Module(p Params) fx.Option {
	return fx.Module("venue",
		fx.Supply(p),
		fx.Provide(
			provideConfig,
			provideLogger,
			provideStore,
			provideImageStore,
			provideRecognizer,
			provideBroker,
			provideChatService,
			provideTokens,
			provideAPI,
			provideRouter,
			provideHTTPServer,
			provideHeartbeat,
		),
		fx.Invoke(registerLifecycle),
	)
}

func provideConfig(p Params) (*utils.Config, error) {
	cfg, err := utils.LoadConfig(p.ConfigPath)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func provideLogger(cfg *utils.Config) (*zap.Logger, error) {
	return utils.NewLogger(cfg.Logging.Level, cfg.Logging.Format)
}

func provideStore(cfg *utils.Config, logger *zap.Logger) (*db.Manager, error) {
	store, err := db.Open(cfg.Database.Driver, cfg.Database.GetDSN(), logger.Named("db"))
	if err != nil {
		return nil, err
	}
	result, err := store.Migrate()
	if err != nil {
		_ = store.Close()
		return nil, err
	}
	if result.Changed {
		logger.Info("migrations applied", zap.Uint("version", result.Version))
	} else {
		logger.Info("migrations up to date", zap.Uint("version", result.Version))
	}

	if cfg.Auth.SeedDefaultUsers {
		if _, err := store.SeedDefaultUsers(context.Background(), auth.HashPassword); err != nil {
			_ = store.Close()
			return nil, err
		}
	}
	logger.Info("store initialized", zap.String("driver", cfg.Database.Driver))
	return store, nil
}

func provideImageStore(cfg *utils.Config, logger *zap.Logger) (*persistence.ImageStore, error) {
	images, err := persistence.NewImageStore(cfg.Storage.ImagePath)
	if err != nil {
		return nil, err
	}
	logger.Info("image store opened", zap.String("path", cfg.Storage.ImagePath))
	return images, nil
}

func provideRecognizer(cfg *utils.Config, logger *zap.Logger) ocr.Recognizer {
	rec := ocr.New(ocr.Options{
		Endpoint:   cfg.OCR.Endpoint,
		APIKey:     cfg.OCR.APIKey,
		Language:   cfg.OCR.Language,
		Timeout:    time.Duration(cfg.OCR.TimeoutSeconds) * time.Second,
		MaxRetries: 2,
	}, logger.Named("ocr"))
	if _, off := rec.(ocr.Disabled); off {
		logger.Warn("OCR_API_KEY not set, uploaded receipts wait for manual entry")
	}
	return rec
}

func provideBroker(logger *zap.Logger) *broker.Broker {
	return broker.New(broker.WithLogger(logger.Named("broker")))
}

func provideChatService(b *broker.Broker, store *db.Manager, logger *zap.Logger) *chat.Service {
	return chat.NewService(b, store, logger.Named("chat"))
}

func provideTokens(cfg *utils.Config) (*auth.TokenManager, error) {
	return auth.NewTokenManager(cfg.Auth.SecretKey, time.Duration(cfg.Auth.TokenTTLMinutes)*time.Minute)
}

func provideAPI(cfg *utils.Config, store *db.Manager, images *persistence.ImageStore, rec ocr.Recognizer,
	chatService *chat.Service, tokens *auth.TokenManager, logger *zap.Logger) *handlers.API {
	return handlers.NewAPI(store, images, rec, chatService, tokens, handlers.Options{
		FrontendURL:    cfg.Server.FrontendURL,
		MaxUploadBytes: int64(cfg.Storage.MaxUploadMB) << 20,
		OCRTimeout:     time.Duration(cfg.OCR.TimeoutSeconds) * time.Second,
		PongWait:       time.Duration(cfg.Server.HeartbeatSeconds)*time.Second*2 + 10*time.Second,
	}, logger.Named("http"))
}

func provideRouter(cfg *utils.Config, api *handlers.API) *gin.Engine {
	if cfg.Logging.Level != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}
	return handlers.NewRouter(api)
}

func provideHTTPServer(cfg *utils.Config, router *gin.Engine) *http.Server {
	return &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
}

func provideHeartbeat(cfg *utils.Config, b *broker.Broker, logger *zap.Logger) *handlers.HeartbeatService {
	return handlers.NewHeartbeatService(b, time.Duration(cfg.Server.HeartbeatSeconds)*time.Second, logger.Named("heartbeat"))
}

func registerLifecycle(lc fx.Lifecycle, cfg *utils.Config, srv *http.Server, hb *handlers.HeartbeatService,
	b *broker.Broker, store *db.Manager, images *persistence.ImageStore, logger *zap.Logger) {
	lc.Append(fx.Hook{
		OnStart: func(_ context.Context) error {
			ln, err := net.Listen("tcp", srv.Addr)
			if err != nil {
				return fmt.Errorf("listen on %s: %w", srv.Addr, err)
			}
			go func() {
				if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
					logger.Error("http server error", zap.Error(err))
				}
			}()
			hb.Start()

			logger.Info("server listening", zap.String("addr", srv.Addr))
			if cfg.UsesDevSecret() {
				logger.Warn("using the built-in development secret, set SECRET_KEY in production")
			}
			if cfg.Server.ShowQR && cfg.Server.PublicURL != "" {
				fmt.Println("Scan to open", cfg.Server.PublicURL)
				qrterminal.GenerateHalfBlock(cfg.Server.PublicURL, qrterminal.L, os.Stdout)
			}
			return nil
		},
		OnStop: func(ctx context.Context) error {
			ctx, cancel := context.WithTimeout(ctx, time.Duration(cfg.Server.ShutdownTimeoutSeconds)*time.Second)
			defer cancel()

			hb.Stop()
			// hijacked WebSocket connections are not tracked by Shutdown
			b.Close()
			err := srv.Shutdown(ctx)
			err = errors.Join(err, images.Close(), store.Close())

			logger.Info("server stopped")
			_ = logger.Sync()
			return err
		},
	})
}
