// Package main はAPIサーバーのエントリポイント。
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"toy-rsa-service/config"
	"toy-rsa-service/internal/handler"
	"toy-rsa-service/internal/infra"
	"toy-rsa-service/internal/repository"
	"toy-rsa-service/internal/rsacore"
	"toy-rsa-service/internal/usecase"
	"toy-rsa-service/migrations"
)

// sealer は秘密指数の暗号化と後始末を行う。
type sealer interface {
	usecase.KeyEncrypter
	Close() error
}

// newSealer は SEALER の値に応じてKMSまたはローカル鍵の実装を返す。
func newSealer(ctx context.Context, cfg *config.Config) (sealer, error) {
	switch cfg.Sealer {
	case "kms":
		c, err := infra.NewKMSClient(ctx, cfg.KMSKeyName)
		if err != nil {
			return nil, err
		}
		return c, nil
	case "local":
		s, err := infra.NewLocalSealer(cfg.LocalSealKey)
		if err != nil {
			return nil, err
		}
		return s, nil
	default:
		return nil, fmt.Errorf("unknown SEALER %q (want kms or local)", cfg.Sealer)
	}
}

func main() {
	ctx := context.Background()

	// .envファイルを読み込む（存在しない場合は無視）
	// 既存の環境変数は上書きしない
	_ = godotenv.Load()

	// 設定読み込み
	cfg := config.Load()

	// トレーサー初期化（ロガー設定の前に実行）
	tp, err := infra.InitTracer(ctx, cfg)
	if err != nil {
		slog.Error("failed to init tracer", "error", err)
		os.Exit(1)
	}
	if tp != nil {
		defer func() {
			if err := tp.Shutdown(ctx); err != nil {
				slog.Error("failed to shutdown tracer", "error", err)
			}
		}()
	}

	// トレース情報付きロガーを設定
	infra.SetupLogger(cfg)

	// DB初期化
	db, err := infra.NewDB(cfg)
	if err != nil {
		slog.Error("failed to init database", "error", err)
		os.Exit(1)
	}

	if cfg.MigrateOnStart {
		migrationService := usecase.NewMigrationService(repository.NewMigrationRepository(db), migrations.Source(cfg.MigrationsDir))
		applied, err := migrationService.ApplyMigrations(ctx)
		if err != nil {
			slog.Error("failed to apply migrations", "error", err)
			os.Exit(1)
		}
		slog.Info("migrations checked", "applied", applied)
	}

	// 秘密指数の封印
	s, err := newSealer(ctx, cfg)
	if err != nil {
		slog.Error("failed to init sealer", "sealer", cfg.Sealer, "error", err)
		os.Exit(1)
	}
	defer func() {
		if closeErr := s.Close(); closeErr != nil {
			slog.Error("failed to close sealer", "error", closeErr)
		}
	}()

	// DI
	crypto := usecase.NewCryptoService(rsacore.DefaultRand, cfg.DefaultKeyBound)
	keyService := usecase.NewKeyService(repository.NewKeyPairRepository(db), s, crypto)
	router := handler.NewRouter(handler.NewKeyHandler(keyService), handler.NewCryptoHandler(crypto), cfg)

	// サーバー起動
	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Graceful shutdown
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGTERM, syscall.SIGINT)
		<-sigCh

		slog.Info("shutting down server...")
		shutdownCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("server shutdown error", "error", err)
		}
	}()

	slog.Info("starting server", "port", cfg.Port, "sealer", cfg.Sealer, "default_bound", cfg.DefaultKeyBound)
	if err := server.ListenAndServe(); err != http.ErrServerClosed {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}
	slog.Info("server stopped")
}
