package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"toy-rsa-service/config"
	"toy-rsa-service/internal/middleware"
)

// NewRouter はルーターを生成する。OTEL_ENABLED の場合はotelhttpで計装する。
func NewRouter(kh *KeyHandler, ch *CryptoHandler, cfg *config.Config) http.Handler {
	r := chi.NewRouter()

	// ミドルウェア
	r.Use(chimiddleware.RequestID)
	r.Use(middleware.RequestLogger)
	r.Use(chimiddleware.Recoverer)

	r.Route("/v1", func(r chi.Router) {
		// 鍵を保持しない操作
		r.Post("/primes", ch.GeneratePrime)
		r.Post("/keypairs", ch.GenerateKeyPair)
		r.Post("/signatures", ch.Sign)
		r.Post("/signatures/decode", ch.Decode)
		r.Post("/signatures/verify", ch.Verify)

		r.Route("/tenants/{tenant_id}/keys", func(r chi.Router) {
			r.Post("/", kh.CreateKey)
			r.Get("/", kh.ListKeys)
			r.Get("/current", kh.GetCurrentKey)
			r.Post("/current/sign", kh.Sign)
			r.Post("/rotate", kh.RotateKey)
			r.Get("/{generation}", kh.GetKeyByGeneration)
			r.Delete("/{generation}", kh.DisableKey)
			r.Post("/{generation}/verify", kh.Verify)
		})
	})

	if cfg.OtelEnabled {
		return otelhttp.NewHandler(r, cfg.OtelServiceName)
	}
	return r
}
