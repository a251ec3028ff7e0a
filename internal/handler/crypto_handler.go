package handler

import (
	"errors"
	"io"
	"log/slog"
	"net/http"

	"toy-rsa-service/internal/domain"
	"toy-rsa-service/internal/rsacore"
	"toy-rsa-service/internal/usecase"
	"toy-rsa-service/pkg/httputil"
)

// CryptoHandler は鍵を保持しないエンジン操作のHTTPハンドラ。
type CryptoHandler struct {
	service *usecase.CryptoService
}

// NewCryptoHandler は新しいCryptoHandlerを生成する。
func NewCryptoHandler(service *usecase.CryptoService) *CryptoHandler {
	return &CryptoHandler{service: service}
}

// BoundRequest は素数上限を指定するリクエスト。省略時はサーバーの既定値。
type BoundRequest struct {
	Max uint64 `json:"max"`
}

// PrimeResponse は素数生成のレスポンス形式。
type PrimeResponse struct {
	Prime uint64 `json:"prime"`
}

// PublicKeyResponse は公開鍵 (n, e)。
type PublicKeyResponse struct {
	N uint64 `json:"n"`
	E uint64 `json:"e"`
}

// PrivateKeyResponse は秘密鍵 (n, d)。
type PrivateKeyResponse struct {
	N uint64 `json:"n"`
	D uint64 `json:"d"`
}

// KeyPairResponse は鍵ペア生成のレスポンス形式。
type KeyPairResponse struct {
	Public  PublicKeyResponse  `json:"public"`
	Private PrivateKeyResponse `json:"private"`
}

// SignRequest は署名リクエスト。
type SignRequest struct {
	Message *uint64 `json:"message"`
	N       *uint64 `json:"n"`
	D       *uint64 `json:"d"`
}

// DecodeRequest は署名復元リクエスト。
type DecodeRequest struct {
	Signature *uint64 `json:"signature"`
	N         *uint64 `json:"n"`
	E         *uint64 `json:"e"`
}

// VerifyRequest は署名検証リクエスト。
type VerifyRequest struct {
	Message   *uint64 `json:"message"`
	Signature *uint64 `json:"signature"`
	N         *uint64 `json:"n"`
	E         *uint64 `json:"e"`
}

// SignatureResponse は署名のレスポンス形式。
type SignatureResponse struct {
	Signature uint64 `json:"signature"`
}

// DecodeResponse は復元結果のレスポンス形式。
type DecodeResponse struct {
	Message uint64 `json:"message"`
}

// VerifyResponse は検証結果のレスポンス形式。
type VerifyResponse struct {
	Valid bool `json:"valid"`
}

func decodeOptionalBound(r *http.Request) (uint64, error) {
	var req BoundRequest
	if err := httputil.DecodeJSON(r, &req); err != nil && !errors.Is(err, io.EOF) {
		return 0, err
	}
	return req.Max, nil
}

func allPresent(values ...*uint64) bool {
	for _, v := range values {
		if v == nil {
			return false
		}
	}
	return true
}

// GeneratePrime は [2, max] の確率的素数を返す。
func (h *CryptoHandler) GeneratePrime(w http.ResponseWriter, r *http.Request) {
	max, err := decodeOptionalBound(r)
	if err != nil {
		httputil.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "invalid request body")
		return
	}

	p, err := h.service.GeneratePrime(r.Context(), max)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	httputil.JSON(w, http.StatusOK, PrimeResponse{Prime: p})
}

// GenerateKeyPair は鍵ペアを生成して返す。サーバーには保存しない。
func (h *CryptoHandler) GenerateKeyPair(w http.ResponseWriter, r *http.Request) {
	max, err := decodeOptionalBound(r)
	if err != nil {
		httputil.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "invalid request body")
		return
	}

	pair, err := h.service.GenerateKeyPair(r.Context(), max)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	httputil.JSON(w, http.StatusCreated, KeyPairResponse{
		Public:  PublicKeyResponse{N: pair.Public.N, E: pair.Public.E},
		Private: PrivateKeyResponse{N: pair.Private.N, D: pair.Private.D},
	})
}

// Sign は (n, d) でメッセージに署名する。
func (h *CryptoHandler) Sign(w http.ResponseWriter, r *http.Request) {
	var req SignRequest
	if err := httputil.DecodeJSON(r, &req); err != nil || !allPresent(req.Message, req.N, req.D) {
		httputil.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "message, n and d are required")
		return
	}

	sig, err := h.service.Sign(r.Context(), *req.Message, rsacore.PrivateKey{N: *req.N, D: *req.D})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	httputil.JSON(w, http.StatusOK, SignatureResponse{Signature: sig})
}

// Decode は (n, e) で署名を復元する。
func (h *CryptoHandler) Decode(w http.ResponseWriter, r *http.Request) {
	var req DecodeRequest
	if err := httputil.DecodeJSON(r, &req); err != nil || !allPresent(req.Signature, req.N, req.E) {
		httputil.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "signature, n and e are required")
		return
	}

	m, err := h.service.Decode(r.Context(), *req.Signature, rsacore.PublicKey{N: *req.N, E: *req.E})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	httputil.JSON(w, http.StatusOK, DecodeResponse{Message: m})
}

// Verify は署名がメッセージに対応するか検証する。
func (h *CryptoHandler) Verify(w http.ResponseWriter, r *http.Request) {
	var req VerifyRequest
	if err := httputil.DecodeJSON(r, &req); err != nil || !allPresent(req.Message, req.Signature, req.N, req.E) {
		httputil.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "message, signature, n and e are required")
		return
	}

	ok, err := h.service.Verify(r.Context(), *req.Message, *req.Signature, rsacore.PublicKey{N: *req.N, E: *req.E})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	httputil.JSON(w, http.StatusOK, VerifyResponse{Valid: ok})
}

// writeServiceError はユースケースのエラーをHTTPステータスに対応付ける。
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidBound):
		httputil.Error(w, http.StatusBadRequest, "INVALID_BOUND", err.Error())
	case errors.Is(err, rsacore.ErrInvalidModulus):
		httputil.Error(w, http.StatusBadRequest, "INVALID_MODULUS", "modulus must be non-zero")
	case errors.Is(err, domain.ErrMessageOutOfRange):
		httputil.Error(w, http.StatusBadRequest, "MESSAGE_OUT_OF_RANGE", err.Error())
	case errors.Is(err, rsacore.ErrPrimeNotFound):
		httputil.Error(w, http.StatusUnprocessableEntity, "PRIME_NOT_FOUND", "no prime found within the attempt budget")
	case errors.Is(err, domain.ErrKeyGenerationFailed):
		httputil.Error(w, http.StatusUnprocessableEntity, "KEY_GENERATION_FAILED", err.Error())
	case errors.Is(err, domain.ErrKeyNotFound):
		httputil.Error(w, http.StatusNotFound, "KEY_NOT_FOUND", "key not found for this tenant")
	case errors.Is(err, domain.ErrKeyDisabled):
		httputil.Error(w, http.StatusGone, "KEY_DISABLED", "key has been disabled")
	case errors.Is(err, domain.ErrKeyAlreadyExists):
		httputil.Error(w, http.StatusConflict, "KEY_ALREADY_EXISTS", "key already exists for this tenant")
	case errors.Is(err, domain.ErrKeyAlreadyDisabled):
		httputil.Error(w, http.StatusConflict, "KEY_ALREADY_DISABLED", "key is already disabled")
	default:
		slog.ErrorContext(r.Context(), "request failed",
			"method", r.Method,
			"path", r.URL.Path,
			"error", err,
		)
		httputil.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
	}
}
