// Package handler はHTTPハンドラを提供する。
package handler

import (
	"net/http"
	"regexp"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"toy-rsa-service/internal/domain"
	"toy-rsa-service/internal/middleware"
	"toy-rsa-service/internal/usecase"
	"toy-rsa-service/pkg/httputil"
)

var tenantIDRegex = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

// KeyHandler はテナント鍵のHTTPハンドラを提供する。
type KeyHandler struct {
	service *usecase.KeyService
}

// NewKeyHandler は新しいKeyHandlerを生成する。
func NewKeyHandler(service *usecase.KeyService) *KeyHandler {
	return &KeyHandler{service: service}
}

func validateTenantID(tenantID string) error {
	if tenantID == "" || len(tenantID) > 64 || !tenantIDRegex.MatchString(tenantID) {
		return domain.ErrInvalidTenantID
	}
	return nil
}

func validateGeneration(genStr string) (uint, error) {
	gen, err := strconv.ParseUint(genStr, 10, 32)
	if err != nil || gen < 1 {
		return 0, domain.ErrInvalidGeneration
	}
	return uint(gen), nil
}

// KeyMetadataResponse は鍵メタデータのレスポンス形式。秘密指数は含まない。
type KeyMetadataResponse struct {
	TenantID   string `json:"tenant_id"`
	Generation uint   `json:"generation"`
	N          uint64 `json:"n"`
	E          uint64 `json:"e"`
	Bound      uint64 `json:"bound"`
	Status     string `json:"status"`
	CreatedAt  string `json:"created_at"`
}

// KeyListResponse は鍵一覧のレスポンス形式。
type KeyListResponse struct {
	Keys []KeyMetadataResponse `json:"keys"`
}

// TenantSignRequest はテナント鍵での署名リクエスト。
type TenantSignRequest struct {
	Message *uint64 `json:"message"`
}

// TenantSignatureResponse はテナント鍵での署名レスポンス。
type TenantSignatureResponse struct {
	TenantID   string `json:"tenant_id"`
	Generation uint   `json:"generation"`
	Message    uint64 `json:"message"`
	Signature  uint64 `json:"signature"`
}

// TenantVerifyRequest はテナント鍵での検証リクエスト。
type TenantVerifyRequest struct {
	Message   *uint64 `json:"message"`
	Signature *uint64 `json:"signature"`
}

// TenantVerifyResponse はテナント鍵での検証レスポンス。
type TenantVerifyResponse struct {
	TenantID   string `json:"tenant_id"`
	Generation uint   `json:"generation"`
	Decoded    uint64 `json:"decoded"`
	Valid      bool   `json:"valid"`
}

func toMetadataResponse(k *domain.KeyMetadata) KeyMetadataResponse {
	return KeyMetadataResponse{
		TenantID:   k.TenantID,
		Generation: k.Generation,
		N:          k.Modulus,
		E:          k.PublicExponent,
		Bound:      k.Bound,
		Status:     string(k.Status),
		CreatedAt:  k.CreatedAt.Format(time.RFC3339),
	}
}

// CreateKey は新しい鍵ペアを生成する。
func (h *KeyHandler) CreateKey(w http.ResponseWriter, r *http.Request) {
	tenantID := chi.URLParam(r, "tenant_id")
	if err := validateTenantID(tenantID); err != nil {
		httputil.Error(w, http.StatusBadRequest, "INVALID_TENANT_ID", "invalid tenant ID format")
		return
	}
	bound, err := decodeOptionalBound(r)
	if err != nil {
		httputil.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "invalid request body")
		return
	}

	metadata, err := h.service.CreateKey(r.Context(), tenantID, bound)
	if err != nil {
		middleware.WriteAuditLog(r.Context(), "CREATE_KEY", tenantID, 0, middleware.ResultFailed)
		writeServiceError(w, r, err)
		return
	}

	middleware.WriteAuditLog(r.Context(), "CREATE_KEY", tenantID, metadata.Generation, middleware.ResultSuccess)
	httputil.JSON(w, http.StatusCreated, toMetadataResponse(metadata))
}

// GetCurrentKey は現在有効な公開鍵を取得する。
func (h *KeyHandler) GetCurrentKey(w http.ResponseWriter, r *http.Request) {
	tenantID := chi.URLParam(r, "tenant_id")
	if err := validateTenantID(tenantID); err != nil {
		httputil.Error(w, http.StatusBadRequest, "INVALID_TENANT_ID", "invalid tenant ID format")
		return
	}

	key, err := h.service.GetCurrentKey(r.Context(), tenantID)
	if err != nil {
		middleware.WriteAuditLog(r.Context(), "GET_CURRENT_KEY", tenantID, 0, middleware.ResultFailed)
		writeServiceError(w, r, err)
		return
	}

	middleware.WriteAuditLog(r.Context(), "GET_CURRENT_KEY", tenantID, key.Generation, middleware.ResultSuccess)
	httputil.JSON(w, http.StatusOK, toMetadataResponse(key))
}

// GetKeyByGeneration は指定された世代の公開鍵を取得する。
func (h *KeyHandler) GetKeyByGeneration(w http.ResponseWriter, r *http.Request) {
	tenantID := chi.URLParam(r, "tenant_id")
	if err := validateTenantID(tenantID); err != nil {
		httputil.Error(w, http.StatusBadRequest, "INVALID_TENANT_ID", "invalid tenant ID format")
		return
	}
	generation, err := validateGeneration(chi.URLParam(r, "generation"))
	if err != nil {
		httputil.Error(w, http.StatusBadRequest, "INVALID_GENERATION", "invalid generation number")
		return
	}

	key, err := h.service.GetKeyByGeneration(r.Context(), tenantID, generation)
	if err != nil {
		middleware.WriteAuditLog(r.Context(), "GET_KEY_BY_GENERATION", tenantID, generation, middleware.ResultFailed)
		writeServiceError(w, r, err)
		return
	}

	middleware.WriteAuditLog(r.Context(), "GET_KEY_BY_GENERATION", tenantID, generation, middleware.ResultSuccess)
	httputil.JSON(w, http.StatusOK, toMetadataResponse(key))
}

// RotateKey は鍵ペアをローテーションする。
func (h *KeyHandler) RotateKey(w http.ResponseWriter, r *http.Request) {
	tenantID := chi.URLParam(r, "tenant_id")
	if err := validateTenantID(tenantID); err != nil {
		httputil.Error(w, http.StatusBadRequest, "INVALID_TENANT_ID", "invalid tenant ID format")
		return
	}
	bound, err := decodeOptionalBound(r)
	if err != nil {
		httputil.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "invalid request body")
		return
	}

	metadata, err := h.service.RotateKey(r.Context(), tenantID, bound)
	if err != nil {
		middleware.WriteAuditLog(r.Context(), "ROTATE_KEY", tenantID, 0, middleware.ResultFailed)
		writeServiceError(w, r, err)
		return
	}

	middleware.WriteAuditLog(r.Context(), "ROTATE_KEY", tenantID, metadata.Generation, middleware.ResultSuccess)
	httputil.JSON(w, http.StatusCreated, toMetadataResponse(metadata))
}

// ListKeys は鍵一覧を取得する。
func (h *KeyHandler) ListKeys(w http.ResponseWriter, r *http.Request) {
	tenantID := chi.URLParam(r, "tenant_id")
	if err := validateTenantID(tenantID); err != nil {
		httputil.Error(w, http.StatusBadRequest, "INVALID_TENANT_ID", "invalid tenant ID format")
		return
	}

	keys, err := h.service.ListKeys(r.Context(), tenantID)
	if err != nil {
		middleware.WriteAuditLog(r.Context(), "LIST_KEYS", tenantID, 0, middleware.ResultFailed)
		writeServiceError(w, r, err)
		return
	}

	middleware.WriteAuditLog(r.Context(), "LIST_KEYS", tenantID, 0, middleware.ResultSuccess)
	response := KeyListResponse{
		Keys: make([]KeyMetadataResponse, len(keys)),
	}
	for i, k := range keys {
		response.Keys[i] = toMetadataResponse(k)
	}
	httputil.JSON(w, http.StatusOK, response)
}

// DisableKey は鍵ペアを無効化する。
func (h *KeyHandler) DisableKey(w http.ResponseWriter, r *http.Request) {
	tenantID := chi.URLParam(r, "tenant_id")
	if err := validateTenantID(tenantID); err != nil {
		httputil.Error(w, http.StatusBadRequest, "INVALID_TENANT_ID", "invalid tenant ID format")
		return
	}
	generation, err := validateGeneration(chi.URLParam(r, "generation"))
	if err != nil {
		httputil.Error(w, http.StatusBadRequest, "INVALID_GENERATION", "invalid generation number")
		return
	}

	if err := h.service.DisableKey(r.Context(), tenantID, generation); err != nil {
		middleware.WriteAuditLog(r.Context(), "DISABLE_KEY", tenantID, generation, middleware.ResultFailed)
		writeServiceError(w, r, err)
		return
	}

	middleware.WriteAuditLog(r.Context(), "DISABLE_KEY", tenantID, generation, middleware.ResultSuccess)
	w.WriteHeader(http.StatusAccepted)
}

// Sign は現在有効な鍵でメッセージに署名する。
func (h *KeyHandler) Sign(w http.ResponseWriter, r *http.Request) {
	tenantID := chi.URLParam(r, "tenant_id")
	if err := validateTenantID(tenantID); err != nil {
		httputil.Error(w, http.StatusBadRequest, "INVALID_TENANT_ID", "invalid tenant ID format")
		return
	}
	var req TenantSignRequest
	if err := httputil.DecodeJSON(r, &req); err != nil || req.Message == nil {
		httputil.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "message is required")
		return
	}

	sig, err := h.service.Sign(r.Context(), tenantID, *req.Message)
	if err != nil {
		middleware.WriteAuditLog(r.Context(), "SIGN", tenantID, 0, middleware.ResultFailed)
		writeServiceError(w, r, err)
		return
	}

	middleware.WriteAuditLog(r.Context(), "SIGN", tenantID, sig.Generation, middleware.ResultSuccess)
	httputil.JSON(w, http.StatusOK, TenantSignatureResponse{
		TenantID:   sig.TenantID,
		Generation: sig.Generation,
		Message:    sig.Message,
		Signature:  sig.Signature,
	})
}

// Verify は指定された世代の公開鍵で署名を検証する。
func (h *KeyHandler) Verify(w http.ResponseWriter, r *http.Request) {
	tenantID := chi.URLParam(r, "tenant_id")
	if err := validateTenantID(tenantID); err != nil {
		httputil.Error(w, http.StatusBadRequest, "INVALID_TENANT_ID", "invalid tenant ID format")
		return
	}
	generation, err := validateGeneration(chi.URLParam(r, "generation"))
	if err != nil {
		httputil.Error(w, http.StatusBadRequest, "INVALID_GENERATION", "invalid generation number")
		return
	}
	var req TenantVerifyRequest
	if err := httputil.DecodeJSON(r, &req); err != nil || !allPresent(req.Message, req.Signature) {
		httputil.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "message and signature are required")
		return
	}

	v, err := h.service.Verify(r.Context(), tenantID, generation, *req.Message, *req.Signature)
	if err != nil {
		middleware.WriteAuditLog(r.Context(), "VERIFY", tenantID, generation, middleware.ResultFailed)
		writeServiceError(w, r, err)
		return
	}

	middleware.WriteAuditLog(r.Context(), "VERIFY", tenantID, generation, middleware.ResultSuccess)
	httputil.JSON(w, http.StatusOK, TenantVerifyResponse{
		TenantID:   v.TenantID,
		Generation: v.Generation,
		Decoded:    v.Decoded,
		Valid:      v.Valid,
	})
}
