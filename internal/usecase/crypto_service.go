package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"toy-rsa-service/internal/domain"
	"toy-rsa-service/internal/rsacore"
)

// MaxKeyBound は鍵生成で受け付ける素数上限の最大値。
// p, q ≤ 2^32 なら n = p·q は64ビットに収まる。
const MaxKeyBound uint64 = 1 << 32

const tracerName = "toy-rsa-service/internal/usecase"

// CryptoService はエンジンの5操作を状態を持たずに提供する。
type CryptoService struct {
	rand         rsacore.Rand
	defaultBound uint64
	tracer       trace.Tracer
}

// NewCryptoService は新しいCryptoServiceを生成する。
// defaultBound は上限0で呼ばれたときに使う。
func NewCryptoService(r rsacore.Rand, defaultBound uint64) *CryptoService {
	if r == nil {
		r = rsacore.DefaultRand
	}
	return &CryptoService{
		rand:         r,
		defaultBound: defaultBound,
		tracer:       otel.Tracer(tracerName),
	}
}

func (s *CryptoService) resolveBound(max uint64) uint64 {
	if max == 0 {
		return s.defaultBound
	}
	return max
}

// GeneratePrime は [2, max] の確率的素数を1つ返す。
func (s *CryptoService) GeneratePrime(ctx context.Context, max uint64) (uint64, error) {
	bound := s.resolveBound(max)
	ctx, span := s.tracer.Start(ctx, "CryptoService.GeneratePrime",
		trace.WithAttributes(uintAttr("rsa.bound", bound)))
	defer span.End()

	p, err := rsacore.GenerateRandomPrime(s.rand, bound)
	if err != nil {
		recordError(span, err)
		if errors.Is(err, rsacore.ErrBoundTooSmall) {
			return 0, fmt.Errorf("%w: %w", domain.ErrInvalidBound, err)
		}
		return 0, fmt.Errorf("generating prime: %w", err)
	}

	slog.DebugContext(ctx, "prime generated", "bound", bound, "prime", p)
	return p, nil
}

// GenerateKeyPair は上限 max 以下の2素数から鍵ペアを生成する。
// エンジンが鍵を導出できなかった場合は domain.ErrKeyGenerationFailed を返す。
func (s *CryptoService) GenerateKeyPair(ctx context.Context, max uint64) (rsacore.KeyPair, error) {
	bound := s.resolveBound(max)
	ctx, span := s.tracer.Start(ctx, "CryptoService.GenerateKeyPair",
		trace.WithAttributes(uintAttr("rsa.bound", bound)))
	defer span.End()

	if bound > MaxKeyBound {
		err := fmt.Errorf("%w: %d exceeds %d", domain.ErrInvalidBound, bound, MaxKeyBound)
		recordError(span, err)
		return rsacore.KeyPair{}, err
	}

	pair, err := rsacore.GenerateKeyPair(s.rand, bound)
	if err != nil {
		recordError(span, err)
		if errors.Is(err, rsacore.ErrBoundTooSmall) {
			return rsacore.KeyPair{}, fmt.Errorf("%w: %w", domain.ErrInvalidBound, err)
		}
		return rsacore.KeyPair{}, fmt.Errorf("%w: %w", domain.ErrKeyGenerationFailed, err)
	}

	span.SetAttributes(uintAttr("rsa.n", pair.Public.N), uintAttr("rsa.e", pair.Public.E))
	slog.DebugContext(ctx, "key pair generated",
		"bound", bound,
		"n", pair.Public.N,
		"e", pair.Public.E,
	)
	return pair, nil
}

// Sign は秘密鍵でメッセージに署名する。
func (s *CryptoService) Sign(ctx context.Context, message uint64, key rsacore.PrivateKey) (uint64, error) {
	ctx, span := s.tracer.Start(ctx, "CryptoService.Sign",
		trace.WithAttributes(uintAttr("rsa.n", key.N)))
	defer span.End()

	sig, err := rsacore.Sign(message, key)
	if err != nil {
		recordError(span, err)
		return 0, err
	}

	slog.DebugContext(ctx, "message signed", "n", key.N)
	return sig, nil
}

// Decode は公開鍵で署名を復元する。
func (s *CryptoService) Decode(ctx context.Context, signature uint64, key rsacore.PublicKey) (uint64, error) {
	ctx, span := s.tracer.Start(ctx, "CryptoService.Decode",
		trace.WithAttributes(uintAttr("rsa.n", key.N), uintAttr("rsa.e", key.E)))
	defer span.End()

	decoded, err := rsacore.Decode(signature, key)
	if err != nil {
		recordError(span, err)
		return 0, err
	}

	slog.DebugContext(ctx, "signature decoded", "n", key.N, "e", key.E)
	return decoded, nil
}

// Verify は署名がメッセージ（mod n）に復元されるかを返す。
func (s *CryptoService) Verify(ctx context.Context, message, signature uint64, key rsacore.PublicKey) (bool, error) {
	ctx, span := s.tracer.Start(ctx, "CryptoService.Verify",
		trace.WithAttributes(uintAttr("rsa.n", key.N), uintAttr("rsa.e", key.E)))
	defer span.End()

	ok, err := rsacore.Verify(message, signature, key)
	if err != nil {
		recordError(span, err)
		return false, err
	}

	span.SetAttributes(attribute.Bool("rsa.valid", ok))
	slog.DebugContext(ctx, "signature verified", "n", key.N, "valid", ok)
	return ok, nil
}

// uintAttr はint64に収まらない値もあるため10進文字列で属性化する。
func uintAttr(key string, v uint64) attribute.KeyValue {
	return attribute.String(key, strconv.FormatUint(v, 10))
}

func recordError(span trace.Span, err error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}
