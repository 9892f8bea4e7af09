// Package usecase はアプリケーションのユースケースを実装する。
package usecase

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"license-service/internal/domain"
	"license-service/internal/middleware"
)

var tracer = otel.Tracer("license-service/usecase")

// VerificationRecorder は検証結果の記録先。
type VerificationRecorder interface {
	RecordVerification(outcome domain.Outcome)
}

// Verification は検証処理の結果。
type Verification struct {
	Key     domain.LicenseKey
	Outcome domain.Outcome
	Verdict domain.Verdict
}

// LicenseService はライセンス検証とアクティベーションのビジネスロジックを提供する。
type LicenseService struct {
	catalog  *KeyCatalog
	registry *ActivationRegistry
	recorder VerificationRecorder
}

// NewLicenseService は新しいLicenseServiceを生成する。recorder は nil でもよい。
func NewLicenseService(catalog *KeyCatalog, registry *ActivationRegistry, recorder VerificationRecorder) *LicenseService {
	return &LicenseService{
		catalog:  catalog,
		registry: registry,
		recorder: recorder,
	}
}

// Verify はキーを正規化し、カタログで有効性を確認した上でアクティベーション状態を評価する。
func (s *LicenseService) Verify(ctx context.Context, req domain.VerifyRequest) (*Verification, error) {
	ctx, span := tracer.Start(ctx, "LicenseService.Verify")
	defer span.End()
	span.SetAttributes(attribute.Bool("license.activate", req.Activate))

	key, err := domain.NormalizeKey(req.RawKey)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	ok, err := s.catalog.Contains(ctx, key)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "catalog unavailable")
		return nil, err
	}
	if !ok {
		return s.finish(span, key, domain.OutcomeUnknownKey), nil
	}

	device := req.DeviceID
	if device == "" {
		device = domain.UnknownDevice
	}

	decision, err := s.registry.Evaluate(ctx, key, device, req.Activate)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "activation evaluation failed")
		return nil, fmt.Errorf("evaluating activation: %w", err)
	}

	if decision.Changed() {
		middleware.WriteAuditLog(ctx, string(decision.Outcome), key.Masked(),
			string(decision.Current.Device), string(decision.Next.Device))
	}

	return s.finish(span, key, decision.Outcome), nil
}

func (s *LicenseService) finish(span trace.Span, key domain.LicenseKey, outcome domain.Outcome) *Verification {
	span.SetAttributes(attribute.String("license.outcome", string(outcome)))
	if s.recorder != nil {
		s.recorder.RecordVerification(outcome)
	}
	return &Verification{
		Key:     key,
		Outcome: outcome,
		Verdict: outcome.Verdict(),
	}
}
