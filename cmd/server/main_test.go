package main

import (
	"context"
	"encoding/base64"
	"strings"
	"testing"

	"toy-rsa-service/config"
	"toy-rsa-service/internal/infra"
)

func TestNewSealer_Local(t *testing.T) {
	cfg := &config.Config{
		Sealer:       "local",
		LocalSealKey: base64.StdEncoding.EncodeToString(make([]byte, 32)),
	}

	s, err := newSealer(context.Background(), cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := s.(*infra.LocalSealer); !ok {
		t.Errorf("want *infra.LocalSealer, got %T", s)
	}
	if err := s.Close(); err != nil {
		t.Errorf("unexpected close error: %v", err)
	}
}

func TestNewSealer_Errors(t *testing.T) {
	tests := []struct {
		name    string
		cfg     *config.Config
		wantErr string
	}{
		{"kms without key name", &config.Config{Sealer: "kms"}, "KMS_KEY_NAME"},
		{"local with short key", &config.Config{Sealer: "local", LocalSealKey: "c2hvcnQ="}, ""},
		{"unknown sealer", &config.Config{Sealer: "vault"}, "unknown SEALER"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := newSealer(context.Background(), tt.cfg)
			if err == nil {
				t.Fatal("want error")
			}
			if s != nil {
				t.Errorf("want nil sealer on error, got %T", s)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("want error containing %q, got %v", tt.wantErr, err)
			}
		})
	}
}
