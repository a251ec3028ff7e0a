package main

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"math/rand/v2"
	"net/http/httptest"
	"strings"
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"toy-rsa-service/config"
	"toy-rsa-service/internal/handler"
	"toy-rsa-service/internal/infra"
	"toy-rsa-service/internal/repository"
	"toy-rsa-service/internal/usecase"
	"toy-rsa-service/migrations"
)

// startServer はSQLiteとローカル封印で組み立てたAPIサーバーを起動する。
func startServer(t *testing.T) string {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("failed to get sql.DB: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	migrationSvc := usecase.NewMigrationService(repository.NewMigrationRepository(db), migrations.FS)
	if _, err := migrationSvc.ApplyMigrations(context.Background()); err != nil {
		t.Fatalf("failed to apply migrations: %v", err)
	}

	sealer, err := infra.NewLocalSealer(base64.StdEncoding.EncodeToString(bytes.Repeat([]byte{9}, 32)))
	if err != nil {
		t.Fatalf("failed to create sealer: %v", err)
	}

	crypto := usecase.NewCryptoService(rand.New(rand.NewPCG(5, 6)), 10000)
	keySvc := usecase.NewKeyService(repository.NewKeyPairRepository(db), sealer, crypto)
	srv := httptest.NewServer(handler.NewRouter(handler.NewKeyHandler(keySvc), handler.NewCryptoHandler(crypto), &config.Config{}))
	t.Cleanup(srv.Close)
	return srv.URL
}

func TestKeysCommands_Lifecycle(t *testing.T) {
	url := startServer(t)

	out, err := execute(t, "--api-url", url, "keys", "create", "--tenant", "acme", "--max", "5000")
	if err != nil {
		t.Fatalf("create: unexpected error: %v", err)
	}
	if !strings.Contains(out, `Created key for tenant "acme" (generation: 1`) {
		t.Errorf("unexpected create output: %q", out)
	}

	out, err = execute(t, "--api-url", url, "--output", "json", "keys", "get", "--tenant", "acme")
	if err != nil {
		t.Fatalf("get: unexpected error: %v", err)
	}
	var key handler.KeyMetadataResponse
	if err := json.Unmarshal([]byte(out), &key); err != nil {
		t.Fatalf("failed to parse get output %q: %v", out, err)
	}
	if key.Generation != 1 || key.Bound != 5000 {
		t.Errorf("unexpected key: %+v", key)
	}

	message := key.N - 2
	out, err = execute(t, "--api-url", url, "--output", "json", "keys", "sign", "--tenant", "acme", "--message", fmt.Sprint(message))
	if err != nil {
		t.Fatalf("sign: unexpected error: %v", err)
	}
	var sig handler.TenantSignatureResponse
	if err := json.Unmarshal([]byte(out), &sig); err != nil {
		t.Fatalf("failed to parse sign output %q: %v", out, err)
	}

	out, err = execute(t, "--api-url", url, "keys", "verify", "--tenant", "acme", "--generation", "1",
		"--message", fmt.Sprint(message), "--signature", fmt.Sprint(sig.Signature))
	if err != nil {
		t.Fatalf("verify: unexpected error: %v", err)
	}
	if want := fmt.Sprintf("Valid: true (decoded: %d)\n", message); out != want {
		t.Errorf("want %q, got %q", want, out)
	}

	// 公開鍵だけでローカルにも復元できる
	out, err = execute(t, "decode", "--signature", fmt.Sprint(sig.Signature), "--n", fmt.Sprint(key.N), "--e", fmt.Sprint(key.E))
	if err != nil {
		t.Fatalf("decode: unexpected error: %v", err)
	}
	if want := fmt.Sprintf("Message: %d\n", message); out != want {
		t.Errorf("want %q, got %q", want, out)
	}

	out, err = execute(t, "--api-url", url, "keys", "rotate", "--tenant", "acme")
	if err != nil {
		t.Fatalf("rotate: unexpected error: %v", err)
	}
	if !strings.Contains(out, "new generation: 2") {
		t.Errorf("unexpected rotate output: %q", out)
	}

	out, err = execute(t, "--api-url", url, "keys", "disable", "--tenant", "acme", "--generation", "2")
	if err != nil {
		t.Fatalf("disable: unexpected error: %v", err)
	}
	if !strings.Contains(out, "Disabled key") {
		t.Errorf("unexpected disable output: %q", out)
	}

	out, err = execute(t, "--api-url", url, "keys", "list", "--tenant", "acme")
	if err != nil {
		t.Fatalf("list: unexpected error: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != 3 || !strings.HasPrefix(lines[0], "GENERATION") || !strings.Contains(lines[2], "disabled") {
		t.Errorf("unexpected list output: %q", out)
	}
}

func TestKeysCommands_APIErrors(t *testing.T) {
	url := startServer(t)

	if _, err := execute(t, "--api-url", url, "keys", "create", "--tenant", "acme"); err != nil {
		t.Fatalf("create: unexpected error: %v", err)
	}

	tests := []struct {
		name    string
		args    []string
		wantErr string
	}{
		{"create twice", []string{"keys", "create", "--tenant", "acme"}, "KEY_ALREADY_EXISTS"},
		{"unknown tenant", []string{"keys", "get", "--tenant", "nobody"}, "KEY_NOT_FOUND"},
		{"invalid tenant", []string{"keys", "list", "--tenant", "bad tenant"}, "INVALID_TENANT_ID"},
		{"missing generation", []string{"keys", "get", "--tenant", "acme", "--generation", "9"}, "KEY_NOT_FOUND"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := execute(t, append([]string{"--api-url", url}, tt.args...)...)
			if err == nil {
				t.Fatal("want error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("want error containing %s, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestKeysCommands_RequireAPIURL(t *testing.T) {
	t.Setenv("RSACTL_API_URL", "")

	_, err := execute(t, "keys", "list", "--tenant", "acme")
	if err == nil || !strings.Contains(err.Error(), "--api-url is required") {
		t.Errorf("want api-url error, got %v", err)
	}
}

func TestKeysCommands_APIURLFromEnv(t *testing.T) {
	t.Setenv("RSACTL_API_URL", startServer(t))

	_, err := execute(t, "keys", "get", "--tenant", "acme")
	if err == nil || !strings.Contains(err.Error(), "KEY_NOT_FOUND") {
		t.Errorf("want KEY_NOT_FOUND from env-configured server, got %v", err)
	}
}

func TestHandleErrorResponse(t *testing.T) {
	err := handleErrorResponse(500, []byte("not json"))
	if err == nil || !strings.Contains(err.Error(), "status 500") {
		t.Errorf("want status fallback, got %v", err)
	}
}
