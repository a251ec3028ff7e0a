package usecase

import (
	"context"
	"errors"
	"testing"
	"testing/fstest"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"toy-rsa-service/internal/domain"
	"toy-rsa-service/internal/repository"
	"toy-rsa-service/migrations"
)

// mockMigrationRepository はテスト用のモック。
type mockMigrationRepository struct {
	appliedMigrations map[string]*domain.Migration
	statements        map[string][]string
	applyErr          error
	ensureCalls       int
}

func newMockMigrationRepository() *mockMigrationRepository {
	return &mockMigrationRepository{
		appliedMigrations: make(map[string]*domain.Migration),
		statements:        make(map[string][]string),
	}
}

func (m *mockMigrationRepository) EnsureSchemaTable(ctx context.Context) error {
	m.ensureCalls++
	return nil
}

func (m *mockMigrationRepository) FindAllApplied(ctx context.Context) ([]*domain.Migration, error) {
	var result []*domain.Migration
	for _, migration := range m.appliedMigrations {
		result = append(result, migration)
	}
	return result, nil
}

func (m *mockMigrationRepository) IsMigrationApplied(ctx context.Context, version string) (bool, error) {
	_, exists := m.appliedMigrations[version]
	return exists, nil
}

func (m *mockMigrationRepository) Apply(ctx context.Context, version string, statements []string) error {
	if m.applyErr != nil {
		return m.applyErr
	}
	now := time.Now()
	m.appliedMigrations[version] = &domain.Migration{
		Version:   version,
		AppliedAt: &now,
		Status:    domain.MigrationStatusApplied,
	}
	m.statements[version] = statements
	return nil
}

func (m *mockMigrationRepository) markApplied(versions ...string) {
	now := time.Now()
	for _, v := range versions {
		m.appliedMigrations[v] = &domain.Migration{Version: v, AppliedAt: &now, Status: domain.MigrationStatusApplied}
	}
}

// testMigrationsFS はテスト用のマイグレーションファイル群。
func testMigrationsFS() fstest.MapFS {
	return fstest.MapFS{
		"001_create_users.sql":    {Data: []byte("CREATE TABLE users (id INT);")},
		"002_create_posts.sql":    {Data: []byte("-- posts\nCREATE TABLE posts (id INT);\nCREATE INDEX idx_posts ON posts (id);")},
		"003_create_comments.sql": {Data: []byte("CREATE TABLE comments (id INT);")},
		"README.md":               {Data: []byte("not a migration")},
	}
}

func TestMigrationService_ApplyMigrations(t *testing.T) {
	ctx := context.Background()
	repo := newMockMigrationRepository()
	service := NewMigrationService(repo, testMigrationsFS())

	count, err := service.ApplyMigrations(ctx)
	if err != nil {
		t.Fatalf("ApplyMigrations failed: %v", err)
	}
	if count != 3 {
		t.Errorf("expected 3 migrations applied, got %d", count)
	}
	if repo.ensureCalls != 1 {
		t.Errorf("expected schema table to be ensured once, got %d", repo.ensureCalls)
	}

	// コメント行を除いて文単位に分割される
	stmts := repo.statements["002"]
	if len(stmts) != 2 {
		t.Fatalf("expected 2 statements for 002, got %d: %q", len(stmts), stmts)
	}
	if stmts[0] != "CREATE TABLE posts (id INT)" {
		t.Errorf("unexpected first statement: %q", stmts[0])
	}
}

func TestMigrationService_ApplyMigrations_AlreadyApplied(t *testing.T) {
	ctx := context.Background()
	repo := newMockMigrationRepository()
	repo.markApplied("001", "002")
	service := NewMigrationService(repo, testMigrationsFS())

	count, err := service.ApplyMigrations(ctx)
	if err != nil {
		t.Fatalf("ApplyMigrations failed: %v", err)
	}
	if count != 1 {
		t.Errorf("expected 1 migration applied, got %d", count)
	}
	if _, ok := repo.statements["001"]; ok {
		t.Error("001 must not be re-applied")
	}
}

func TestMigrationService_ApplyMigrations_Error(t *testing.T) {
	ctx := context.Background()
	repo := newMockMigrationRepository()
	repo.applyErr = errors.New("syntax error")
	service := NewMigrationService(repo, testMigrationsFS())

	count, err := service.ApplyMigrations(ctx)
	if !errors.Is(err, domain.ErrMigrationFailed) {
		t.Errorf("expected ErrMigrationFailed, got %v", err)
	}
	if count != 0 {
		t.Errorf("expected 0 migrations applied, got %d", count)
	}
}

func TestMigrationService_InvalidFiles(t *testing.T) {
	tests := []struct {
		name string
		fsys fstest.MapFS
	}{
		{"no underscore", fstest.MapFS{"001.sql": {Data: []byte("SELECT 1;")}}},
		{"duplicate version", fstest.MapFS{
			"001_a.sql": {Data: []byte("SELECT 1;")},
			"001_b.sql": {Data: []byte("SELECT 2;")},
		}},
		{"empty file", fstest.MapFS{"001_empty.sql": {Data: []byte("-- nothing\n")}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			service := NewMigrationService(newMockMigrationRepository(), tt.fsys)
			_, err := service.ApplyMigrations(context.Background())
			if !errors.Is(err, domain.ErrInvalidMigrationFile) {
				t.Errorf("expected ErrInvalidMigrationFile, got %v", err)
			}
		})
	}
}

func TestMigrationService_GetMigrationStatus(t *testing.T) {
	ctx := context.Background()
	repo := newMockMigrationRepository()
	repo.markApplied("001")
	service := NewMigrationService(repo, testMigrationsFS())

	migrations, err := service.GetMigrationStatus(ctx)
	if err != nil {
		t.Fatalf("GetMigrationStatus failed: %v", err)
	}
	if len(migrations) != 3 {
		t.Fatalf("expected 3 migrations, got %d", len(migrations))
	}

	expectedStatuses := map[string]domain.MigrationStatus{
		"001": domain.MigrationStatusApplied,
		"002": domain.MigrationStatusPending,
		"003": domain.MigrationStatusPending,
	}
	for i, migration := range migrations {
		if want := []string{"001", "002", "003"}[i]; migration.Version != want {
			t.Errorf("migrations[%d]: expected version %s, got %s", i, want, migration.Version)
		}
		if migration.Status != expectedStatuses[migration.Version] {
			t.Errorf("migration %s: expected status %s, got %s", migration.Version, expectedStatuses[migration.Version], migration.Status)
		}
	}
	if migrations[0].AppliedAt == nil {
		t.Error("expected applied_at for 001")
	}
}

func TestMigrationService_EmbeddedMigrationsOnSQLite(t *testing.T) {
	ctx := context.Background()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	service := NewMigrationService(repository.NewMigrationRepository(db), migrations.FS)

	count, err := service.ApplyMigrations(ctx)
	if err != nil {
		t.Fatalf("ApplyMigrations failed: %v", err)
	}
	if count == 0 {
		t.Fatal("expected embedded migrations to be applied")
	}

	// 2回目は何も適用しない
	count, err = service.ApplyMigrations(ctx)
	if err != nil {
		t.Fatalf("second ApplyMigrations failed: %v", err)
	}
	if count != 0 {
		t.Errorf("expected 0 migrations on second run, got %d", count)
	}

	var tables int64
	if err := db.Raw("SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name='key_pairs'").Scan(&tables).Error; err != nil {
		t.Fatalf("failed to check table: %v", err)
	}
	if tables != 1 {
		t.Error("key_pairs table was not created")
	}

	status, err := service.GetMigrationStatus(ctx)
	if err != nil {
		t.Fatalf("GetMigrationStatus failed: %v", err)
	}
	for _, m := range status {
		if m.Status != domain.MigrationStatusApplied {
			t.Errorf("migration %s: expected applied, got %s", m.Version, m.Status)
		}
	}
}
