package backend

import (
	"context"
	"path/filepath"
	"testing"

	"bilancio/internal/config"
	"bilancio/internal/log"
)

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"memory", Config{Type: MemoryBackend}, false},
		{"sqlite without path", Config{Type: SQLiteBackend}, true},
		{"sqlite", Config{Type: SQLiteBackend, SQLiteDBPath: "x.db"}, false},
		{"mongo without database", Config{Type: MongoBackend, MongoURI: "mongodb://localhost"}, true},
		{"unknown", Config{Type: "sheets"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.cfg.Validate(); (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestFromAppConfig(t *testing.T) {
	app := config.Defaults()
	app.DataBackend = "mongo"
	app.MongoDatabase = "ledger"
	cfg, err := FromAppConfig(app)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Type != MongoBackend || cfg.MongoDatabase != "ledger" || cfg.DataDirectory != "data" {
		t.Fatalf("got %+v", cfg)
	}

	app.DataBackend = "nope"
	if _, err := FromAppConfig(app); err == nil {
		t.Fatal("expected error for invalid backend")
	}
	if _, err := FromAppConfig(nil); err == nil {
		t.Fatal("expected error for nil config")
	}
}

func TestCreateMemoryAndSQLiteBackends(t *testing.T) {
	ctx := context.Background()
	f := NewFactory(log.Discard())

	mem, err := f.CreateBackend(ctx, Config{Type: MemoryBackend, DataDirectory: t.TempDir()})
	if err != nil {
		t.Fatal(err)
	}
	if mem.Store == nil || mem.Cleanup != nil {
		t.Fatalf("unexpected memory result: %+v", mem)
	}

	sql, err := f.CreateBackend(ctx, Config{Type: SQLiteBackend, SQLiteDBPath: filepath.Join(t.TempDir(), "b.db")})
	if err != nil {
		t.Fatal(err)
	}
	defer sql.Cleanup()
	if _, ok := sql.Store.(Pinger); !ok {
		t.Fatal("sqlite store should support Ping")
	}
}
