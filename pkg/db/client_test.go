package db

import (
	"context"
	"testing"

	"github.com/angelmondragon/storefront-cart/pkg/config"
)

func TestNewSQLiteInMemory(t *testing.T) {
	client, err := New(context.Background(), config.DBConfig{Driver: DriverSQLite, DSN: "file::memory:"}, nil)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	t.Cleanup(func() { _ = client.Close() })

	if err := client.Ping(context.Background()); err != nil {
		t.Fatalf("ping: %v", err)
	}
}

func TestNewRejectsBadConfig(t *testing.T) {
	tests := []struct {
		name string
		cfg  config.DBConfig
	}{
		{name: "unknown driver", cfg: config.DBConfig{Driver: "mysql", DSN: "x"}},
		{name: "missing dsn", cfg: config.DBConfig{Driver: DriverSQLite}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := New(context.Background(), tt.cfg, nil); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}
