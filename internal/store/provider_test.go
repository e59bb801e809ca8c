package store_test

import (
	"context"
	"testing"

	"github.com/jonboulle/clockwork"

	"github.com/jensholdgaard/draft-tracker/internal/config"
	"github.com/jensholdgaard/draft-tracker/internal/store"
)

// fakeDriver is a store.Driver that always succeeds without touching any
// backend.
func fakeDriver(_ context.Context, _ config.StorageConfig, _ clockwork.Clock) (*store.Repositories, error) {
	return &store.Repositories{}, nil
}

func TestOpen(t *testing.T) {
	store.Register("test-driver", fakeDriver)

	tests := []struct {
		name    string
		driver  string
		wantErr bool
	}{
		{
			name:    "registered driver succeeds",
			driver:  "test-driver",
			wantErr: false,
		},
		{
			name:    "unknown driver fails",
			driver:  "nonexistent",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.StorageConfig{Driver: tt.driver}
			_, err := store.Open(context.Background(), cfg, clockwork.NewFakeClock())
			if (err != nil) != tt.wantErr {
				t.Errorf("Open(driver=%q) error = %v, wantErr %v", tt.driver, err, tt.wantErr)
			}
		})
	}
}
