package cmd

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/kozaktomas/face-index/internal/config"
	"github.com/kozaktomas/face-index/internal/extractor"
	"github.com/kozaktomas/face-index/internal/identity"
	"github.com/kozaktomas/face-index/internal/ingest"
	"github.com/kozaktomas/face-index/internal/snapshot"
	"github.com/kozaktomas/face-index/internal/store"
	"github.com/kozaktomas/face-index/internal/store/mock"
	"github.com/spf13/cobra"
)

func labelCommand(t *testing.T, flags map[string]string) *cobra.Command {
	t.Helper()
	cmd := &cobra.Command{}
	for _, name := range []string{"label", "state", "county", "city", "person"} {
		cmd.Flags().String(name, "", "")
	}
	for k, v := range flags {
		if err := cmd.Flags().Set(k, v); err != nil {
			t.Fatalf("failed to set --%s: %v", k, err)
		}
	}
	return cmd
}

func TestIngestLabel(t *testing.T) {
	tests := []struct {
		name      string
		flags     map[string]string
		expected  string
		expectErr bool
	}{
		{
			name:     "segments",
			flags:    map[string]string{"state": "Texas", "county": "Harris", "city": "Houston", "person": "John Doe"},
			expected: "Texas/Harris/Houston/John Doe",
		},
		{
			name:     "full label wins",
			flags:    map[string]string{"label": "Ohio/Franklin/Columbus/Jane", "person": "ignored"},
			expected: "Ohio/Franklin/Columbus/Jane",
		},
		{
			name:     "blank segments",
			flags:    map[string]string{"person": "Zoë"},
			expected: "NA/NA/NA/Zo_",
		},
		{
			name:      "no person",
			flags:     map[string]string{"state": "Texas"},
			expectErr: true,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			label, err := ingestLabel(labelCommand(t, tc.flags))
			if tc.expectErr {
				if err == nil {
					t.Errorf("expected error, got label %q", label)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if label != tc.expected {
				t.Errorf("expected %q, got %q", tc.expected, label)
			}
		})
	}
}

func TestNewMatcher(t *testing.T) {
	cfg := &config.Config{Recognition: config.RecognitionConfig{Tolerance: 0.4}}

	if got := newMatcher(cfg, 0).Tolerance(); got != 0.4 {
		t.Errorf("expected configured tolerance 0.4, got %v", got)
	}
	if got := newMatcher(cfg, 0.6).Tolerance(); got != 0.6 {
		t.Errorf("expected flag tolerance 0.6, got %v", got)
	}
}

func TestOpenStore_FileBackend(t *testing.T) {
	path := filepath.Join(t.TempDir(), "identities.gob")
	cfg := &config.Config{Store: config.StoreConfig{Path: path}}

	s, closeStore, err := openStore(context.Background(), cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer closeStore()

	fs, ok := s.(*store.FileStore)
	if !ok {
		t.Fatalf("expected *store.FileStore, got %T", s)
	}
	if fs.Path() != path {
		t.Errorf("expected path %q, got %q", path, fs.Path())
	}
}

func TestBootstrapIfEmpty(t *testing.T) {
	ctx := context.Background()
	dataset := t.TempDir()
	imgPath := filepath.Join(dataset, "Texas", "Harris", "Houston", "Alice.jpg")
	if err := os.MkdirAll(filepath.Dir(imgPath), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(imgPath, []byte("alice"), 0600); err != nil {
		t.Fatal(err)
	}
	ex := extractor.Func(func(ctx context.Context, image []byte) ([]extractor.Face, error) {
		return []extractor.Face{{Embedding: []float32{0.1, 0.2}}}, nil
	})
	opts := ingest.BootstrapOptions{Concurrency: 2}

	t.Run("empty store", func(t *testing.T) {
		s := mock.NewMockStore()
		cache, err := snapshot.NewCache(ctx, s, time.Hour, time.Now())
		if err != nil {
			t.Fatal(err)
		}

		ran, err := bootstrapIfEmpty(ctx, s, ex, cache, dataset, opts)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !ran {
			t.Error("expected bootstrap to run")
		}
		if cache.Current().Len() != 1 || cache.Current().Label(0) != "Texas/Harris/Houston/Alice" {
			t.Errorf("expected cache to hold the bootstrapped identity, got %d entries", cache.Current().Len())
		}
	})

	t.Run("populated store", func(t *testing.T) {
		s := mock.NewMockStore(identity.Entry{Label: "x", Embedding: []float32{1, 1}})
		cache, _ := snapshot.NewCache(ctx, s, time.Hour, time.Now())

		ran, err := bootstrapIfEmpty(ctx, s, ex, cache, dataset, opts)
		if err != nil || ran {
			t.Errorf("expected no bootstrap, got ran=%v err=%v", ran, err)
		}
		if s.AppendCalls != 0 {
			t.Errorf("expected no appends, got %d", s.AppendCalls)
		}
	})

	t.Run("no dataset", func(t *testing.T) {
		s := mock.NewMockStore()
		cache, _ := snapshot.NewCache(ctx, s, time.Hour, time.Now())

		if ran, _ := bootstrapIfEmpty(ctx, s, ex, cache, "", opts); ran {
			t.Error("expected no bootstrap without a dataset")
		}
	})
}
