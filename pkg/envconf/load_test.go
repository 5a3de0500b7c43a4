package envconf

import (
	"errors"
	"log/slog"
	"testing"
	"time"
)

type nestedConf struct {
	DSN     string        `env:"T_DSN"`
	Timeout time.Duration `env:"T_TIMEOUT" default:"5s"`
}

type testConf struct {
	Port     uint16     `env:"T_PORT" default:"8080"`
	Level    slog.Level `env:"T_LEVEL" default:"INFO"`
	Strict   bool       `env:"T_STRICT" default:"true"`
	Limit    *int64     `env:"T_LIMIT" default:"3"`
	Nested   nestedConf
	Optional *nestedConf
	skipped  string
}

func mapLookup(m map[string]string) func(string) (string, bool) {
	return func(k string) (string, bool) {
		v, ok := m[k]
		return v, ok
	}
}

func TestLoadFrom_DefaultsAndOverrides(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		env        map[string]string
		wantPort   uint16
		wantLevel  slog.Level
		wantStrict bool
		wantLimit  int64
		wantTO     time.Duration
		wantErr    error
	}{
		{
			name:       "defaults_only",
			env:        map[string]string{"T_DSN": "postgres://x"},
			wantPort:   8080,
			wantLevel:  slog.LevelInfo,
			wantStrict: true,
			wantLimit:  3,
			wantTO:     5 * time.Second,
		},
		{
			name: "overrides",
			env: map[string]string{
				"T_DSN": "postgres://x", "T_PORT": "9090", "T_LEVEL": "DEBUG",
				"T_STRICT": "false", "T_LIMIT": "10", "T_TIMEOUT": "1m",
			},
			wantPort:   9090,
			wantLevel:  slog.LevelDebug,
			wantStrict: false,
			wantLimit:  10,
			wantTO:     time.Minute,
		},
		{
			name:    "missing_required",
			env:     map[string]string{},
			wantErr: ErrMissingRequired,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var cfg testConf

			err := LoadFrom(&cfg, mapLookup(tt.env))
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("want %v, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("load: %v", err)
			}

			if cfg.Port != tt.wantPort {
				t.Fatalf("port: want %d, got %d", tt.wantPort, cfg.Port)
			}
			if cfg.Level != tt.wantLevel {
				t.Fatalf("level: want %v, got %v", tt.wantLevel, cfg.Level)
			}
			if cfg.Strict != tt.wantStrict {
				t.Fatalf("strict: want %v, got %v", tt.wantStrict, cfg.Strict)
			}
			if cfg.Limit == nil || *cfg.Limit != tt.wantLimit {
				t.Fatalf("limit: want %d, got %v", tt.wantLimit, cfg.Limit)
			}
			if cfg.Nested.Timeout != tt.wantTO {
				t.Fatalf("timeout: want %v, got %v", tt.wantTO, cfg.Nested.Timeout)
			}
			if cfg.Optional == nil || cfg.Optional.DSN != "postgres://x" {
				t.Fatalf("pointer struct not loaded: %+v", cfg.Optional)
			}
		})
	}
}

func TestLoadFrom_InvalidValue(t *testing.T) {
	t.Parallel()

	var cfg testConf

	err := LoadFrom(&cfg, mapLookup(map[string]string{"T_DSN": "x", "T_PORT": "not-a-port"}))
	if err == nil {
		t.Fatal("expected parse error, got nil")
	}
}

func TestLoadFrom_RejectsNonPointer(t *testing.T) {
	t.Parallel()

	err := LoadFrom(testConf{}, mapLookup(nil))
	if err == nil {
		t.Fatal("expected error for non-pointer destination")
	}
}
