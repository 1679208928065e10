package config

import (
	"testing"
)

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{
			name: "valid config",
			cfg: Config{
				DatabasePath: "./data/test.db",
				SnapshotDir:  "./data/snapshots",
				NCACTarget:   50,
				MERFloor:     2.0,
			},
			wantErr: false,
		},
		{
			name: "missing database path",
			cfg: Config{
				SnapshotDir: "./data/snapshots",
				NCACTarget:  50,
				MERFloor:    2.0,
			},
			wantErr: true,
		},
		{
			name: "missing snapshot dir",
			cfg: Config{
				DatabasePath: "./data/test.db",
				NCACTarget:   50,
				MERFloor:     2.0,
			},
			wantErr: true,
		},
		{
			name: "negative NCAC target",
			cfg: Config{
				DatabasePath: "./data/test.db",
				SnapshotDir:  "./data/snapshots",
				NCACTarget:   -5,
				MERFloor:     2.0,
			},
			wantErr: true,
		},
		{
			name: "zero MER floor",
			cfg: Config{
				DatabasePath: "./data/test.db",
				SnapshotDir:  "./data/snapshots",
				NCACTarget:   50,
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if cfg.NCACTarget != 50.0 {
		t.Errorf("Expected default NCAC target 50, got %.2f", cfg.NCACTarget)
	}
	if cfg.MERFloor != 2.0 {
		t.Errorf("Expected default MER floor 2.0, got %.2f", cfg.MERFloor)
	}
	if cfg.Port != 8080 {
		t.Errorf("Expected default port 8080, got %d", cfg.Port)
	}
}
