package config

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWorkerSettingString(t *testing.T) {
	tests := []struct {
		name string
		ws   WorkerSetting
		want string
	}{
		{"auto mode", WorkerSetting{Mode: WorkersAuto}, "auto"},
		{"fixed mode 4", WorkerSetting{Mode: WorkersFixed, Value: 4}, "4"},
		{"fixed mode 0", WorkerSetting{Mode: WorkersFixed, Value: 0}, "0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.ws.String())
		})
	}
}

func TestResolveConfigPath(t *testing.T) {
	tests := []struct {
		name     string
		flag     string
		envValue string
		want     string
	}{
		{"flag takes precedence", "/path/from/flag", "/path/from/env", "/path/from/flag"},
		{"env when no flag", "", "/path/from/env", "/path/from/env"},
		{"empty when neither set", "", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			old := os.Getenv("REACTORLB_CONFIG")
			defer os.Setenv("REACTORLB_CONFIG", old)
			os.Setenv("REACTORLB_CONFIG", tt.envValue)

			assert.Equal(t, tt.want, ResolveConfigPath(tt.flag))
		})
	}
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 53000, cfg.Server.ClientPort)
	assert.Equal(t, 43000, cfg.Server.BackendPort)
	assert.Equal(t, 20, cfg.Server.ChunkCapacity)
	assert.Equal(t, 1, cfg.Server.AcceptBurst)
	assert.Equal(t, 1, cfg.Server.UDPBurst)
	assert.Equal(t, "INFO", cfg.Logging.Level)
	assert.False(t, cfg.API.Enabled)
}

func TestLoadRejectsIdenticalPorts(t *testing.T) {
	old := os.Getenv("REACTORLB_SERVER_BACKEND_PORT")
	defer os.Setenv("REACTORLB_SERVER_BACKEND_PORT", old)
	os.Setenv("REACTORLB_SERVER_BACKEND_PORT", "53000")

	_, err := Load("")
	assert.Error(t, err)
}

func TestLoadRejectsOutOfRangePort(t *testing.T) {
	old := os.Getenv("REACTORLB_SERVER_CLIENT_PORT")
	defer os.Setenv("REACTORLB_SERVER_CLIENT_PORT", old)
	os.Setenv("REACTORLB_SERVER_CLIENT_PORT", "70000")

	_, err := Load("")
	assert.Error(t, err)
}

func TestResolveWorkerCount(t *testing.T) {
	assert.Equal(t, 8, ResolveWorkerCount(WorkerSetting{Mode: WorkersFixed, Value: 8}, 2))
	assert.Equal(t, 2, ResolveWorkerCount(WorkerSetting{Mode: WorkersAuto}, 2))
	assert.Equal(t, 4, ResolveWorkerCount(WorkerSetting{Mode: WorkersAuto}, 0))
}
