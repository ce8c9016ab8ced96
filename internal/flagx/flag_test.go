package flagx

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFilterArgs(t *testing.T) {
	storeFlags := []string{"-d", "-m"}

	tests := []struct {
		name    string
		args    []string
		allowed []string
		want    []string
	}{
		{
			name:    "separate values",
			args:    []string{"-d", "postgres://db/files", "-a", ":50051", "-m", "badger"},
			allowed: storeFlags,
			want:    []string{"-d", "postgres://db/files", "-m", "badger"},
		},
		{
			name:    "equals form",
			args:    []string{"-m=sqlite", "-mr", "media"},
			allowed: storeFlags,
			want:    []string{"-m=sqlite"},
		},
		{
			name:    "equals value starting with dash",
			args:    []string{"-d=--weird"},
			allowed: storeFlags,
			want:    []string{"-d=--weird"},
		},
		{
			name:    "unknown flags and positionals dropped",
			args:    []string{"-x", "1", "-y=2", "put", "a.txt"},
			allowed: storeFlags,
			want:    []string{},
		},
		{
			name:    "trailing flag without value",
			args:    []string{"-m"},
			allowed: storeFlags,
			want:    []string{"-m"},
		},
		{
			name:    "next flag is not taken as value",
			args:    []string{"-d", "-m=badger"},
			allowed: storeFlags,
			want:    []string{"-d", "-m=badger"},
		},
		{
			name:    "repeats kept in order",
			args:    []string{"-m", "sqlite", "-m", "badger"},
			allowed: storeFlags,
			want:    []string{"-m", "sqlite", "-m", "badger"},
		},
		{
			name:    "nil args",
			args:    nil,
			allowed: storeFlags,
			want:    []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FilterArgs(tt.args, tt.allowed))
		})
	}
}

func TestConfigFile(t *testing.T) {
	t.Setenv(ConfigEnvVar, "")

	t.Run("short -c with value", func(t *testing.T) {
		assert.Equal(t, "/path/short.json", ConfigFile([]string{"-c", "/path/short.json"}))
	})

	t.Run("long -config with equals", func(t *testing.T) {
		assert.Equal(t, "/path/long.json", ConfigFile([]string{"-a", ":1", "-config=/path/long.json"}))
	})

	t.Run("unknown flags are ignored", func(t *testing.T) {
		assert.Empty(t, ConfigFile([]string{"-x", "1", "-y", "2"}))
	})

	t.Run("last flag wins", func(t *testing.T) {
		assert.Equal(t, "/path/2.json", ConfigFile([]string{"-c", "/path/1.json", "-config", "/path/2.json"}))
	})

	t.Run("environment fallback", func(t *testing.T) {
		t.Setenv(ConfigEnvVar, "/etc/dbfiles.json")
		assert.Equal(t, "/etc/dbfiles.json", ConfigFile(nil))
		assert.Equal(t, "/path/flag.json", ConfigFile([]string{"-c", "/path/flag.json"}))
	})
}
