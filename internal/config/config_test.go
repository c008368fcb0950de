package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestLoadDefaultsWhenFileMissing(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.toml")

	s, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "info", s.Log.Level)
	assert.Equal(t, "json", s.Log.Format)
	assert.Equal(t, 8080, s.Server.Port)
	assert.Equal(t, uint16(0), s.PredicerPort)
	assert.Nil(t, s.Location)
	assert.Nil(t, s.EntsoeAPIToken)
}

func TestWriteThenLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "settings.toml")
	token := "entsoe-token"

	written := &Settings{
		SolverExec:           "/usr/bin/predicer",
		SolverProject:        "/srv/predicer-project",
		SolverRunnerProject:  "/srv/runner-project",
		SolverRunnerScript:   "/srv/runner-project/run.jl",
		PythonExec:           "/usr/bin/python3",
		WeatherFetcherScript: "/srv/scripts/weather.py",
		PriceFetcherScript:   "/srv/scripts/price.py",
		EntsoeAPIToken:       &token,
		PredicerPort:         5560,
		Location:             &LocationSettings{Country: "FI", Place: "Helsinki"},
		Log:                  LogConfig{Level: "debug", Format: "console"},
		Server:               ServerConfig{Port: 9090},
	}
	require.NoError(t, Write(path, written))
	assert.FileExists(t, path)

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, written.SolverExec, loaded.SolverExec)
	assert.Equal(t, written.SolverProject, loaded.SolverProject)
	assert.Equal(t, written.PredicerPort, loaded.PredicerPort)
	require.NotNil(t, loaded.EntsoeAPIToken)
	assert.Equal(t, token, *loaded.EntsoeAPIToken)
	require.NotNil(t, loaded.Location)
	assert.Equal(t, "FI", loaded.Location.Country)
	assert.Equal(t, 9090, loaded.Server.Port)
}

func TestValidateOptimizeRequiresCoreFields(t *testing.T) {
	err := (&Settings{}).Validate("optimize")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "solver_exec is required")
	assert.Contains(t, err.Error(), "python_exec is required")
}

func TestValidateServeRequiresPort(t *testing.T) {
	s := &Settings{
		SolverExec:           "solver",
		SolverProject:        "proj",
		SolverRunnerScript:   "run.jl",
		PythonExec:           "python3",
		WeatherFetcherScript: "weather.py",
		PriceFetcherScript:   "price.py",
	}
	err := s.Validate("serve")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "server.port must be > 0")

	s.Server.Port = 8080
	assert.NoError(t, s.Validate("serve"))
}

func TestValidateSingleTaskModesNeedNothing(t *testing.T) {
	assert.NoError(t, (&Settings{}).Validate("print-schema"))
	assert.NoError(t, (&Settings{}).Validate("write-settings"))
}

func TestValidateUnknownMode(t *testing.T) {
	err := (&Settings{}).Validate("bogus")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown mode")
}

func TestInitLoggerInstallsGlobal(t *testing.T) {
	prev := zap.L()
	t.Cleanup(func() { zap.ReplaceGlobals(prev) })

	require.NoError(t, InitLogger(LogConfig{Level: "warn", Format: "console"}))
	assert.NotNil(t, zap.L())
}

func TestInitLoggerRejectsBadLevel(t *testing.T) {
	err := InitLogger(LogConfig{Level: "not-a-level", Format: "json"})
	require.Error(t, err)
}

func TestDefaultPathUsesUserConfigDir(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)

	path, err := DefaultPath()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "hertta", "settings.toml"), path)
	assert.True(t, filepath.IsAbs(path))
	assert.NotEqual(t, "", os.Getenv("XDG_CONFIG_HOME"))
}
