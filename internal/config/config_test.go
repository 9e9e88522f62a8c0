package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ringjudge/internal/tactile"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{"RINGJUDGE_COMMAND_TIMEOUT", "RINGJUDGE_PROCESS_TIMEOUT", "RINGJUDGE_DB", "RINGJUDGE_JAVA"} {
		t.Setenv(key, "")
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, 12*time.Second, cfg.GetCommandTimeout())
	assert.Equal(t, 120*time.Second, cfg.GetProcessTimeout())
	assert.Equal(t, []string{"astar", "backtracking"}, cfg.CandidateNames())
	require.NoError(t, cfg.Validate())

	cmd, err := cfg.Candidate("astar")
	require.NoError(t, err)
	assert.Equal(t, "java -cp bin/astar Astar", cmd.CommandString())
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	clearEnv(t)
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestConfig_SaveLoad(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "nested", "ringjudge.yaml")

	cfg := DefaultConfig()
	cfg.Judge.CommandTimeout = "3s"
	cfg.Candidates["greedy"] = tactile.Command{
		Binary:           "./greedy",
		Arguments:        []string{"--quiet"},
		WorkingDirectory: "/tmp",
		Environment:      []string{"SEED=1"},
	}
	require.NoError(t, cfg.Save(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 3*time.Second, loaded.GetCommandTimeout())
	assert.Equal(t, cfg.Candidates["greedy"], loaded.Candidates["greedy"])
	assert.Equal(t, []string{"astar", "backtracking", "greedy"}, loaded.CandidateNames())
}

func TestLoadPartialFileKeepsDefaults(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "ringjudge.yaml")
	require.NoError(t, os.WriteFile(path, []byte("judge:\n  process_timeout: 30s\n"), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 30*time.Second, cfg.GetProcessTimeout())
	assert.Equal(t, 12*time.Second, cfg.GetCommandTimeout())
	assert.Len(t, cfg.Candidates, 2)
}

func TestLoadRejectsBadInput(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()

	garbled := filepath.Join(dir, "garbled.yaml")
	require.NoError(t, os.WriteFile(garbled, []byte("judge: [unclosed"), 0644))
	_, err := Load(garbled)
	assert.ErrorContains(t, err, "failed to parse config")

	badDuration := filepath.Join(dir, "duration.yaml")
	require.NoError(t, os.WriteFile(badDuration, []byte("judge:\n  command_timeout: soon\n"), 0644))
	_, err = Load(badDuration)
	assert.ErrorContains(t, err, "judge.command_timeout")

	noBinary := filepath.Join(dir, "binary.yaml")
	require.NoError(t, os.WriteFile(noBinary, []byte("candidates:\n  empty:\n    args: [x]\n"), 0644))
	_, err = Load(noBinary)
	assert.ErrorContains(t, err, `candidate "empty" has no binary`)
}

func TestEnvOverrides(t *testing.T) {
	t.Run("timeouts", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("RINGJUDGE_COMMAND_TIMEOUT", "2s")
		t.Setenv("RINGJUDGE_PROCESS_TIMEOUT", "1m")

		cfg := DefaultConfig()
		cfg.applyEnvOverrides()

		assert.Equal(t, 2*time.Second, cfg.Session().CommandTimeout)
		assert.Equal(t, time.Minute, cfg.Session().ProcessTimeout)
	})

	t.Run("database path", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("RINGJUDGE_DB", "/var/lib/ringjudge.db")

		cfg := DefaultConfig()
		cfg.applyEnvOverrides()
		assert.Equal(t, "/var/lib/ringjudge.db", cfg.Store.Path)
	})

	t.Run("java binary only replaces java candidates", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("RINGJUDGE_JAVA", "/opt/jdk/bin/java")

		cfg := DefaultConfig()
		cfg.Candidates["native"] = tactile.Command{Binary: "./native"}
		cfg.applyEnvOverrides()

		assert.Equal(t, "/opt/jdk/bin/java", cfg.Candidates["astar"].Binary)
		assert.Equal(t, "/opt/jdk/bin/java", cfg.Candidates["backtracking"].Binary)
		assert.Equal(t, "./native", cfg.Candidates["native"].Binary)
	})
}

func TestDurationFallbacks(t *testing.T) {
	cfg := &Config{}
	assert.Equal(t, 12*time.Second, cfg.GetCommandTimeout())
	assert.Equal(t, 120*time.Second, cfg.GetProcessTimeout())
	td := cfg.Teardown()
	assert.Equal(t, tactile.DefaultTeardown().GracePeriod, td.GracePeriod)
	assert.Equal(t, tactile.DefaultTeardown().JoinWait, td.JoinWait)
}

func TestTeardown(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Judge.GracePeriod = "1s"
	td := cfg.Teardown()
	assert.Equal(t, time.Second, td.GracePeriod)
	assert.Equal(t, 2*time.Second, td.KillWait)
	assert.Equal(t, int64(1<<20), td.MaxDiagnosticBytes)
}

func TestUnknownCandidate(t *testing.T) {
	_, err := DefaultConfig().Candidate("dijkstra")
	assert.ErrorContains(t, err, `unknown candidate "dijkstra"`)
}

func TestLoggingSettings(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Logging.DebugMode = true
	cfg.Logging.Format = "json"
	s := cfg.LoggingSettings()
	assert.True(t, s.DebugMode)
	assert.True(t, s.JSONFormat)
	assert.Equal(t, "info", s.Level)
}
