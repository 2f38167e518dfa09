package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/mrzor/compiler-monitor/internal/compiledb"
	"github.com/mrzor/compiler-monitor/internal/config"
	"github.com/mrzor/compiler-monitor/internal/procmeta"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeRecord(t *testing.T, dir, name string, cmd compiledb.Command) {
	t.Helper()
	data, err := json.Marshal(cmd)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), data, 0o600))
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.CacheDir = filepath.Join(t.TempDir(), "cache")
	cfg.PollInterval = 5 * time.Millisecond
	require.NoError(t, cfg.Validate())
	return cfg
}

func TestRun_Collect(t *testing.T) {
	cacheDir := t.TempDir()
	writeRecord(t, cacheDir, "command_000001.json", compiledb.Command{Directory: `C:\proj`, Command: "cl.exe /c b.cpp", File: `C:\proj\b.cpp`})
	writeRecord(t, cacheDir, "command_000002.json", compiledb.Command{Directory: `C:\proj`, Command: "cl.exe /c a.cpp", File: `C:\proj\a.cpp`})
	output := filepath.Join(t.TempDir(), "compile_commands.json")

	var stdout, stderr bytes.Buffer
	code := run([]string{"collect", "-c", cacheDir, "-o", output}, &stdout, &stderr)
	require.Equal(t, 0, code, stderr.String())
	assert.Contains(t, stdout.String(), "Wrote 2 command(s)")

	data, err := os.ReadFile(output)
	require.NoError(t, err)
	var got []compiledb.Command
	require.NoError(t, json.Unmarshal(data, &got))
	require.Len(t, got, 2)
	assert.Equal(t, `C:\proj\a.cpp`, got[0].File)
}

func TestRun_CollectAliasAndLatest(t *testing.T) {
	cacheDir := t.TempDir()
	writeRecord(t, cacheDir, "command_000001.json", compiledb.Command{Directory: `C:\proj`, Command: "cl.exe /Od /c a.cpp", File: `C:\proj\a.cpp`})
	writeRecord(t, cacheDir, "command_000002.json", compiledb.Command{Directory: `C:\proj`, Command: "cl.exe /O2 /c a.cpp", File: `C:\proj\a.cpp`})
	output := filepath.Join(t.TempDir(), "db.json")

	var stdout, stderr bytes.Buffer
	code := run([]string{"c", "--cache-dir", cacheDir, "--output", output, "--latest"}, &stdout, &stderr)
	require.Equal(t, 0, code, stderr.String())
	assert.Contains(t, stdout.String(), "Wrote 1 command(s)")
}

func TestRun_CollectMissingCacheDir(t *testing.T) {
	var stdout, stderr bytes.Buffer
	code := run([]string{"collect", "-c", filepath.Join(t.TempDir(), "missing"), "-o", filepath.Join(t.TempDir(), "out.json")}, &stdout, &stderr)
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr.String(), "cache directory does not exist")
	assert.Contains(t, stderr.String(), "record")
}

func TestRun_ConfigFile(t *testing.T) {
	cacheDir := t.TempDir()
	writeRecord(t, cacheDir, "command_000001.json", compiledb.Command{Directory: `C:\proj`, Command: "cl.exe /c a.cpp", File: `C:\proj\a.cpp`})
	output := filepath.Join(t.TempDir(), "compile_commands.json")

	configPath := filepath.Join(t.TempDir(), "compiler-monitor.yaml")
	content := "cache_dir: " + cacheDir + "\noutput: " + output + "\n"
	require.NoError(t, os.WriteFile(configPath, []byte(content), 0o600))

	var stdout, stderr bytes.Buffer
	code := run([]string{"collect", "--config", configPath}, &stdout, &stderr)
	require.Equal(t, 0, code, stderr.String())
	assert.FileExists(t, output)
}

func TestRun_InvalidLogLevel(t *testing.T) {
	var stdout, stderr bytes.Buffer
	code := run([]string{"collect", "--log-level", "loud", "-c", t.TempDir()}, &stdout, &stderr)
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr.String(), "invalid configuration")
}

func TestRun_RecordRejectsEmptyPattern(t *testing.T) {
	var stdout, stderr bytes.Buffer
	code := run([]string{"record", "--pattern", " "}, &stdout, &stderr)
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr.String(), "invalid process name pattern")
}

func TestRun_UnknownCommand(t *testing.T) {
	var stdout, stderr bytes.Buffer
	assert.Equal(t, 1, run([]string{"replay"}, &stdout, &stderr))
}

func TestRun_Version(t *testing.T) {
	var stdout, stderr bytes.Buffer
	code := run([]string{"--version"}, &stdout, &stderr)
	require.Equal(t, 0, code)
	assert.Contains(t, stdout.String(), version)
}

type staticLister []procmeta.Process

func (s staticLister) Processes() ([]procmeta.Process, error) {
	return s, nil
}

type staticCommands map[uint32]string

func (s staticCommands) CommandLine(pid uint32) (string, error) {
	return s[pid], nil
}

func TestRecord_WritesCaptures(t *testing.T) {
	projDir := t.TempDir()
	rsp := filepath.Join(projDir, "args.rsp")
	require.NoError(t, os.WriteFile(rsp, []byte("/DX=1\r\nb.cpp\r\n"), 0o600))

	logger := logrus.New()
	logger.SetOutput(&bytes.Buffer{})

	original := openHost
	t.Cleanup(func() { openHost = original })
	openHost = func(log logrus.FieldLogger) (*procmeta.Host, error) {
		return &procmeta.Host{
			Lister: staticLister{
				{PID: 1, Name: "explorer.exe"},
				{PID: 2, Name: "CL.exe"},
			},
			Resolver: procmeta.NewResolver(
				staticCommands{2: "cl.exe /c a.cpp @args.rsp"},
				nil,
				log,
				procmeta.WithGetwd(func() (string, error) { return projDir, nil }),
			),
		}, nil
	}

	cfg := testConfig(t)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- record(ctx, cfg, logger) }()

	require.Eventually(t, func() bool {
		commands, err := compiledb.Collect(cfg.CacheDir, compiledb.Options{})
		return err == nil && len(commands) == 2
	}, 5*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("record did not stop after cancel")
	}

	commands, err := compiledb.Collect(cfg.CacheDir, compiledb.Options{})
	require.NoError(t, err)
	require.Len(t, commands, 2)
	assert.Equal(t, "cl.exe /c a.cpp /DX=1 b.cpp", commands[0].Command)
	assert.Equal(t, projDir, commands[0].Directory)
	assert.ElementsMatch(t,
		[]string{filepath.Join(projDir, "a.cpp"), filepath.Join(projDir, "b.cpp")},
		[]string{commands[0].File, commands[1].File})

	assert.FileExists(t, filepath.Join(cfg.CacheDir, "response_000001.rsp"))
}
