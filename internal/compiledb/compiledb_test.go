package compiledb

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/sebdah/goldie/v2"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeRecord(t *testing.T, dir, name string, cmd Command) {
	t.Helper()
	data, err := json.MarshalIndent(cmd, "", "  ")
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), data, 0o600))
}

func proj(file, command string) Command {
	return Command{Directory: `C:\proj`, Command: command, File: `C:\proj\` + file}
}

func TestCommand_RoundTrip(t *testing.T) {
	in := Command{Directory: `C:\proj`, Command: `cl.exe /I "C:\inc" /c a.cpp`, File: `C:\proj\a.cpp`}

	data, err := json.Marshal(in)
	require.NoError(t, err)

	var out Command
	require.NoError(t, json.Unmarshal(data, &out))
	assert.Equal(t, in, out)
}

func TestFileNames(t *testing.T) {
	assert.Equal(t, "command_000004.json", CommandFileName(4))
	assert.Equal(t, "command_1234567.json", CommandFileName(1234567))
	assert.Equal(t, "response_000012.rsp", ResponseFileName(12))

	seq, ok := ParseCommandSeq("command_000003.json")
	assert.True(t, ok)
	assert.Equal(t, uint64(3), seq)

	seq, ok = ParseResponseSeq("response_000042.rsp")
	assert.True(t, ok)
	assert.Equal(t, uint64(42), seq)

	for _, name := range []string{"command_.json", "command_12.json.tmp", "xcommand_000001.json", "response_000001.json", ".command_000001.json.123.tmp"} {
		_, ok := ParseCommandSeq(name)
		assert.False(t, ok, name)
	}
}

func TestCollect_SortsByFile(t *testing.T) {
	dir := t.TempDir()
	writeRecord(t, dir, "command_000001.json", proj("b.cpp", "cl.exe /c b.cpp"))
	writeRecord(t, dir, "command_000002.json", proj("c.cpp", "cl.exe /c c.cpp"))
	writeRecord(t, dir, "command_000003.json", proj("a.cpp", "cl.exe /c a.cpp /DCOND=a<b&&c>d"))

	commands, err := Collect(dir, Options{})
	require.NoError(t, err)
	require.Len(t, commands, 3)
	assert.Equal(t, `C:\proj\a.cpp`, commands[0].File)
	assert.Equal(t, `C:\proj\b.cpp`, commands[1].File)
	assert.Equal(t, `C:\proj\c.cpp`, commands[2].File)

	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, commands))

	g := goldie.New(t)
	g.Assert(t, "collected", buf.Bytes())
}

func TestCollect_IgnoresOtherFiles(t *testing.T) {
	dir := t.TempDir()
	writeRecord(t, dir, "command_000001.json", proj("a.cpp", "cl.exe /c a.cpp"))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "response_000001.rsp"), []byte("/DX"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".command_000002.json.99.tmp"), []byte("{"), 0o600))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "nested.json"), 0o700))

	commands, err := Collect(dir, Options{})
	require.NoError(t, err)
	assert.Equal(t, []Command{proj("a.cpp", "cl.exe /c a.cpp")}, commands)
}

func TestCollect_MalformedRecordFails(t *testing.T) {
	dir := t.TempDir()
	writeRecord(t, dir, "command_000001.json", proj("a.cpp", "cl.exe /c a.cpp"))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "command_000002.json"), []byte(`{"file": `), 0o600))

	_, err := Collect(dir, Options{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "command_000002.json")
}

func TestCollect_MissingDirectory(t *testing.T) {
	_, err := Collect(filepath.Join(t.TempDir(), "nope"), Options{})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrCacheDirMissing)
}

func TestCollect_NotADirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(path, nil, 0o600))

	_, err := Collect(path, Options{})
	assert.ErrorIs(t, err, ErrCacheDirMissing)
}

func TestCollect_KeepsDuplicatesByDefault(t *testing.T) {
	dir := t.TempDir()
	writeRecord(t, dir, "command_000001.json", proj("a.cpp", "cl.exe /Od /c a.cpp"))
	writeRecord(t, dir, "command_000002.json", proj("a.cpp", "cl.exe /O2 /c a.cpp"))

	commands, err := Collect(dir, Options{})
	require.NoError(t, err)
	require.Len(t, commands, 2)
	assert.Equal(t, "cl.exe /Od /c a.cpp", commands[0].Command)
	assert.Equal(t, "cl.exe /O2 /c a.cpp", commands[1].Command)
}

func TestCollect_Latest(t *testing.T) {
	dir := t.TempDir()
	writeRecord(t, dir, "command_000001.json", proj("a.cpp", "cl.exe /Od /c a.cpp"))
	writeRecord(t, dir, "command_000002.json", proj("b.cpp", "cl.exe /c b.cpp"))
	writeRecord(t, dir, "command_000010.json", proj("a.cpp", "cl.exe /O2 /c a.cpp"))

	commands, err := Collect(dir, Options{Latest: true})
	require.NoError(t, err)
	assert.Equal(t, []Command{
		proj("a.cpp", "cl.exe /O2 /c a.cpp"),
		proj("b.cpp", "cl.exe /c b.cpp"),
	}, commands)
}

func TestEncode_Empty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, nil))

	g := goldie.New(t)
	g.Assert(t, "empty", buf.Bytes())
}

func TestWriteFile(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "compile_commands.json")
	require.NoError(t, os.WriteFile(out, []byte("stale"), 0o600))

	commands := []Command{proj("a.cpp", "cl.exe /c a.cpp")}
	require.NoError(t, WriteFile(out, commands))

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	var got []Command
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, commands, got)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temporary file should be renamed away")
}

func TestRefresh(t *testing.T) {
	dir := t.TempDir()
	writeRecord(t, dir, "command_000001.json", proj("a.cpp", "cl.exe /c a.cpp"))
	out := filepath.Join(t.TempDir(), "compile_commands.json")

	n, err := Refresh(dir, out, Options{})
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.FileExists(t, out)
}

func TestWatch_RewritesOnNewRecord(t *testing.T) {
	dir := t.TempDir()
	writeRecord(t, dir, "command_000001.json", proj("a.cpp", "cl.exe /c a.cpp"))
	out := filepath.Join(t.TempDir(), "compile_commands.json")

	logger, _ := test.NewNullLogger()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- Watch(ctx, dir, out, Options{}, 20*time.Millisecond, logger)
	}()

	readCount := func() int {
		data, err := os.ReadFile(out)
		if err != nil {
			return -1
		}
		var got []Command
		if err := json.Unmarshal(data, &got); err != nil {
			return -1
		}
		return len(got)
	}

	require.Eventually(t, func() bool { return readCount() == 1 }, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, WriteFileAtomic(filepath.Join(dir, "command_000002.json"), mustJSON(t, proj("b.cpp", "cl.exe /c b.cpp"))))

	require.Eventually(t, func() bool { return readCount() == 2 }, 5*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Watch did not return after cancel")
	}
}

func TestWatch_RejectsOutputInsideCache(t *testing.T) {
	dir := t.TempDir()
	logger, _ := test.NewNullLogger()

	err := Watch(context.Background(), dir, filepath.Join(dir, "compile_commands.json"), Options{}, 0, logger)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "inside the cache directory")
}

func mustJSON(t *testing.T, cmd Command) []byte {
	t.Helper()
	data, err := json.Marshal(cmd)
	require.NoError(t, err)
	return data
}
