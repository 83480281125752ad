package pgate

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeScript(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "init.sh")
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+body+"\n"), 0755))
	return path
}

func TestCommandInitializer_PassesDatabaseArgument(t *testing.T) {
	out := &bytes.Buffer{}
	init := &CommandInitializer{
		Command: writeScript(t, `echo "db=$1"`),
		Stdout:  out,
		Stderr:  out,
	}

	result := init.Initialize(context.Background(), "orders")
	require.True(t, result.Ran)
	require.False(t, result.Failed())
	assert.Zero(t, result.ExitCode)
	assert.Equal(t, "db=orders\n", out.String())
	assert.NotZero(t, result.Duration)
}

func TestCommandInitializer_CapturesExitCode(t *testing.T) {
	init := &CommandInitializer{
		Command: writeScript(t, "exit 3"),
		Stdout:  &bytes.Buffer{},
		Stderr:  &bytes.Buffer{},
	}

	result := init.Initialize(context.Background(), "app")
	require.True(t, result.Ran)
	assert.True(t, result.Failed())
	assert.Equal(t, 3, result.ExitCode)
	assert.NoError(t, result.Err)
}

func TestCommandInitializer_MissingExecutable(t *testing.T) {
	init := &CommandInitializer{
		Command: filepath.Join(t.TempDir(), "does-not-exist"),
		Stdout:  &bytes.Buffer{},
		Stderr:  &bytes.Buffer{},
	}

	result := init.Initialize(context.Background(), "app")
	require.True(t, result.Ran)
	assert.True(t, result.Failed())
	require.Error(t, result.Err)
	assert.Contains(t, result.Err.Error(), "failed to run")
}

func TestCommandInitializer_ParamsInEnvironment(t *testing.T) {
	dir := t.TempDir()
	paramsFile := filepath.Join(dir, "params.json")
	require.NoError(t, os.WriteFile(paramsFile, []byte(`{"schema":"public"}`), 0644))

	out := &bytes.Buffer{}
	init := &CommandInitializer{
		Command:    writeScript(t, `echo "$PGATE_INIT_PARAMS"`),
		ParamsFile: paramsFile,
		Stdout:     out,
		Stderr:     out,
	}

	result := init.Initialize(context.Background(), "app")
	require.False(t, result.Failed())
	assert.JSONEq(t, `{"schema":"public"}`, out.String())
}

func TestCommandInitializer_StageOverlayMerged(t *testing.T) {
	dir := t.TempDir()
	paramsFile := filepath.Join(dir, "params.json")
	require.NoError(t, os.WriteFile(paramsFile, []byte(`{"schema":"public","pool":5}`), 0644))

	overlayDir := filepath.Join(dir, "overlays")
	require.NoError(t, os.MkdirAll(overlayDir, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(overlayDir, "prod.json"), []byte(`{"pool":50}`), 0644))

	out := &bytes.Buffer{}
	init := &CommandInitializer{
		Command:    writeScript(t, `echo "$PGATE_INIT_PARAMS"`),
		ParamsFile: paramsFile,
		ParamsDir:  overlayDir,
		Stage:      "prod",
		Stdout:     out,
		Stderr:     out,
	}

	result := init.Initialize(context.Background(), "app")
	require.False(t, result.Failed())
	assert.JSONEq(t, `{"schema":"public","pool":50}`, out.String())
}

func TestCommandInitializer_MissingOverlayUsesBase(t *testing.T) {
	dir := t.TempDir()
	paramsFile := filepath.Join(dir, "params.json")
	require.NoError(t, os.WriteFile(paramsFile, []byte(`{"schema":"public"}`), 0644))

	out := &bytes.Buffer{}
	init := &CommandInitializer{
		Command:    writeScript(t, `echo "$PGATE_INIT_PARAMS"`),
		ParamsFile: paramsFile,
		ParamsDir:  dir,
		Stage:      "nonexistent-stage",
		Stdout:     out,
		Stderr:     out,
	}

	result := init.Initialize(context.Background(), "app")
	require.False(t, result.Failed())
	assert.JSONEq(t, `{"schema":"public"}`, out.String())
}

func TestCommandInitializer_UnreadableBaseParams(t *testing.T) {
	init := &CommandInitializer{
		Command:    writeScript(t, "exit 0"),
		ParamsFile: filepath.Join(t.TempDir(), "missing.json"),
	}

	result := init.Initialize(context.Background(), "app")
	require.True(t, result.Failed())
	require.Error(t, result.Err)
	assert.Contains(t, result.Err.Error(), "failed to read init params")
}

func TestNewCommandInitializer(t *testing.T) {
	assert.Nil(t, NewCommandInitializer(&Config{}))

	config := &Config{
		InitCommand:   "/opt/init.sh",
		InitParams:    "/etc/params.json",
		InitParamsDir: "/etc/params.d",
		Stage:         "prod",
	}
	init := NewCommandInitializer(config)
	require.NotNil(t, init)
	assert.Equal(t, "/opt/init.sh", init.Command)
	assert.Equal(t, "/etc/params.json", init.ParamsFile)
	assert.Equal(t, "/etc/params.d", init.ParamsDir)
	assert.Equal(t, "prod", init.Stage)
}

func TestInitResultFailed(t *testing.T) {
	assert.False(t, InitResult{Ran: true}.Failed())
	assert.True(t, InitResult{Ran: true, ExitCode: 1}.Failed())
	assert.True(t, InitResult{Ran: true, Err: os.ErrNotExist}.Failed())
}
