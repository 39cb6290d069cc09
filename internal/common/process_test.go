package common

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"
)

func TestSafeGo_RecoversPanic(t *testing.T) {
	done := SafeGo(arbor.NewLogger(), "test", func() {
		panic("boom")
	})

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("goroutine did not finish")
	}
}

func TestSafeGo_RunsFunction(t *testing.T) {
	ran := false
	<-SafeGo(arbor.NewLogger(), "test", func() { ran = true })
	assert.True(t, ran)
}

func TestWriteCrashFile(t *testing.T) {
	dir := t.TempDir()
	InstallCrashHandler(dir)
	t.Cleanup(func() { CrashLogDir = "./logs" })

	path := WriteCrashFile("boom", GetStackTrace())
	require.NotEmpty(t, path)
	assert.True(t, strings.HasPrefix(path, dir))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "=== PANIC VALUE ===\nboom")
	assert.Contains(t, string(data), GetFullVersion())
}

func TestNewRunID(t *testing.T) {
	a, b := NewRunID(), NewRunID()
	assert.True(t, strings.HasPrefix(a, "run_"))
	assert.Len(t, a, len("run_")+36)
	assert.NotEqual(t, a, b)
}

func TestSetupLogger_FileOutputCreatesDir(t *testing.T) {
	config := NewDefaultConfig()
	config.Logging.Output = []string{"file"}
	config.Logging.Dir = filepath.Join(t.TempDir(), "nested", "logs")

	logger := SetupLogger(config)
	require.NotNil(t, logger)

	info, err := os.Stat(config.Logging.Dir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestSetupLogger_ConsoleOnly(t *testing.T) {
	config := NewDefaultConfig()
	config.Logging.Dir = filepath.Join(t.TempDir(), "unused")

	require.NotNil(t, SetupLogger(config))
	_, err := os.Stat(config.Logging.Dir)
	assert.True(t, os.IsNotExist(err))
}
