package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/geerteltink/mezzio-skeleton/internal/config"
)

// resetFlags restores flag variables between command runs; cobra only
// writes the flags that appear on the command line.
func resetFlags() {
	jsonOutput = false
	rootDir = ""
	answerForce = false
	answerDryRun = false
	resetRevert = false
	serveAddr = ""
	installNoInteraction = false
	for _, v := range installAnswers {
		*v = ""
	}
	stdin = os.Stdin
}

// setupTestEnv points the data root at a temporary directory and returns a
// project root inside another.
func setupTestEnv(t *testing.T) string {
	t.Helper()
	t.Setenv(config.RootEnv, t.TempDir())
	t.Setenv(config.LockStaleEnv, "")
	t.Setenv(config.PreviewAddrEnv, "")
	return filepath.Join(t.TempDir(), "app")
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	resetFlags()
	var buf bytes.Buffer
	rootCmd.SetArgs(args)
	rootCmd.SetOut(&buf)
	rootCmd.SetErr(&buf)
	err := rootCmd.Execute()
	return buf.String(), err
}

func TestRootCommand_Help(t *testing.T) {
	output, err := execute(t, "--help")
	require.NoError(t, err)

	assert.Contains(t, output, "mezzio-installer")
	assert.Contains(t, output, "Install Session:")
	assert.Contains(t, output, "Inspection:")
}

func TestRootCommand_Version(t *testing.T) {
	SetVersion("1.2.3")
	defer SetVersion("dev")

	output, err := execute(t, "version")
	require.NoError(t, err)
	assert.Equal(t, "1.2.3\n", output)
}

func TestRootCommand_InvalidCommand(t *testing.T) {
	_, err := execute(t, "invalid-command")
	assert.Error(t, err)
}

func TestSetVersion(t *testing.T) {
	defer SetVersion("dev")

	tests := []struct {
		name    string
		version string
		want    string
	}{
		{"normal version", "1.2.3", "1.2.3"},
		{"empty version keeps previous", "", "1.2.3"},
		{"dev version", "dev", "dev"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			SetVersion(tt.version)
			assert.Equal(t, tt.want, rootCmd.Version)
		})
	}
}

func TestRootCommand_Subcommands(t *testing.T) {
	subcommands := []string{
		"install", "init", "answer", "finalize", "reset",
		"status", "options", "serve", "version", "completion",
	}

	for _, name := range subcommands {
		t.Run(name, func(t *testing.T) {
			cmd, _, err := rootCmd.Find([]string{name})
			require.NoError(t, err)
			assert.Equal(t, name, cmd.Name())
		})
	}
}

func TestCompletion(t *testing.T) {
	output, err := execute(t, "completion", "bash")
	require.NoError(t, err)
	assert.True(t, strings.Contains(output, "mezzio-installer"))
}
