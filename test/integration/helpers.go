//go:build integration

package integration

import (
	"bytes"
	"os"
	"os/exec"
	"strings"
	"testing"
)

// TestConfig holds configuration for integration tests
type TestConfig struct {
	Token      string
	BaseURL    string
	BinaryPath string
	Verbose    bool
}

// LoadTestConfig loads configuration from environment variables
func LoadTestConfig() *TestConfig {
	return &TestConfig{
		Token:      os.Getenv("EODHD_API_TOKEN"),
		BaseURL:    os.Getenv("EODHD_BASE_URL"),
		BinaryPath: getBinaryPath(),
		Verbose:    os.Getenv("EODHD_TEST_VERBOSE") == "true",
	}
}

// getBinaryPath determines the path to the eodhd binary
func getBinaryPath() string {
	if path := os.Getenv("EODHD_BINARY_PATH"); path != "" {
		return path
	}

	candidates := []string{
		"../../eodhd",
		"./eodhd",
		"../eodhd",
	}

	for _, candidate := range candidates {
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
	}

	return "eodhd"
}

// SkipIfMissingToken skips tests that need a real API token
func (config *TestConfig) SkipIfMissingToken(t *testing.T) {
	t.Helper()

	if config.Token == "" {
		t.Skip("EODHD_API_TOKEN not set, skipping integration test")
	}
}

// SkipIfMissingBinary skips CLI tests when the binary has not been built
func (config *TestConfig) SkipIfMissingBinary(t *testing.T) {
	t.Helper()

	if _, err := exec.LookPath(config.BinaryPath); err != nil {
		t.Skipf("eodhd binary not found at %s, skipping integration test", config.BinaryPath)
	}
}

// CommandRunner runs the eodhd binary with the token in its environment
type CommandRunner struct {
	config *TestConfig
	t      *testing.T
	home   string
}

// NewCommandRunner creates a runner with an isolated home directory so the
// user's config file is never read or written.
func NewCommandRunner(config *TestConfig, t *testing.T) *CommandRunner {
	t.Helper()

	return &CommandRunner{
		config: config,
		t:      t,
		home:   t.TempDir(),
	}
}

// Home is the isolated home directory used by the runner.
func (runner *CommandRunner) Home() string {
	return runner.home
}

// Run executes an eodhd command and returns output
func (runner *CommandRunner) Run(args ...string) (string, string, error) {
	if runner.config.BaseURL != "" {
		args = append([]string{"--base-url", runner.config.BaseURL}, args...)
	}

	// #nosec G204
	cmd := exec.Command(runner.config.BinaryPath, args...)
	cmd.Env = append(os.Environ(), "HOME="+runner.home, "EODHD_API_TOKEN="+runner.config.Token)
	cmd.Dir = runner.home

	var stdoutBuf, stderrBuf bytes.Buffer

	cmd.Stdout = &stdoutBuf
	cmd.Stderr = &stderrBuf

	if runner.config.Verbose {
		runner.t.Logf("Running: %s %s", runner.config.BinaryPath, strings.Join(args, " "))
	}

	err := cmd.Run()
	stdout := stdoutBuf.String()
	stderr := stderrBuf.String()

	if runner.config.Verbose && err != nil {
		runner.t.Logf("Command failed: %v\nStdout: %s\nStderr: %s", err, stdout, stderr)
	}

	return stdout, stderr, err
}
