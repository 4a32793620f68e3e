//go:build integration

package integration

import (
	"bytes"
	"os"
	"os/exec"
	"strings"
	"testing"

	"github.com/fivetwenty-io/sitecontent/pkg/content"
)

// TestConfig holds configuration for integration tests.
type TestConfig struct {
	Token      string
	BaseURL    string
	Mode       string
	RedisAddr  string
	NATSURL    string
	BinaryPath string
	Verbose    bool
}

// LoadTestConfig loads configuration from environment variables.
func LoadTestConfig() *TestConfig {
	return &TestConfig{
		Token:      os.Getenv("SITECONTENT_TOKEN"),
		BaseURL:    os.Getenv("SITECONTENT_BASE_URL"),
		Mode:       os.Getenv("SITECONTENT_MODE"),
		RedisAddr:  os.Getenv("SITECONTENT_REDIS_ADDR"),
		NATSURL:    os.Getenv("SITECONTENT_NATS_URL"),
		BinaryPath: getBinaryPath(),
		Verbose:    os.Getenv("SITECONTENT_VERBOSE") == "true",
	}
}

// getBinaryPath determines the path to the content binary.
func getBinaryPath() string {
	if path := os.Getenv("CONTENT_BINARY_PATH"); path != "" {
		return path
	}

	for _, candidate := range []string{"../../content", "./content", "../content"} {
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
	}

	return "content"
}

// SkipIfMissingToken skips the test when no site token is configured.
func (config *TestConfig) SkipIfMissingToken(t *testing.T) {
	t.Helper()

	if config.Token == "" {
		t.Skip("SITECONTENT_TOKEN not set, skipping integration test")
	}
}

// ClientConfig returns a client configuration for the target site.
func (config *TestConfig) ClientConfig() *content.Config {
	return &content.Config{
		Token:   config.Token,
		BaseURL: config.BaseURL,
		Mode:    content.Mode(config.Mode),
	}
}

// CommandRunner runs the content binary.
type CommandRunner struct {
	config *TestConfig
	t      *testing.T
}

// NewCommandRunner creates a new command runner.
func NewCommandRunner(config *TestConfig, t *testing.T) *CommandRunner {
	return &CommandRunner{config: config, t: t}
}

// Run executes a content command with the test token and returns its output.
func (runner *CommandRunner) Run(args ...string) (stdout, stderr string, err error) {
	args = append([]string{"--token", runner.config.Token, "--output", "json"}, args...)
	if runner.config.BaseURL != "" {
		args = append(args, "--base-url", runner.config.BaseURL)
	}

	cmd := exec.Command(runner.config.BinaryPath, args...)

	var stdoutBuf, stderrBuf bytes.Buffer

	cmd.Stdout = &stdoutBuf
	cmd.Stderr = &stderrBuf

	if runner.config.Verbose {
		runner.t.Logf("Running: %s %s", runner.config.BinaryPath, strings.Join(args[2:], " "))
	}

	err = cmd.Run()
	stdout = stdoutBuf.String()
	stderr = stderrBuf.String()

	if runner.config.Verbose && err != nil {
		runner.t.Logf("Command failed: %v\nStdout: %s\nStderr: %s", err, stdout, stderr)
	}

	return stdout, stderr, err
}
