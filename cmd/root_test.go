package cmd

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/caravel-ci/gitver/internal/domain"
)

// nopLogger discards all log output.
type nopLogger struct{}

func (nopLogger) Info(_ context.Context, _ string, _ map[string]interface{})           {}
func (nopLogger) Debug(_ context.Context, _ string, _ map[string]interface{})          {}
func (nopLogger) Warn(_ context.Context, _ string, _ map[string]interface{})           {}
func (nopLogger) Error(_ context.Context, _ string, _ error, _ map[string]interface{}) {}

// stubCalculator returns canned variables and records the options it was
// invoked with.
type stubCalculator struct {
	vars *domain.VersionVariables
	err  error
	opts domain.Options
}

func (c *stubCalculator) Calculate(_ context.Context, opts domain.Options) (*domain.VersionVariables, error) {
	c.opts = opts
	if c.err != nil {
		return nil, c.err
	}
	return c.vars, nil
}

// stubConfigSource is a minimal domain.ConfigSource for command tests.
type stubConfigSource struct {
	path string
}

func (s *stubConfigSource) Resolve(string) (domain.EffectiveConfig, error) {
	return domain.EffectiveConfig{}, nil
}
func (s *stubConfigSource) Raw() []byte  { return nil }
func (s *stubConfigSource) Found() bool  { return false }
func (s *stubConfigSource) Path() string { return s.path }

// recordingWriter captures the variables handed to the output writer.
type recordingWriter struct {
	format   string
	variable string
	vars     *domain.VersionVariables
	err      error
}

func (w *recordingWriter) Write(vars *domain.VersionVariables) error {
	w.vars = vars
	return w.err
}

// harness wires a full set of mock dependencies and records what the
// command asked of each factory.
type harness struct {
	deps       *Dependencies
	calculator *stubCalculator
	writer     *recordingWriter

	repoPath   string
	repoErr    error
	configPath string
	storePath  string
}

func newHarness(gitDir string) *harness {
	h := &harness{
		calculator: &stubCalculator{vars: &domain.VersionVariables{FullSemVer: "1.2.3+5", Sha: "abc1234"}},
		writer:     &recordingWriter{},
	}
	h.deps = &Dependencies{
		LoggerFactory: func(bool) Logger { return nopLogger{} },
		RepoFactory: func(path string, _ Logger) (domain.Repository, string, error) {
			h.repoPath = path
			if h.repoErr != nil {
				return nil, "", h.repoErr
			}
			return nil, gitDir, nil
		},
		ConfigLoader: func(path string) (domain.ConfigSource, error) {
			h.configPath = path
			return &stubConfigSource{path: path}, nil
		},
		StoreFactory: func(_, configPath string, _ Logger) domain.CacheStore {
			h.storePath = configPath
			return nil
		},
		CalculatorFactory: func(domain.Repository, domain.ConfigSource, domain.CacheStore, Logger) domain.VersionCalculator {
			return h.calculator
		},
		WriterFactory: func(format, variable string) domain.OutputWriter {
			h.writer.format = format
			h.writer.variable = variable
			return h.writer
		},
		Stderr: &bytes.Buffer{},
	}
	return h
}

func resetFlags() {
	configPath = ""
	noCache = false
	outputFormat = "text"
	showVariable = ""
	verbose = false
}

func execute(t *testing.T, h *harness, args ...string) error {
	t.Helper()
	resetFlags()
	cmd := NewRootCmdWithDeps(h.deps)
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	return cmd.Execute()
}

func TestRootCmd_DefaultRun(t *testing.T) {
	h := newHarness("/repo/.git")

	require.NoError(t, execute(t, h))

	assert.Equal(t, ".", h.repoPath, "defaults to the current directory")
	assert.Equal(t, filepath.Join("/repo", "gitver.yml"), h.configPath,
		"config defaults next to the repository root")
	assert.Equal(t, h.configPath, h.storePath)
	assert.False(t, h.calculator.opts.NoCache)
	assert.Nil(t, h.calculator.opts.Override)
	require.NotNil(t, h.writer.vars)
	assert.Equal(t, "1.2.3+5", h.writer.vars.FullSemVer)
	assert.Equal(t, "text", h.writer.format)
	assert.Empty(t, h.writer.variable)
}

func TestRootCmd_ExplicitPathArgument(t *testing.T) {
	h := newHarness("/elsewhere/.git")

	require.NoError(t, execute(t, h, "/elsewhere"))

	assert.Equal(t, "/elsewhere", h.repoPath)
}

func TestRootCmd_Flags(t *testing.T) {
	h := newHarness("/repo/.git")

	require.NoError(t, execute(t, h,
		"--no-cache",
		"--output", "json",
		"--show-variable", "SemVer",
		"--config", "/custom/gitver.yml",
	))

	assert.True(t, h.calculator.opts.NoCache)
	assert.Equal(t, "json", h.writer.format)
	assert.Equal(t, "SemVer", h.writer.variable)
	assert.Equal(t, "/custom/gitver.yml", h.configPath, "explicit config path wins")
}

func TestRootCmd_NotARepository(t *testing.T) {
	h := newHarness("")
	h.repoErr = domain.WrapRepositoryNotFound("/nowhere")

	err := execute(t, h, "/nowhere")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "not a git repository: /nowhere")
}

func TestRootCmd_ConfigErrorIsFatal(t *testing.T) {
	h := newHarness("/repo/.git")
	h.deps.ConfigLoader = func(path string) (domain.ConfigSource, error) {
		return nil, domain.NewConfigError(path, "unmapped increment", nil)
	}

	err := execute(t, h)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "configuration error")
	var cfgErr *domain.ConfigError
	assert.ErrorAs(t, err, &cfgErr)
	assert.Nil(t, h.writer.vars, "nothing is written on configuration errors")
}

func TestRootCmd_CalculationErrorPropagates(t *testing.T) {
	h := newHarness("/repo/.git")
	h.calculator.err = domain.ErrNoCommits

	err := execute(t, h)

	assert.ErrorIs(t, err, domain.ErrNoCommits)
}

func TestRootCmd_WriterErrorIsReported(t *testing.T) {
	h := newHarness("/repo/.git")
	h.writer.err = errors.New("unknown version variable \"Nope\"")

	err := execute(t, h)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "output error")
}

func TestRootCmd_RejectsExtraArguments(t *testing.T) {
	h := newHarness("/repo/.git")

	err := execute(t, h, "one", "two")

	assert.Error(t, err)
}

func TestRootCmd_NilDependencies(t *testing.T) {
	resetFlags()
	cmd := NewRootCmdWithDeps(nil)
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(nil)

	err := cmd.Execute()
	assert.Error(t, err)
}
