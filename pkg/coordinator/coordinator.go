package coordinator

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/coderunner/sandbox/pkg/dockerrun"
	"github.com/coderunner/sandbox/pkg/lang"
	"github.com/coderunner/sandbox/pkg/observability"
	"github.com/coderunner/sandbox/pkg/sandbox"
	"github.com/coderunner/sandbox/pkg/staging"
)

const sourceFileBaseName = "main"

// Coordinator runs one job end to end: stage, invoke, collect, clean up.
// It is safe for concurrent use; each Run call owns its own JobDir and
// touches no shared mutable state beyond the filesystem paths its JobId
// namespaces.
type Coordinator struct {
	cfg     *Config
	runner  dockerrun.Runner
	log     *observability.Logger
	metrics *observability.Metrics
}

// New wires a Coordinator against the given container runner and config.
// metrics may be nil, in which case no Prometheus series are recorded.
func New(cfg *Config, runner dockerrun.Runner, log *observability.Logger, metrics *observability.Metrics) *Coordinator {
	if log == nil {
		log = observability.NewLogger(observability.InfoLevel, os.Stdout)
	}
	return &Coordinator{cfg: cfg, runner: runner, log: log, metrics: metrics}
}

// RunCode executes Shape A: language + source, no file mounts beyond the
// JobDir itself. jobID is used only for audit logging and metrics
// correlation; a code-only job has no storage subtree of its own.
func (c *Coordinator) RunCode(ctx context.Context, jobID sandbox.JobID, languageLabel, sourceCode string) sandbox.TaskResult {
	start := time.Now()
	jobDir, argv, err := c.stage(languageLabel, sourceCode)
	if err != nil {
		result := stagingFailureResult(err)
		c.audit(jobID, languageLabel, start, result)
		return result
	}
	defer jobDir.Destroy(c.log)

	result := c.runner.Run(ctx, dockerrun.Request{
		JobDirHostPath: jobDir.Path,
		Argv:           argv,
		Timeout:        c.cfg.Timeout,
	})
	task := sandbox.TaskResult{RunResult: result}
	c.audit(jobID, languageLabel, start, task)
	return task
}

// RunCodeWithFiles executes Shape B: the source has already been rewritten
// by pkg/rewrite against jobID, declared inputs already live under
// StorageIn/jobID, and declared outputs are enumerated from
// StorageOut/jobID once the container exits.
func (c *Coordinator) RunCodeWithFiles(ctx context.Context, jobID sandbox.JobID, languageLabel, rewrittenSource string) sandbox.TaskResult {
	start := time.Now()
	jobDir, argv, err := c.stage(languageLabel, rewrittenSource)
	if err != nil {
		result := stagingFailureResult(err)
		c.audit(jobID, languageLabel, start, result)
		return result
	}
	defer jobDir.Destroy(c.log)

	// Identity-mount scope is the per-job subdirectory on each side, not the
	// whole StorageIn/StorageOut root: a job never sees another job's files.
	inputDir := filepath.Join(c.cfg.StorageIn, jobID.String())
	outputDir := filepath.Join(c.cfg.StorageOut, jobID.String())
	if err := os.MkdirAll(outputDir, 0775); err != nil {
		result := sandbox.TaskResult{RunResult: sandbox.RunResult{Error: sandbox.ErrInternal}}
		c.audit(jobID, languageLabel, start, result)
		return result
	}

	extraMounts := []dockerrun.Mount{
		{HostPath: inputDir, ContainerPath: inputDir, ReadOnly: true},
		{HostPath: outputDir, ContainerPath: outputDir, ReadOnly: false},
	}

	containerStart := time.Now()
	result := c.runner.Run(ctx, dockerrun.Request{
		JobDirHostPath: jobDir.Path,
		ExtraMounts:    extraMounts,
		Argv:           argv,
		Timeout:        c.cfg.Timeout,
	})
	if c.metrics != nil {
		c.metrics.ContainerRunDuration.WithLabelValues(languageLabel).Observe(time.Since(containerStart).Seconds())
	}

	outputs, listErr := c.enumerateOutputs(outputDir)
	if listErr != nil {
		c.log.WithError(listErr).Warn("failed to enumerate output files")
	}

	task := sandbox.TaskResult{RunResult: result, OutputFiles: outputs}
	c.audit(jobID, languageLabel, start, task)
	return task
}

// audit emits the per-job structured log line required on every terminal
// state transition (Completed/TimedOut/Failed) and records the matching
// Prometheus series. It never affects the result being returned: this is
// the one place in the pipeline permitted to log the job's full host
// paths (§7's "no error kind leaks host paths" invariant binds the HTTP
// response, not the log).
func (c *Coordinator) audit(jobID sandbox.JobID, languageLabel string, start time.Time, result sandbox.TaskResult) {
	duration := time.Since(start)
	state := terminalState(result)

	c.log.WithFields(map[string]interface{}{
		"job_id":   jobID.String(),
		"language": languageLabel,
		"duration": duration.String(),
		"state":    state,
		"error":    string(result.Error),
	}).Info("job reached terminal state")

	if c.metrics == nil {
		return
	}
	c.metrics.JobsTotal.WithLabelValues(languageLabel, state).Inc()
	c.metrics.JobDuration.WithLabelValues(languageLabel).Observe(duration.Seconds())
	switch result.Error {
	case sandbox.ErrTimeoutExceeded:
		c.metrics.JobTimeoutsTotal.WithLabelValues(languageLabel).Inc()
	case sandbox.ErrLaunchFailed:
		c.metrics.JobLaunchFailuresTotal.WithLabelValues("launch_failed").Inc()
	}
}

// terminalState maps a TaskResult onto the §4.5 state-machine vocabulary.
func terminalState(result sandbox.TaskResult) string {
	switch result.Error {
	case sandbox.ErrTimeoutExceeded:
		return "TimedOut"
	case "":
		return "Completed"
	default:
		return "Failed"
	}
}

// stage runs the steps common to both shapes: normalize the language,
// create the JobDir, write the source, and compose the in-container argv.
// On any failure the JobDir (if created) is destroyed before returning.
func (c *Coordinator) stage(languageLabel, source string) (*staging.JobDir, []string, error) {
	l, err := lang.Normalize(languageLabel)
	if err != nil {
		return nil, nil, err
	}

	jobDir, err := staging.Create(c.cfg.BaseDir)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create job directory: %w", err)
	}

	ext, err := lang.Extension(l)
	if err != nil {
		jobDir.Destroy(c.log)
		return nil, nil, err
	}

	sourceFile := sourceFileBaseName + "." + ext
	if _, err := jobDir.Write(sourceFile, []byte(source)); err != nil {
		jobDir.Destroy(c.log)
		return nil, nil, fmt.Errorf("failed to write source: %w", err)
	}

	argv, err := lang.Invocation(l, filepath.Join("/sandbox", sourceFile))
	if err != nil {
		jobDir.Destroy(c.log)
		return nil, nil, err
	}

	return jobDir, argv, nil
}

// enumerateOutputs lists the regular files directly under dir, sorted by
// name ascending, via the same staging.ListRegularFiles routine a JobDir
// uses to enumerate its own scratch space. Files that vanish or become
// unreadable between directory listing and stat still appear, with
// size = nil.
func (c *Coordinator) enumerateOutputs(dir string) ([]sandbox.OutputFile, error) {
	names, err := staging.ListRegularFiles(dir)
	if err != nil {
		return nil, err
	}

	files := make([]sandbox.OutputFile, 0, len(names))
	for _, name := range names {
		path := filepath.Join(dir, name)
		var size *int64
		if info, statErr := os.Stat(path); statErr == nil {
			s := info.Size()
			size = &s
		}
		files = append(files, sandbox.OutputFile{Name: name, Path: path, Size: size})
	}
	return files, nil
}

// stagingFailureResult maps a stage() failure onto its RunResult shape: an
// unsupported language label gets the synthetic exit code that
// distinguishes it from a user code failure; any other failure (JobDir
// creation, source write) is an opaque Internal error.
func stagingFailureResult(err error) sandbox.TaskResult {
	var unsupported *lang.UnsupportedLanguageError
	if errors.As(err, &unsupported) {
		code := 2
		return sandbox.TaskResult{
			RunResult: sandbox.RunResult{Error: sandbox.ErrUnsupportedLanguage, ReturnCode: &code},
		}
	}
	return sandbox.TaskResult{RunResult: sandbox.RunResult{Error: sandbox.ErrInternal}}
}
