package logging

import (
	"runtime"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// RunLogger collects the identity and configuration of a backfill run and
// emits a single structured zerolog event before processing starts. One
// event per run makes it easy to reconstruct exactly how a batch was
// configured when reading the log file afterwards.
type RunLogger struct {
	tool  string
	runID string

	bucket     string
	collection string
	workers    int

	features map[string]bool
	config   map[string]string
}

// NewRunLogger creates a RunLogger for the given tool name
// (e.g. "backfill-thumbnails", "scan-events").
func NewRunLogger(tool, runID string) *RunLogger {
	return &RunLogger{
		tool:     tool,
		runID:    runID,
		features: make(map[string]bool),
		config:   make(map[string]string),
	}
}

// Bucket registers the storage bucket this run operates on.
func (r *RunLogger) Bucket(name string) *RunLogger {
	r.bucket = name
	return r
}

// Collection registers the collection prefix being scanned.
func (r *RunLogger) Collection(name string) *RunLogger {
	r.collection = name
	return r
}

// Workers registers the worker pool size.
func (r *RunLogger) Workers(n int) *RunLogger {
	r.workers = n
	return r
}

// Feature registers a boolean feature flag (e.g. "dryRun", "verify").
func (r *RunLogger) Feature(name string, enabled bool) *RunLogger {
	r.features[name] = enabled
	return r
}

// Config registers a non-sensitive configuration key-value pair.
func (r *RunLogger) Config(key, value string) *RunLogger {
	r.config[key] = value
	return r
}

// Log emits a single structured INFO event with all collected information.
func (r *RunLogger) Log() {
	evt := log.Info().
		Dict("run", zerolog.Dict().
			Str("tool", r.tool).
			Str("runId", r.runID).
			Str("goVersion", runtime.Version()).
			Str("arch", runtime.GOARCH)).
		Str("bucket", r.bucket).
		Str("collection", r.collection)

	if r.workers > 0 {
		evt = evt.Int("workers", r.workers)
	}

	if len(r.features) > 0 {
		d := zerolog.Dict()
		for k, v := range r.features {
			d = d.Bool(k, v)
		}
		evt = evt.Dict("features", d)
	}

	if len(r.config) > 0 {
		d := zerolog.Dict()
		for k, v := range r.config {
			d = d.Str(k, v)
		}
		evt = evt.Dict("config", d)
	}

	evt.Msg("Run starting")
}
