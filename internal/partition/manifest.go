package partition

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"

	"hsplit/internal/cluster"
	"hsplit/internal/errors"
	"hsplit/internal/proximity"
)

// Manifest lists the headers of a batch run. Top-level method and k apply to
// every header that does not set its own.
//
//	method = "average"
//	k = 2
//
//	[[header]]
//	path = "include/big.h"
//	k = 4
//	plan = "plans/big.toml"
type Manifest struct {
	Method  string           `toml:"method"`
	K       int              `toml:"k"`
	Headers []ManifestHeader `toml:"header"`

	dir string
}

// ManifestHeader is one [[header]] table.
type ManifestHeader struct {
	Path   string `toml:"path"`
	Method string `toml:"method,omitempty"`
	K      int    `toml:"k,omitempty"`
	Plan   string `toml:"plan,omitempty"`
}

// Job is a manifest entry with paths resolved and options filled in.
type Job struct {
	Header  string
	Plan    string
	Options Options
}

// LoadManifest decodes a batch manifest. Unknown keys are rejected.
func LoadManifest(path string) (*Manifest, error) {
	var m Manifest
	md, err := toml.DecodeFile(path, &m)
	if err != nil {
		return nil, fmt.Errorf("failed to parse manifest %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return nil, fmt.Errorf("manifest %s: unknown keys %s", path, strings.Join(keys, ", "))
	}
	if len(m.Headers) == 0 {
		return nil, fmt.Errorf("manifest %s lists no headers", path)
	}
	for i, h := range m.Headers {
		if strings.TrimSpace(h.Path) == "" {
			return nil, fmt.Errorf("manifest %s: header %d has no path", path, i+1)
		}
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	m.dir = filepath.Dir(abs)
	return &m, nil
}

// Jobs resolves every header against the manifest's directory. Settings are
// taken from the header, then the manifest, then defaults.
func (m *Manifest) Jobs(defaults Options) ([]Job, error) {
	base := defaults
	if m.Method != "" {
		method, err := cluster.ParseLinkage(m.Method)
		if err != nil {
			return nil, errors.New(errors.InvalidLinkage, "manifest method", err, nil)
		}
		base.Method = method
	}
	if m.K != 0 {
		base.K = m.K
	}

	jobs := make([]Job, 0, len(m.Headers))
	for _, h := range m.Headers {
		job := Job{Header: m.resolve(h.Path), Options: base}
		if h.Method != "" {
			method, err := cluster.ParseLinkage(h.Method)
			if err != nil {
				return nil, errors.New(errors.InvalidLinkage, fmt.Sprintf("manifest header %s", h.Path), err, nil)
			}
			job.Options.Method = method
		}
		if h.K != 0 {
			job.Options.K = h.K
		}
		if h.Plan != "" {
			job.Plan = m.resolve(h.Plan)
		}
		jobs = append(jobs, job)
	}
	return jobs, nil
}

func (m *Manifest) resolve(p string) string {
	if filepath.IsAbs(p) || m.dir == "" {
		return filepath.Clean(p)
	}
	return filepath.Join(m.dir, p)
}

// BatchResult pairs a job with its recommendation or error.
type BatchResult struct {
	Job            Job
	Recommendation *Recommendation
	Err            error
}

// RecommendAll runs every job against the same index. A failing header does
// not stop the others; cancellation does.
func (p *Partitioner) RecommendAll(ctx context.Context, jobs []Job, ix proximity.Lookup) ([]BatchResult, error) {
	results := make([]BatchResult, 0, len(jobs))
	for _, job := range jobs {
		if err := ctx.Err(); err != nil {
			return results, err
		}
		rec, err := p.Recommend(ctx, job.Header, ix, job.Options)
		if err != nil {
			p.logger.Warn("Header failed", "header", job.Header, "error", err)
		}
		results = append(results, BatchResult{Job: job, Recommendation: rec, Err: err})
	}
	return results, nil
}
