package partition

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
)

// Plan is the TOML split plan: one suggested sub-header per cluster.
type Plan struct {
	Header string     `toml:"header"`
	Method string     `toml:"method"`
	K      int        `toml:"k"`
	Unused []string   `toml:"unused,omitempty"`
	Parts  []PlanPart `toml:"part"`
}

// PlanPart is one suggested sub-header.
type PlanPart struct {
	Cluster int      `toml:"cluster"`
	File    string   `toml:"file"`
	Symbols []string `toml:"symbols"`
}

// NewPlan names the sub-headers <stem>_<cluster><ext> next to the original.
func NewPlan(rec *Recommendation) *Plan {
	plan := &Plan{
		Header: rec.Header,
		Method: string(rec.Method),
		K:      rec.K,
		Unused: rec.Unused,
		Parts:  make([]PlanPart, 0, len(rec.Groups)),
	}

	base := filepath.Base(rec.Header)
	ext := filepath.Ext(base)
	if ext == "" {
		ext = ".h"
	}
	stem := strings.TrimSuffix(base, filepath.Ext(base))

	for i, group := range rec.Groups {
		plan.Parts = append(plan.Parts, PlanPart{
			Cluster: i + 1,
			File:    fmt.Sprintf("%s_%d%s", stem, i+1, ext),
			Symbols: group,
		})
	}
	return plan
}

// WritePlan writes plan as TOML to path.
func WritePlan(path string, plan *Plan) error {
	data, err := toml.Marshal(plan)
	if err != nil {
		return fmt.Errorf("failed to marshal split plan: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write split plan: %w", err)
	}
	return nil
}

// ReadPlan parses a plan written by WritePlan.
func ReadPlan(path string) (*Plan, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read split plan: %w", err)
	}
	var plan Plan
	if err := toml.Unmarshal(data, &plan); err != nil {
		return nil, fmt.Errorf("failed to parse split plan: %w", err)
	}
	return &plan, nil
}
