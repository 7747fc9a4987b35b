package main

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"hsplit/internal/errors"
	"hsplit/internal/partition"
)

// OutputFormat represents the output format type
type OutputFormat string

const (
	FormatHuman OutputFormat = "human"
	FormatJSON  OutputFormat = "json"
	FormatYAML  OutputFormat = "yaml"
)

// ParseOutputFormat validates a --format value.
func ParseOutputFormat(s string) (OutputFormat, error) {
	switch f := OutputFormat(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatHuman, FormatJSON, FormatYAML:
		return f, nil
	case "":
		return FormatHuman, nil
	default:
		return "", errors.Newf(errors.ConfigInvalid, "unsupported format: %s (use human, json or yaml)", s)
	}
}

// FormatResponse formats a response according to the specified format
func FormatResponse(resp interface{}, format OutputFormat) (string, error) {
	switch format {
	case FormatJSON:
		return formatJSON(resp)
	case FormatYAML:
		return formatYAML(resp)
	case FormatHuman:
		return formatHuman(resp)
	default:
		return "", fmt.Errorf("unsupported format: %s", format)
	}
}

func formatJSON(resp interface{}) (string, error) {
	data, err := json.MarshalIndent(resp, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal JSON: %w", err)
	}
	return string(data), nil
}

func formatYAML(resp interface{}) (string, error) {
	data, err := yaml.Marshal(resp)
	if err != nil {
		return "", fmt.Errorf("failed to marshal YAML: %w", err)
	}
	return strings.TrimRight(string(data), "\n"), nil
}

func formatHuman(resp interface{}) (string, error) {
	switch v := resp.(type) {
	case *IndexResponse:
		return formatIndexHuman(v), nil
	case *SplitResponse:
		return formatSplitHuman(v), nil
	case *ProximityResponse:
		return formatProximityHuman(v), nil
	case *ImportResponse:
		return formatImportHuman(v), nil
	case *BatchResponse:
		return formatBatchHuman(v), nil
	case *BuildsResponse:
		return formatBuildsHuman(v), nil
	case *ConfigShowResponse:
		return formatConfigHuman(v), nil
	default:
		// For unknown types, fall back to JSON
		return formatJSON(resp)
	}
}

func formatIndexHuman(r *IndexResponse) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Usage index written to %s\n", r.Output)
	if r.BuildID != "" {
		fmt.Fprintf(&b, "  Build:    %s\n", r.BuildID)
	}
	rep := r.Report
	fmt.Fprintf(&b, "  Entries:  %d (indexed %d, invalid %d, failed %d)\n",
		rep.Entries, rep.Indexed, len(rep.Invalid), len(rep.Failed))
	fmt.Fprintf(&b, "  Units:    %d\n", rep.Units)
	fmt.Fprintf(&b, "  Symbols:  %d\n", rep.Symbols)
	fmt.Fprintf(&b, "  Workers:  %d\n", rep.Workers)
	fmt.Fprintf(&b, "  Duration: %s\n", rep.Duration.Round(time.Millisecond))

	if len(rep.Failed) > 0 {
		fmt.Fprintf(&b, "\nFailed units (%d):\n", len(rep.Failed))
		for _, f := range rep.Failed {
			fmt.Fprintf(&b, "  - %s: %s\n", f.Unit, f.Error)
		}
	}
	if len(rep.Invalid) > 0 {
		fmt.Fprintf(&b, "\nInvalid entries (%d):\n", len(rep.Invalid))
		for _, e := range rep.Invalid {
			fmt.Fprintf(&b, "  - #%d %s: %s\n", e.Index, e.File, e.Reason)
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

func writeWarnings(b *strings.Builder, warnings []*errors.HsError) {
	for _, w := range warnings {
		fmt.Fprintf(b, "! %s\n", w.Message)
		for _, fix := range w.SuggestedFixes {
			if fix.Command != "" {
				fmt.Fprintf(b, "  $ %s\n", fix.Command)
			}
		}
	}
}

func writeRecommendation(b *strings.Builder, rec *partition.Recommendation, debug bool) {
	if rec.NothingToPartition {
		fmt.Fprintf(b, "Nothing to partition: %s declares %d symbol(s)\n", rec.Header, len(rec.Symbols))
	} else {
		for i, group := range rec.Groups {
			fmt.Fprintf(b, "\nCluster %d (%d symbols):\n", i+1, len(group))
			for _, s := range group {
				fmt.Fprintf(b, "  %s\n", s)
			}
		}
	}

	if len(rec.Unused) > 0 {
		fmt.Fprintf(b, "\nUnused symbols (%d, referenced by no translation unit):\n", len(rec.Unused))
		for _, s := range rec.Unused {
			fmt.Fprintf(b, "  %s\n", s)
		}
	}

	if !debug {
		return
	}
	fmt.Fprintf(b, "\nProximity (%d pairs):\n", len(rec.Proximity))
	for _, e := range rec.Proximity {
		fmt.Fprintf(b, "  %6d  %s  %s\n", e.Count, e.A, e.B)
	}
	fmt.Fprintln(b, "\nMemberships:")
	for _, s := range rec.Symbols {
		fmt.Fprintf(b, "  %s -> %d\n", s, rec.Assignment[s])
	}
}

func formatSplitHuman(r *SplitResponse) string {
	var b strings.Builder
	rec := r.Recommendation
	fmt.Fprintf(&b, "Header: %s\n", rec.Header)
	fmt.Fprintf(&b, "Method: %s   k: %d   symbols: %d\n", rec.Method, rec.K, len(rec.Symbols))
	fmt.Fprintf(&b, "Index:  %s\n", r.IndexSource)
	writeWarnings(&b, r.Warnings)
	writeRecommendation(&b, rec, r.Debug)

	if r.PlanPath != "" {
		fmt.Fprintf(&b, "\nPlan written to %s\n", r.PlanPath)
	}
	if r.DendrogramPath != "" {
		fmt.Fprintf(&b, "Dendrogram written to %s\n", r.DendrogramPath)
	}
	return strings.TrimRight(b.String(), "\n")
}

func formatProximityHuman(r *ProximityResponse) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Header: %s (%d symbols)\n", r.Header, len(r.Symbols))
	fmt.Fprintf(&b, "Index:  %s\n", r.IndexSource)
	writeWarnings(&b, r.Warnings)

	if len(r.Pairs) < r.TotalPairs {
		fmt.Fprintf(&b, "\nCo-used pairs (showing %d of %d):\n", len(r.Pairs), r.TotalPairs)
	} else {
		fmt.Fprintf(&b, "\nCo-used pairs (%d):\n", r.TotalPairs)
	}
	for _, e := range r.Pairs {
		fmt.Fprintf(&b, "  %6d  %s  %s\n", e.Count, e.A, e.B)
	}
	if len(r.Unused) > 0 {
		fmt.Fprintf(&b, "\nUnused symbols (%d):\n", len(r.Unused))
		for _, s := range r.Unused {
			fmt.Fprintf(&b, "  %s\n", s)
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

func formatImportHuman(r *ImportResponse) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Imported %s into %s\n", r.Source, r.Output)
	if r.BuildID != "" {
		fmt.Fprintf(&b, "  Build:   %s\n", r.BuildID)
	}
	fmt.Fprintf(&b, "  Units:   %d\n", r.Meta.Units)
	fmt.Fprintf(&b, "  Symbols: %d\n", r.Meta.Symbols)
	if r.Skipped > 0 {
		fmt.Fprintf(&b, "  Skipped: %d malformed line(s)\n", r.Skipped)
	}
	return strings.TrimRight(b.String(), "\n")
}

func formatBatchHuman(r *BatchResponse) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Batch %s (%d headers, %d failed)\n", r.Manifest, len(r.Items), r.Failed)
	fmt.Fprintf(&b, "Index: %s\n", r.IndexSource)
	writeWarnings(&b, r.Warnings)

	for _, item := range r.Items {
		fmt.Fprintf(&b, "\n== %s\n", item.Header)
		if item.Error != nil {
			fmt.Fprintf(&b, "Error [%s]: %s\n", item.Error.Code, item.Error.Message)
		}
		if item.Recommendation != nil {
			rec := item.Recommendation
			fmt.Fprintf(&b, "Method: %s   k: %d   symbols: %d\n", rec.Method, rec.K, len(rec.Symbols))
			writeRecommendation(&b, rec, rec.Proximity != nil)
		}
		if item.PlanPath != "" {
			fmt.Fprintf(&b, "Plan written to %s\n", item.PlanPath)
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

func formatBuildsHuman(r *BuildsResponse) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Database: %s\n", r.Database)
	if r.Pruned > 0 {
		fmt.Fprintf(&b, "Pruned %d build(s)\n", r.Pruned)
	}
	if len(r.Builds) == 0 {
		b.WriteString("No stored builds. Run 'hsplit index' first.")
		return b.String()
	}
	b.WriteString("\n")
	for _, m := range r.Builds {
		fmt.Fprintf(&b, "%s  %s  units=%d symbols=%d failed=%d\n",
			m.BuildID, m.CreatedAt.Local().Format("2006-01-02 15:04:05"), m.Units, m.Symbols, m.Failed)
		if m.CompileDB != "" {
			fmt.Fprintf(&b, "    %s\n", m.CompileDB)
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

func formatConfigHuman(r *ConfigShowResponse) string {
	var b strings.Builder
	b.WriteString("hsplit Configuration\n")
	b.WriteString(strings.Repeat("─", 50) + "\n")
	if r.UsedDefaults {
		b.WriteString("Source: defaults (no config file found)\n")
	} else if r.ConfigPath != "" {
		fmt.Fprintf(&b, "Source: %s\n", r.ConfigPath)
	}
	if len(r.EnvOverrides) > 0 {
		b.WriteString("\nEnvironment Overrides:\n")
		for _, ov := range r.EnvOverrides {
			fmt.Fprintf(&b, "  %s=%s → %s\n", ov.EnvVar, ov.Value, ov.Path)
		}
	}
	b.WriteString("\n")

	if len(r.Config) == 0 {
		b.WriteString("  (no modifications - using all defaults)\n")
	}
	for _, key := range sortedKeys(r.Config) {
		value := r.Config[key]
		modified := ""
		if d, ok := r.Defaults[key]; ok && !isEqual(value, d) {
			modified = fmt.Sprintf(" (default: %v)", d)
		}
		fmt.Fprintf(&b, "%s: %v%s\n", key, value, modified)
	}
	if r.ValidationError != "" {
		fmt.Fprintf(&b, "\n! %s\n", r.ValidationError)
	}
	return strings.TrimRight(b.String(), "\n")
}

// asHsError returns the HsError in err's chain, wrapping anything else as internal.
func asHsError(err error) *errors.HsError {
	var hs *errors.HsError
	if stderrors.As(err, &hs) {
		return hs
	}
	return errors.New(errors.InternalError, err.Error(), nil, nil)
}

// printError writes err with its code and suggested fixes.
func printError(w io.Writer, err error) {
	var hs *errors.HsError
	if !stderrors.As(err, &hs) {
		fmt.Fprintf(w, "Error: %v\n", err)
		return
	}
	fmt.Fprintf(w, "Error: %v\n", hs)
	fixes := append([]errors.FixAction(nil), hs.SuggestedFixes...)
	sort.SliceStable(fixes, func(i, j int) bool { return fixes[i].Type < fixes[j].Type })
	for _, fix := range fixes {
		switch {
		case fix.Command != "":
			fmt.Fprintf(w, "  Try: %s", fix.Command)
		case fix.Key != "":
			fmt.Fprintf(w, "  Check config key %s", fix.Key)
		default:
			continue
		}
		if fix.Description != "" {
			fmt.Fprintf(w, " (%s)", fix.Description)
		}
		fmt.Fprintln(w)
	}
}
