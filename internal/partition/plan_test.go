package partition

import (
	"context"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"hsplit/internal/cluster"
	"hsplit/internal/errors"
)

func TestNewPlan(t *testing.T) {
	rec := &Recommendation{
		Header: "include/list.h",
		Method: cluster.Ward,
		K:      2,
		Unused: []string{"LIST_MAX"},
		Groups: [][]string{{"list_push", "list_pop"}, {"list_cmp"}},
	}
	plan := NewPlan(rec)

	if plan.Header != "include/list.h" || plan.Method != "ward" || plan.K != 2 {
		t.Errorf("plan header fields = %+v", plan)
	}
	want := []PlanPart{
		{Cluster: 1, File: "list_1.h", Symbols: []string{"list_push", "list_pop"}},
		{Cluster: 2, File: "list_2.h", Symbols: []string{"list_cmp"}},
	}
	if !reflect.DeepEqual(plan.Parts, want) {
		t.Errorf("Parts = %+v, want %+v", plan.Parts, want)
	}
}

func TestNewPlan_NoExtension(t *testing.T) {
	plan := NewPlan(&Recommendation{Header: "api", Groups: [][]string{{"x"}}})
	if plan.Parts[0].File != "api_1.h" {
		t.Errorf("File = %q, want api_1.h", plan.Parts[0].File)
	}
}

func TestWriteReadPlan(t *testing.T) {
	path := filepath.Join(t.TempDir(), "plans", "list.toml")
	plan := &Plan{
		Header: "list.h",
		Method: "average",
		K:      2,
		Parts: []PlanPart{
			{Cluster: 1, File: "list_1.h", Symbols: []string{"a", "b"}},
			{Cluster: 2, File: "list_2.h", Symbols: []string{"c"}},
		},
	}
	if err := WritePlan(path, plan); err != nil {
		t.Fatalf("WritePlan() error = %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "[[part]]") {
		t.Errorf("expected array of tables, got:\n%s", data)
	}

	got, err := ReadPlan(path)
	if err != nil {
		t.Fatalf("ReadPlan() error = %v", err)
	}
	if !reflect.DeepEqual(got, plan) {
		t.Errorf("ReadPlan() = %+v, want %+v", got, plan)
	}
}

func TestReadPlan_Missing(t *testing.T) {
	if _, err := ReadPlan(filepath.Join(t.TempDir(), "absent.toml")); err == nil {
		t.Error("expected error")
	}
}

func writeManifest(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "batch.toml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadManifest_Jobs(t *testing.T) {
	path := writeManifest(t, `
method = "complete"
k = 3

[[header]]
path = "include/a.h"

[[header]]
path = "/abs/b.h"
method = "ward"
k = 5
plan = "plans/b.toml"
`)
	m, err := LoadManifest(path)
	if err != nil {
		t.Fatalf("LoadManifest() error = %v", err)
	}
	jobs, err := m.Jobs(Options{Method: cluster.Average, K: 2})
	if err != nil {
		t.Fatalf("Jobs() error = %v", err)
	}

	dir := filepath.Dir(path)
	want := []Job{
		{Header: filepath.Join(dir, "include", "a.h"), Options: Options{Method: cluster.Complete, K: 3}},
		{Header: "/abs/b.h", Plan: filepath.Join(dir, "plans", "b.toml"), Options: Options{Method: cluster.Ward, K: 5}},
	}
	if !reflect.DeepEqual(jobs, want) {
		t.Errorf("Jobs() = %+v, want %+v", jobs, want)
	}
}

func TestLoadManifest_Defaults(t *testing.T) {
	m, err := LoadManifest(writeManifest(t, "[[header]]\npath = \"x.h\"\n"))
	if err != nil {
		t.Fatal(err)
	}
	jobs, err := m.Jobs(Options{Method: cluster.Single, K: 4})
	if err != nil {
		t.Fatal(err)
	}
	if jobs[0].Options != (Options{Method: cluster.Single, K: 4}) {
		t.Errorf("Options = %+v", jobs[0].Options)
	}
}

func TestLoadManifest_Errors(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"no headers", `method = "ward"`},
		{"empty path", "[[header]]\npath = \"\"\n"},
		{"unknown key", "[[header]]\npath = \"x.h\"\ncolor = \"red\"\n"},
		{"syntax", "[[header\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := LoadManifest(writeManifest(t, tt.content)); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestManifest_BadMethod(t *testing.T) {
	m, err := LoadManifest(writeManifest(t, "[[header]]\npath = \"x.h\"\nmethod = \"nearest\"\n"))
	if err != nil {
		t.Fatal(err)
	}
	_, err = m.Jobs(Options{Method: cluster.Average, K: 2})
	if !errors.Is(err, errors.InvalidLinkage) {
		t.Errorf("Jobs() error = %v, want INVALID_LINKAGE", err)
	}
}

func TestRecommendAll(t *testing.T) {
	ix := disjointPairsIndex()
	p := newPartitioner(fakeHeaders{"abcd.h": {"a", "b", "c", "d"}, "empty.h": nil})

	jobs := []Job{
		{Header: "abcd.h", Options: Options{Method: cluster.Average, K: 2}},
		{Header: "broken.h", Options: Options{Method: cluster.Average, K: 2}},
		{Header: "empty.h", Options: Options{Method: cluster.Average, K: 2}},
	}
	results, err := p.RecommendAll(context.Background(), jobs, ix)
	if err != nil {
		t.Fatalf("RecommendAll() error = %v", err)
	}
	if len(results) != 3 {
		t.Fatalf("got %d results, want 3", len(results))
	}
	if results[0].Err != nil || len(results[0].Recommendation.Groups) != 2 {
		t.Errorf("first result = %+v", results[0])
	}
	if !errors.Is(results[1].Err, errors.ExtractionFailed) {
		t.Errorf("second result error = %v", results[1].Err)
	}
	if results[2].Err != nil || !results[2].Recommendation.NothingToPartition {
		t.Errorf("third result = %+v", results[2])
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	results, err = p.RecommendAll(ctx, jobs, ix)
	if err == nil || len(results) != 0 {
		t.Errorf("cancelled run: results=%d err=%v", len(results), err)
	}
}
