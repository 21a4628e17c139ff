package index

import (
	"context"
	"fmt"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/mkarlsen/assessrec/internal/catalog"
)

// fakeProvider produces deterministic text-derived vectors without network.
type fakeProvider struct {
	dim  int
	fail map[string]bool // canonical texts whose embedding fails
}

func (f *fakeProvider) ModelID() string { return "fake:test" }
func (f *fakeProvider) Dim() int        { return f.dim }

func (f *fakeProvider) Embed(_ context.Context, text string) ([]float32, error) {
	if f.fail[text] {
		return nil, fmt.Errorf("simulated embedding failure")
	}
	v := make([]float32, f.dim)
	for i, r := range text {
		v[i%f.dim] += float32(r%13) + 1
	}
	return v, nil
}

func (f *fakeProvider) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		v, err := f.Embed(ctx, t)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func testEntries() []catalog.Entry {
	return []catalog.Entry{
		{ID: 0, Name: "Python Test", URL: "https://example.com/p", Description: "Assesses Python programming skill", Tags: []string{"coding"}},
		{ID: 1, Name: "Java Test", URL: "https://example.com/j", Description: "Assesses Java programming skill"},
		{ID: 2, Name: "Teamwork", Description: "Assesses collaboration and communication", TestType: "P"},
	}
}

func TestBuild_ProducesAlignedArtifacts(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "index")
	prov := &fakeProvider{dim: 6}

	idx, err := Build(context.Background(), prov, testEntries(), BuildOptions{OutDir: dir})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if len(idx.Entries) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(idx.Entries))
	}
	if len(idx.Vectors) != 3*idx.Manifest.Dim {
		t.Fatalf("vectors not aligned: %d floats, dim %d", len(idx.Vectors), idx.Manifest.Dim)
	}
	if idx.Manifest.Metric != MetricCosine {
		t.Fatalf("unexpected metric: %q", idx.Manifest.Metric)
	}

	loaded, err := Load(dir)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(loaded.Entries) != len(idx.Entries) {
		t.Fatalf("loaded %d entries, built %d", len(loaded.Entries), len(idx.Entries))
	}
	if !reflect.DeepEqual(loaded.Vectors, idx.Vectors) {
		t.Fatal("loaded vectors differ from built vectors")
	}
	for i, e := range loaded.Entries {
		if e.ID != i {
			t.Fatalf("entry %d has id %d", i, e.ID)
		}
	}
}

func TestBuild_Idempotent(t *testing.T) {
	tmp := t.TempDir()
	prov := &fakeProvider{dim: 6}

	a, err := Build(context.Background(), prov, testEntries(), BuildOptions{OutDir: filepath.Join(tmp, "a")})
	if err != nil {
		t.Fatalf("first Build: %v", err)
	}
	b, err := Build(context.Background(), prov, testEntries(), BuildOptions{OutDir: filepath.Join(tmp, "b")})
	if err != nil {
		t.Fatalf("second Build: %v", err)
	}
	if !reflect.DeepEqual(a.Vectors, b.Vectors) {
		t.Fatal("rebuild on identical input produced different vectors")
	}
	if !reflect.DeepEqual(a.Entries, b.Entries) {
		t.Fatal("rebuild on identical input produced different metadata")
	}
}

func TestBuild_SkipsFailedRows(t *testing.T) {
	entries := testEntries()
	failing := CanonicalText(entries[1])
	prov := &fakeProvider{dim: 6, fail: map[string]bool{failing: true}}

	idx, err := Build(context.Background(), prov, entries, BuildOptions{OutDir: filepath.Join(t.TempDir(), "index")})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if len(idx.Entries) != 2 {
		t.Fatalf("expected 2 surviving entries, got %d", len(idx.Entries))
	}
	for i, e := range idx.Entries {
		if e.Name == "Java Test" {
			t.Fatal("failed row was not skipped")
		}
		if e.ID != i {
			t.Fatalf("surviving ids not re-densified: entry %d has id %d", i, e.ID)
		}
	}
}

func TestBuild_AllRowsFailIsFatal(t *testing.T) {
	entries := testEntries()
	fail := map[string]bool{}
	for _, e := range entries {
		fail[CanonicalText(e)] = true
	}
	prov := &fakeProvider{dim: 6, fail: fail}

	dir := filepath.Join(t.TempDir(), "index")
	if _, err := Build(context.Background(), prov, entries, BuildOptions{OutDir: dir}); err == nil {
		t.Fatal("expected fatal error when every row fails")
	}
	if _, err := Load(dir); err == nil {
		t.Fatal("failed build must not leave loadable artifacts")
	}
}

func TestBuild_ReusesVectorsFromPreviousIndex(t *testing.T) {
	tmp := t.TempDir()
	prevDir := filepath.Join(tmp, "prev")
	prov := &fakeProvider{dim: 6}

	prev, err := Build(context.Background(), prov, testEntries(), BuildOptions{OutDir: prevDir})
	if err != nil {
		t.Fatalf("initial Build: %v", err)
	}

	// A provider that refuses all work: rebuild must succeed purely on reuse.
	failAll := map[string]bool{}
	for _, e := range testEntries() {
		failAll[CanonicalText(e)] = true
	}
	broken := &fakeProvider{dim: 6, fail: failAll}

	next, err := Build(context.Background(), broken, testEntries(), BuildOptions{
		OutDir:  filepath.Join(tmp, "next"),
		PrevDir: prevDir,
	})
	if err != nil {
		t.Fatalf("rebuild with reuse: %v", err)
	}
	if !reflect.DeepEqual(prev.Vectors, next.Vectors) {
		t.Fatal("reused vectors differ from previous build")
	}
}

func TestAtomicSwap_ReplacesAndCleansUp(t *testing.T) {
	tmp := t.TempDir()
	srcDir := filepath.Join(tmp, "staging")
	destDir := filepath.Join(tmp, "index")
	prov := &fakeProvider{dim: 4}

	if _, err := Build(context.Background(), prov, testEntries(), BuildOptions{OutDir: destDir}); err != nil {
		t.Fatalf("Build old: %v", err)
	}
	if _, err := Build(context.Background(), prov, testEntries()[:2], BuildOptions{OutDir: srcDir}); err != nil {
		t.Fatalf("Build new: %v", err)
	}

	if err := AtomicSwap(srcDir, destDir); err != nil {
		t.Fatalf("AtomicSwap: %v", err)
	}
	idx, err := Load(destDir)
	if err != nil {
		t.Fatalf("Load after swap: %v", err)
	}
	if len(idx.Entries) != 2 {
		t.Fatalf("swap did not install new index: %d entries", len(idx.Entries))
	}
}
