package index

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/archpilot/archpilot/internal/domain"
)

func writeArtifact(t *testing.T, lines ...string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "index.jsonl")
	content := ""
	for _, l := range lines {
		content += l + "\n"
	}
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write artifact: %v", err)
	}
	return path
}

const validHeader = `{"format_version":1,"embedding_model_id":"text-embedding-3-small","dimension":3}`

func TestLoad(t *testing.T) {
	path := writeArtifact(t,
		validHeader,
		`{"id":"c1","category":"architecture_docs","text":"SVE basics","vector":[1,0,0],"metadata":{"title":"SVE","doc_id":"d1","span_start":"0","span_end":"120","tags":"simd,sve"}}`,
		``,
		`{"id":"c2","category":"intrinsics","text":"vaddq_f32","vector":[0,1,0]}`,
	)

	store, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if store.Len() != 2 {
		t.Errorf("Len = %d, want 2", store.Len())
	}
	if store.Dimension() != 3 {
		t.Errorf("Dimension = %d, want 3", store.Dimension())
	}
	if store.ModelID() != "text-embedding-3-small" {
		t.Errorf("ModelID = %q", store.ModelID())
	}

	c := &store.Chunks()[0]
	if c.ID() != "c1" {
		t.Errorf("first chunk ID = %q", c.ID())
	}
	meta := c.Meta()
	if meta.Title != "SVE" || meta.DocID != "d1" {
		t.Errorf("metadata = %+v", meta)
	}
	if meta.SpanStart != 0 || meta.SpanEnd != 120 {
		t.Errorf("span = [%d, %d], want [0, 120]", meta.SpanStart, meta.SpanEnd)
	}
	if len(meta.Tags) != 2 || meta.Tags[0] != "simd" || meta.Tags[1] != "sve" {
		t.Errorf("tags = %v", meta.Tags)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.jsonl")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestLoad_CorruptArtifacts(t *testing.T) {
	tests := []struct {
		name    string
		lines   []string
		wantErr error
	}{
		{"empty file", []string{}, domain.ErrArtifactCorrupt},
		{"header not json", []string{"not json"}, domain.ErrArtifactCorrupt},
		{
			"wrong format version",
			[]string{`{"format_version":2,"embedding_model_id":"m","dimension":3}`},
			domain.ErrArtifactCorrupt,
		},
		{
			"missing model id",
			[]string{`{"format_version":1,"dimension":3}`},
			domain.ErrArtifactCorrupt,
		},
		{
			"bad dimension",
			[]string{`{"format_version":1,"embedding_model_id":"m","dimension":0}`},
			domain.ErrArtifactCorrupt,
		},
		{
			"record not json",
			[]string{validHeader, "garbage"},
			domain.ErrArtifactCorrupt,
		},
		{
			"record dim mismatch",
			[]string{validHeader, `{"id":"c1","category":"intrinsics","text":"t","vector":[1,0]}`},
			domain.ErrVectorDimMismatch,
		},
		{
			"unknown category",
			[]string{validHeader, `{"id":"c1","category":"nope","text":"t","vector":[1,0,0]}`},
			domain.ErrArtifactCorrupt,
		},
		{
			"missing id",
			[]string{validHeader, `{"category":"intrinsics","text":"t","vector":[1,0,0]}`},
			domain.ErrArtifactCorrupt,
		},
		{
			"bad span metadata",
			[]string{validHeader, `{"id":"c1","category":"intrinsics","text":"t","vector":[1,0,0],"metadata":{"span_start":"abc"}}`},
			domain.ErrArtifactCorrupt,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeArtifact(t, tt.lines...)
			_, err := Load(path)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestLoad_EmptyIndexIsValid(t *testing.T) {
	// A header with no records loads fine; readiness is the caller's concern.
	path := writeArtifact(t, validHeader)
	store, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if store.Len() != 0 {
		t.Errorf("Len = %d, want 0", store.Len())
	}
}
