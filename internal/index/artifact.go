package index

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/archpilot/archpilot/internal/domain"
	"github.com/archpilot/archpilot/internal/domain/chunk"
)

// FormatVersion is the artifact format this build can read.
const FormatVersion = 1

// maxRecordBytes bounds a single artifact line; vectors of a few thousand
// dimensions plus text fit comfortably.
const maxRecordBytes = 8 << 20

// header is the first line of the artifact.
type header struct {
	FormatVersion    int    `json:"format_version"`
	EmbeddingModelID string `json:"embedding_model_id"`
	Dimension        int    `json:"dimension"`
}

// record is one indexed chunk as persisted by the offline pipeline.
type record struct {
	ID       string            `json:"id"`
	Category string            `json:"category"`
	Text     string            `json:"text"`
	Vector   []float32         `json:"vector"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

// readArtifact parses the artifact stream in a single pass: one JSON header
// line followed by one JSON record per line.
func readArtifact(r io.Reader) (header, []chunk.Chunk, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), maxRecordBytes)

	if !sc.Scan() {
		if err := sc.Err(); err != nil {
			return header{}, nil, fmt.Errorf("%w: read header: %w", domain.ErrArtifactCorrupt, err)
		}
		return header{}, nil, fmt.Errorf("%w: empty artifact", domain.ErrArtifactCorrupt)
	}

	var hdr header
	if err := json.Unmarshal(sc.Bytes(), &hdr); err != nil {
		return header{}, nil, fmt.Errorf("%w: parse header: %w", domain.ErrArtifactCorrupt, err)
	}
	if hdr.FormatVersion != FormatVersion {
		return header{}, nil, fmt.Errorf("%w: unsupported format version %d (want %d)",
			domain.ErrArtifactCorrupt, hdr.FormatVersion, FormatVersion)
	}
	if hdr.EmbeddingModelID == "" {
		return header{}, nil, fmt.Errorf("%w: missing embedding model id", domain.ErrArtifactCorrupt)
	}
	if hdr.Dimension <= 0 {
		return header{}, nil, fmt.Errorf("%w: invalid dimension %d", domain.ErrArtifactCorrupt, hdr.Dimension)
	}

	var chunks []chunk.Chunk
	line := 1
	for sc.Scan() {
		line++
		raw := sc.Bytes()
		if len(raw) == 0 {
			continue
		}

		var rec record
		if err := json.Unmarshal(raw, &rec); err != nil {
			return header{}, nil, fmt.Errorf("%w: line %d: %w", domain.ErrArtifactCorrupt, line, err)
		}
		if len(rec.Vector) != hdr.Dimension {
			return header{}, nil, fmt.Errorf("%w: line %d: chunk %s has %d dims, artifact declares %d",
				domain.ErrVectorDimMismatch, line, rec.ID, len(rec.Vector), hdr.Dimension)
		}

		c, err := chunkFromRecord(rec)
		if err != nil {
			return header{}, nil, fmt.Errorf("%w: line %d: %w", domain.ErrArtifactCorrupt, line, err)
		}
		chunks = append(chunks, c)
	}
	if err := sc.Err(); err != nil {
		return header{}, nil, fmt.Errorf("%w: read records: %w", domain.ErrArtifactCorrupt, err)
	}

	return hdr, chunks, nil
}

func chunkFromRecord(rec record) (chunk.Chunk, error) {
	cat, err := chunk.ParseCategory(rec.Category)
	if err != nil {
		return chunk.Chunk{}, fmt.Errorf("chunk %s: %w", rec.ID, err)
	}

	meta, err := metadataFromMap(rec.Metadata)
	if err != nil {
		return chunk.Chunk{}, fmt.Errorf("chunk %s: %w", rec.ID, err)
	}

	c, err := chunk.New(rec.ID, cat, rec.Text, rec.Vector, meta)
	if err != nil {
		return chunk.Chunk{}, err
	}
	return c, nil
}

// metadataFromMap parses the loose string map persisted by the pipeline into
// typed metadata. Unknown keys are ignored so artifacts can carry extra fields.
func metadataFromMap(m map[string]string) (chunk.Metadata, error) {
	meta := chunk.Metadata{
		Title: m["title"],
		URL:   m["url"],
		DocID: m["doc_id"],
	}

	if tags := m["tags"]; tags != "" {
		meta.Tags = strings.Split(tags, ",")
	}

	var err error
	if meta.SpanStart, err = atoiField(m, "span_start"); err != nil {
		return chunk.Metadata{}, err
	}
	if meta.SpanEnd, err = atoiField(m, "span_end"); err != nil {
		return chunk.Metadata{}, err
	}

	if ts := m["updated_at"]; ts != "" {
		meta.UpdatedAt, err = time.Parse(time.RFC3339, ts)
		if err != nil {
			return chunk.Metadata{}, fmt.Errorf("parse updated_at: %w", err)
		}
	}

	return meta, nil
}

func atoiField(m map[string]string, key string) (int, error) {
	s := m[key]
	if s == "" {
		return 0, nil
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", key, err)
	}
	return v, nil
}
