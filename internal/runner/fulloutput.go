package runner

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/zstd"
	"github.com/zeebo/blake3"
)

// MaxInlineOutputBytes is HistoryRecorder's byte budget for output kept
// inline in a persisted record; output beyond this is spilled to a
// compressed blob referenced by fullOutputFile instead.
const MaxInlineOutputBytes = 64 * 1024

// SpillWriter writes oversized output blobs into Dir, which callers
// resolve relative to the repository's git directory.
type SpillWriter struct {
	Dir string
}

// NewSpillWriter returns a SpillWriter rooted at dir. The directory is
// created by Write, not here.
func NewSpillWriter(dir string) *SpillWriter {
	return &SpillWriter{Dir: dir}
}

// Write compresses content with zstd and names the resulting file by
// the blake3 hash of the uncompressed bytes, so repeated identical
// failures reuse the same blob instead of accumulating duplicates.
// Returns the path written (relative to Dir is not assumed; the full
// path is returned; history stores it in StepRecord.FullOutputFile).
func (s *SpillWriter) Write(content []byte) (string, error) {
	if err := os.MkdirAll(s.Dir, 0o755); err != nil {
		return "", fmt.Errorf("runner: creating spill dir: %w", err)
	}

	sum := blake3.Sum256(content)
	name := fmt.Sprintf("%x.zst", sum)
	path := filepath.Join(s.Dir, name)

	if _, err := os.Stat(path); err == nil {
		return path, nil // identical content already spilled
	}

	var buf bytes.Buffer
	enc, err := zstd.NewWriter(&buf)
	if err != nil {
		return "", fmt.Errorf("runner: creating zstd writer: %w", err)
	}
	if _, err := enc.Write(content); err != nil {
		_ = enc.Close()
		return "", fmt.Errorf("runner: compressing output: %w", err)
	}
	if err := enc.Close(); err != nil {
		return "", fmt.Errorf("runner: finalizing compressed output: %w", err)
	}

	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return "", fmt.Errorf("runner: writing spill file: %w", err)
	}
	return path, nil
}

// Read decompresses a previously spilled output file.
func (s *SpillWriter) Read(path string) ([]byte, error) {
	compressed, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("runner: reading spill file: %w", err)
	}
	dec, err := zstd.NewReader(nil)
	if err != nil {
		return nil, fmt.Errorf("runner: creating zstd reader: %w", err)
	}
	defer dec.Close()
	return dec.DecodeAll(compressed, nil)
}

// NeedsSpill reports whether content exceeds the inline budget.
func NeedsSpill(content []byte) bool {
	return len(content) > MaxInlineOutputBytes
}
