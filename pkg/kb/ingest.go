package kb

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"go.uber.org/zap"
)

// Chunking approximates 4 characters per token.
const (
	chunkMaxTokens    = 500
	chunkOverlapToken = 50
)

var spaceRuns = regexp.MustCompile(`[ \t]+`)

// Ingest walks srcDir for .txt/.md files, chunks and embeds them, and stores
// every chunk in the index. Source identifiers are paths relative to srcDir
// with a chunk ordinal suffix. Returns the number of chunks stored.
//
// The corpus must stay free of PII; only FAQ/policy/how-to text belongs here.
func Ingest(ctx context.Context, store *Store, srcDir string, logger *zap.Logger) (int, error) {
	total := 0
	err := filepath.WalkDir(srcDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		ext := strings.ToLower(filepath.Ext(path))
		if ext != ".txt" && ext != ".md" {
			return nil
		}

		raw, err := os.ReadFile(path)
		if err != nil {
			logger.Warn("skipping unreadable file", zap.String("path", path), zap.Error(err))
			return nil
		}
		text := cleanText(string(raw))
		if text == "" {
			return nil
		}

		rel, err := filepath.Rel(srcDir, path)
		if err != nil {
			rel = filepath.Base(path)
		}

		for i, chunk := range chunkText(text, chunkMaxTokens, chunkOverlapToken) {
			source := fmt.Sprintf("%s#%d", rel, i)
			if err := store.Add(ctx, source, chunk); err != nil {
				return fmt.Errorf("failed to ingest %s: %w", source, err)
			}
			total++
		}
		logger.Debug("ingested file", zap.String("path", rel))
		return nil
	})
	if err != nil {
		return total, err
	}
	return total, nil
}

// cleanText normalizes line endings and collapses runs of spaces/tabs.
func cleanText(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = spaceRuns.ReplaceAllString(text, " ")
	return strings.TrimSpace(text)
}

// chunkText slices text into overlapping windows sized in approximate tokens.
func chunkText(text string, maxTokens, overlap int) []string {
	if text == "" {
		return nil
	}
	maxChars := maxTokens * 4
	overlapChars := overlap * 4

	var chunks []string
	i := 0
	for i < len(text) {
		j := i + maxChars
		if j >= len(text) {
			chunks = append(chunks, text[i:])
			break
		}
		chunks = append(chunks, text[i:j])
		i = j - overlapChars
	}
	return chunks
}
