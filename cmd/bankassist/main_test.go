package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fingate/bankassist/pkg/kb"
)

const testEmbedDim = 8

func stubEmbedder(t *testing.T) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/embeddings" {
			http.NotFound(w, r)
			return
		}
		vec := make([]float32, testEmbedDim)
		for i := range vec {
			vec[i] = float32(i) / testEmbedDim
		}
		json.NewEncoder(w).Encode(map[string]any{"embedding": vec})
	}))
}

func TestIngestCommandBuildsIndex(t *testing.T) {
	embed := stubEmbedder(t)
	defer embed.Close()

	dir := t.TempDir()
	srcDir := filepath.Join(dir, "kbdocs")
	require.NoError(t, os.Mkdir(srcDir, 0700))
	require.NoError(t, os.WriteFile(filepath.Join(srcDir, "netbanking.md"),
		[]byte("If the balance page is blank, clear the app cache and retry."), 0600))

	indexPath := filepath.Join(dir, "kb.sqlite")
	cfgPath := filepath.Join(dir, "bankassist.toml")
	require.NoError(t, os.WriteFile(cfgPath, []byte(fmt.Sprintf(`
[kb]
index_path = %q
embed_base_url = %q
embed_model = "test-embed"
dimensions = %d
`, indexPath, embed.URL, testEmbedDim)), 0600))

	rootCmd.SetArgs([]string{"ingest", "--config", cfgPath, "--src", srcDir})
	require.NoError(t, rootCmd.Execute())

	// The index is queryable afterwards with the same embedder.
	store, err := kb.OpenStore(indexPath, kb.NewOllamaEmbedder(embed.URL, "test-embed"), testEmbedDim)
	require.NoError(t, err)
	defer store.Close()

	n, err := store.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	snippets, err := store.Search(context.Background(), "balance page blank", 3)
	require.NoError(t, err)
	require.Len(t, snippets, 1)
	assert.Equal(t, "netbanking.md#0", snippets[0].Source)
}
