package main

import (
	"bytes"
	"context"
	"encoding/csv"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/hupe1980/recgo/blobstore"
	"github.com/hupe1980/recgo/bundle"
	"github.com/hupe1980/recgo/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnvTransform(t *testing.T) {
	assert.Equal(t, "top_k", envTransform("RECGO_TOP_K"))
	assert.Equal(t, "store.access_key", envTransform("RECGO_STORE_ACCESS_KEY"))
	assert.Equal(t, "output.format", envTransform("RECGO_OUTPUT_FORMAT"))
	assert.Equal(t, "model", envTransform("RECGO_MODEL"))
}

func TestLoadConfig(t *testing.T) {
	t.Run("Defaults", func(t *testing.T) {
		c, err := loadConfig("")
		require.NoError(t, err)
		assert.Equal(t, "local", c.Store.Kind)
		assert.Equal(t, 10, c.TopK)
		assert.Equal(t, []int{5, 10}, c.Cutoffs)
	})

	t.Run("Layers", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "recgo.yaml")
		require.NoError(t, os.WriteFile(path, []byte(`
top_k: 25
diversity_factor: 0.5
store:
  kind: minio
  endpoint: localhost:9000
  bucket: models
output:
  format: table
`), 0o644))

		t.Setenv("RECGO_TOP_K", "7")
		t.Setenv("RECGO_STORE_BUCKET", "override")
		t.Setenv("RECGO_CUTOFFS", "1, 3")

		c, err := loadConfig(path)
		require.NoError(t, err)
		assert.Equal(t, 7, c.TopK)
		assert.Equal(t, 0.5, c.DiversityFactor)
		assert.Equal(t, "minio", c.Store.Kind)
		assert.Equal(t, "localhost:9000", c.Store.Endpoint)
		assert.Equal(t, "override", c.Store.Bucket)
		assert.Equal(t, "table", c.Output.Format)
		assert.Equal(t, []int{1, 3}, c.Cutoffs)
	})

	t.Run("Invalid", func(t *testing.T) {
		for _, env := range [][2]string{
			{"RECGO_STORE_KIND", "ftp"},
			{"RECGO_TOP_K", "0"},
			{"RECGO_LOG_LEVEL", "loud"},
			{"RECGO_OUTPUT_FORMAT", "xml"},
			{"RECGO_DIVERSITY_FACTOR", "-1"},
		} {
			t.Run(env[0], func(t *testing.T) {
				t.Setenv(env[0], env[1])
				_, err := loadConfig("")
				assert.Error(t, err)
			})
		}
	})

	t.Run("MissingBucket", func(t *testing.T) {
		t.Setenv("RECGO_STORE_KIND", "s3")
		_, err := loadConfig("")
		assert.ErrorContains(t, err, "store.bucket")
	})
}

func TestParseCutoffs(t *testing.T) {
	got, err := parseCutoffs("5, 10,,20")
	require.NoError(t, err)
	assert.Equal(t, []int{5, 10, 20}, got)

	_, err = parseCutoffs("5,x")
	assert.Error(t, err)
}

func TestRecommendCommand(t *testing.T) {
	dir := t.TempDir()
	store := blobstore.NewLocalStore(dir)
	b := testutil.NewRNG(3).Model(testutil.ModelConfig{Entities: 4, Items: 20, Dim: 4, PerEntity: 5})
	require.NoError(t, bundle.Save(context.Background(), store, "model", b))

	query := filepath.Join(dir, "query.csv")
	require.NoError(t, os.WriteFile(query, []byte("user\nu1\nu3\n"), 0o644))

	t.Setenv("RECGO_STORE_PATH", dir)
	t.Setenv("RECGO_LOG_LEVEL", "error")
	t.Setenv("RECGO_METRICS_FILE", filepath.Join(dir, "metrics.prom"))

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{"recommend", "--query", query, "-k", "3", "--exclude-training"})
	require.NoError(t, rootCmd.ExecuteContext(context.Background()))

	records, err := csv.NewReader(strings.NewReader(out.String())).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 7)
	assert.Equal(t, []string{"user", "item", "score", "rank"}, records[0])
	assert.Equal(t, "u1", records[1][0])
	assert.Equal(t, "1", records[1][3])
	assert.Equal(t, "u3", records[6][0])
	assert.Equal(t, "3", records[6][3])

	metrics, err := os.ReadFile(filepath.Join(dir, "metrics.prom"))
	require.NoError(t, err)
	assert.Contains(t, string(metrics), "recgo_calls_total")

	out.Reset()
	rootCmd.SetArgs([]string{"inspect"})
	require.NoError(t, rootCmd.ExecuteContext(context.Background()))
	assert.Contains(t, out.String(), "entities:     4")
	assert.Contains(t, out.String(), "MANIFEST")
	assert.Contains(t, out.String(), "interactions.seg")
}
