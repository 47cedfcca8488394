package search

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KonghaYao/text2location/app/models"
)

// GoldenCase one query against a small fixed corpus.
type GoldenCase struct {
	Name        string                   `json:"name"`
	Strategy    Strategy                 `json:"strategy,omitempty"`
	Documents   []models.ResolvedAddress `json:"documents"`
	Query       string                   `json:"query"`
	Limit       int                      `json:"limit,omitempty"`
	ExpectCodes []string                 `json:"expect_codes"`
}

func TestGoldenCases(t *testing.T) {
	files, err := filepath.Glob(filepath.Join("testdata", "golden", "*.json"))
	require.NoError(t, err)
	require.NotEmpty(t, files)

	for _, file := range files {
		file := file
		t.Run(filepath.Base(file), func(t *testing.T) {
			data, err := os.ReadFile(file)
			require.NoError(t, err)

			var gc GoldenCase
			require.NoError(t, json.Unmarshal(data, &gc))

			si := newTestIndex(t, Options{Strategy: gc.Strategy}, gc.Documents...)
			results, err := si.Search(context.Background(), gc.Query, gc.Limit)
			require.NoError(t, err)

			assert.Equal(t, gc.ExpectCodes, codes(results), gc.Name)
		})
	}
}
