package serverswap

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wharflab/stagewise/internal/advisor"
	"github.com/wharflab/stagewise/internal/dockerfile"
	"github.com/wharflab/stagewise/internal/semantic"
	"github.com/wharflab/stagewise/internal/sizing"
)

func annotatedModel(t *testing.T, content string, lookup sizing.Lookup) *semantic.Model {
	t.Helper()

	pr, err := dockerfile.Parse(strings.NewReader(content))
	require.NoError(t, err)
	model, err := semantic.NewModel(pr, "Dockerfile")
	require.NoError(t, err)
	sizing.NewEstimator(lookup, sizing.DefaultDefaults()).
		Estimate(context.Background(), model)
	return model
}

const staticServing = `FROM node:20-slim
COPY dist/ /srv/www
CMD ["npx", "serve", "-s", "/srv/www"]
`

func TestEvaluate(t *testing.T) {
	t.Parallel()

	rule := &Rule{}

	t.Run("runtime serving static files is flagged", func(t *testing.T) {
		t.Parallel()

		lookup := sizing.NewStaticLookup()
		model := annotatedModel(t, staticServing, lookup)
		suggestions := rule.Evaluate(context.Background(), advisor.Input{Model: model, Lookup: lookup})

		require.Len(t, suggestions, 1)
		s := suggestions[0]
		assert.Equal(t, advisor.CategoryServerSwap, s.Category)
		// node:20-slim (80 MB) down to nginx:stable-alpine (11 MB).
		assert.Equal(t, int64(69*1024*1024), s.SavingsBytes)
		assert.Contains(t, s.Rationale, StaticServerImage)
		assert.False(t, s.LowConfidence)
	})

	t.Run("fires with fallback size when lookup is unavailable", func(t *testing.T) {
		t.Parallel()

		model := annotatedModel(t, staticServing, nil)
		suggestions := rule.Evaluate(context.Background(), advisor.Input{Model: model})

		require.Len(t, suggestions, 1)
		assert.True(t, suggestions[0].LowConfidence)
		assert.Positive(t, suggestions[0].SavingsBytes)
	})

	t.Run("dedicated server base is left alone", func(t *testing.T) {
		t.Parallel()

		lookup := sizing.NewStaticLookup()
		model := annotatedModel(t, "FROM nginx:stable-alpine\nCOPY dist/ /usr/share/nginx/html\n", lookup)
		suggestions := rule.Evaluate(context.Background(), advisor.Input{Model: model, Lookup: lookup})

		assert.Empty(t, suggestions)
	})

	t.Run("non-serving command is ignored", func(t *testing.T) {
		t.Parallel()

		lookup := sizing.NewStaticLookup()
		model := annotatedModel(t, "FROM node:20-slim\nCOPY . .\nCMD [\"node\", \"worker.js\"]\n", lookup)
		suggestions := rule.Evaluate(context.Background(), advisor.Input{Model: model, Lookup: lookup})

		assert.Empty(t, suggestions)
	})
}
