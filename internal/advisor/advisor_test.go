package advisor_test

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wharflab/stagewise/internal/advisor"
	_ "github.com/wharflab/stagewise/internal/advisor/all"
	"github.com/wharflab/stagewise/internal/dockerfile"
	"github.com/wharflab/stagewise/internal/semantic"
	"github.com/wharflab/stagewise/internal/sizing"
)

const singleStageNode = `FROM node:12
COPY package.json yarn.lock ./
RUN yarn install
COPY . .
EXPOSE 3000
CMD ["yarn", "start"]
`

const twoStageOptimized = `FROM node:12-alpine AS build
WORKDIR /app
COPY package.json package-lock.json ./
RUN npm ci
COPY . .
RUN npm run build

FROM nginx:stable-alpine
COPY --from=build /app/dist /usr/share/nginx/html
`

func annotatedModel(t *testing.T, content string, lookup sizing.Lookup) *semantic.Model {
	t.Helper()

	pr, err := dockerfile.Parse(strings.NewReader(content))
	require.NoError(t, err)
	model, err := semantic.NewModel(pr, "Dockerfile")
	require.NoError(t, err)

	estimator := sizing.NewEstimator(lookup, sizing.DefaultDefaults())
	estimator.Estimate(context.Background(), model)
	return model
}

func categories(suggestions []advisor.Suggestion) []advisor.Category {
	result := make([]advisor.Category, len(suggestions))
	for i, s := range suggestions {
		result[i] = s.Category
	}
	return result
}

func TestAdviseSingleStageBuildAndServe(t *testing.T) {
	t.Parallel()

	lookup := sizing.NewStaticLookup()
	model := annotatedModel(t, singleStageNode, lookup)

	a := advisor.New(advisor.DefaultRegistry())
	suggestions := a.Advise(context.Background(), advisor.Input{Model: model, Lookup: lookup})

	require.NotEmpty(t, suggestions)
	assert.Contains(t, categories(suggestions), advisor.CategoryBaseImageSwap)
	assert.Contains(t, categories(suggestions), advisor.CategoryIntroduceMultistage)

	for _, s := range suggestions {
		assert.Equal(t, "Dockerfile", s.File)
		assert.Positive(t, s.SavingsBytes)
		assert.NotEmpty(t, s.Rationale)
	}

	// node:12 (341 MB) to node:12-alpine (39 MB).
	for _, s := range suggestions {
		if s.Category == advisor.CategoryBaseImageSwap {
			assert.Equal(t, int64(302*1024*1024), s.SavingsBytes)
			assert.Contains(t, s.Rationale, "node:12-alpine")
			assert.False(t, s.LowConfidence)
		}
	}
}

func TestAdviseOptimizedBuildIsQuiet(t *testing.T) {
	t.Parallel()

	lookup := sizing.NewStaticLookup()
	model := annotatedModel(t, twoStageOptimized, lookup)

	a := advisor.New(advisor.DefaultRegistry())
	suggestions := a.Advise(context.Background(), advisor.Input{Model: model, Lookup: lookup})

	assert.Empty(t, suggestions)
}

func TestAdviseIsDeterministic(t *testing.T) {
	t.Parallel()

	lookup := sizing.NewStaticLookup()
	model := annotatedModel(t, singleStageNode, lookup)

	a := advisor.New(advisor.DefaultRegistry())
	input := advisor.Input{Model: model, Lookup: lookup}

	first := a.Advise(context.Background(), input)
	second := a.Advise(context.Background(), input)
	assert.Equal(t, first, second)
}

func TestAdviseOrdersBySavings(t *testing.T) {
	t.Parallel()

	lookup := sizing.NewStaticLookup()
	model := annotatedModel(t, singleStageNode, lookup)

	a := advisor.New(advisor.DefaultRegistry())
	suggestions := a.Advise(context.Background(), advisor.Input{Model: model, Lookup: lookup})

	for i := 1; i < len(suggestions); i++ {
		assert.GreaterOrEqual(t, suggestions[i-1].SavingsBytes, suggestions[i].SavingsBytes)
	}
}

func TestAdviseIgnoresCategories(t *testing.T) {
	t.Parallel()

	lookup := sizing.NewStaticLookup()
	model := annotatedModel(t, singleStageNode, lookup)

	a := advisor.New(advisor.DefaultRegistry(), advisor.CategoryBaseImageSwap)
	suggestions := a.Advise(context.Background(), advisor.Input{Model: model, Lookup: lookup})

	assert.NotContains(t, categories(suggestions), advisor.CategoryBaseImageSwap)
	assert.Contains(t, categories(suggestions), advisor.CategoryIntroduceMultistage)
}

func TestAdviseWithoutLookupStillProduces(t *testing.T) {
	t.Parallel()

	model := annotatedModel(t, singleStageNode, nil)

	a := advisor.New(advisor.DefaultRegistry())
	suggestions := a.Advise(context.Background(), advisor.Input{Model: model})

	// Base image swap needs the lookup; the multistage split does not.
	require.NotEmpty(t, suggestions)
	assert.Contains(t, categories(suggestions), advisor.CategoryIntroduceMultistage)
	for _, s := range suggestions {
		assert.True(t, s.LowConfidence)
	}
}

func TestRegistryRejectsDuplicates(t *testing.T) {
	t.Parallel()

	registry := advisor.NewRegistry()
	rule := stubRule{category: advisor.CategoryServerSwap}
	registry.Register(rule)
	assert.Panics(t, func() { registry.Register(rule) })
	assert.Equal(t, []advisor.Category{advisor.CategoryServerSwap}, registry.Categories())
}

type stubRule struct{ category advisor.Category }

func (r stubRule) Metadata() advisor.RuleMetadata {
	return advisor.RuleMetadata{Category: r.category}
}

func (r stubRule) Evaluate(context.Context, advisor.Input) []advisor.Suggestion { return nil }
