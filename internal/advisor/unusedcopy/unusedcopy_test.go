package unusedcopy

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

func annotatedModel(t *testing.T, content string) *semantic.Model {
	t.Helper()

	pr, err := dockerfile.Parse(strings.NewReader(content))
	require.NoError(t, err)
	model, err := semantic.NewModel(pr, "Dockerfile")
	require.NoError(t, err)
	sizing.NewEstimator(sizing.NewStaticLookup(), sizing.DefaultDefaults()).
		Estimate(context.Background(), model)
	return model
}

func TestEvaluate(t *testing.T) {
	t.Parallel()

	rule := &Rule{}

	tests := []struct {
		name      string
		content   string
		wantLines []int
	}{
		{
			name: "unreferenced copy is flagged",
			content: `FROM node:20-slim
COPY config/ /etc/app/
COPY scripts/debug.sh /usr/local/bin/
CMD ["node", "/etc/app/server.js"]
`,
			wantLines: []int{3},
		},
		{
			name: "whole context copy is never flagged",
			content: `FROM node:20-slim
COPY . .
CMD ["node", "server.js"]
`,
		},
		{
			name: "manifest copy feeding install is kept",
			content: `FROM node:20-slim
COPY package.json package-lock.json ./
RUN npm ci
CMD ["node", "server.js"]
`,
		},
		{
			name: "no command text means no judgment",
			content: `FROM nginx:stable-alpine
COPY dist/ /usr/share/nginx/html
`,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			model := annotatedModel(t, tc.content)
			suggestions := rule.Evaluate(context.Background(), advisor.Input{Model: model})

			var lines []int
			for _, s := range suggestions {
				assert.Equal(t, advisor.CategoryDropUnusedCopy, s.Category)
				assert.Positive(t, s.SavingsBytes)
				lines = append(lines, s.Line)
			}
			assert.Equal(t, tc.wantLines, lines)
		})
	}
}
