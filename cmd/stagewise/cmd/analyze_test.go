package cmd

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAnalyzeCommand(t *testing.T) {
	dir := t.TempDir()
	dockerfilePath := filepath.Join(dir, "Dockerfile")
	require.NoError(t, os.WriteFile(dockerfilePath, []byte(`FROM node:12
COPY package.json yarn.lock ./
RUN yarn install
COPY . .
CMD ["yarn", "start"]
`), 0o644))
	outputPath := filepath.Join(dir, "report.json")

	app := NewApp()
	err := app.Run(context.Background(), []string{
		"stagewise", "analyze",
		"--offline",
		"--format", "json",
		"--output", outputPath,
		dockerfilePath,
	})
	require.NoError(t, err)

	raw, err := os.ReadFile(outputPath)
	require.NoError(t, err)

	var report struct {
		Suggestions []struct {
			Category     string `json:"category"`
			SavingsBytes int64  `json:"savingsBytes"`
		} `json:"suggestions"`
		Summary struct {
			FilesAnalyzed     int   `json:"filesAnalyzed"`
			StagesAnalyzed    int   `json:"stagesAnalyzed"`
			TotalSavingsBytes int64 `json:"totalSavingsBytes"`
		} `json:"summary"`
	}
	require.NoError(t, json.Unmarshal(raw, &report))

	assert.Equal(t, 1, report.Summary.FilesAnalyzed)
	assert.Equal(t, 1, report.Summary.StagesAnalyzed)
	require.NotEmpty(t, report.Suggestions)
	assert.Positive(t, report.Summary.TotalSavingsBytes)

	var categories []string
	for _, s := range report.Suggestions {
		assert.Positive(t, s.SavingsBytes)
		categories = append(categories, s.Category)
	}
	assert.Contains(t, categories, "base-image-swap")
	assert.Contains(t, categories, "introduce-multistage")
}

func TestAnalyzeCommandIgnoresCategories(t *testing.T) {
	dir := t.TempDir()
	dockerfilePath := filepath.Join(dir, "Dockerfile")
	require.NoError(t, os.WriteFile(dockerfilePath, []byte(`FROM node:12
COPY package.json ./
RUN npm install
CMD ["npm", "start"]
`), 0o644))
	outputPath := filepath.Join(dir, "report.json")

	app := NewApp()
	err := app.Run(context.Background(), []string{
		"stagewise", "analyze",
		"--offline",
		"--format", "json",
		"--output", outputPath,
		"--ignore", "base-image-swap",
		dockerfilePath,
	})
	require.NoError(t, err)

	raw, err := os.ReadFile(outputPath)
	require.NoError(t, err)
	assert.NotContains(t, string(raw), `"base-image-swap"`)
}
