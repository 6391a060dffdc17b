package semantic

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wharflab/stagewise/internal/dockerfile"
)

func buildModel(t *testing.T, content string) *Model {
	t.Helper()

	pr, err := dockerfile.Parse(strings.NewReader(content))
	require.NoError(t, err)
	model, err := NewModel(pr, "Dockerfile")
	require.NoError(t, err)
	return model
}

func buildError(t *testing.T, content string) error {
	t.Helper()

	pr, err := dockerfile.Parse(strings.NewReader(content))
	require.NoError(t, err)
	_, err = NewModel(pr, "Dockerfile")
	require.Error(t, err)
	return err
}

func TestBuildSingleStage(t *testing.T) {
	t.Parallel()

	model := buildModel(t, `FROM node:12
COPY package.json ./
RUN npm install
COPY . .
EXPOSE 3000
CMD ["npm", "start"]
`)

	require.Equal(t, 1, model.StageCount())
	stage := model.Stage(0)
	assert.Equal(t, "node:12", stage.BaseImage)
	assert.Equal(t, -1, stage.BaseStageIndex)
	assert.True(t, stage.IsFinal)
	assert.True(t, stage.IsExternalBase())
	require.Len(t, stage.Instructions, 6)

	base := stage.Instructions[0]
	assert.Equal(t, KindBase, base.Kind)
	require.NotNil(t, base.Layer)
	assert.Equal(t, ProvenanceBaseImage, base.Layer.Provenance)

	manifestCopy := stage.Instructions[1]
	assert.Equal(t, KindCopy, manifestCopy.Kind)
	assert.Equal(t, []string{"package.json"}, manifestCopy.SourcePaths)
	assert.Equal(t, "./", manifestCopy.DestPath)
	require.NotNil(t, manifestCopy.Layer)
	assert.Equal(t, ProvenanceSourceCopy, manifestCopy.Layer.Provenance)

	install := stage.Instructions[2]
	assert.Equal(t, KindRun, install.Kind)
	require.NotNil(t, install.Layer)
	assert.Equal(t, ProvenanceDependencyInstall, install.Layer.Provenance)
	assert.Equal(t, "npm", install.PackageManager)

	expose := stage.Instructions[4]
	assert.Equal(t, KindExpose, expose.Kind)
	assert.Nil(t, expose.Layer)

	cmd := stage.Cmd()
	require.NotNil(t, cmd)
	assert.Equal(t, "npm start", cmd.Cmdline)

	assert.True(t, stage.HasDependencyInstall())
	assert.Len(t, stage.Layers(), 4)
}

func TestBuildStageReferences(t *testing.T) {
	t.Parallel()

	model := buildModel(t, `FROM golang:1 AS deps
RUN go mod download

FROM deps AS build
RUN go build -o /out/app .

FROM alpine:3
COPY --from=build /out/app /usr/local/bin/app
CMD ["app"]
`)

	require.Equal(t, 3, model.StageCount())

	build := model.Stage(1)
	assert.Equal(t, 0, build.BaseStageIndex)
	assert.False(t, build.IsExternalBase())
	// Internal bases carry no layer: their bytes belong to the referenced stage.
	assert.Nil(t, build.Instructions[0].Layer)

	final := model.Stage(2)
	artifact := final.Instructions[1]
	assert.Equal(t, ProvenanceArtifactCopy, artifact.Layer.Provenance)
	assert.Equal(t, 1, artifact.FromStageIndex)

	graph := model.Graph()
	assert.Equal(t, []int{0}, graph.DirectDependencies(1))
	assert.Equal(t, []int{1}, graph.DirectDependencies(2))
	assert.True(t, graph.DependsOn(2, 0))
	assert.False(t, graph.DependsOn(0, 2))
	assert.Empty(t, graph.UnreachableStages())

	idx, found := model.StageIndexByName("BUILD")
	require.True(t, found)
	assert.Equal(t, 1, idx)
}

func TestBuildScratchBase(t *testing.T) {
	t.Parallel()

	model := buildModel(t, "FROM scratch\nCOPY app /app\n")
	stage := model.Stage(0)
	assert.False(t, stage.IsExternalBase())
	assert.Nil(t, stage.Instructions[0].Layer)
}

func TestBuildNumericCopyFrom(t *testing.T) {
	t.Parallel()

	model := buildModel(t, `FROM golang:1
RUN go build -o /out/app .

FROM alpine:3
COPY --from=0 /out/app /usr/local/bin/app
`)

	artifact := model.Stage(1).Instructions[1]
	assert.Equal(t, 0, artifact.FromStageIndex)
	assert.Equal(t, []int{0}, model.Graph().DirectDependencies(1))
}

func TestBuildExternalCopyFrom(t *testing.T) {
	t.Parallel()

	model := buildModel(t, `FROM alpine:3
COPY --from=busybox:musl /bin/busybox /bin/busybox
`)

	artifact := model.Stage(0).Instructions[1]
	assert.Equal(t, -1, artifact.FromStageIndex)
	assert.Equal(t, ProvenanceArtifactCopy, artifact.Layer.Provenance)
	assert.Equal(t, []string{"busybox:musl"}, model.Graph().ExternalRefs(0))
}

func TestBuildUnusedStageIsUnreachable(t *testing.T) {
	t.Parallel()

	model := buildModel(t, `FROM golang:1 AS build
RUN go build -o /out/app .

FROM golang:1 AS testbin
RUN go test ./...

FROM alpine:3
COPY --from=build /out/app /usr/local/bin/app
`)

	assert.Equal(t, []int{1}, model.Graph().UnreachableStages())
}

func TestBuildStructuralErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		content  string
		sentinel error
		detail   string
	}{
		{
			name: "duplicate stage name",
			content: `FROM alpine:3 AS base
FROM alpine:3 AS base
`,
			sentinel: ErrDuplicateStageName,
			detail:   "base",
		},
		{
			name: "duplicate stage name case-insensitive",
			content: `FROM alpine:3 AS Base
FROM alpine:3 AS BASE
`,
			sentinel: ErrDuplicateStageName,
		},
		{
			name: "unknown copy-from name",
			content: `FROM alpine:3
COPY --from=nonexistent /app /app
`,
			sentinel: ErrUnknownStageReference,
			detail:   "nonexistent",
		},
		{
			name: "forward copy-from name",
			content: `FROM alpine:3 AS first
COPY --from=second /app /app

FROM alpine:3 AS second
`,
			sentinel: ErrUnknownStageReference,
		},
		{
			name: "self copy-from",
			content: `FROM alpine:3 AS only
COPY --from=only /app /app
`,
			sentinel: ErrUnknownStageReference,
		},
		{
			name: "numeric copy-from out of range",
			content: `FROM alpine:3
COPY --from=1 /app /app
`,
			sentinel: ErrUnknownStageReference,
		},
		{
			name: "numeric copy-from self",
			content: `FROM alpine:3
COPY --from=0 /app /app
`,
			sentinel: ErrUnknownStageReference,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			err := buildError(t, tc.content)
			require.ErrorIs(t, err, tc.sentinel)

			var structural *StructuralError
			require.ErrorAs(t, err, &structural)
			assert.Equal(t, "Dockerfile", structural.Location.File)
			if tc.detail != "" {
				assert.Equal(t, tc.detail, structural.Detail)
			}
		})
	}
}

func TestBuildIsDeterministic(t *testing.T) {
	t.Parallel()

	content := `FROM node:12-alpine AS build
RUN npm ci

FROM nginx:stable-alpine
COPY --from=build /app/dist /usr/share/nginx/html
`
	pr, err := dockerfile.Parse(strings.NewReader(content))
	require.NoError(t, err)

	first, err := NewModel(pr, "Dockerfile")
	require.NoError(t, err)
	second, err := NewModel(pr, "Dockerfile")
	require.NoError(t, err)

	assert.Equal(t, first.StageCount(), second.StageCount())
	assert.Equal(t, first.Stages(), second.Stages())
}
