// Package dockerfile wraps BuildKit's Dockerfile parser and exposes the
// typed stages and instructions the rest of the analyzer works with.
package dockerfile

import (
	"bytes"
	"io"
	"os"

	"github.com/moby/buildkit/frontend/dockerfile/instructions"
	"github.com/moby/buildkit/frontend/dockerfile/parser"
)

// ParseResult contains the parsed build description.
type ParseResult struct {
	// AST is the parsed Dockerfile AST from BuildKit.
	AST *parser.Result

	// Stages contains the parsed build stages with typed instructions.
	Stages []instructions.Stage

	// MetaArgs contains ARG instructions that appear before the first FROM.
	MetaArgs []instructions.ArgCommand

	// Source is the raw content the result was parsed from.
	Source []byte

	// TotalLines is the total number of lines in the build description.
	TotalLines int
}

// openInput opens a build description path for reading.
// If path is "-", returns os.Stdin and a no-op closer.
func openInput(path string) (io.Reader, func() error, error) {
	if path == "-" {
		return os.Stdin, func() error { return nil }, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	return f, f.Close, nil
}

// ReadInput reads a build description from a file path (or stdin for "-").
func ReadInput(path string) ([]byte, error) {
	r, closer, err := openInput(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = closer() }()

	return io.ReadAll(r)
}

// ParseFile parses a build description from a file path (or stdin for "-").
func ParseFile(path string) (*ParseResult, error) {
	content, err := ReadInput(path)
	if err != nil {
		return nil, err
	}
	return Parse(bytes.NewReader(content))
}

// Parse parses a build description from a reader.
// Both syntax errors from the AST parser and instruction-level errors
// (e.g. COPY with a single argument) are returned as-is; callers wrap
// them into their own error taxonomy.
func Parse(r io.Reader) (*ParseResult, error) {
	content, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	ast, err := parser.Parse(bytes.NewReader(content))
	if err != nil {
		return nil, err
	}

	stages, metaArgs, err := instructions.Parse(ast.AST, nil)
	if err != nil {
		return nil, err
	}

	return &ParseResult{
		AST:        ast,
		Stages:     stages,
		MetaArgs:   metaArgs,
		Source:     content,
		TotalLines: countLines(content),
	}, nil
}

func countLines(content []byte) int {
	if len(content) == 0 {
		return 0
	}
	n := bytes.Count(content, []byte("\n"))
	if content[len(content)-1] != '\n' {
		n++
	}
	return n
}
