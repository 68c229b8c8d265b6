// Package parse lowers C# source into the syntax model using tree-sitter.
package parse

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"
	"unicode/utf8"

	sitter "github.com/smacker/go-tree-sitter"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/phobologic/notifyguard/internal/lang"
	"github.com/phobologic/notifyguard/internal/syntax"
	"github.com/phobologic/notifyguard/internal/telemetry"
)

// DefaultMaxFileSize is the largest file Parse accepts unless overridden.
const DefaultMaxFileSize = 1_000_000 // 1 MB

var (
	// ErrFileTooLarge is returned when the source exceeds the size limit.
	ErrFileTooLarge = errors.New("file too large")
	// ErrInvalidContent is returned when the source is not valid UTF-8.
	ErrInvalidContent = errors.New("invalid content")
)

// Parser turns C# source into syntax.File values.
// A Parser wraps a tree-sitter parser and must not be shared between goroutines.
type Parser struct {
	parser      *sitter.Parser
	comments    *sitter.Query
	maxFileSize int64
}

// Option configures a Parser.
type Option func(*Parser)

// WithMaxFileSize sets the maximum accepted source size in bytes.
// Non-positive values are ignored.
func WithMaxFileSize(n int64) Option {
	return func(p *Parser) {
		if n > 0 {
			p.maxFileSize = n
		}
	}
}

// New creates a C# parser.
func New(opts ...Option) (*Parser, error) {
	cs := lang.Languages[lang.CSharp]
	q, err := cs.GetCommentQuery()
	if err != nil {
		return nil, fmt.Errorf("csharp comment query: %w", err)
	}
	p := &Parser{
		parser:      cs.NewParser(),
		comments:    q,
		maxFileSize: DefaultMaxFileSize,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// Parse lowers source into a syntax.File. Syntax errors do not fail the
// parse: erroneous regions lower to Unknown nodes and File.HasErrors is set.
func (p *Parser) Parse(ctx context.Context, source []byte, path string) (*syntax.File, error) {
	ctx, span := telemetry.Tracer().Start(ctx, "parse.Parse")
	defer span.End()
	span.SetAttributes(
		attribute.String("file", path),
		attribute.Int("size_bytes", len(source)),
	)

	start := time.Now()

	if int64(len(source)) > p.maxFileSize {
		telemetry.RecordParse(time.Since(start), false)
		span.SetStatus(codes.Error, "file too large")
		return nil, fmt.Errorf("%w: size %d exceeds limit %d", ErrFileTooLarge, len(source), p.maxFileSize)
	}
	if !utf8.Valid(source) {
		telemetry.RecordParse(time.Since(start), false)
		span.SetStatus(codes.Error, "invalid utf-8")
		return nil, fmt.Errorf("%w: content is not valid UTF-8", ErrInvalidContent)
	}

	file := &syntax.File{Path: path, Source: source}
	if len(source) == 0 {
		telemetry.RecordParse(time.Since(start), true)
		return file, nil
	}

	tree, err := p.parser.ParseCtx(ctx, nil, source)
	if err != nil {
		telemetry.RecordParse(time.Since(start), false)
		span.RecordError(err)
		return nil, fmt.Errorf("tree-sitter parse failed: %w", err)
	}
	defer tree.Close()

	root := tree.RootNode()
	if root.HasError() {
		file.HasErrors = true
		slog.Debug("source contains syntax errors", slog.String("file", path))
	}

	file.Comments = p.collectComments(root, source)

	l := &lowerer{src: source, file: file}
	l.unit(root)

	span.SetAttributes(
		attribute.Int("types", len(file.Types)),
		attribute.Bool("has_errors", file.HasErrors),
	)
	telemetry.RecordParse(time.Since(start), true)
	return file, nil
}

func (p *Parser) collectComments(root *sitter.Node, source []byte) []syntax.Comment {
	qc := sitter.NewQueryCursor()
	defer qc.Close()
	qc.Exec(p.comments, root)

	var out []syntax.Comment
	for {
		match, ok := qc.NextMatch()
		if !ok {
			break
		}
		for _, c := range match.Captures {
			out = append(out, syntax.Comment{
				Text: lang.NodeText(c.Node, source),
				Line: int(c.Node.StartPoint().Row) + 1,
				Span: span(c.Node),
			})
		}
	}
	return out
}

func span(n *sitter.Node) syntax.Span {
	if n == nil {
		return syntax.Span{}
	}
	return syntax.Span{Start: int(n.StartByte()), End: int(n.EndByte())}
}
