package ontology

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
)

// Format 本体文件格式
type Format string

const (
	FormatOWL Format = "owl"
	FormatOBO Format = "obo"
)

// Parser 本体文件解析器
type Parser struct {
	logger *zap.Logger
}

// NewParser 创建解析器
func NewParser(logger *zap.Logger) *Parser {
	return &Parser{logger: logger}
}

// Load 解析本地文件，格式由扩展名决定；无法判断时根据首个非空字符嗅探
func (p *Parser) Load(ctx context.Context, path string) (*Ontology, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open ontology file: %w", err)
	}
	defer f.Close()

	br := bufio.NewReaderSize(f, scannerBufferSize)
	format := DetectFormat(path)
	if format == "" {
		format = sniffFormat(br)
	}

	p.logger.Info("Parsing ontology file",
		zap.String("path", path),
		zap.String("format", string(format)),
	)

	var ont *Ontology
	switch format {
	case FormatOBO:
		ont, err = ParseOBO(ctx, br)
	default:
		ont, err = ParseOWL(ctx, br)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", filepath.Base(path), err)
	}

	p.logger.Info("Parsed ontology",
		zap.String("name", ont.Name),
		zap.String("base_iri", ont.BaseIRI),
		zap.Int("classes", len(ont.Classes)),
	)
	return ont, nil
}

// DetectFormat 根据扩展名判断格式，未知时返回空
func DetectFormat(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".obo":
		return FormatOBO
	case ".owl", ".xml", ".rdf":
		return FormatOWL
	}
	return ""
}

func sniffFormat(br *bufio.Reader) Format {
	head, _ := br.Peek(512)
	if trimmed := strings.TrimSpace(string(head)); strings.HasPrefix(trimmed, "<") {
		return FormatOWL
	}
	return FormatOBO
}
