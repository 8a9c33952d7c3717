package ontology

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
)

const scannerBufferSize = 1 << 20 // 1 MB

// OBO 同义词作用域 -> 注释属性
var synonymScopes = map[string]string{
	"EXACT":   PropExactSynonym,
	"RELATED": PropRelatedSynonym,
	"NARROW":  PropNarrowSynonym,
	"BROAD":   PropBroadSynonym,
}

// ParseOBO 解析 OBO 1.4 平面文件格式的本体
// 标签映射到与 OWL 相同的注释属性名，抽取器无需区分来源格式
func ParseOBO(ctx context.Context, r io.Reader) (*Ontology, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, scannerBufferSize), scannerBufferSize)

	ont := newOntology()
	var current *Class // 当前 [Term] 节；其他节为 nil
	inHeader := true
	lineNo := 0

	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || line[0] == '!' {
			continue
		}

		if line[0] == '[' {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			inHeader = false
			current = nil
			if line == "[Term]" {
				current = &Class{}
			}
			continue
		}

		key, val, ok := strings.Cut(line, ":")
		if !ok {
			return nil, fmt.Errorf("malformed OBO line %d: %q", lineNo, line)
		}
		val = stripTrailingModifiers(strings.TrimSpace(val))

		if inHeader {
			parseHeaderLine(ont, key, val)
			continue
		}
		if current == nil {
			continue
		}
		if key == "id" {
			// 同一 ID 的重复节合并到已有类
			current = ont.classFor(oboPurl + oboIDToName(val))
			continue
		}
		if current.Name == "" {
			return nil, fmt.Errorf("malformed OBO line %d: %s tag before id", lineNo, key)
		}
		parseTermLine(current, key, val)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read OBO document: %w", err)
	}

	if ont.Name == "" {
		return nil, fmt.Errorf("no ontology header tag found")
	}
	return ont, nil
}

func parseHeaderLine(ont *Ontology, key, val string) {
	switch key {
	case "ontology":
		ont.setIRI(oboPurl + val + ".owl")
	case "data-version":
		ont.Metadata.VersionInfo = append(ont.Metadata.VersionInfo, val)
	case "date":
		ont.Metadata.Date = appendNonEmpty(ont.Metadata.Date, val)
	case "property_value":
		prop, v := parsePropertyValue(val)
		switch localName(prop) {
		case "description":
			ont.Metadata.Description = appendNonEmpty(ont.Metadata.Description, v)
		case "title":
			ont.Metadata.Title = appendNonEmpty(ont.Metadata.Title, v)
		case "versionInfo":
			ont.Metadata.VersionInfo = appendNonEmpty(ont.Metadata.VersionInfo, v)
		case "date":
			ont.Metadata.Date = appendNonEmpty(ont.Metadata.Date, v)
		case "license":
			ont.Metadata.License = appendNonEmpty(ont.Metadata.License, v)
		}
	}
}

func parseTermLine(c *Class, key, val string) {
	switch key {
	case "name":
		c.add(PropLabel, val)
	case "def":
		c.add(PropDefinition, parseQuoted(val))
	case "synonym":
		text, scope := parseSynonym(val)
		if prop, ok := synonymScopes[scope]; ok {
			c.add(prop, text)
		}
	case "xref":
		// xref: NCIT:C9305 "description"
		if fields := strings.Fields(val); len(fields) > 0 {
			c.add(PropDbXref, fields[0])
		}
	case "alt_id":
		c.add(PropAlternativeID, val)
	case "is_a":
		id, _, _ := strings.Cut(val, "!")
		c.Parents = append(c.Parents, oboIDToName(strings.TrimSpace(id)))
	}
}

// stripTrailingModifiers 去掉行尾的 {...} 修饰符
func stripTrailingModifiers(val string) string {
	if !strings.HasSuffix(val, "}") {
		return val
	}
	if i := strings.LastIndex(val, " {"); i >= 0 {
		return strings.TrimSpace(val[:i])
	}
	return val
}

// parseQuoted 提取第一对双引号之间的文本（支持 \" 转义）
func parseQuoted(s string) string {
	start := strings.IndexByte(s, '"')
	if start < 0 {
		return s
	}
	var sb strings.Builder
	for i := start + 1; i < len(s); i++ {
		switch s[i] {
		case '\\':
			if i+1 < len(s) {
				i++
				sb.WriteByte(s[i])
			}
		case '"':
			return sb.String()
		default:
			sb.WriteByte(s[i])
		}
	}
	return sb.String()
}

// parseSynonym 解析: "text" SCOPE [TYPE] [xrefs]
func parseSynonym(s string) (string, string) {
	text := parseQuoted(s)
	end := closingQuote(s)
	if end < 0 {
		return text, ""
	}
	fields := strings.Fields(s[end+1:])
	if len(fields) == 0 {
		return text, ""
	}
	return text, fields[0]
}

// closingQuote 返回与第一个引号配对的结束引号位置
func closingQuote(s string) int {
	start := strings.IndexByte(s, '"')
	if start < 0 {
		return -1
	}
	for i := start + 1; i < len(s); i++ {
		switch s[i] {
		case '\\':
			i++
		case '"':
			return i
		}
	}
	return -1
}

// parsePropertyValue 解析: "key value xsd:type" 或 "key \"value\" xsd:type"
func parsePropertyValue(val string) (string, string) {
	key, rest, ok := strings.Cut(val, " ")
	if !ok {
		return "", ""
	}
	rest = strings.TrimSpace(rest)
	if strings.HasPrefix(rest, "\"") {
		return key, parseQuoted(rest)
	}
	v, _, _ := strings.Cut(rest, " ")
	return key, v
}
