package ontology

import (
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"regexp"
	"slices"
	"strings"
)

// OWL/RDF namespace URIs
const (
	nsOWL  = "http://www.w3.org/2002/07/owl#"
	nsRDF  = "http://www.w3.org/1999/02/22-rdf-syntax-ns#"
	nsRDFS = "http://www.w3.org/2000/01/rdf-schema#"
)

// rdf:type 的本地名
const propType = "type"

// 每处理多少个 token 检查一次 ctx
const cancelCheckInterval = 4096

var entityDecl = regexp.MustCompile(`<!ENTITY\s+(\S+)\s+"([^"]*)"\s*>`)

// ParseOWL 解析 OWL RDF/XML 格式的本体
func ParseOWL(ctx context.Context, r io.Reader) (*Ontology, error) {
	decoder := xml.NewDecoder(r)
	decoder.Entity = make(map[string]string)
	for k, v := range xml.HTMLEntity {
		decoder.Entity[k] = v
	}

	ont := newOntology()
	tokens := 0
	// 顶层 rdf:Description，解析结束后合并到同一主语的类
	var descriptions []*Class

	for {
		tokens++
		if tokens%cancelCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}

		tok, err := decoder.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("malformed OWL document: %w", err)
		}

		switch t := tok.(type) {
		case xml.Directive:
			// <!DOCTYPE rdf:RDF [ <!ENTITY obo "..."> ]>
			for _, m := range entityDecl.FindAllStringSubmatch(string(t), -1) {
				decoder.Entity[m[1]] = m[2]
			}
		case xml.StartElement:
			switch {
			case matchElement(t, nsRDF, "RDF"):
				// 容器元素，继续向下
			case matchElement(t, nsOWL, "Ontology"):
				if err := parseOWLOntologyHeader(decoder, t, ont); err != nil {
					return nil, err
				}
			case matchElement(t, nsOWL, "Class"):
				about := getAttr(t, nsRDF, "about")
				if about == "" {
					// 匿名类
					if err := decoder.Skip(); err != nil {
						return nil, fmt.Errorf("malformed OWL document: %w", err)
					}
					continue
				}
				if err := parseOWLClass(decoder, ont.classFor(about)); err != nil {
					return nil, err
				}
			case matchElement(t, nsRDF, "Description"):
				about := getAttr(t, nsRDF, "about")
				if about == "" {
					if err := decoder.Skip(); err != nil {
						return nil, fmt.Errorf("malformed OWL document: %w", err)
					}
					continue
				}
				d := &Class{Name: localName(about), IRI: about}
				if err := parseOWLClass(decoder, d); err != nil {
					return nil, err
				}
				descriptions = append(descriptions, d)
			default:
				if err := decoder.Skip(); err != nil {
					return nil, fmt.Errorf("malformed OWL document: %w", err)
				}
			}
		}
	}

	if ont.Name == "" {
		return nil, fmt.Errorf("no owl:Ontology declaration found")
	}
	mergeDescriptions(ont, descriptions)
	return ont, nil
}

// mergeDescriptions 将 rdf:Description 的三元组并入同一 IRI 的类
// rdf:type owl:Class 的描述本身即类声明；其余主语不是类时忽略
func mergeDescriptions(ont *Ontology, descriptions []*Class) {
	for _, d := range descriptions {
		c := ont.Class(d.Name)
		if c == nil {
			if !slices.Contains(d.Values(propType), nsOWL+"Class") {
				continue
			}
			c = ont.classFor(d.IRI)
		}
		delete(d.Annotations, propType)
		c.merge(d)
	}
}

func matchElement(se xml.StartElement, ns, local string) bool {
	return se.Name.Space == ns && se.Name.Local == local
}

func getAttr(se xml.StartElement, ns, local string) string {
	for _, a := range se.Attr {
		if a.Name.Space == ns && a.Name.Local == local {
			return a.Value
		}
	}
	return ""
}

func parseOWLOntologyHeader(decoder *xml.Decoder, se xml.StartElement, ont *Ontology) error {
	ont.setIRI(getAttr(se, nsRDF, "about"))

	for {
		tok, err := decoder.Token()
		if err != nil {
			return fmt.Errorf("malformed owl:Ontology header: %w", err)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "versionInfo":
				ont.Metadata.VersionInfo = appendNonEmpty(ont.Metadata.VersionInfo, readCharData(decoder))
			case "description":
				ont.Metadata.Description = appendNonEmpty(ont.Metadata.Description, readCharData(decoder))
			case "title":
				ont.Metadata.Title = appendNonEmpty(ont.Metadata.Title, readCharData(decoder))
			case "date":
				ont.Metadata.Date = appendNonEmpty(ont.Metadata.Date, readCharData(decoder))
			case "license":
				if res := getAttr(t, nsRDF, "resource"); res != "" {
					ont.Metadata.License = append(ont.Metadata.License, res)
					if err := decoder.Skip(); err != nil {
						return fmt.Errorf("malformed owl:Ontology header: %w", err)
					}
					continue
				}
				ont.Metadata.License = appendNonEmpty(ont.Metadata.License, readCharData(decoder))
			default:
				if err := decoder.Skip(); err != nil {
					return fmt.Errorf("malformed owl:Ontology header: %w", err)
				}
			}
		case xml.EndElement:
			return nil
		}
	}
}

func parseOWLClass(decoder *xml.Decoder, c *Class) error {
	for {
		tok, err := decoder.Token()
		if err != nil {
			return fmt.Errorf("malformed owl:Class %s: %w", c.Name, err)
		}

		switch el := tok.(type) {
		case xml.StartElement:
			if matchElement(el, nsRDFS, "subClassOf") {
				if res := getAttr(el, nsRDF, "resource"); res != "" {
					c.Parents = append(c.Parents, localName(res))
				}
				// owl:Restriction 等复杂父类不产生层级边
				if err := decoder.Skip(); err != nil {
					return fmt.Errorf("malformed owl:Class %s: %w", c.Name, err)
				}
				continue
			}

			name := el.Name.Local
			if res := getAttr(el, nsRDF, "resource"); res != "" {
				c.add(name, res)
				if err := decoder.Skip(); err != nil {
					return fmt.Errorf("malformed owl:Class %s: %w", c.Name, err)
				}
				continue
			}
			if val := readCharData(decoder); val != "" {
				c.add(name, val)
			}
		case xml.EndElement:
			return nil
		}
	}
}

// readCharData 读取当前元素的全部文本，并消费到匹配的结束标签
func readCharData(decoder *xml.Decoder) string {
	var sb strings.Builder
	for {
		tok, err := decoder.Token()
		if err != nil {
			return sb.String()
		}
		switch t := tok.(type) {
		case xml.CharData:
			sb.Write(t)
		case xml.StartElement:
			sb.WriteString(readCharData(decoder))
		case xml.EndElement:
			return strings.TrimSpace(sb.String())
		}
	}
}

func appendNonEmpty(values []string, v string) []string {
	if v == "" {
		return values
	}
	return append(values, v)
}
