package ontology

import "strings"

// 类注释属性名（oboInOwl / IAO 的本地名）
const (
	PropLabel          = "label"
	PropDefinition     = "IAO_0000115"
	PropExactSynonym   = "hasExactSynonym"
	PropRelatedSynonym = "hasRelatedSynonym"
	PropNarrowSynonym  = "hasNarrowSynonym"
	PropBroadSynonym   = "hasBroadSynonym"
	PropDbXref         = "hasDbXref"
	PropAlternativeID  = "hasAlternativeId"
)

const (
	oboPurl               = "http://purl.obolibrary.org/obo/"
	defaultInitialClasses = 4096
)

// Metadata 本体元数据，各字段可能多值
type Metadata struct {
	VersionInfo []string
	Description []string
	Title       []string
	Date        []string // dc:date / oboInOwl:date / OBO date 标签
	License     []string // dc:license / terms:license，资源或文本
}

// Class 本体中的一个具名类
type Class struct {
	Name        string              // IRI 的本地名，如 "DOID_162"
	IRI         string
	Annotations map[string][]string // 注释属性本地名 -> 值
	Parents     []string            // is_a 父类本地名
}

// Values 返回某注释属性的全部值，不存在时为 nil
func (c *Class) Values(prop string) []string {
	if c == nil || c.Annotations == nil {
		return nil
	}
	return c.Annotations[prop]
}

// Labels 返回 rdfs:label 的全部值
func (c *Class) Labels() []string {
	return c.Values(PropLabel)
}

// merge 合并另一描述中的注释和父类
func (c *Class) merge(other *Class) {
	for prop, values := range other.Annotations {
		for _, v := range values {
			c.add(prop, v)
		}
	}
	c.Parents = append(c.Parents, other.Parents...)
}

func (c *Class) add(prop, value string) {
	if c.Annotations == nil {
		c.Annotations = make(map[string][]string, 8)
	}
	c.Annotations[prop] = append(c.Annotations[prop], value)
}

// Ontology 加载后的本体句柄
type Ontology struct {
	Name     string // 逻辑名称，如 "doid"
	BaseIRI  string
	Metadata Metadata
	Classes  []*Class // 按首次出现的顺序

	index map[string]*Class
}

func newOntology() *Ontology {
	return &Ontology{
		Classes: make([]*Class, 0, defaultInitialClasses),
		index:   make(map[string]*Class, defaultInitialClasses),
	}
}

// Class 按本地名查找类
func (o *Ontology) Class(name string) *Class {
	return o.index[name]
}

// classFor 返回 IRI 对应的类；重复声明的同一类合并为一个
func (o *Ontology) classFor(iri string) *Class {
	name := localName(iri)
	if c, ok := o.index[name]; ok {
		return c
	}
	c := &Class{Name: name, IRI: iri}
	o.index[name] = c
	o.Classes = append(o.Classes, c)
	return c
}

// setIRI 设置本体 IRI，推导 base IRI 和逻辑名称
func (o *Ontology) setIRI(iri string) {
	if iri == "" {
		return
	}
	o.BaseIRI = iri
	if !strings.HasSuffix(iri, "#") && !strings.HasSuffix(iri, "/") {
		o.BaseIRI = iri + "#"
	}
	o.Name = nameFromIRI(iri)
}

// localName 取 IRI 最后一个 '#' 或 '/' 之后的部分
// http://purl.obolibrary.org/obo/DOID_162 -> DOID_162
func localName(iri string) string {
	if i := strings.LastIndexAny(iri, "#/"); i >= 0 && i < len(iri)-1 {
		return iri[i+1:]
	}
	return iri
}

// nameFromIRI 由本体 IRI 推导名称
// http://purl.obolibrary.org/obo/doid.owl -> doid
func nameFromIRI(iri string) string {
	name := localName(strings.TrimRight(iri, "#/"))
	if dot := strings.LastIndexByte(name, '.'); dot > 0 {
		name = name[:dot]
	}
	return name
}

// oboIDToName 把 OBO 标识符转换为 OWL 本地名
// DOID:0001816 -> DOID_0001816
func oboIDToName(id string) string {
	if prefix, local, ok := strings.Cut(id, ":"); ok && !strings.Contains(local, "/") {
		return prefix + "_" + local
	}
	return id
}
