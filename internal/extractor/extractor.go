package extractor

import (
	"strings"

	"github.com/biokb/biokb-obo/internal/models"
	"github.com/biokb/biokb-obo/internal/ontology"
)

// XRefSeparator 交叉引用中数据库名与引用ID的分隔符
const XRefSeparator = ":"

// synonymProps 同义词注释属性 -> 同义词类型
var synonymProps = []struct {
	prop string
	typ  models.SynonymType
}{
	{ontology.PropExactSynonym, models.SynonymExact},
	{ontology.PropRelatedSynonym, models.SynonymRelated},
	{ontology.PropNarrowSynonym, models.SynonymNarrow},
	{ontology.PropBroadSynonym, models.SynonymBroad},
}

// Batch 一个本体抽取出的全部记录
type Batch struct {
	Terms       []models.Term
	Synonyms    []models.Synonym
	Identifiers []models.Identifier
	XRefs       []models.XRef
	Edges       []models.ParentChild
}

// Counts 各类记录数
func (b *Batch) Counts() models.Counts {
	return models.Counts{
		Terms:       len(b.Terms),
		Synonyms:    len(b.Synonyms),
		Identifiers: len(b.Identifiers),
		XRefs:       len(b.XRefs),
		ParentChild: len(b.Edges),
	}
}

// FirstOrAbsent 返回第一个值，序列为空时返回 nil
func FirstOrAbsent[T any](values []T) *T {
	if len(values) == 0 {
		return nil
	}
	v := values[0]
	return &v
}

// JoinOrAbsent 用换行连接全部值，序列为空时返回 nil
func JoinOrAbsent(values []string) *string {
	if len(values) == 0 {
		return nil
	}
	s := strings.Join(values, "\n")
	return &s
}

// SplitXRef 在第一个分隔符处拆分交叉引用；不含分隔符时 ok=false
// "DOID:1234:extra" -> ("DOID", "1234:extra")
func SplitXRef(raw string) (database, referenceID string, ok bool) {
	return strings.Cut(raw, XRefSeparator)
}

// OntologyRecord 由本体句柄元数据构造 Ontology 行
func OntologyRecord(id string, onto *ontology.Ontology) models.Ontology {
	return models.Ontology{
		ID:          id,
		IRI:         onto.BaseIRI,
		Version:     FirstOrAbsent(onto.Metadata.VersionInfo),
		Description: JoinOrAbsent(onto.Metadata.Description),
		Title:       FirstOrAbsent(onto.Metadata.Title),
		Date:        FirstOrAbsent(onto.Metadata.Date),
		License:     FirstOrAbsent(onto.Metadata.License),
	}
}

// Extract 把本体句柄转换为扁平的记录批次，纯函数，无 I/O
// 没有 label 的类被跳过；同一类标识符只保留第一次出现
func Extract(ontologyID string, onto *ontology.Ontology) *Batch {
	b := &Batch{
		Terms: make([]models.Term, 0, len(onto.Classes)),
	}
	seen := make(map[string]struct{}, len(onto.Classes))
	extracted := make([]*ontology.Class, 0, len(onto.Classes))

	for _, cls := range onto.Classes {
		labels := cls.Labels()
		if len(labels) == 0 {
			continue
		}
		termID := cls.Name
		if _, dup := seen[termID]; dup {
			continue
		}
		seen[termID] = struct{}{}
		extracted = append(extracted, cls)

		name := labels[0]
		if name == "" {
			name = termID
		}
		b.Terms = append(b.Terms, models.Term{
			ID:         termID,
			OntologyID: ontologyID,
			Name:       name,
			Definition: FirstOrAbsent(cls.Values(ontology.PropDefinition)),
		})

		for _, sp := range synonymProps {
			for _, syn := range cls.Values(sp.prop) {
				b.Synonyms = append(b.Synonyms, models.Synonym{
					OntologyID: ontologyID,
					TermID:     termID,
					Synonym:    syn,
					Type:       sp.typ,
				})
			}
		}

		for _, raw := range cls.Values(ontology.PropDbXref) {
			database, refID, ok := SplitXRef(raw)
			if !ok {
				continue
			}
			b.XRefs = append(b.XRefs, models.XRef{
				OntologyID:  ontologyID,
				TermID:      termID,
				Database:    database,
				ReferenceID: refID,
			})
		}

		for _, altID := range cls.Values(ontology.PropAlternativeID) {
			b.Identifiers = append(b.Identifiers, models.Identifier{
				OntologyID: ontologyID,
				TermID:     termID,
				Identifier: altID,
			})
		}
	}

	// 层级边在全部术语确定后收集，两端都必须是已抽取的术语
	edgeSeen := make(map[[2]string]struct{})
	for _, cls := range extracted {
		for _, parent := range cls.Parents {
			if _, ok := seen[parent]; !ok || parent == cls.Name {
				continue
			}
			key := [2]string{parent, cls.Name}
			if _, dup := edgeSeen[key]; dup {
				continue
			}
			edgeSeen[key] = struct{}{}
			b.Edges = append(b.Edges, models.ParentChild{
				OntologyID: ontologyID,
				ParentID:   parent,
				ChildID:    cls.Name,
			})
		}
	}

	return b
}
