package models

// 导入结果中的记录类型键
const (
	KindTerms       = "terms"
	KindSynonyms    = "synonyms"
	KindIdentifiers = "identifiers"
	KindXRefs       = "xrefs"
	KindParentChild = "parent_child"
)

// Kinds 记录类型的固定输出顺序
var Kinds = []string{KindTerms, KindSynonyms, KindIdentifiers, KindXRefs, KindParentChild}

// Counts 各类记录的插入数量
type Counts struct {
	Terms       int `json:"terms"`
	Synonyms    int `json:"synonyms"`
	Identifiers int `json:"identifiers"`
	XRefs       int `json:"xrefs"`
	ParentChild int `json:"parent_child"`
}

// Add 累加另一组计数
func (c *Counts) Add(other Counts) {
	c.Terms += other.Terms
	c.Synonyms += other.Synonyms
	c.Identifiers += other.Identifiers
	c.XRefs += other.XRefs
	c.ParentChild += other.ParentChild
}

// Total 所有记录数之和
func (c Counts) Total() int {
	return c.Terms + c.Synonyms + c.Identifiers + c.XRefs + c.ParentChild
}

// Map 转换为 记录类型 -> 数量
func (c Counts) Map() map[string]int {
	return map[string]int{
		KindTerms:       c.Terms,
		KindSynonyms:    c.Synonyms,
		KindIdentifiers: c.Identifiers,
		KindXRefs:       c.XRefs,
		KindParentChild: c.ParentChild,
	}
}
