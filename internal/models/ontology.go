package models

import (
	"errors"
	"fmt"
	"strings"
)

// TablePrefix 所有表名前缀
const TablePrefix = "obo_"

// ErrInvalidOntologyName 名称不能作为本体ID和本地文件名
var ErrInvalidOntologyName = errors.New("invalid ontology name")

// ValidateOntologyName 名称非空、无首尾空白，不含路径分隔符或 ".."
func ValidateOntologyName(name string) error {
	switch {
	case strings.TrimSpace(name) == "":
		return fmt.Errorf("%w: empty", ErrInvalidOntologyName)
	case strings.TrimSpace(name) != name:
		return fmt.Errorf("%w: %q has surrounding whitespace", ErrInvalidOntologyName, name)
	case strings.ContainsAny(name, "/\\\x00"), strings.Contains(name, ".."):
		return fmt.Errorf("%w: %q", ErrInvalidOntologyName, name)
	}
	return nil
}

// Ontology 本体（obo_ontology）
// ID 为逻辑名称，如 "doid"
type Ontology struct {
	ID          string  `json:"id"`
	IRI         string  `json:"iri"`
	Version     *string `json:"version,omitempty"`
	Description *string `json:"description,omitempty"`
	Title       *string `json:"title,omitempty"`
	Date        *string `json:"date,omitempty"`
	License     *string `json:"license,omitempty"`
}

// Term 本体术语（obo_term），主键 (ontology_id, id)
type Term struct {
	ID         string  `json:"id"` // 类的原生短名称，如 "DOID_162"
	OntologyID string  `json:"ontology_id"`
	Name       string  `json:"name"`
	Definition *string `json:"definition,omitempty"`
}

// SynonymType 同义词类型
type SynonymType string

const (
	SynonymExact   SynonymType = "exact"
	SynonymRelated SynonymType = "related"
	SynonymNarrow  SynonymType = "narrow"
	SynonymBroad   SynonymType = "broad"
)

// Valid 是否为已知的同义词类型
func (t SynonymType) Valid() bool {
	switch t {
	case SynonymExact, SynonymRelated, SynonymNarrow, SynonymBroad:
		return true
	}
	return false
}

// Synonym 术语同义词（obo_synonym），不去重
type Synonym struct {
	OntologyID string      `json:"ontology_id"`
	TermID     string      `json:"term_id"`
	Synonym    string      `json:"synonym"`
	Type       SynonymType `json:"type"`
}

// Identifier 备用标识符（obo_identifier）
type Identifier struct {
	OntologyID string `json:"ontology_id"`
	TermID     string `json:"term_id"`
	Identifier string `json:"identifier"`
}

// XRef 外部数据库交叉引用（obo_xref）
type XRef struct {
	OntologyID  string `json:"ontology_id"`
	TermID      string `json:"term_id"`
	Database    string `json:"database"`
	ReferenceID string `json:"reference_id"`
}

// ParentChild 同一本体内的层级边（obo_parent_child），按术语ID寻址
type ParentChild struct {
	OntologyID string `json:"ontology_id"`
	ParentID   string `json:"parent_id"`
	ChildID    string `json:"child_id"`
}
