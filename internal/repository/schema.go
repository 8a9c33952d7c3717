package repository

import (
	"context"
	"fmt"

	"github.com/biokb/biokb-obo/internal/database"
	"github.com/biokb/biokb-obo/internal/models"
)

// 表名
const (
	TableOntology    = models.TablePrefix + "ontology"
	TableTerm        = models.TablePrefix + "term"
	TableSynonym     = models.TablePrefix + "synonym"
	TableIdentifier  = models.TablePrefix + "identifier"
	TableXRef        = models.TablePrefix + "xref"
	TableParentChild = models.TablePrefix + "parent_child"
)

// childTables 依赖 obo_term 的表，按删除顺序排列
var childTables = []string{TableParentChild, TableSynonym, TableIdentifier, TableXRef}

// dropOrder 先子表后父表
var dropOrder = append(append([]string{}, childTables...), TableTerm, TableOntology)

// schemaStatements 返回建表语句；外键声明 ON DELETE CASCADE，删除时仍显式按子表->父表顺序执行
func schemaStatements(d database.Dialect) []string {
	serial := "INTEGER PRIMARY KEY AUTOINCREMENT"
	if d.Name == database.Postgres.Name {
		serial = "BIGSERIAL PRIMARY KEY"
	}

	termFK := func(col string) string {
		return fmt.Sprintf("FOREIGN KEY (ontology_id, %s) REFERENCES %s (ontology_id, id) ON DELETE CASCADE", col, TableTerm)
	}

	return []string{
		`CREATE TABLE IF NOT EXISTS ` + TableOntology + ` (
			id          VARCHAR(255) PRIMARY KEY,
			iri         VARCHAR(500),
			version     VARCHAR(100),
			description TEXT,
			title       VARCHAR(500),
			date        VARCHAR(100),
			license     VARCHAR(255)
		)`,
		`CREATE TABLE IF NOT EXISTS ` + TableTerm + ` (
			ontology_id VARCHAR(255) NOT NULL REFERENCES ` + TableOntology + ` (id) ON DELETE CASCADE,
			id          VARCHAR(255) NOT NULL,
			name        TEXT NOT NULL,
			definition  TEXT,
			PRIMARY KEY (ontology_id, id)
		)`,
		`CREATE TABLE IF NOT EXISTS ` + TableSynonym + ` (
			id          ` + serial + `,
			ontology_id VARCHAR(255) NOT NULL,
			term_id     VARCHAR(255) NOT NULL,
			synonym     TEXT NOT NULL,
			type        VARCHAR(16) NOT NULL CHECK (type IN ('exact', 'related', 'narrow', 'broad')),
			` + termFK("term_id") + `
		)`,
		`CREATE TABLE IF NOT EXISTS ` + TableIdentifier + ` (
			id          ` + serial + `,
			ontology_id VARCHAR(255) NOT NULL,
			term_id     VARCHAR(255) NOT NULL,
			identifier  VARCHAR(255) NOT NULL,
			` + termFK("term_id") + `
		)`,
		`CREATE TABLE IF NOT EXISTS ` + TableXRef + ` (
			id           ` + serial + `,
			ontology_id  VARCHAR(255) NOT NULL,
			term_id      VARCHAR(255) NOT NULL,
			"database"   VARCHAR(100) NOT NULL,
			reference_id VARCHAR(255) NOT NULL,
			` + termFK("term_id") + `
		)`,
		`CREATE TABLE IF NOT EXISTS ` + TableParentChild + ` (
			ontology_id VARCHAR(255) NOT NULL,
			parent_id   VARCHAR(255) NOT NULL,
			child_id    VARCHAR(255) NOT NULL,
			PRIMARY KEY (ontology_id, parent_id, child_id),
			` + termFK("parent_id") + `,
			` + termFK("child_id") + `
		)`,
		`CREATE INDEX IF NOT EXISTS idx_obo_term_name ON ` + TableTerm + ` (name)`,
		`CREATE INDEX IF NOT EXISTS idx_obo_synonym_term ON ` + TableSynonym + ` (ontology_id, term_id)`,
		`CREATE INDEX IF NOT EXISTS idx_obo_identifier_term ON ` + TableIdentifier + ` (ontology_id, term_id)`,
		`CREATE INDEX IF NOT EXISTS idx_obo_identifier_value ON ` + TableIdentifier + ` (identifier)`,
		`CREATE INDEX IF NOT EXISTS idx_obo_xref_term ON ` + TableXRef + ` (ontology_id, term_id)`,
		`CREATE INDEX IF NOT EXISTS idx_obo_xref_reference ON ` + TableXRef + ` ("database", reference_id)`,
		`CREATE INDEX IF NOT EXISTS idx_obo_parent_child_child ON ` + TableParentChild + ` (ontology_id, child_id)`,
	}
}

// CreateSchema 创建全部表（已存在则跳过）
func (r *OntologyRepository) CreateSchema(ctx context.Context) error {
	for _, stmt := range schemaStatements(r.dialect) {
		if _, err := r.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to create schema: %w", err)
		}
	}
	return nil
}

// DropSchema 删除全部表，先子表后父表
func (r *OntologyRepository) DropSchema(ctx context.Context) error {
	for _, table := range dropOrder {
		if _, err := r.db.ExecContext(ctx, "DROP TABLE IF EXISTS "+table); err != nil {
			return fmt.Errorf("failed to drop table %s: %w", table, err)
		}
	}
	return nil
}

// RebuildSchema 删除并重建全部表（不可逆）
func (r *OntologyRepository) RebuildSchema(ctx context.Context) error {
	if err := r.DropSchema(ctx); err != nil {
		return err
	}
	return r.CreateSchema(ctx)
}
