package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/biokb/biokb-obo/internal/database"
	"github.com/biokb/biokb-obo/internal/models"

	"go.uber.org/zap"
)

// ErrOntologyNotFound 本体不存在
var ErrOntologyNotFound = errors.New("ontology not found")

// DefaultBatchSize 每条 INSERT 语句的默认行数
const DefaultBatchSize = 500

// OntologyRepository 本体存储适配器
// 只负责表结构和批量写入，不包含业务逻辑
type OntologyRepository struct {
	db        *sql.DB
	dialect   database.Dialect
	batchSize int
	logger    *zap.Logger
}

// NewOntologyRepository 创建本体仓库
func NewOntologyRepository(db *sql.DB, dialect database.Dialect, batchSize int, logger *zap.Logger) *OntologyRepository {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	return &OntologyRepository{
		db:        db,
		dialect:   dialect,
		batchSize: batchSize,
		logger:    logger,
	}
}

// ph 返回第 n 个占位符
func (r *OntologyRepository) ph(n int) string {
	return r.dialect.Placeholder(n)
}

// ontologyColumns obo_ontology 的查询列，顺序与 scanOntology 一致
const ontologyColumns = `id, iri, version, description, title, date, license`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanOntology(s rowScanner) (*models.Ontology, error) {
	var (
		o                                models.Ontology
		iri, version, description, title sql.NullString
		date, license                    sql.NullString
	)
	if err := s.Scan(&o.ID, &iri, &version, &description, &title, &date, &license); err != nil {
		return nil, err
	}
	o.IRI = iri.String
	o.Version = nullableString(version)
	o.Description = nullableString(description)
	o.Title = nullableString(title)
	o.Date = nullableString(date)
	o.License = nullableString(license)
	return &o, nil
}

// GetOntology 按主键查询本体
func (r *OntologyRepository) GetOntology(ctx context.Context, id string) (*models.Ontology, error) {
	query := `SELECT ` + ontologyColumns + ` FROM ` + TableOntology + ` WHERE id = ` + r.ph(1)

	o, err := scanOntology(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("%w: id=%s", ErrOntologyNotFound, id)
		}
		return nil, fmt.Errorf("failed to query ontology: %w", err)
	}
	return o, nil
}

// ListOntologies 列出全部本体，按 ID 排序
func (r *OntologyRepository) ListOntologies(ctx context.Context) ([]models.Ontology, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+ontologyColumns+` FROM `+TableOntology+` ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list ontologies: %w", err)
	}
	defer rows.Close()

	var out []models.Ontology
	for rows.Next() {
		o, err := scanOntology(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan ontology: %w", err)
		}
		out = append(out, *o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate ontologies: %w", err)
	}
	return out, nil
}

// DeleteOntology 删除本体及其全部子记录，独立事务提交
// 按 子表 -> obo_term -> obo_ontology 的顺序显式删除，不依赖数据库级联
func (r *OntologyRepository) DeleteOntology(ctx context.Context, id string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, table := range append(append([]string{}, childTables...), TableTerm) {
		if _, err := tx.ExecContext(ctx, `DELETE FROM `+table+` WHERE ontology_id = `+r.ph(1), id); err != nil {
			return fmt.Errorf("failed to delete from %s: %w", table, err)
		}
	}

	res, err := tx.ExecContext(ctx, `DELETE FROM `+TableOntology+` WHERE id = `+r.ph(1), id)
	if err != nil {
		return fmt.Errorf("failed to delete ontology: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("%w: id=%s", ErrOntologyNotFound, id)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// BeginTx 开启导入事务
func (r *OntologyRepository) BeginTx(ctx context.Context) (*sql.Tx, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	return tx, nil
}

// InsertOntology 在事务内插入本体行
func (r *OntologyRepository) InsertOntology(ctx context.Context, tx *sql.Tx, o models.Ontology) error {
	query := fmt.Sprintf(`INSERT INTO %s (%s) VALUES (%s, %s, %s, %s, %s, %s, %s)`,
		TableOntology, ontologyColumns, r.ph(1), r.ph(2), r.ph(3), r.ph(4), r.ph(5), r.ph(6), r.ph(7))
	if _, err := tx.ExecContext(ctx, query, o.ID, o.IRI, o.Version, o.Description, o.Title, o.Date, o.License); err != nil {
		return fmt.Errorf("failed to insert ontology %s: %w", o.ID, err)
	}
	return nil
}

// BulkInsertTerms 批量插入术语
func (r *OntologyRepository) BulkInsertTerms(ctx context.Context, tx *sql.Tx, terms []models.Term) (int, error) {
	return r.bulkInsert(ctx, tx, TableTerm, []string{"ontology_id", "id", "name", "definition"}, len(terms), func(i int) []any {
		t := terms[i]
		return []any{t.OntologyID, t.ID, t.Name, t.Definition}
	})
}

// BulkInsertSynonyms 批量插入同义词
func (r *OntologyRepository) BulkInsertSynonyms(ctx context.Context, tx *sql.Tx, synonyms []models.Synonym) (int, error) {
	for _, s := range synonyms {
		if !s.Type.Valid() {
			return 0, fmt.Errorf("invalid synonym type %q for term %s", s.Type, s.TermID)
		}
	}
	return r.bulkInsert(ctx, tx, TableSynonym, []string{"ontology_id", "term_id", "synonym", "type"}, len(synonyms), func(i int) []any {
		s := synonyms[i]
		return []any{s.OntologyID, s.TermID, s.Synonym, string(s.Type)}
	})
}

// BulkInsertIdentifiers 批量插入备用标识符
func (r *OntologyRepository) BulkInsertIdentifiers(ctx context.Context, tx *sql.Tx, identifiers []models.Identifier) (int, error) {
	return r.bulkInsert(ctx, tx, TableIdentifier, []string{"ontology_id", "term_id", "identifier"}, len(identifiers), func(i int) []any {
		id := identifiers[i]
		return []any{id.OntologyID, id.TermID, id.Identifier}
	})
}

// BulkInsertXRefs 批量插入交叉引用
func (r *OntologyRepository) BulkInsertXRefs(ctx context.Context, tx *sql.Tx, xrefs []models.XRef) (int, error) {
	return r.bulkInsert(ctx, tx, TableXRef, []string{"ontology_id", "term_id", `"database"`, "reference_id"}, len(xrefs), func(i int) []any {
		x := xrefs[i]
		return []any{x.OntologyID, x.TermID, x.Database, x.ReferenceID}
	})
}

// BulkInsertParentChild 批量插入层级边；调用方须保证两端术语已在同一事务内写入
func (r *OntologyRepository) BulkInsertParentChild(ctx context.Context, tx *sql.Tx, edges []models.ParentChild) (int, error) {
	return r.bulkInsert(ctx, tx, TableParentChild, []string{"ontology_id", "parent_id", "child_id"}, len(edges), func(i int) []any {
		e := edges[i]
		return []any{e.OntologyID, e.ParentID, e.ChildID}
	})
}

// bulkInsert 多行 INSERT，每条语句的行数受 batchSize 和驱动绑定参数上限约束
func (r *OntologyRepository) bulkInsert(ctx context.Context, tx *sql.Tx, table string, columns []string, n int, rowArgs func(i int) []any) (int, error) {
	if n == 0 {
		return 0, nil
	}

	chunk := r.batchSize
	if limit := r.dialect.MaxBindVars() / len(columns); chunk > limit {
		chunk = limit
	}

	inserted := 0
	for start := 0; start < n; start += chunk {
		end := start + chunk
		if end > n {
			end = n
		}

		var sb strings.Builder
		sb.WriteString("INSERT INTO ")
		sb.WriteString(table)
		sb.WriteString(" (")
		sb.WriteString(strings.Join(columns, ", "))
		sb.WriteString(") VALUES ")

		args := make([]any, 0, (end-start)*len(columns))
		argN := 1
		for i := start; i < end; i++ {
			if i > start {
				sb.WriteString(", ")
			}
			sb.WriteByte('(')
			for c := range columns {
				if c > 0 {
					sb.WriteString(", ")
				}
				sb.WriteString(r.ph(argN))
				argN++
			}
			sb.WriteByte(')')
			args = append(args, rowArgs(i)...)
		}

		if _, err := tx.ExecContext(ctx, sb.String(), args...); err != nil {
			return inserted, fmt.Errorf("failed to bulk insert into %s: %w", table, err)
		}
		inserted += end - start
	}

	r.logger.Debug("Bulk insert completed",
		zap.String("table", table),
		zap.Int("rows", inserted),
	)
	return inserted, nil
}

// CountRows 统计某本体在各表中的行数
func (r *OntologyRepository) CountRows(ctx context.Context, ontologyID string) (models.Counts, error) {
	var c models.Counts
	targets := []struct {
		table string
		dest  *int
	}{
		{TableTerm, &c.Terms},
		{TableSynonym, &c.Synonyms},
		{TableIdentifier, &c.Identifiers},
		{TableXRef, &c.XRefs},
		{TableParentChild, &c.ParentChild},
	}
	for _, t := range targets {
		query := `SELECT COUNT(*) FROM ` + t.table + ` WHERE ontology_id = ` + r.ph(1)
		if err := r.db.QueryRowContext(ctx, query, ontologyID).Scan(t.dest); err != nil {
			return models.Counts{}, fmt.Errorf("failed to count %s: %w", t.table, err)
		}
	}
	return c, nil
}

func nullableString(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}
