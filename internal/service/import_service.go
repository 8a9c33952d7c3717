package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/biokb/biokb-obo/internal/extractor"
	"github.com/biokb/biokb-obo/internal/models"
	"github.com/biokb/biokb-obo/internal/notify"
	"github.com/biokb/biokb-obo/internal/ontology"
	"github.com/biokb/biokb-obo/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Store 导入所需的存储操作，由 repository.OntologyRepository 实现
type Store interface {
	CreateSchema(ctx context.Context) error
	RebuildSchema(ctx context.Context) error
	GetOntology(ctx context.Context, id string) (*models.Ontology, error)
	DeleteOntology(ctx context.Context, id string) error
	BeginTx(ctx context.Context) (*sql.Tx, error)
	InsertOntology(ctx context.Context, tx *sql.Tx, o models.Ontology) error
	BulkInsertTerms(ctx context.Context, tx *sql.Tx, terms []models.Term) (int, error)
	BulkInsertSynonyms(ctx context.Context, tx *sql.Tx, synonyms []models.Synonym) (int, error)
	BulkInsertIdentifiers(ctx context.Context, tx *sql.Tx, identifiers []models.Identifier) (int, error)
	BulkInsertXRefs(ctx context.Context, tx *sql.Tx, xrefs []models.XRef) (int, error)
	BulkInsertParentChild(ctx context.Context, tx *sql.Tx, edges []models.ParentChild) (int, error)
}

// Fetcher 获取本体文件的本地路径，由 fetcher.Fetcher 实现
type Fetcher interface {
	Fetch(ctx context.Context, name string, forceDownload bool) (string, error)
	Remove(path string) error
}

// Parser 解析本体文件，由 ontology.Parser 实现
type Parser interface {
	Load(ctx context.Context, path string) (*ontology.Ontology, error)
}

// ImportOptions 导入参数
type ImportOptions struct {
	Rebuild         bool // 导入前删除并重建整个 schema（对整批只执行一次）
	Overwrite       bool // 已存在的本体先删除再导入
	ForceDownload   bool // 本地文件存在时也重新下载
	KeepFiles       bool // 导入成功后保留下载的文件
	ContinueOnError bool // 单个本体失败时记录并继续
}

// NameStatus 单个本体的导入结果
type NameStatus struct {
	Name    string        `json:"name"`
	Status  string        `json:"status"` // imported | skipped | failed
	Counts  models.Counts `json:"counts"`
	Version string        `json:"version,omitempty"` // 导入文件的版本信息
	File    string        `json:"file,omitempty"`
	Err     error         `json:"-"`
}

// ImportResult 一次导入调用的结果
type ImportResult struct {
	RunID    string
	Counts   models.Counts // 所有已导入本体的累计插入数
	Statuses []NameStatus
}

// Failed 返回失败的本体
func (r *ImportResult) Failed() []NameStatus {
	var out []NameStatus
	for _, s := range r.Statuses {
		if s.Status == notify.StatusFailed {
			out = append(out, s)
		}
	}
	return out
}

// ImportService 本体导入编排
type ImportService struct {
	store        Store
	fetcher      Fetcher
	parser       Parser
	publisher    notify.Publisher
	fetchTimeout time.Duration
	parseTimeout time.Duration
	logger       *zap.Logger
}

// Option ImportService 可选配置
type Option func(*ImportService)

// WithPublisher 设置导入事件发布器
func WithPublisher(p notify.Publisher) Option {
	return func(s *ImportService) {
		if p != nil {
			s.publisher = p
		}
	}
}

// WithTimeouts 设置下载和解析超时，0 表示不限制
func WithTimeouts(fetch, parse time.Duration) Option {
	return func(s *ImportService) {
		s.fetchTimeout = fetch
		s.parseTimeout = parse
	}
}

// NewImportService 创建导入服务
func NewImportService(store Store, fetcher Fetcher, parser Parser, logger *zap.Logger, opts ...Option) *ImportService {
	s := &ImportService{
		store:     store,
		fetcher:   fetcher,
		parser:    parser,
		publisher: notify.Nop{},
		logger:    logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Import 按顺序导入给定名称的本体
//
// 已存在且未设置 Overwrite 的本体跳过；每个本体的写入在一个事务中完成。
// 默认第一个失败即中止，返回已完成部分的结果和包装后的错误。
func (s *ImportService) Import(ctx context.Context, names []string, opts ImportOptions) (*ImportResult, error) {
	result := &ImportResult{RunID: uuid.New().String()}
	log := s.logger.With(zap.String("run_id", result.RunID))

	log.Info("Starting ontology import",
		zap.Strings("names", names),
		zap.Bool("rebuild", opts.Rebuild),
		zap.Bool("overwrite", opts.Overwrite),
		zap.Bool("force_download", opts.ForceDownload),
		zap.Bool("keep_files", opts.KeepFiles),
	)

	if opts.Rebuild {
		log.Warn("Rebuilding schema, all imported ontologies will be dropped")
		if err := s.store.RebuildSchema(ctx); err != nil {
			return result, fmt.Errorf("failed to rebuild schema: %w", err)
		}
	} else if err := s.store.CreateSchema(ctx); err != nil {
		return result, fmt.Errorf("failed to create schema: %w", err)
	}

	start := time.Now()
	for _, name := range names {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		status := s.importOne(ctx, log.With(zap.String("ontology", name)), result.RunID, name, opts)
		result.Statuses = append(result.Statuses, status)
		if status.Status == notify.StatusImported {
			result.Counts.Add(status.Counts)
		}

		if status.Err != nil && !opts.ContinueOnError {
			return result, fmt.Errorf("failed to import %s: %w", name, status.Err)
		}
	}

	log.Info("Ontology import finished",
		zap.Int("ontologies", len(names)),
		zap.Int("failed", len(result.Failed())),
		zap.Any("counts", result.Counts.Map()),
		zap.Duration("elapsed", time.Since(start)),
	)
	return result, nil
}

// importOne 导入单个本体，错误记录在返回的状态中
func (s *ImportService) importOne(ctx context.Context, log *zap.Logger, runID, name string, opts ImportOptions) NameStatus {
	status := NameStatus{Name: name}

	fail := func(err error) NameStatus {
		status.Status = notify.StatusFailed
		status.Err = err
		log.Error("Ontology import failed", zap.Error(err))
		s.publish(ctx, log, runID, status)
		return status
	}

	// 名称同时用作本体ID和下载文件名
	if err := models.ValidateOntologyName(name); err != nil {
		return fail(err)
	}

	existing, err := s.store.GetOntology(ctx, name)
	switch {
	case err == nil:
	case errors.Is(err, repository.ErrOntologyNotFound):
		existing = nil
	default:
		return fail(err)
	}

	if existing != nil {
		if !opts.Overwrite {
			log.Info("Ontology already exists in the database, skipping import")
			status.Status = notify.StatusSkipped
			s.publish(ctx, log, runID, status)
			return status
		}
		log.Info("Overwriting existing ontology")
		if err := s.store.DeleteOntology(ctx, name); err != nil {
			return fail(err)
		}
	}

	path, err := s.fetch(ctx, name, opts.ForceDownload)
	if err != nil {
		return fail(err)
	}
	status.File = path

	onto, err := s.parse(ctx, path)
	if err != nil {
		return fail(err)
	}
	if onto.Name != "" && onto.Name != name {
		log.Warn("Ontology name in file differs from requested name, using requested name",
			zap.String("file_name", onto.Name),
		)
	}

	record := extractor.OntologyRecord(name, onto)
	if record.Version != nil {
		status.Version = *record.Version
	}

	counts, err := s.write(ctx, record, onto)
	if err != nil {
		return fail(err)
	}
	status.Status = notify.StatusImported
	status.Counts = counts

	log.Info("Ontology imported", zap.Any("counts", counts.Map()))
	s.publish(ctx, log, runID, status)

	if !opts.KeepFiles {
		if err := s.fetcher.Remove(path); err != nil {
			log.Warn("Failed to remove downloaded file", zap.String("path", path), zap.Error(err))
		}
	}
	return status
}

func (s *ImportService) fetch(ctx context.Context, name string, force bool) (string, error) {
	if s.fetchTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.fetchTimeout)
		defer cancel()
	}
	return s.fetcher.Fetch(ctx, name, force)
}

func (s *ImportService) parse(ctx context.Context, path string) (*ontology.Ontology, error) {
	if s.parseTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.parseTimeout)
		defer cancel()
	}
	onto, err := s.parser.Load(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return onto, nil
}

// write 在一个事务中写入本体及全部记录；层级关系在所有术语写入之后插入
func (s *ImportService) write(ctx context.Context, record models.Ontology, onto *ontology.Ontology) (models.Counts, error) {
	id := record.ID
	var counts models.Counts

	tx, err := s.store.BeginTx(ctx)
	if err != nil {
		return counts, err
	}
	defer tx.Rollback()

	if err := s.store.InsertOntology(ctx, tx, record); err != nil {
		return counts, err
	}

	batch := extractor.Extract(id, onto)

	if counts.Terms, err = s.store.BulkInsertTerms(ctx, tx, batch.Terms); err != nil {
		return counts, err
	}
	if counts.Synonyms, err = s.store.BulkInsertSynonyms(ctx, tx, batch.Synonyms); err != nil {
		return counts, err
	}
	if counts.Identifiers, err = s.store.BulkInsertIdentifiers(ctx, tx, batch.Identifiers); err != nil {
		return counts, err
	}
	if counts.XRefs, err = s.store.BulkInsertXRefs(ctx, tx, batch.XRefs); err != nil {
		return counts, err
	}
	if counts.ParentChild, err = s.store.BulkInsertParentChild(ctx, tx, batch.Edges); err != nil {
		return counts, err
	}

	if err := tx.Commit(); err != nil {
		return models.Counts{}, fmt.Errorf("failed to commit ontology %s: %w", id, err)
	}
	return counts, nil
}

// publish 发布导入事件，失败只记录日志
func (s *ImportService) publish(ctx context.Context, log *zap.Logger, runID string, status NameStatus) {
	event := notify.NewImportEvent(runID, status.Name, status.Status, status.Counts)
	event.Version = status.Version
	if status.Err != nil {
		event.Error = status.Err.Error()
	}
	if err := s.publisher.Publish(ctx, event); err != nil {
		log.Warn("Failed to publish import event", zap.Error(err))
	}
}
