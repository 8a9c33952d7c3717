package service

import (
	"context"
	"fmt"

	"github.com/biokb/biokb-obo/internal/catalog"
	"github.com/biokb/biokb-obo/internal/config"
	"github.com/biokb/biokb-obo/internal/database"
	"github.com/biokb/biokb-obo/internal/fetcher"
	"github.com/biokb/biokb-obo/internal/notify"
	"github.com/biokb/biokb-obo/internal/ontology"
	"github.com/biokb/biokb-obo/internal/repository"

	"go.uber.org/zap"
)

// Components 由配置装配好的导入组件
type Components struct {
	DB        *database.DB
	Repo      *repository.OntologyRepository
	Service   *ImportService
	Publisher notify.Publisher
	// Names 配置的默认导入列表（OBO_NAMES 优先，其次目录文件）
	Names []string
}

// Build 根据配置打开数据库并装配导入服务
func Build(cfg *config.Config, logger *zap.Logger) (*Components, error) {
	var (
		names     = cfg.Import.Ontologies
		overrides map[string]string
	)
	if cfg.Import.CatalogPath != "" {
		c, err := catalog.Load(cfg.Import.CatalogPath)
		if err != nil {
			return nil, err
		}
		overrides = c.URLOverrides()
		if len(names) == 0 {
			names = c.Names()
		}
		logger.Info("Loaded ontology catalog",
			zap.String("path", cfg.Import.CatalogPath),
			zap.Int("entries", len(c.Ontologies)),
		)
	}

	db, err := database.Open(&cfg.Database)
	if err != nil {
		return nil, err
	}
	logger.Info("Database connected",
		zap.String("dialect", db.Dialect.Name),
		zap.String("connection", database.Redact(cfg.Database.ConnectionString)),
	)

	publisher, err := notify.New(cfg, logger)
	if err != nil {
		database.Close(db)
		return nil, err
	}

	repo := repository.NewOntologyRepository(db.DB, db.Dialect, cfg.Import.BatchSize, logger)
	f := fetcher.NewFetcher(fetcher.Options{
		DataFolder:   cfg.Fetcher.DataFolder,
		URLTemplate:  cfg.Fetcher.URLTemplate,
		Timeout:      cfg.Fetcher.Timeout,
		RetryCount:   cfg.Fetcher.RetryCount,
		URLOverrides: overrides,
	}, logger)

	svc := NewImportService(repo, f, ontology.NewParser(logger), logger,
		WithPublisher(publisher),
		WithTimeouts(cfg.Fetcher.Timeout, cfg.Import.ParseTimeout),
	)

	return &Components{
		DB:        db,
		Repo:      repo,
		Service:   svc,
		Publisher: publisher,
		Names:     names,
	}, nil
}

// Close 释放发布器和数据库连接
func (c *Components) Close() error {
	perr := c.Publisher.Close()
	if err := database.Close(c.DB); err != nil {
		return err
	}
	return perr
}

// ImportAll 导入配置中列出的全部本体（不重建、不覆盖已存在的本体）
func ImportAll(ctx context.Context, cfg *config.Config, logger *zap.Logger, forceDownload, keepFiles bool) (*ImportResult, error) {
	c, err := Build(cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize importer: %w", err)
	}
	defer c.Close()

	if len(c.Names) == 0 {
		logger.Warn("No ontologies configured, set OBO_NAMES or OBO_CATALOG")
	}

	return c.Service.Import(ctx, c.Names, ImportOptions{
		ForceDownload: forceDownload,
		KeepFiles:     keepFiles,
	})
}
