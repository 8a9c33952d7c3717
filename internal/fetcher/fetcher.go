package fetcher

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/biokb/biokb-obo/internal/models"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

// NamePlaceholder 下载地址模板中的本体名称占位符
const NamePlaceholder = "{name}"

const (
	retryWaitTime    = time.Second
	retryMaxWaitTime = 5 * time.Second
)

// Options 下载器配置
type Options struct {
	DataFolder  string
	URLTemplate string
	Timeout     time.Duration
	RetryCount  int
	// URLOverrides 按本体名称覆盖下载地址
	URLOverrides map[string]string
}

// Fetcher 本体文件下载器
// 目标文件已存在且未强制下载时直接返回本地路径
type Fetcher struct {
	httpClient   *resty.Client
	dataFolder   string
	urlTemplate  string
	urlOverrides map[string]string
	logger       *zap.Logger
}

// NewFetcher 创建下载器
func NewFetcher(opts Options, logger *zap.Logger) *Fetcher {
	client := resty.New().
		SetTimeout(opts.Timeout).
		SetRetryCount(opts.RetryCount).
		SetRetryWaitTime(retryWaitTime).
		SetRetryMaxWaitTime(retryMaxWaitTime).
		SetHeader("Accept", "application/rdf+xml, text/plain, */*")

	overrides := make(map[string]string, len(opts.URLOverrides))
	for k, v := range opts.URLOverrides {
		overrides[k] = v
	}

	return &Fetcher{
		httpClient:   client,
		dataFolder:   opts.DataFolder,
		urlTemplate:  opts.URLTemplate,
		urlOverrides: overrides,
		logger:       logger,
	}
}

// URL 返回本体的下载地址
func (f *Fetcher) URL(name string) string {
	if u, ok := f.urlOverrides[name]; ok && u != "" {
		return u
	}
	return strings.ReplaceAll(f.urlTemplate, NamePlaceholder, url.PathEscape(name))
}

// Path 返回本体文件的本地路径，扩展名跟随下载地址（.obo 或 .owl）
// 名称需先通过 models.ValidateOntologyName，否则可能指向下载目录之外
func (f *Fetcher) Path(name string) string {
	ext := ".owl"
	if u, err := url.Parse(f.URL(name)); err == nil && strings.EqualFold(path.Ext(u.Path), ".obo") {
		ext = ".obo"
	}
	return filepath.Join(f.dataFolder, name+ext)
}

// Fetch 返回本体文件的本地路径，必要时下载
func (f *Fetcher) Fetch(ctx context.Context, name string, forceDownload bool) (string, error) {
	if err := models.ValidateOntologyName(name); err != nil {
		return "", err
	}
	target := f.Path(name)

	if !forceDownload {
		if _, err := os.Stat(target); err == nil {
			f.logger.Info("Ontology file already exists",
				zap.String("name", name),
				zap.String("path", target),
			)
			return target, nil
		}
	}

	if err := os.MkdirAll(f.dataFolder, 0o755); err != nil {
		return "", fmt.Errorf("failed to create data folder: %w", err)
	}

	downloadURL := f.URL(name)
	f.logger.Info("Downloading ontology file",
		zap.String("name", name),
		zap.String("url", downloadURL),
	)
	start := time.Now()

	written, err := f.download(ctx, downloadURL, target)
	if err != nil {
		f.logger.Error("Ontology download failed",
			zap.String("name", name),
			zap.String("url", downloadURL),
			zap.Error(err),
		)
		return "", fmt.Errorf("failed to download %s: %w", name, err)
	}

	f.logger.Info("Downloaded ontology file",
		zap.String("name", name),
		zap.String("path", target),
		zap.Int64("bytes", written),
		zap.Duration("elapsed", time.Since(start)),
	)
	return target, nil
}

// download 先写入同目录临时文件，成功后重命名；失败时删除部分文件
func (f *Fetcher) download(ctx context.Context, downloadURL, target string) (int64, error) {
	resp, err := f.httpClient.R().
		SetContext(ctx).
		SetDoNotParseResponse(true).
		Get(downloadURL)
	if err != nil {
		return 0, err
	}
	body := resp.RawBody()
	defer body.Close()

	if resp.StatusCode() != http.StatusOK {
		return 0, fmt.Errorf("unexpected status %d", resp.StatusCode())
	}

	tmp, err := os.CreateTemp(filepath.Dir(target), filepath.Base(target)+".*.part")
	if err != nil {
		return 0, fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()

	written, err := io.Copy(tmp, body)
	if closeErr := tmp.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		os.Remove(tmpName)
		return 0, fmt.Errorf("failed to write file: %w", err)
	}

	if err := os.Rename(tmpName, target); err != nil {
		os.Remove(tmpName)
		return 0, fmt.Errorf("failed to move file into place: %w", err)
	}
	return written, nil
}

// Remove 删除已下载的文件，文件不存在不视为错误
func (f *Fetcher) Remove(path string) error {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove %s: %w", path, err)
	}
	f.logger.Info("Removed downloaded file", zap.String("path", path))
	return nil
}
