package catalog

import (
	"fmt"
	"os"

	"github.com/biokb/biokb-obo/internal/models"

	"gopkg.in/yaml.v3"
)

// Entry 目录中的一个本体
type Entry struct {
	Name string `yaml:"name"`
	URL  string `yaml:"url,omitempty"` // 可选，覆盖默认下载地址模板
}

// Catalog 待导入本体目录
//
//	ontologies:
//	  - name: doid
//	  - name: hp
//	    url: https://example.org/hp.obo
type Catalog struct {
	Ontologies []Entry `yaml:"ontologies"`
}

// Load 读取并校验目录文件
func Load(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog: %w", err)
	}
	return Parse(data)
}

// Parse 解析目录 YAML
func Parse(data []byte) (*Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("failed to parse catalog: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// Validate 名称必须合法（见 models.ValidateOntologyName）且不可重复
func (c *Catalog) Validate() error {
	seen := make(map[string]bool, len(c.Ontologies))
	for i, e := range c.Ontologies {
		if err := models.ValidateOntologyName(e.Name); err != nil {
			return fmt.Errorf("catalog entry %d: %w", i, err)
		}
		if seen[e.Name] {
			return fmt.Errorf("catalog entry %d: duplicate name %q", i, e.Name)
		}
		seen[e.Name] = true
	}
	return nil
}

// Names 按文件顺序返回本体名称
func (c *Catalog) Names() []string {
	names := make([]string, 0, len(c.Ontologies))
	for _, e := range c.Ontologies {
		names = append(names, e.Name)
	}
	return names
}

// URLOverrides 返回 名称 -> 下载地址（仅包含设置了 url 的条目）
func (c *Catalog) URLOverrides() map[string]string {
	out := make(map[string]string)
	for _, e := range c.Ontologies {
		if e.URL != "" {
			out[e.Name] = e.URL
		}
	}
	return out
}
