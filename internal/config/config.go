package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap/zapcore"
)

const (
	// ProjectName 项目名称（biokb 约定）
	ProjectName = "obo"
	// Organization 组织名称
	Organization = "biokb"
	// DefaultURLTemplate OBO Foundry 下载地址模板，{name} 替换为本体名称
	DefaultURLTemplate = "http://purl.obolibrary.org/obo/{name}.owl"
)

// DatabaseConfig 数据库配置
type DatabaseConfig struct {
	ConnectionString string
	MaxConns         int
	MaxIdle          int
}

// RedisConfig Redis配置
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// MQTTConfig MQTT配置
type MQTTConfig struct {
	Broker   string
	ClientID string
	Username string
	Password string
	QoS      byte
}

// LogConfig 日志配置
type LogConfig struct {
	Level  zapcore.Level
	Format string // json 或 console
}

// Config 本体导入服务配置
type Config struct {
	Database DatabaseConfig

	// 下载配置
	Fetcher struct {
		DataFolder  string        // 下载文件目录
		URLTemplate string        // 下载地址模板
		Timeout     time.Duration // 单次下载超时
		RetryCount  int           // 下载重试次数（默认不重试）
	}

	// 导入配置
	Import struct {
		Ontologies   []string      // 默认导入的本体名称（OBO_NAMES，逗号分隔）
		CatalogPath  string        // 本体目录 YAML 文件
		ParseTimeout time.Duration // 解析超时
		BatchSize    int           // 批量插入每条语句的行数
	}

	// 导入事件通知
	Notify struct {
		Backend string // none, redis, mqtt
		Stream  string // Redis Stream 名称
		Topic   string // MQTT 主题
		Redis   RedisConfig
		MQTT    MQTTConfig
	}

	Log LogConfig
}

// BiokbFolder 返回 biokb 根目录（~/.biokb）
func BiokbFolder() string {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	return filepath.Join(home, "."+Organization)
}

// DefaultConnectionString 默认的本地 SQLite 连接字符串
func DefaultConnectionString() string {
	return "sqlite:///" + filepath.Join(BiokbFolder(), Organization+".db")
}

// DefaultDataFolder 默认下载目录（~/.biokb/obo/data）
func DefaultDataFolder() string {
	return filepath.Join(BiokbFolder(), ProjectName, "data")
}

// Load 加载配置
// 先尝试加载 .env 文件（不存在不报错），再从环境变量读取，未设置时使用默认值
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}

	cfg.Database.ConnectionString = getEnv("CONNECTION_STR", DefaultConnectionString())
	cfg.Database.MaxConns = getEnvInt("DB_MAX_CONNS", 4)
	cfg.Database.MaxIdle = getEnvInt("DB_MAX_IDLE", 2)

	cfg.Fetcher.DataFolder = getEnv("OBO_DATA_FOLDER", DefaultDataFolder())
	cfg.Fetcher.URLTemplate = getEnv("OBO_URL_TEMPLATE", DefaultURLTemplate)
	cfg.Fetcher.RetryCount = getEnvInt("FETCH_RETRY_COUNT", 0)

	var err error
	if cfg.Fetcher.Timeout, err = getEnvDuration("FETCH_TIMEOUT", 10*time.Minute); err != nil {
		return nil, err
	}
	if cfg.Import.ParseTimeout, err = getEnvDuration("PARSE_TIMEOUT", 30*time.Minute); err != nil {
		return nil, err
	}
	cfg.Import.Ontologies = splitList(os.Getenv("OBO_NAMES"))
	cfg.Import.CatalogPath = getEnv("OBO_CATALOG", "")
	cfg.Import.BatchSize = getEnvInt("BULK_BATCH_SIZE", 500)
	if cfg.Import.BatchSize <= 0 {
		return nil, fmt.Errorf("invalid BULK_BATCH_SIZE: %d", cfg.Import.BatchSize)
	}

	cfg.Notify.Backend = strings.ToLower(getEnv("NOTIFY_BACKEND", "none"))
	cfg.Notify.Stream = getEnv("NOTIFY_STREAM", "obo:import:stream")
	cfg.Notify.Topic = getEnv("NOTIFY_TOPIC", "biokb/obo/import")
	if cfg.Notify.Redis, err = loadRedis(); err != nil {
		return nil, err
	}
	if cfg.Notify.MQTT, err = loadMQTT(); err != nil {
		return nil, err
	}
	switch cfg.Notify.Backend {
	case "none", "redis", "mqtt":
	default:
		return nil, fmt.Errorf("invalid NOTIFY_BACKEND: %s (must be none, redis or mqtt)", cfg.Notify.Backend)
	}

	if cfg.Log, err = loadLog(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// loadRedis 读取 REDIS_* 变量，未设置时连接本地默认实例
func loadRedis() (RedisConfig, error) {
	c := RedisConfig{
		Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
		Password: os.Getenv("REDIS_PASSWORD"),
	}
	db, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil || db < 0 {
		return c, fmt.Errorf("invalid REDIS_DB: %q", os.Getenv("REDIS_DB"))
	}
	c.DB = db
	return c, nil
}

// loadMQTT 读取 MQTT_* 变量，QoS 只允许 0、1、2
func loadMQTT() (MQTTConfig, error) {
	c := MQTTConfig{
		Broker:   getEnv("MQTT_BROKER", "tcp://localhost:1883"),
		ClientID: getEnv("MQTT_CLIENT_ID", Organization+"-"+ProjectName),
		Username: os.Getenv("MQTT_USERNAME"),
		Password: os.Getenv("MQTT_PASSWORD"),
	}
	qos, err := strconv.Atoi(getEnv("MQTT_QOS", "1"))
	if err != nil || qos < 0 || qos > 2 {
		return c, fmt.Errorf("invalid MQTT_QOS: %q (must be 0, 1 or 2)", os.Getenv("MQTT_QOS"))
	}
	c.QoS = byte(qos)
	return c, nil
}

func loadLog() (LogConfig, error) {
	c := LogConfig{Format: strings.ToLower(getEnv("LOG_FORMAT", "console"))}
	level, err := zapcore.ParseLevel(getEnv("LOG_LEVEL", "info"))
	if err != nil {
		return c, fmt.Errorf("invalid LOG_LEVEL: %w", err)
	}
	c.Level = level
	switch c.Format {
	case "json", "console":
	default:
		return c, fmt.Errorf("invalid LOG_FORMAT: %s (must be json or console)", c.Format)
	}
	return c, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	intValue, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}
	return intValue
}

func getEnvDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}

// splitList 解析逗号分隔的列表，忽略空项
func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
