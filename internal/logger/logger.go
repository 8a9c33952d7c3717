package logger

import (
	"os"

	"github.com/biokb/biokb-obo/internal/config"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// NewLogger 按日志配置创建 Logger，附带 service_name 和 hostname 字段
//
// console 输出到 stderr，便于与命令的 stdout 输出（如 status）区分；
// json 输出到 stdout，时间为 ISO8601。
func NewLogger(cfg config.LogConfig, serviceName string) (*zap.Logger, error) {
	zc := zap.NewProductionConfig()
	zc.Sampling = nil
	zc.EncoderConfig.TimeKey = "timestamp"
	zc.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	zc.OutputPaths = []string{"stdout"}
	zc.ErrorOutputPaths = []string{"stderr"}

	if cfg.Format == "console" {
		zc.Encoding = "console"
		zc.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		zc.OutputPaths = []string{"stderr"}
	}
	zc.Level = zap.NewAtomicLevelAt(cfg.Level)

	log, err := zc.Build()
	if err != nil {
		return nil, err
	}

	fields := []zap.Field{zap.String("service_name", serviceName)}
	if hostname, err := os.Hostname(); err == nil && hostname != "" {
		fields = append(fields, zap.String("hostname", hostname))
	}
	return log.With(fields...), nil
}
