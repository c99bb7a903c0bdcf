// internal/pkg/bootstrap/config.go
package bootstrap

import (
	"os"
	"sync"
	"time"

	"gopkg.in/yaml.v3"

	"lumina/internal/pkg/logger"
	"lumina/internal/pkg/nacos"
)

// Config 是所有服务共享的配置结构。
// 加载优先级: Nacos 配置中心 > CONFIG_PATH 指向的本地 YAML > 环境变量默认值。
type Config struct {
	App struct {
		// RequestTimeout 是单次请求内所有外部调用（存储/身份服务/支付网关）的超时上限
		RequestTimeout string `yaml:"request_timeout"`
		// ViewCounterBackend 选择浏览计数的存储实现: "mysql" 或 "redis"
		ViewCounterBackend string `yaml:"view_counter_backend"`
	} `yaml:"app"`
	Infra struct {
		Mysql struct {
			DSN string `yaml:"dsn"`
		} `yaml:"mysql"`
		Redis struct {
			Addrs string `yaml:"addrs"`
		} `yaml:"redis"`
		Kafka struct {
			Brokers          string `yaml:"brokers"`
			AccessEmailTopic string `yaml:"access_email_topic"`
		} `yaml:"kafka"`
		Jaeger struct {
			Endpoint string `yaml:"endpoint"`
		} `yaml:"jaeger"`
		Identity struct {
			BaseURL string `yaml:"base_url"`
		} `yaml:"identity"`
		Gateway struct {
			BaseURL string `yaml:"base_url"`
		} `yaml:"gateway"`
	} `yaml:"infra"`
}

// RequestTimeout 解析配置的请求超时，非法或缺省时回退到 10s
func (c *Config) RequestTimeout() time.Duration {
	d, err := time.ParseDuration(c.App.RequestTimeout)
	if err != nil || d <= 0 {
		return 10 * time.Second
	}
	return d
}

var (
	currentConfig Config
	configOnce    sync.Once
)

// GetCurrentConfig 返回进程内已加载的配置，首次调用时触发加载
func GetCurrentConfig() *Config {
	configOnce.Do(loadConfig)
	return &currentConfig
}

func loadConfig() {
	// 1. 默认值，全部可被后续来源覆盖
	currentConfig.App.RequestTimeout = getEnv("REQUEST_TIMEOUT", "10s")
	currentConfig.App.ViewCounterBackend = getEnv("VIEW_COUNTER_BACKEND", "mysql")
	currentConfig.Infra.Mysql.DSN = getEnv("MYSQL_DSN", "root:root@tcp(localhost:3306)/lumina?charset=utf8mb4&parseTime=True")
	currentConfig.Infra.Redis.Addrs = getEnv("REDIS_ADDRS", "localhost:6379")
	currentConfig.Infra.Kafka.Brokers = getEnv("KAFKA_BROKERS", "localhost:9092")
	currentConfig.Infra.Kafka.AccessEmailTopic = getEnv("ACCESS_EMAIL_TOPIC", "access-email-topic")
	currentConfig.Infra.Jaeger.Endpoint = getEnv("JAEGER_ENDPOINT", "http://localhost:14268/api/traces")
	currentConfig.Infra.Identity.BaseURL = getEnv("IDENTITY_BASE_URL", "http://localhost:9096")
	currentConfig.Infra.Gateway.BaseURL = getEnv("GATEWAY_BASE_URL", "http://localhost:9097")

	// 2. 本地 YAML 文件
	if path := os.Getenv("CONFIG_PATH"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			logger.Logger().Warn().Err(err).Str("path", path).Msg("cannot read local config file, keeping defaults")
		} else if err := yaml.Unmarshal(data, &currentConfig); err != nil {
			logger.Logger().Warn().Err(err).Str("path", path).Msg("cannot parse local config file, keeping defaults")
		}
	}

	// 3. Nacos 配置中心（设置了 dataId 才启用）
	dataId := os.Getenv("NACOS_CONFIG_DATA_ID")
	if dataId == "" {
		return
	}
	configClient, err := nacos.NewConfigClient(
		getEnv("NACOS_SERVER_ADDRS", "localhost:8848"),
		os.Getenv("NACOS_NAMESPACE"),
	)
	if err != nil {
		logger.Logger().Warn().Err(err).Msg("cannot connect to nacos config center, keeping local config")
		return
	}
	content, err := nacos.GetConfig(configClient, dataId, os.Getenv("NACOS_GROUP"))
	if err != nil {
		logger.Logger().Warn().Err(err).Str("data_id", dataId).Msg("cannot fetch config from nacos, keeping local config")
		return
	}
	if err := yaml.Unmarshal([]byte(content), &currentConfig); err != nil {
		logger.Logger().Warn().Err(err).Str("data_id", dataId).Msg("cannot parse nacos config, keeping local config")
	}
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}
