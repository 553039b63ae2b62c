// internal/pkg/bootstrap/config.go
package bootstrap

import (
	"fmt"
	"os"
	"strings"
	"sync/atomic"

	"gopkg.in/yaml.v3"
)

// Config 是整个进程的配置根对象，从 YAML 文件加载，
// 关键的基础设施地址允许用环境变量覆盖，便于容器化部署
type Config struct {
	App struct {
		Alert struct {
			// Rule 是低库存告警的 CEL 表达式，输入变量为 product/quantity
			Rule      string `yaml:"rule"`
			Threshold int    `yaml:"threshold"`
		} `yaml:"alert"`
	} `yaml:"app"`

	Infra struct {
		Mysql struct {
			User     string `yaml:"user"`
			Password string `yaml:"password"`
			Host     string `yaml:"host"`
			Port     int    `yaml:"port"`
			Database string `yaml:"database"`
		} `yaml:"mysql"`
		Redis struct {
			Addrs string `yaml:"addrs"`
		} `yaml:"redis"`
		Kafka struct {
			Brokers           string `yaml:"brokers"`
			NotificationTopic string `yaml:"notificationTopic"`
			AlertTopic        string `yaml:"alertTopic"`
			DltTopic          string `yaml:"dltTopic"`
		} `yaml:"kafka"`
		Minio struct {
			Endpoint  string `yaml:"endpoint"`
			AccessKey string `yaml:"accessKey"`
			SecretKey string `yaml:"secretKey"`
			Bucket    string `yaml:"bucket"`
			UseSSL    bool   `yaml:"useSSL"`
		} `yaml:"minio"`
		Zookeeper struct {
			Servers string `yaml:"servers"`
		} `yaml:"zookeeper"`
		Jaeger struct {
			Endpoint string `yaml:"endpoint"`
		} `yaml:"jaeger"`
	} `yaml:"infra"`
}

var currentConfig atomic.Pointer[Config]

// GetCurrentConfig 返回当前生效的配置
// 在 Init 之前调用会返回内置默认值
func GetCurrentConfig() *Config {
	if c := currentConfig.Load(); c != nil {
		return c
	}
	c := defaultConfig()
	currentConfig.Store(c)
	return c
}

// Init 加载配置文件（路径由 CONFIG_FILE 指定，默认 configs/config.yaml）
// 文件不存在时退回默认值，这让本地开发不依赖任何配置文件
func Init() {
	cfg := defaultConfig()

	path := getEnv("CONFIG_FILE", "configs/config.yaml")
	if data, err := os.ReadFile(path); err == nil {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			panic(fmt.Sprintf("FATAL: invalid config file %s: %v", path, err))
		}
	}

	applyEnvOverrides(cfg)
	currentConfig.Store(cfg)
}

func defaultConfig() *Config {
	cfg := &Config{}
	cfg.App.Alert.Rule = "quantity < threshold"
	cfg.App.Alert.Threshold = 5
	cfg.Infra.Mysql.User = "root"
	cfg.Infra.Mysql.Password = "root"
	cfg.Infra.Mysql.Host = "localhost"
	cfg.Infra.Mysql.Port = 3306
	cfg.Infra.Mysql.Database = "storefront"
	cfg.Infra.Redis.Addrs = "localhost:6379"
	cfg.Infra.Kafka.Brokers = "localhost:9092"
	cfg.Infra.Kafka.NotificationTopic = "stock-notifications"
	cfg.Infra.Kafka.AlertTopic = "low-stock-alerts"
	cfg.Infra.Kafka.DltTopic = "stock-notifications-dlt"
	cfg.Infra.Minio.Endpoint = "localhost:9000"
	cfg.Infra.Minio.AccessKey = "minioadmin"
	cfg.Infra.Minio.SecretKey = "minioadmin"
	cfg.Infra.Minio.Bucket = "inv-ord-report-bucket"
	cfg.Infra.Zookeeper.Servers = "localhost:2181"
	cfg.Infra.Jaeger.Endpoint = "http://localhost:14268/api/traces"
	return cfg
}

// applyEnvOverrides 允许用环境变量覆盖基础设施地址
func applyEnvOverrides(cfg *Config) {
	cfg.Infra.Redis.Addrs = getEnv("REDIS_ADDRS", cfg.Infra.Redis.Addrs)
	cfg.Infra.Kafka.Brokers = getEnv("KAFKA_BROKERS", cfg.Infra.Kafka.Brokers)
	cfg.Infra.Mysql.Host = getEnv("MYSQL_HOST", cfg.Infra.Mysql.Host)
	cfg.Infra.Mysql.User = getEnv("MYSQL_USER", cfg.Infra.Mysql.User)
	cfg.Infra.Mysql.Password = getEnv("MYSQL_PASSWORD", cfg.Infra.Mysql.Password)
	cfg.Infra.Minio.Endpoint = getEnv("MINIO_ENDPOINT", cfg.Infra.Minio.Endpoint)
	cfg.Infra.Zookeeper.Servers = getEnv("ZK_SERVERS", cfg.Infra.Zookeeper.Servers)
	cfg.Infra.Jaeger.Endpoint = getEnv("JAEGER_ENDPOINT", cfg.Infra.Jaeger.Endpoint)
}

// KafkaBrokerList 把逗号分隔的 broker 配置切分成列表
func (c *Config) KafkaBrokerList() []string {
	return strings.Split(c.Infra.Kafka.Brokers, ",")
}

// getEnv 是一个内部辅助函数，从环境变量中读取配置。
func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}
