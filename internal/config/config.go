package config

import (
	"log"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
	viper "github.com/spf13/viper"
)

/*
把init config跟read config分開
init : 需要設置viper watch 與 onConfigChange
read : 一般讀取，需要使用讀寫鎖
*/
var config_singleton *ConfigSingleTon
var muonce sync.Once

type ConfigSingleTon struct {
	Config *Config
	mu     sync.RWMutex
}

type Config struct {
	DbName string `mapstructure:"POSTGRES_DB"`
	DbHost string `mapstructure:"POSTGRES_HOST"`
	DbPort string `mapstructure:"POSTGRES_PORT"`
	DbUser string `mapstructure:"POSTGRES_USER"`
	DbPas  string `mapstructure:"POSTGRES_PASSWORD"`

	RedisAddr string `mapstructure:"REDIS_ADDR"`

	KafkaBrokers string `mapstructure:"KAFKA_BROKERS"`
	KafkaTopic   string `mapstructure:"KAFKA_ORDER_TOPIC"`
	KafkaGroupID string `mapstructure:"KAFKA_CONSUMER_GROUP"`

	SenderName   string `mapstructure:"EMAIL_SENDER_NAME"`
	EmailAccount string `mapstructure:"EMAIL_ACCOUNT"`
	SmtpAuthKey  string `mapstructure:"SMTP_AUTH_KEY"`
	AdminEmail   string `mapstructure:"ADMIN_EMAIL"`

	LowStockThreshold         int `mapstructure:"LOW_STOCK_THRESHOLD"`
	NewOrderNotifyDelaySec    int `mapstructure:"NEW_ORDER_NOTIFY_DELAY_SEC"`
	OrderConfirmationDelaySec int `mapstructure:"ORDER_CONFIRMATION_DELAY_SEC"`
	DailyReportHour           int `mapstructure:"DAILY_REPORT_HOUR"`
}

// Brokers 逗號分隔的broker清單
func (c *Config) Brokers() []string {
	return strings.Split(c.KafkaBrokers, ",")
}

func GetConfig() *Config {
	initConfig()
	config_singleton.mu.RLock()
	defer config_singleton.mu.RUnlock()
	return config_singleton.Config
}

func initConfig() {
	if config_singleton == nil {
		muonce.Do(func() {
			config_singleton = &ConfigSingleTon{}
			if cf, err := loadConfig(); err == nil {
				config_singleton.Config = cf
			} else {
				log.Fatal("error read config")
			}
			viper.WatchConfig()
			viper.OnConfigChange(func(e fsnotify.Event) {
				if cf, err := loadConfig(); err == nil {
					config_singleton.mu.Lock()
					config_singleton.Config = cf
					config_singleton.mu.Unlock()
				} else {
					log.Panic("failed to reload config file")
				}
			})
		})
	}
}

/*
單純回傳錯誤 由外部決定要不要Fatal, 畢竟有可能有替代方案
*/
func loadConfig() (cf *Config, err error) {
	cf = &Config{}
	viper.SetConfigFile(".env")
	viper.AutomaticEnv()

	viper.SetDefault("LOW_STOCK_THRESHOLD", 5)
	viper.SetDefault("NEW_ORDER_NOTIFY_DELAY_SEC", 3)
	viper.SetDefault("ORDER_CONFIRMATION_DELAY_SEC", 6)
	viper.SetDefault("DAILY_REPORT_HOUR", 1)
	viper.SetDefault("KAFKA_ORDER_TOPIC", "storefront.order.events")
	viper.SetDefault("KAFKA_CONSUMER_GROUP", "storefront-notification")

	err = viper.ReadInConfig()
	if err != nil {
		return
	}

	err = viper.Unmarshal(cf)
	if err != nil {
		return
	}
	return
}
