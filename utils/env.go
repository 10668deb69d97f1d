package utils

import (
	"fmt"
	"os"
	"proteinrank-go-worker/structs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

var EnvConfig *structs.EnviromentModel

type EnvService struct {
	// 設定檔所在目錄，空字串代表目前目錄
	ConfigPath string
}

func (e *EnvService) InitEnv() {
	e.loadConfig()
	e.configToModel()
}

func (e *EnvService) loadConfig() {
	viper.Reset()
	e.setDefaults()

	path := e.ConfigPath
	if path == "" {
		path = "."
	}
	viper.SetConfigName("config")
	viper.SetConfigType("yml")
	viper.AddConfigPath(path)
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {

			// 找不到 config.yml 的話就抓取環境變數，有 .env 先載入
			if err := godotenv.Load(path + "/.env"); err != nil && !os.IsNotExist(err) {
				fmt.Println("load .env fail:", err.Error())
			}
			viper.AutomaticEnv()
			viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
		} else {

			// 有找到 config.yml 但是發生了其他未知的錯誤
			panic(fmt.Errorf("Fatal error config file: %s \n", err))
		}
	}
}

func (e *EnvService) setDefaults() {
	viper.SetDefault("concurrentAmount", 4)
	viper.SetDefault("router.port", 8080)
	viper.SetDefault("rabbitmq.queues", []string{"scan"})
	viper.SetDefault("lookup.base_url", "https://world.openfoodfacts.org")
	viper.SetDefault("lookup.timeout", "10s")
	viper.SetDefault("lookup.user_agent", "proteinrank-go-worker/1.0")
	viper.SetDefault("lookup.rate_limit", 1.5)
	viper.SetDefault("lookup.burst", 5)
	viper.SetDefault("lookup.breaker_failures", 5)
	viper.SetDefault("lookup.breaker_timeout", "30s")
}

func (e *EnvService) configToModel() {
	var config structs.EnviromentModel
	config.Database.Client = viper.GetString("database.client")
	config.Database.Host = viper.GetString("database.host")
	config.Database.User = viper.GetString("database.user")
	config.Database.Password = viper.GetString("database.password")
	config.Database.Db = viper.GetString("database.name")
	config.Database.MaxIdle = uint(viper.GetInt("database.max_idle"))
	config.Database.MaxOpenConn = uint(viper.GetInt("database.max_open_conn"))
	config.Database.MaxLifeTime = viper.GetString("database.max_life_time")
	config.Database.Params = viper.GetString("database.params")
	config.Database.Port = viper.GetString("database.port")
	config.Database.LogEnable = viper.GetInt("database.log_enable")
	config.ConcurrentAmount = viper.GetInt("concurrentAmount")
	config.RabbitMQ.Domain = viper.GetString("rabbitmq.domain")
	config.RabbitMQ.Queues = viper.GetStringSlice("rabbitmq.queues")
	config.Log.ElkEnable = viper.GetInt("log.elk.enable")
	config.Log.ElkIndex = viper.GetString("log.elk.index")
	config.Log.ElkURL = viper.GetString("log.elk.url")
	config.Log.LogstashEnable = viper.GetInt("log.logstash.enable")
	config.Log.LogstashURL = viper.GetString("log.logstash.url")
	config.Log.LogstashIndex = viper.GetString("log.logstash.index")
	config.Email.APIUrl = viper.GetString("email.api_url")
	config.Server.AppAPI = viper.GetString("server.app_api")
	config.Router.Port = viper.GetInt("router.port")
	config.Lookup.BaseURL = strings.TrimRight(viper.GetString("lookup.base_url"), "/")
	config.Lookup.Timeout = durationOr(viper.GetDuration("lookup.timeout"), 10*time.Second)
	config.Lookup.UserAgent = viper.GetString("lookup.user_agent")
	config.Lookup.RateLimit = viper.GetFloat64("lookup.rate_limit")
	config.Lookup.Burst = viper.GetInt("lookup.burst")
	config.Lookup.BreakerFailures = uint32(viper.GetInt("lookup.breaker_failures"))
	config.Lookup.BreakerTimeout = durationOr(viper.GetDuration("lookup.breaker_timeout"), 30*time.Second)
	EnvConfig = &config
}

func durationOr(d, fallback time.Duration) time.Duration {
	if d <= 0 {
		return fallback
	}
	return d
}
