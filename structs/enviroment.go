package structs

import "time"

type EnviromentModel struct {
	Database         database
	ConcurrentAmount int
	RabbitMQ         rabbitmq
	Log              log
	Email            email
	Server           server
	Router           router
	Lookup           LookupConfig
}

type server struct {
	AppAPI string
}

type database struct {
	Client      string
	MaxIdle     uint
	MaxLifeTime string
	MaxOpenConn uint
	User        string
	Password    string
	Host        string
	Db          string
	Params      string
	Port        string
	LogEnable   int
}

type rabbitmq struct {
	Domain string
	Queues []string
}

type log struct {
	ElkEnable      int
	ElkIndex       string
	ElkURL         string
	LogstashEnable int
	LogstashURL    string
	LogstashIndex  string
}

type email struct {
	APIUrl string
}

type router struct {
	Port int
}

// LookupConfig 條碼查詢服務的設定
type LookupConfig struct {
	BaseURL         string
	Timeout         time.Duration
	UserAgent       string
	RateLimit       float64
	Burst           int
	BreakerFailures uint32
	BreakerTimeout  time.Duration
}
