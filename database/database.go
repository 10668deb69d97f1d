package database

import (
	"fmt"
	"proteinrank-go-worker/utils"
	"time"

	"github.com/jinzhu/gorm"
	_ "github.com/jinzhu/gorm/dialects/mysql"
)

var Mysql *gorm.DB

// InitDatabasePool 依照 EnvConfig 建立連線池，沒有設定 database.client 時不連線
func InitDatabasePool() error {
	config := utils.EnvConfig.Database
	if config.Client == "" {
		return nil
	}

	dsn := fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?%s", config.User, config.Password, config.Host, config.Port, config.Db, config.Params)
	db, err := gorm.Open(config.Client, dsn)
	if err != nil {
		return fmt.Errorf("open %s database: %w", config.Client, err)
	}

	db.DB().SetMaxIdleConns(int(config.MaxIdle))
	db.DB().SetMaxOpenConns(int(config.MaxOpenConn))
	if lifeTime, err := time.ParseDuration(config.MaxLifeTime); err == nil {
		db.DB().SetConnMaxLifetime(lifeTime)
	}
	db.LogMode(config.LogEnable == 1)

	Mysql = db
	return nil
}

func Close() {
	if Mysql != nil {
		Mysql.Close()
	}
}
