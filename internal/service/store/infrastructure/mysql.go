// internal/service/store/infrastructure/mysql.go
package infrastructure

import (
	"fmt"
	"time"

	sqlmysql "github.com/go-sql-driver/mysql"
	gormmysql "gorm.io/driver/mysql"
	"gorm.io/gorm"
)

// NewDB 建立 MySQL 连接并迁移订单日志和商品目录两张表
func NewDB(user, password, host string, port int, database string) (*gorm.DB, error) {
	dsnCfg := sqlmysql.NewConfig()
	dsnCfg.User = user
	dsnCfg.Passwd = password
	dsnCfg.Net = "tcp"
	dsnCfg.Addr = fmt.Sprintf("%s:%d", host, port)
	dsnCfg.DBName = database
	dsnCfg.ParseTime = true
	dsnCfg.Loc = time.Local

	db, err := gorm.Open(gormmysql.Open(dsnCfg.FormatDSN()), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mysql at %s: %w", dsnCfg.Addr, err)
	}

	if err := db.AutoMigrate(&OrderModel{}, &ProductModel{}); err != nil {
		return nil, fmt.Errorf("failed to migrate schema: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(50)
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetConnMaxLifetime(time.Hour)

	return db, nil
}
