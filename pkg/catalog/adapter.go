package catalog

import (
	"context"
	"fmt"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Config 数据库配置
// Driver 为 "sqlite" 时只用 DSN；为 "postgres" 时 DSN 为空则由其余字段拼接
type Config struct {
	Driver   string
	DSN      string
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string // "disable" for local
	Debug    bool
}

// DB 封装了 GORM 实例，作为目录层的入口
type DB struct {
	conn *gorm.DB
}

func (c Config) dialector() (gorm.Dialector, error) {
	switch c.Driver {
	case "", "sqlite":
		dsn := c.DSN
		if dsn == "" {
			dsn = "file:exdir-catalog.db"
		}
		return sqlite.Open(dsn), nil
	case "postgres":
		dsn := c.DSN
		if dsn == "" {
			dsn = fmt.Sprintf(
				"host=%s user=%s password=%s dbname=%s port=%d sslmode=%s TimeZone=UTC",
				c.Host, c.User, c.Password, c.DBName, c.Port, c.SSLMode,
			)
		}
		return postgres.Open(dsn), nil
	}
	return nil, fmt.Errorf("unsupported catalog driver: %s", c.Driver)
}

// Open 初始化数据库连接并迁移表结构
func Open(ctx context.Context, cfg Config) (*DB, error) {
	dialector, err := cfg.dialector()
	if err != nil {
		return nil, err
	}

	level := logger.Silent
	if cfg.Debug {
		level = logger.Info
	}
	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(level),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// 获取底层 sql.DB 以配置连接池
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	if cfg.Driver == "postgres" {
		sqlDB.SetMaxIdleConns(10)
		sqlDB.SetMaxOpenConns(100)
		sqlDB.SetConnMaxLifetime(time.Hour)
	} else {
		// sqlite 只允许一个写者
		sqlDB.SetMaxOpenConns(1)
	}

	// 验证连接是否存活
	if err := sqlDB.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("database ping failed: %w", err)
	}

	if err := db.AutoMigrate(&DatasetRecord{}); err != nil {
		return nil, fmt.Errorf("auto migration failed: %w", err)
	}
	return &DB{conn: db}, nil
}

// NewWithConn 允许使用现有的 GORM 连接初始化 DB (单元测试用)
func NewWithConn(conn *gorm.DB) *DB {
	return &DB{conn: conn}
}

func (d *DB) AutoMigrate(models ...any) error {
	return d.conn.AutoMigrate(models...)
}

func (d *DB) GetConn() *gorm.DB {
	return d.conn
}

// Close 关闭底层连接池
func (d *DB) Close() error {
	sqlDB, err := d.conn.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
