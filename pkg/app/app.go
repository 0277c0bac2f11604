// pkg/app/app.go
package app

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"exdir/pkg/catalog"
	"exdir/pkg/dtype"
	"exdir/pkg/exdir"
	"exdir/pkg/ignore"
	"exdir/pkg/service"
	"exdir/pkg/storage"
	"exdir/pkg/storage/disk"
	"exdir/pkg/storage/s3"

	"github.com/spf13/viper"
)

// App 是整个应用程序的依赖容器 (Dependency Container)
// 它持有所有"单例"服务
type App struct {
	Backend storage.Backend
	File    *exdir.File
	Browser *service.Browser
	Policy  dtype.Policy

	// Location 是给用户看的仓库位置 (磁盘路径或 s3://bucket/prefix)
	Location string
}

// NewApp 打开一个已存在的仓库
// 它遵循 Viper 的配置，但不知道具体的 CLI 命令
func NewApp(ctx context.Context) (*App, error) {
	return build(ctx, false)
}

// CreateApp 初始化一个新仓库 (幂等) 并返回它
func CreateApp(ctx context.Context) (*App, error) {
	return build(ctx, true)
}

func build(ctx context.Context, create bool) (*App, error) {
	// 1. 转换策略
	policy, err := dtype.ParsePolicy(viper.GetString("conversion.policy"))
	if err != nil {
		return nil, err
	}

	// 2. 初始化存储层 (Dependency Injection)
	backend, err := initStore(ctx, viper.GetString("storage.path"))
	if err != nil {
		return nil, fmt.Errorf("failed to init storage: %w", err)
	}

	// 3. 打开仓库根
	open := exdir.Open
	if create {
		open = exdir.Create
	}
	f, err := open(ctx, backend, exdir.WithDefaultPolicy(policy))
	if err != nil {
		return nil, fmt.Errorf("failed to open store at %s: %w", location(), err)
	}

	return &App{
		Backend:  backend,
		File:     f,
		Browser:  service.NewBrowser(f),
		Policy:   policy,
		Location: location(),
	}, nil
}

// initStore 根据 storage.type 选择后端
func initStore(ctx context.Context, root string) (storage.Backend, error) {
	switch storeType := viper.GetString("storage.type"); storeType {
	case "", "disk":
		if root == "" {
			return nil, fmt.Errorf("storage path not set")
		}
		return disk.NewAdapter(root)

	case "s3":
		bucket := viper.GetString("storage.s3.bucket")
		if bucket == "" {
			return nil, fmt.Errorf("s3 storage: bucket is required")
		}
		return s3.NewAdapter(ctx, s3.Config{
			Endpoint:        viper.GetString("storage.s3.endpoint"),
			Region:          viper.GetString("storage.s3.region"),
			Bucket:          bucket,
			Prefix:          viper.GetString("storage.s3.prefix"),
			AccessKeyID:     viper.GetString("storage.s3.access_key"),
			SecretAccessKey: viper.GetString("storage.s3.secret_key"),
		})

	default:
		return nil, fmt.Errorf("unsupported storage type: %s", storeType)
	}
}

func location() string {
	if viper.GetString("storage.type") == "s3" {
		return fmt.Sprintf("s3://%s/%s", viper.GetString("storage.s3.bucket"), viper.GetString("storage.s3.prefix"))
	}
	return viper.GetString("storage.path")
}

// OpenCatalog 按配置连接目录数据库
func OpenCatalog(ctx context.Context) (*catalog.DB, error) {
	driver := viper.GetString("catalog.driver")
	dsn := viper.GetString("catalog.dsn")

	// sqlite 文件所在目录需要先存在
	if (driver == "" || driver == "sqlite") && dsn != "" && !strings.HasPrefix(dsn, "file:") {
		if err := os.MkdirAll(filepath.Dir(dsn), 0755); err != nil {
			return nil, fmt.Errorf("failed to create catalog directory: %w", err)
		}
	}

	return catalog.Open(ctx, catalog.Config{
		Driver:   driver,
		DSN:      dsn,
		Host:     viper.GetString("database.host"),
		Port:     viper.GetInt("database.port"),
		User:     viper.GetString("database.user"),
		Password: viper.GetString("database.password"),
		DBName:   viper.GetString("database.dbname"),
		SSLMode:  viper.GetString("database.sslmode"),
		Debug:    viper.GetString("log.level") == "debug",
	})
}

// Matcher 读取仓库根目录下的 .exdignore
func (a *App) Matcher(ctx context.Context) (*ignore.Matcher, error) {
	return ignore.NewMatcher(ctx, a.Backend)
}
