package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Load 初始化 Viper 配置
// cfgFile: 可选，用户显式指定的配置文件路径
func Load(cfgFile string) error {
	// 1. 设置默认值 (Defaults)
	setDefaults()

	// 2. 配置搜索路径
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			return err
		}

		// 搜索顺序：
		// 1. 当前目录
		viper.AddConfigPath(".")
		// 2. 当前目录下的 .exd
		viper.AddConfigPath(".exd")
		// 3. 用户主目录下的 .exd
		viper.AddConfigPath(filepath.Join(home, ".exd"))

		viper.SetConfigType("yaml")
		viper.SetConfigName("config") // 找 config.yaml
	}

	// 3. 读取环境变量 (EXD_STORAGE_PATH 等)
	viper.SetEnvPrefix("EXD")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	// 4. 读取配置文件
	if err := viper.ReadInConfig(); err != nil {
		// 只是没找到配置文件不算错，可能全靠默认值和环境变量
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return fmt.Errorf("fatal error config file: %w", err)
		}
		slog.Debug("no config file found, using defaults/env vars")
	} else {
		slog.Debug("using config file", slog.String("path", viper.ConfigFileUsed()))
	}

	return nil
}

func setDefaults() {
	// 存储默认值：当前目录就是仓库根
	wd, _ := os.Getwd()
	viper.SetDefault("storage.type", "disk")
	viper.SetDefault("storage.path", wd)
	viper.SetDefault("storage.s3.region", "us-east-1")

	viper.SetDefault("conversion.policy", "lossy")

	// 目录数据库默认值 (放在用户目录下)
	home, _ := os.UserHomeDir()
	viper.SetDefault("catalog.driver", "sqlite")
	viper.SetDefault("catalog.dsn", filepath.Join(home, ".exd", "catalog.db"))
	viper.SetDefault("database.host", "localhost")
	viper.SetDefault("database.port", 5432)
	viper.SetDefault("database.sslmode", "disable")

	viper.SetDefault("log.level", "warn")
}
