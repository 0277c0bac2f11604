package commands

import (
	"context"
	"errors"
	"fmt"
	"os"

	"exdir/pkg/app"
	"exdir/pkg/config"
	"exdir/pkg/types"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	cfgFile string
	// 全局应用实例，供子命令使用
	EXD *app.App
)

// 带这个 annotation 的命令不需要打开仓库
const skipAppAnnotation = "exd/skip-app"

var rootCmd = &cobra.Command{
	Use:           "exd",
	Short:         "exd: browse and edit exdir stores",
	SilenceUsage:  true,
	SilenceErrors: true,
	// PersistentPreRunE 会在所有子命令执行前运行
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		config.SetupLogger(os.Stderr, viper.GetString("log.level"))

		if cmd.Annotations[skipAppAnnotation] == "true" {
			return nil
		}

		// 统一初始化 App
		var err error
		EXD, err = app.NewApp(contextOf(cmd))
		if err != nil {
			if errors.Is(err, types.ErrNotFound) {
				return fmt.Errorf("%w\n(Did you run 'exd create'?)", err)
			}
			return err
		}
		return nil
	},
}

// Execute 是入口
func Execute() error {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return err
	}
	return nil
}

func init() {
	// 在初始化时，加载配置
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.exd/config.yaml)")

	// 这些参数绑定到 Viper，用户既可以在 yaml 里写，也可以用参数覆盖
	rootCmd.PersistentFlags().String("root", "", "store root directory (storage.path)")
	rootCmd.PersistentFlags().String("policy", "", "dtype conversion policy: lossy or exact")
	rootCmd.PersistentFlags().String("log-level", "", "log level: debug, info, warn, error")
	bindFlags()
}

// bindFlags 把全局 flag 绑定到 Viper (viper.Reset 之后需要重新绑定)
func bindFlags() {
	mustBind("storage.path", "root")
	mustBind("conversion.policy", "policy")
	mustBind("log.level", "log-level")
}

func mustBind(key, flag string) {
	if err := viper.BindPFlag(key, rootCmd.PersistentFlags().Lookup(flag)); err != nil {
		fmt.Fprintln(os.Stderr, "Failed to bind flag:", err)
		os.Exit(1)
	}
}

// initConfig 读取配置文件和环境变量
func initConfig() {
	if err := config.Load(cfgFile); err != nil {
		fmt.Fprintln(os.Stderr, "Config error:", err)
		os.Exit(1)
	}
}

// contextOf 直接调用 RunE (测试里) 时 cmd.Context() 可能为空
func contextOf(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

func requireApp() error {
	if EXD == nil {
		return fmt.Errorf("app not initialized")
	}
	return nil
}

// pathArg 取第一个位置参数，缺省为根
func pathArg(args []string) string {
	if len(args) == 0 {
		return "/"
	}
	return args[0]
}
