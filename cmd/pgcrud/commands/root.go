// Package commands 实现 pgcrud 命令行的各个子命令
package commands

import (
	"context"
	stderrors "errors"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"pgcrud/config"
	"pgcrud/data/db/basic"
	"pgcrud/errors"
	"pgcrud/logging"
)

// Version 构建时注入的版本号
var Version = "dev"

type globalFlags struct {
	configFile string
	driver     string
	dsn        string
	logLevel   string
	strict     bool
}

type app struct {
	fs    afero.Fs
	flags globalFlags
	log   logging.Logger
}

// Execute 执行根命令
func Execute() error {
	return NewRootCommand(afero.NewOsFs()).Execute()
}

// NewRootCommand 构建命令树，fs 用于查找配置文件与 .env
func NewRootCommand(fs afero.Fs) *cobra.Command {
	a := &app{fs: fs, log: logging.NewNoopLogger()}

	root := &cobra.Command{
		Use:           "pgcrud",
		Short:         "Named-parameter SQL and CRUD helpers",
		Long:          "pgcrud rewrites :name parameters into positional SQL and runs table CRUD operations against postgres, mysql or sqlite.",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := root.PersistentFlags()
	pf.StringVar(&a.flags.configFile, "config", "", "config file (default: pgcrud.yaml in ., $HOME, $HOME/.config/pgcrud)")
	pf.StringVar(&a.flags.driver, "driver", "", "database driver: postgres, pgx, mysql, sqlite")
	pf.StringVar(&a.flags.dsn, "dsn", "", "data source name (falls back to DATABASE_URL)")
	pf.StringVar(&a.flags.logLevel, "log-level", "", "log level: debug, info, warn, error")
	pf.BoolVar(&a.flags.strict, "strict", false, "fail on unbound named parameters")

	root.AddCommand(
		a.newRewriteCommand(),
		a.newQueryCommand(),
		a.newExecCommand(),
		a.newSelectOneCommand(),
		a.newSelectCommand(),
		a.newPageCommand(),
		a.newSaveCommand(),
		a.newUpdateCommand(),
		a.newDeleteCommand(),
		a.newWatchCommand(),
	)
	return root
}

// loadConfig 将显式设置的全局 flag 覆盖到文件与环境变量配置之上
func (a *app) loadConfig(cmd *cobra.Command) (*config.Config, error) {
	opts := []config.Option{config.WithFs(a.fs)}
	if a.flags.configFile != "" {
		opts = append(opts, config.WithConfigFile(a.flags.configFile))
	}
	flags := cmd.Flags()
	if flags.Changed("driver") {
		opts = append(opts, config.WithOverride("driver", a.flags.driver))
	}
	if flags.Changed("dsn") {
		opts = append(opts, config.WithOverride("dsn", a.flags.dsn))
	}
	if flags.Changed("log-level") {
		opts = append(opts, config.WithOverride("log_level", a.flags.logLevel))
	}
	if flags.Changed("strict") {
		opts = append(opts, config.WithOverride("strict_params", a.flags.strict))
	}
	return config.Load(opts...)
}

func (a *app) logger(cmd *cobra.Command, cfg *config.Config) logging.Logger {
	return logging.NewStdLoggerWithWriter(cmd.ErrOrStderr(), "pgcrud").WithLevel(cfg.Level())
}

// open 加载配置并连接数据库，之后的错误包装使用同一个 logger
func (a *app) open(cmd *cobra.Command) (*basic.DB, error) {
	cfg, err := a.loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	a.log = a.logger(cmd, cfg)
	return basic.Open(cfg.Database(), a.log)
}

// dbError 为驱动错误附加错误码：唯一约束冲突为 DUPLICATE_KEY，超时为 TIMEOUT，其余为 DATABASE_ERROR。
// 已带错误码的错误原样返回。
func (a *app) dbError(cmd *cobra.Command, db *basic.DB, err error, msg string) error {
	if err == nil {
		return nil
	}
	var coded errors.IError
	if stderrors.As(err, &coded) {
		return err
	}
	code := errors.ErrCodeDatabase
	switch {
	case db.Dialect().IsUniqueViolation(err):
		code = errors.ErrCodeDuplicateKey
	case stderrors.Is(err, context.DeadlineExceeded):
		code = errors.ErrCodeTimeout
	}
	return errors.Wrap(cmd.Context(), a.log, err, code, msg)
}

// ExitCode 按错误码返回进程退出码：用法与配置错误为 2，超时为 3，其余为 1
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	if stderrors.Is(err, errors.ErrTimeout) {
		return 3
	}
	switch errors.GetErrorCode(err) {
	case errors.ErrCodeConfig, errors.ErrCodeInvalidInput, errors.ErrCodeUnboundParameter:
		return 2
	default:
		return 1
	}
}
