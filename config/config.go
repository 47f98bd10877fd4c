// Package config 加载进程级配置
//
// 优先级（高到低）：PGCRUD_* 环境变量 > .env.local > .env > pgcrud.yaml > 默认值。
// dsn 为空时回退到 DATABASE_URL。
package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/mitchellh/go-homedir"
	"github.com/spf13/afero"
	"github.com/spf13/viper"

	core "pgcrud/data/db"
	"pgcrud/data/db/dialect"
	"pgcrud/errors"
	"pgcrud/logging"
)

const (
	envPrefix  = "PGCRUD"
	configName = "pgcrud"
)

// Config 进程配置
type Config struct {
	Driver          string
	DSN             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
	TxTimeout       time.Duration
	StrictParams    bool
	LogLevel        string

	// ConfigFile 实际读取的配置文件，未找到时为空
	ConfigFile string
}

type loader struct {
	fs         afero.Fs
	dir        string
	configFile string
	overrides  map[string]any
}

// Option 加载选项
type Option func(*loader)

// WithFs 指定读取配置文件与 .env 的文件系统，默认 OS 文件系统
func WithFs(fs afero.Fs) Option {
	return func(l *loader) { l.fs = fs }
}

// WithDir 指定 pgcrud.yaml 与 .env 的查找目录，默认当前目录
func WithDir(dir string) Option {
	return func(l *loader) { l.dir = dir }
}

// WithConfigFile 指定配置文件；文件不存在时返回 CONFIG_ERROR
func WithConfigFile(path string) Option {
	return func(l *loader) { l.configFile = path }
}

// WithOverride 以最高优先级覆盖某个键（命令行参数）
func WithOverride(key string, value any) Option {
	return func(l *loader) {
		if l.overrides == nil {
			l.overrides = make(map[string]any)
		}
		l.overrides[key] = value
	}
}

// Load 加载配置
func Load(opts ...Option) (*Config, error) {
	l := &loader{fs: afero.NewOsFs(), dir: "."}
	for _, opt := range opts {
		opt(l)
	}

	v := viper.New()
	v.SetFs(l.fs)
	setDefaults(v)

	if err := l.readConfigFile(v); err != nil {
		return nil, err
	}

	dotenv, err := l.readDotenv()
	if err != nil {
		return nil, err
	}
	if err := v.MergeConfigMap(prefixed(dotenv)); err != nil {
		return nil, errors.WrapError(err, errors.ErrCodeConfig, "merge .env failed")
	}

	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()
	for k, val := range l.overrides {
		v.Set(k, val)
	}

	cfg := &Config{
		Driver:          v.GetString("driver"),
		DSN:             v.GetString("dsn"),
		MaxOpenConns:    v.GetInt("max_open_conns"),
		MaxIdleConns:    v.GetInt("max_idle_conns"),
		ConnMaxLifetime: v.GetDuration("conn_max_lifetime"),
		ConnMaxIdleTime: v.GetDuration("conn_max_idle_time"),
		TxTimeout:       v.GetDuration("tx_timeout"),
		StrictParams:    v.GetBool("strict_params"),
		LogLevel:        v.GetString("log_level"),
		ConfigFile:      v.ConfigFileUsed(),
	}
	if cfg.DSN == "" {
		cfg.DSN = os.Getenv("DATABASE_URL")
	}
	if cfg.DSN == "" {
		cfg.DSN = dotenv["DATABASE_URL"]
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("driver", "postgres")
	v.SetDefault("dsn", "")
	v.SetDefault("max_open_conns", 0)
	v.SetDefault("max_idle_conns", 0)
	v.SetDefault("conn_max_lifetime", "0s")
	v.SetDefault("conn_max_idle_time", "0s")
	v.SetDefault("tx_timeout", core.DefaultTxTimeout.String())
	v.SetDefault("strict_params", false)
	v.SetDefault("log_level", "info")
}

func (l *loader) readConfigFile(v *viper.Viper) error {
	if l.configFile != "" {
		v.SetConfigFile(l.configFile)
		if err := v.ReadInConfig(); err != nil {
			return errors.WrapError(err, errors.ErrCodeConfig, "read config file "+l.configFile+" failed")
		}
		return nil
	}

	v.SetConfigName(configName)
	v.SetConfigType("yaml")
	v.AddConfigPath(l.dir)
	if home, err := homedir.Dir(); err == nil {
		v.AddConfigPath(home)
		v.AddConfigPath(filepath.Join(home, ".config", configName))
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return nil
		}
		return errors.WrapError(err, errors.ErrCodeConfig, "read config file failed")
	}
	return nil
}

// readDotenv 读取 .env 与 .env.local，后者覆盖前者
func (l *loader) readDotenv() (map[string]string, error) {
	out := make(map[string]string)
	for _, name := range []string{".env", ".env.local"} {
		path := filepath.Join(l.dir, name)
		data, err := afero.ReadFile(l.fs, path)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return nil, errors.WrapError(err, errors.ErrCodeConfig, "read "+path+" failed")
		}
		vals, err := godotenv.Parse(bytes.NewReader(data))
		if err != nil {
			return nil, errors.WrapError(err, errors.ErrCodeConfig, "parse "+path+" failed")
		}
		for k, val := range vals {
			out[k] = val
		}
	}
	return out, nil
}

// prefixed 选出 PGCRUD_ 前缀的变量并转换为配置键
func prefixed(env map[string]string) map[string]any {
	out := make(map[string]any)
	for k, val := range env {
		if key, ok := strings.CutPrefix(k, envPrefix+"_"); ok && key != "" {
			out[strings.ToLower(key)] = val
		}
	}
	return out
}

// Validate 校验驱动与日志级别
func (c *Config) Validate() error {
	if !dialect.New(c.Driver).Known() {
		return errors.NewError(errors.ErrCodeConfig, fmt.Sprintf("unsupported driver %q", c.Driver)).
			WithContext("driver", c.Driver)
	}
	if _, err := logging.ParseLevel(c.LogLevel); err != nil {
		return errors.NewErrorWithCause(errors.ErrCodeConfig, "invalid log_level", err)
	}
	if c.MaxOpenConns < 0 || c.MaxIdleConns < 0 {
		return errors.NewError(errors.ErrCodeConfig, "pool sizes must not be negative")
	}
	return nil
}

// Database 转换为连接配置
func (c *Config) Database() core.Config {
	return core.Config{
		Driver:          c.Driver,
		DSN:             c.DSN,
		MaxOpenConns:    c.MaxOpenConns,
		MaxIdleConns:    c.MaxIdleConns,
		ConnMaxLifetime: c.ConnMaxLifetime,
		ConnMaxIdleTime: c.ConnMaxIdleTime,
		TxTimeout:       c.TxTimeout,
		StrictParams:    c.StrictParams,
	}
}

// Level 返回日志级别，非法值回退为 Info
func (c *Config) Level() logging.Level {
	level, err := logging.ParseLevel(c.LogLevel)
	if err != nil {
		return logging.InfoLevel
	}
	return level
}
