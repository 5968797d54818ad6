package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	yaml "gopkg.in/yaml.v3"
)

// 環境変数名
const (
	EnvURL      = "PHPMYADMIN_URL"
	EnvUsername = "PHPMYADMIN_USERNAME"
	EnvPassword = "PHPMYADMIN_PASSWORD"
	EnvDatabase = "DATABASE_NAME"
	EnvTable    = "TABLE_NAME"

	DefaultEnvFile = ".env"
)

// ErrMissingSetting は必須の設定値が不足していることを示します。
var ErrMissingSetting = errors.New("必須の設定値が不足しています")

// Config は管理画面への接続設定です。
type Config struct {
	URL      string `yaml:"url"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	Database string `yaml:"database"`
	Table    string `yaml:"table"`
}

// LoadEnvFiles は dotenv 形式のファイルを読み込み、未設定の環境変数だけを補います。
// 存在しないファイルは無視されます。
func LoadEnvFiles(paths ...string) error {
	for _, p := range paths {
		if strings.TrimSpace(p) == "" {
			continue
		}
		if err := godotenv.Load(p); err != nil {
			if errors.Is(err, os.ErrNotExist) {
				continue
			}
			return fmt.Errorf("環境変数ファイル %s の読み込みに失敗しました: %w", p, err)
		}
	}
	return nil
}

// LoadFile は YAML 形式の設定ファイルを読み込みます。
func LoadFile(path string) (Config, error) {
	var cfg Config
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("設定ファイル %s の読み込みに失敗しました: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("設定ファイル %s の解析に失敗しました: %w", path, err)
	}
	return cfg, nil
}

// ApplyEnv は環境変数で設定されている値を cfg に上書きします。
func (c *Config) ApplyEnv() {
	override := func(dst *string, key string) {
		if v := strings.TrimSpace(os.Getenv(key)); v != "" {
			*dst = v
		}
	}
	override(&c.URL, EnvURL)
	override(&c.Username, EnvUsername)
	override(&c.Password, EnvPassword)
	override(&c.Database, EnvDatabase)
	override(&c.Table, EnvTable)
}

// Validate は5つの設定値がすべて揃っているかを確認し、不足している環境変数名を列挙したエラーを返します。
func (c Config) Validate() error {
	var missing []string
	check := func(value, key string) {
		if strings.TrimSpace(value) == "" {
			missing = append(missing, key)
		}
	}
	check(c.URL, EnvURL)
	check(c.Username, EnvUsername)
	check(c.Password, EnvPassword)
	check(c.Database, EnvDatabase)
	check(c.Table, EnvTable)

	if len(missing) > 0 {
		return fmt.Errorf("%w: %s", ErrMissingSetting, strings.Join(missing, ", "))
	}
	return nil
}

// Load は設定ファイル (任意)、dotenv ファイル、環境変数の順に値を重ねて Config を組み立てます。
// 検証は行いません。コマンドラインでの上書き後に Validate を呼び出してください。
func Load(configFile string, envFiles ...string) (Config, error) {
	var cfg Config
	if configFile != "" {
		loaded, err := LoadFile(configFile)
		if err != nil {
			return cfg, err
		}
		cfg = loaded
	}

	if err := LoadEnvFiles(envFiles...); err != nil {
		return cfg, err
	}
	cfg.ApplyEnv()
	return cfg, nil
}
