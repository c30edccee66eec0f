package backend

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	appDirName         = "geonotes"
	defaultStore       = StoreBackendSQLite
	envPrefix          = "GEONOTES"
	defaultEnvFileName = ".env"
)

// Config は起動時に決まる設定
type Config struct {
	DataDir              string `mapstructure:"data_dir"`
	Store                string `mapstructure:"store"`
	DriveCredentialsPath string `mapstructure:"drive_credentials"`
	Debug                bool   `mapstructure:"debug"`
}

// LoadConfig は .env と環境変数 (GEONOTES_*) から設定を読み込む
func LoadConfig() (*Config, error) {
	if _, err := os.Stat(defaultEnvFileName); err == nil {
		if err := godotenv.Load(defaultEnvFileName); err != nil {
			fmt.Printf("Error loading .env file: %v\n", err)
		}
	}
	return loadConfig(viper.New())
}

func loadConfig(v *viper.Viper) (*Config, error) {
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("data_dir", defaultDataDir())
	v.SetDefault("store", defaultStore)
	v.SetDefault("drive_credentials", "")
	v.SetDefault("debug", false)

	config := &Config{
		DataDir:              v.GetString("data_dir"),
		Store:                strings.ToLower(strings.TrimSpace(v.GetString("store"))),
		DriveCredentialsPath: v.GetString("drive_credentials"),
		Debug:                v.GetBool("debug"),
	}
	if err := config.validate(); err != nil {
		return nil, err
	}
	return config, nil
}

func (c *Config) validate() error {
	if c.DataDir == "" {
		return fmt.Errorf("data_dir must not be empty")
	}
	switch c.Store {
	case StoreBackendSQLite, StoreBackendFile:
	default:
		return fmt.Errorf("unsupported store backend %q (want %q or %q)", c.Store, StoreBackendSQLite, StoreBackendFile)
	}
	return nil
}

// defaultDataDir はユーザー設定ディレクトリ配下のアプリケーションデータディレクトリを返す
func defaultDataDir() string {
	appData, err := os.UserConfigDir()
	if err != nil {
		appData, err = os.UserHomeDir()
		if err != nil {
			appData = "."
		}
	}
	return filepath.Join(appData, appDirName)
}
