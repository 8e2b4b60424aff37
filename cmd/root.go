package cmd

import (
	"errors"
	"io/fs"
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spigell/airc/internal/extract"
	"github.com/spigell/airc/internal/jobs"
	"github.com/spigell/airc/internal/storage"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const (
	app       = "airc"
	envPrefix = "AIRC"
)

type Config struct {
	AI      *AIConfig      `mapstructure:"ai"`
	Storage *StorageConfig `mapstructure:"storage"`
	Server  *ServerConfig  `mapstructure:"server"`
	Extract *ExtractConfig `mapstructure:"extract"`
	Jobs    []jobs.Job     `mapstructure:"jobs"`
}

type AIConfig struct {
	Provider string        `mapstructure:"provider"`
	Gemini   *GeminiConfig `mapstructure:"gemini"`
}

type GeminiConfig struct {
	APIKey       string        `mapstructure:"api-key"`
	APIKeyFile   string        `mapstructure:"api-key-file"`
	Model        string        `mapstructure:"model"`
	Timeout      time.Duration `mapstructure:"timeout"`
	MaxLogLength int           `mapstructure:"max-log-length"`
}

type StorageConfig struct {
	Driver string           `mapstructure:"driver"`
	Dir    string           `mapstructure:"dir"`
	S3     storage.S3Config `mapstructure:"s3"`
}

type ServerConfig struct {
	Addr         string        `mapstructure:"addr"`
	MaxUploadMB  int64         `mapstructure:"max-upload-mb"`
	WriteTimeout time.Duration `mapstructure:"write-timeout"`
}

type ExtractConfig struct {
	MaxBytes int64 `mapstructure:"max-bytes"`
}

var (
	// Used for flags.
	cfgFile string

	rootCmd = &cobra.Command{
		Use:   app,
		Short: "airc extracts text from resumes and analyzes them with a language model",
	}
)

// Execute executes the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "a config file (default is airc.yaml in current directory)")
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "verbose/debug output")
	rootCmd.PersistentFlags().BoolP("json", "j", false, "json format for logging")

	viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))

	setDefaults(viper.GetViper())
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ai.provider", "gemini")
	v.SetDefault("ai.gemini.model", "gemini-2.5-flash")
	v.SetDefault("ai.gemini.timeout", 60*time.Second)
	v.SetDefault("ai.gemini.max-log-length", 200)
	v.SetDefault("storage.driver", "local")
	v.SetDefault("storage.dir", "uploads/resumes")
	v.SetDefault("server.addr", ":5000")
	v.SetDefault("server.max-upload-mb", 16)
	v.SetDefault("server.write-timeout", 2*time.Minute)
	v.SetDefault("extract.max-bytes", extract.DefaultMaxBytes)
}

func bindEnv(v *viper.Viper) error {
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if err := v.BindEnv("ai.gemini.api-key", "GEMINI_API_KEY", "AIRC_AI_GEMINI_API_KEY"); err != nil {
		return err
	}
	return v.BindEnv("ai.gemini.api-key-file", "GEMINI_API_KEY_FILE", "AIRC_AI_GEMINI_API_KEY_FILE")
}

func initConfig() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Fatalf("loading .env file: %v", err)
	}

	if err := bindEnv(viper.GetViper()); err != nil {
		log.Fatalf("binding environment variables: %v", err)
	}

	// The version command works without any configuration.
	if versionCmd.CalledAs() != "" {
		return
	}

	if err := readConfig(viper.GetViper(), cfgFile); err != nil {
		log.Fatal(err)
	}
}

// readConfig reads path, or airc.yaml from the working directory when path is
// empty. Only an explicitly requested file is mandatory.
func readConfig(v *viper.Viper, path string) error {
	if path != "" {
		v.SetConfigFile(path)
		return v.ReadInConfig()
	}

	v.AddConfigPath(".")
	v.SetConfigName(app)
	v.SetConfigType("yaml")

	err := v.ReadInConfig()
	var notFound viper.ConfigFileNotFoundError
	if errors.As(err, &notFound) {
		return nil
	}
	return err
}

func getConfig() (*Config, error) {
	return decodeConfig(viper.GetViper())
}

func decodeConfig(v *viper.Viper) (*Config, error) {
	var config *Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, err
	}
	if config == nil {
		config = &Config{}
	}
	if config.AI == nil {
		config.AI = &AIConfig{}
	}
	if config.AI.Gemini == nil {
		config.AI.Gemini = &GeminiConfig{}
	}
	if config.Storage == nil {
		config.Storage = &StorageConfig{}
	}
	if config.Server == nil {
		config.Server = &ServerConfig{}
	}
	if config.Extract == nil {
		config.Extract = &ExtractConfig{}
	}

	return config, nil
}
