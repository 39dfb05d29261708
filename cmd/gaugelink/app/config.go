package app

import (
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/riverlabs/gaugelink/pkg/reconcile"
)

// Config holds the application configuration loaded from flags,
// environment variables, .env files and the optional config file.
type Config struct {
	// Global flags
	Verbose bool
	Quiet   bool
	NoColor bool

	// Config file
	ConfigFile string

	// Input paths
	LinksPath    string
	FeaturesPath string

	// Output paths; empty disables the corresponding emitter.
	OutputPath   string
	AuditPath    string
	WorkbookPath string
	StatsPath    string

	// Threshold is the fuzzy acceptance threshold.
	Threshold float64

	// Logging configuration
	LogLevel  string
	LogFormat string
	LogOutput string
}

// LoadConfig loads configuration from all sources in order of
// precedence: command-line flags (handled by cobra), environment
// variables, .env files, config file (~/.gaugelink.yaml), defaults.
func LoadConfig() (*Config, error) {
	loadEnvFiles()

	viper.AutomaticEnv()
	viper.SetEnvPrefix("GAUGELINK")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))

	viper.SetDefault("links", "links.csv")
	viper.SetDefault("features", "source.geojson")
	viper.SetDefault("output", "reconciled.geojson")
	viper.SetDefault("audit", "reconcile.log")
	viper.SetDefault("workbook", "reconcile.xlsx")
	viper.SetDefault("threshold", reconcile.DefaultThreshold)

	configFile := viper.GetString("config")
	if configFile != "" {
		viper.SetConfigFile(configFile)
	} else {
		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(home)
			viper.AddConfigPath(".")
			viper.SetConfigType("yaml")
			viper.SetConfigName(".gaugelink")
		}
	}

	// Config file is optional.
	_ = viper.ReadInConfig()

	config := &Config{
		Verbose: viper.GetBool("verbose"),
		Quiet:   viper.GetBool("quiet"),
		NoColor: viper.GetBool("no-color"),

		ConfigFile: viper.ConfigFileUsed(),

		LinksPath:    viper.GetString("links"),
		FeaturesPath: viper.GetString("features"),
		OutputPath:   viper.GetString("output"),
		AuditPath:    viper.GetString("audit"),
		WorkbookPath: viper.GetString("workbook"),
		StatsPath:    viper.GetString("stats"),

		Threshold: viper.GetFloat64("threshold"),

		LogLevel:  getEnvOrDefault("LOG_LEVEL", ""),
		LogFormat: getEnvOrDefault("LOG_FORMAT", "auto"),
		LogOutput: getEnvOrDefault("LOG_OUTPUT", "stderr"),
	}

	return config, nil
}

// UpdateFromFlags applies parsed cobra flag values onto the config.
func (c *Config) UpdateFromFlags(verbose, quiet, noColor bool, logLevel string) {
	c.Verbose = verbose
	c.Quiet = quiet
	c.NoColor = noColor
	if logLevel != "" {
		c.LogLevel = logLevel
	}
}

// loadEnvFiles loads .env files from the working directory.
// Missing files are fine; explicit environment always wins since
// godotenv does not override existing variables.
func loadEnvFiles() {
	for _, name := range []string{".env.local", ".env"} {
		_ = godotenv.Load(name)
	}
}

// getEnvOrDefault returns an environment variable or a fallback value.
func getEnvOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
