// Package config provides configuration loading and validation for smellwalk.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Mining modes.
const (
	ModeBranch = "branch"
	ModeRange  = "range"
)

// Analysis modes.
const (
	AnalysisStrict  = "strict"
	AnalysisMinimal = "minimal"
)

// maxPageSize is the largest page SonarQube serves.
const maxPageSize = 500

// Sentinel validation errors.
var (
	ErrMissingRepository  = errors.New("repository path is required")
	ErrInvalidMiningMode  = errors.New("mining mode must be branch or range")
	ErrMissingBranch      = errors.New("branch mode requires a branch")
	ErrMissingRange       = errors.New("range mode requires start and end commits")
	ErrMissingJar         = errors.New("designite jar is required")
	ErrMissingSonarServer = errors.New("sonarqube server url is required")
	ErrInvalidPageSize    = errors.New("sonarqube page size must be between 1 and 500")
	ErrInvalidAnalysis    = errors.New("analysis mode must be strict or minimal")
	ErrInvalidFailures    = errors.New("max consecutive failures must be positive")
	ErrInvalidThreshold   = errors.New("debt major threshold must be positive")
	ErrInvalidLogLevel    = errors.New("invalid logging level")
	ErrInvalidSampleRatio = errors.New("telemetry sample ratio must be between 0 and 1")
)

// Config holds all configuration for a smellwalk run.
type Config struct {
	Repository RepositoryConfig `mapstructure:"repository"`
	Mining     MiningConfig     `mapstructure:"mining"`
	Designite  DesigniteConfig  `mapstructure:"designite"`
	Sonar      SonarConfig      `mapstructure:"sonar"`
	Analysis   AnalysisConfig   `mapstructure:"analysis"`
	Results    ResultsConfig    `mapstructure:"results"`
	Logging    LoggingConfig    `mapstructure:"logging"`
	Telemetry  TelemetryConfig  `mapstructure:"telemetry"`
}

// RepositoryConfig selects the repository and branch to walk.
type RepositoryConfig struct {
	Path   string `mapstructure:"path"`
	Branch string `mapstructure:"branch"`
}

// MiningConfig configures RefactoringMiner.
type MiningConfig struct {
	Mode              string        `mapstructure:"mode"`
	StartCommit       string        `mapstructure:"start_commit"`
	EndCommit         string        `mapstructure:"end_commit"`
	Binary            string        `mapstructure:"refactoring_miner"`
	Timeout           time.Duration `mapstructure:"timeout"`
	WriteRefactorings bool          `mapstructure:"write_refactorings"`
	// JavaOnly drops commits none of whose refactorings start in a Java
	// file before they are walked.
	JavaOnly          bool          `mapstructure:"java_only"`
}

// DesigniteConfig configures DesigniteJava.
type DesigniteConfig struct {
	Java      string        `mapstructure:"java"`
	Jar       string        `mapstructure:"jar"`
	OutputDir string        `mapstructure:"output_dir"`
	Timeout   time.Duration `mapstructure:"timeout"`
}

// SonarConfig configures the SonarQube server and scanner.
type SonarConfig struct {
	ServerURL  string `mapstructure:"server_url"`
	Token      string `mapstructure:"token"`
	Scanner    string `mapstructure:"scanner"`
	ProjectKey string `mapstructure:"project_key"`
	WorkDir    string `mapstructure:"work_dir"`
	// Properties are extra scanner properties as "key=value".
	Properties   []string      `mapstructure:"properties"`
	PollInterval time.Duration `mapstructure:"poll_interval"`
	TaskTimeout  time.Duration `mapstructure:"task_timeout"`
	PageSize     int           `mapstructure:"page_size"`
}

// AnalysisConfig tunes the correlation.
type AnalysisConfig struct {
	Mode                   string `mapstructure:"mode"`
	AdmissibilityTable     string `mapstructure:"admissibility_table"`
	MaxConsecutiveFailures int    `mapstructure:"max_consecutive_failures"`
	DebtMajorThreshold     int64  `mapstructure:"debt_major_threshold"`
}

// ResultsConfig places the output files.
type ResultsConfig struct {
	Dir             string `mapstructure:"dir"`
	File            string `mapstructure:"file"`
	RefactoringFile string `mapstructure:"refactoring_file"`
}

// LoggingConfig holds logging-specific configuration.
type LoggingConfig struct {
	Level string `mapstructure:"level"`
	JSON  bool   `mapstructure:"json"`
}

// TelemetryConfig holds OpenTelemetry export settings.
type TelemetryConfig struct {
	OTLPEndpoint   string  `mapstructure:"otlp_endpoint"`
	OTLPHeaders    string  `mapstructure:"otlp_headers"`
	OTLPInsecure   bool    `mapstructure:"otlp_insecure"`
	PushgatewayURL string  `mapstructure:"pushgateway_url"`
	JobName        string  `mapstructure:"job_name"`
	SampleRatio    float64 `mapstructure:"sample_ratio"`
}

// LoadConfig loads configuration from file and environment variables.
// An empty configPath searches for smellwalk.yaml.
func LoadConfig(configPath string) (*Config, error) {
	viperCfg := viper.New()

	setDefaults(viperCfg)

	if configPath != "" {
		viperCfg.SetConfigFile(configPath)
	} else {
		viperCfg.SetConfigName("smellwalk")
		viperCfg.SetConfigType("yaml")
		viperCfg.AddConfigPath(".")
		viperCfg.AddConfigPath("./config")
		viperCfg.AddConfigPath("/etc/smellwalk")
	}

	viperCfg.SetEnvPrefix("SMELLWALK")
	viperCfg.AutomaticEnv()
	viperCfg.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	readErr := viperCfg.ReadInConfig()
	if readErr != nil {
		var notFoundErr viper.ConfigFileNotFoundError
		if !errors.As(readErr, &notFoundErr) {
			return nil, fmt.Errorf("failed to read config file: %w", readErr)
		}
	}

	var config Config

	unmarshalErr := viperCfg.Unmarshal(&config)
	if unmarshalErr != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", unmarshalErr)
	}

	validateErr := Validate(&config)
	if validateErr != nil {
		return nil, fmt.Errorf("invalid configuration: %w", validateErr)
	}

	return &config, nil
}

// setDefaults sets default configuration values.
func setDefaults(viperCfg *viper.Viper) {
	viperCfg.SetDefault("repository.path", DefaultRepositoryPath)
	viperCfg.SetDefault("repository.branch", DefaultRepositoryBranch)

	viperCfg.SetDefault("mining.mode", DefaultMiningMode)
	viperCfg.SetDefault("mining.start_commit", "")
	viperCfg.SetDefault("mining.end_commit", "")
	viperCfg.SetDefault("mining.refactoring_miner", DefaultMiningBinary)
	viperCfg.SetDefault("mining.timeout", DefaultMiningTimeout)
	viperCfg.SetDefault("mining.write_refactorings", DefaultMiningWriteRefactorings)
	viperCfg.SetDefault("mining.java_only", DefaultMiningJavaOnly)

	viperCfg.SetDefault("designite.java", DefaultDesigniteJava)
	viperCfg.SetDefault("designite.jar", DefaultDesigniteJar)
	viperCfg.SetDefault("designite.output_dir", "")
	viperCfg.SetDefault("designite.timeout", DefaultDesigniteTimeout)

	viperCfg.SetDefault("sonar.server_url", DefaultSonarServerURL)
	viperCfg.SetDefault("sonar.token", "")
	viperCfg.SetDefault("sonar.scanner", DefaultSonarScanner)
	viperCfg.SetDefault("sonar.project_key", DefaultSonarProjectKey)
	viperCfg.SetDefault("sonar.work_dir", "")
	viperCfg.SetDefault("sonar.poll_interval", DefaultSonarPollInterval)
	viperCfg.SetDefault("sonar.task_timeout", DefaultSonarTaskTimeout)
	viperCfg.SetDefault("sonar.page_size", DefaultSonarPageSize)

	viperCfg.SetDefault("analysis.mode", DefaultAnalysisMode)
	viperCfg.SetDefault("analysis.admissibility_table", "")
	viperCfg.SetDefault("analysis.max_consecutive_failures", DefaultMaxConsecutiveFailures)
	viperCfg.SetDefault("analysis.debt_major_threshold", DefaultDebtMajorThreshold)

	viperCfg.SetDefault("results.dir", DefaultResultsDir)
	viperCfg.SetDefault("results.file", DefaultResultsFile)
	viperCfg.SetDefault("results.refactoring_file", DefaultResultsRefactoringFile)

	viperCfg.SetDefault("logging.level", DefaultLoggingLevel)
	viperCfg.SetDefault("logging.json", false)

	viperCfg.SetDefault("telemetry.otlp_endpoint", "")
	viperCfg.SetDefault("telemetry.otlp_headers", "")
	viperCfg.SetDefault("telemetry.otlp_insecure", false)
	viperCfg.SetDefault("telemetry.pushgateway_url", "")
	viperCfg.SetDefault("telemetry.job_name", DefaultTelemetryJobName)
	viperCfg.SetDefault("telemetry.sample_ratio", DefaultTelemetrySampleRatio)
}

// Validate checks a configuration. It is run by LoadConfig and again by the
// CLI after flags have been applied.
func Validate(config *Config) error {
	if config.Repository.Path == "" {
		return ErrMissingRepository
	}

	switch config.Mining.Mode {
	case ModeBranch:
		if config.Repository.Branch == "" {
			return ErrMissingBranch
		}
	case ModeRange:
		if config.Mining.StartCommit == "" || config.Mining.EndCommit == "" {
			return ErrMissingRange
		}
	default:
		return fmt.Errorf("%w: %q", ErrInvalidMiningMode, config.Mining.Mode)
	}

	if config.Designite.Jar == "" {
		return ErrMissingJar
	}

	if config.Sonar.ServerURL == "" {
		return ErrMissingSonarServer
	}

	if config.Sonar.PageSize <= 0 || config.Sonar.PageSize > maxPageSize {
		return fmt.Errorf("%w: %d", ErrInvalidPageSize, config.Sonar.PageSize)
	}

	if config.Analysis.Mode != AnalysisStrict && config.Analysis.Mode != AnalysisMinimal {
		return fmt.Errorf("%w: %q", ErrInvalidAnalysis, config.Analysis.Mode)
	}

	if config.Analysis.MaxConsecutiveFailures <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidFailures, config.Analysis.MaxConsecutiveFailures)
	}

	if config.Analysis.DebtMajorThreshold <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidThreshold, config.Analysis.DebtMajorThreshold)
	}

	switch strings.ToLower(config.Logging.Level) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("%w: %q", ErrInvalidLogLevel, config.Logging.Level)
	}

	if config.Telemetry.SampleRatio < 0 || config.Telemetry.SampleRatio > 1 {
		return fmt.Errorf("%w: %v", ErrInvalidSampleRatio, config.Telemetry.SampleRatio)
	}

	return nil
}
