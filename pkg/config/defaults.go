package config

import "time"

// Repository defaults.
const (
	DefaultRepositoryPath   = "."
	DefaultRepositoryBranch = "main"
)

// Mining defaults.
const (
	DefaultMiningMode              = ModeBranch
	DefaultMiningBinary            = "RefactoringMiner"
	DefaultMiningTimeout           = time.Duration(0)
	DefaultMiningWriteRefactorings = true
	DefaultMiningJavaOnly          = false
)

// Designite defaults.
const (
	DefaultDesigniteJava    = "java"
	DefaultDesigniteJar     = "DesigniteJava.jar"
	DefaultDesigniteTimeout = 30 * time.Minute
)

// SonarQube defaults.
const (
	DefaultSonarServerURL    = "http://localhost:9000"
	DefaultSonarScanner      = "sonar-scanner"
	DefaultSonarProjectKey   = "smellwalk"
	DefaultSonarPollInterval = 2 * time.Second
	DefaultSonarTaskTimeout  = 10 * time.Minute
	DefaultSonarPageSize     = 500
)

// Analysis defaults.
const (
	DefaultAnalysisMode           = AnalysisStrict
	DefaultMaxConsecutiveFailures = 3
	DefaultDebtMajorThreshold     = 60
)

// Results defaults.
const (
	DefaultResultsDir             = "results"
	DefaultResultsFile            = "datasets.csv"
	DefaultResultsRefactoringFile = "refactoringFound.csv"
)

// Logging and telemetry defaults.
const (
	DefaultLoggingLevel         = "info"
	DefaultTelemetryJobName     = "smellwalk"
	DefaultTelemetrySampleRatio = 1.0
)
