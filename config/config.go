package config

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"custodian/version"
)

// Providers accepted by --provider.
const (
	ProviderRuleBased = "rule-based"
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
	ProviderLocal     = "local"
)

const DefaultBackupDir = "./sensitive_backups"

type Config struct {
	Directory       string            `json:"directory"`
	Provider        string            `json:"provider"`
	NoBackup        bool              `json:"no_backup"`
	BackupDir       string            `json:"backup_dir"`
	IncludePatterns []string          `json:"include_patterns"`
	ExcludePatterns []string          `json:"exclude_patterns"`
	SkipExtensions  []string          `json:"skip_extensions"`
	HashAlgorithms  []string          `json:"hash_algorithms"`
	FuzzyHash       bool              `json:"fuzzy_hash"`
	FuzzyAlgorithms []string          `json:"fuzzy_algorithms"`
	MaxIOPerSecond  int               `json:"max_io_per_second"`
	LogLevel        string            `json:"log_level"`
	OpenAIModel     string            `json:"openai_model"`
	AnthropicModel  string            `json:"anthropic_model"`
	OtelEndpoint    string            `json:"otel_endpoint"`
	OtelHeaders     map[string]string `json:"otel_headers"`
	OtelServiceName string            `json:"otel_service_name"`
	OtelTimeout     time.Duration     `json:"otel_timeout"`
	ConfigFile      string            `json:"-"`
}

func LoadConfig() (*Config, error) {
	// Best-effort: provider credentials may live in a .env next to the binary.
	_ = godotenv.Load()

	cfg := Defaults()

	provider := flag.String("provider", cfg.Provider, fmt.Sprintf("Classification provider: %s, %s, %s, or %s (default: %s).", ProviderRuleBased, ProviderOpenAI, ProviderAnthropic, ProviderLocal, cfg.Provider))
	noBackup := flag.Bool("no-backup", cfg.NoBackup, "Classify and report only, do not copy files into the backup store.")
	backupDir := flag.String("backup-dir", cfg.BackupDir, fmt.Sprintf("Backup store directory, created if absent (default: %s).", cfg.BackupDir))
	includes := flag.String("include", "", "Comma-separated list of include patterns (default: none).")
	excludes := flag.String("exclude", "", "Comma-separated list of exclude patterns (default: none).")
	skipExts := flag.String("skip-ext", strings.Join(cfg.SkipExtensions, ","), "Comma-separated extensions never scanned (the tool's own source artifacts).")
	hashes := flag.String("hashes", strings.Join(cfg.HashAlgorithms, ","), fmt.Sprintf("Comma-separated hash algorithms recorded per backup entry (default: %s).", strings.Join(cfg.HashAlgorithms, ",")))
	fuzzyHash := flag.Bool("fuzzy-hash", cfg.FuzzyHash, fmt.Sprintf("Record fuzzy hashes of backed up files (default: %t).", cfg.FuzzyHash))
	fuzzyAlgorithms := flag.String("fuzzy-algorithms", strings.Join(cfg.FuzzyAlgorithms, ","), "Comma-separated fuzzy hash algorithms (default: tlsh when fuzzy hashing enabled).")
	maxIO := flag.Int("max-io-per-second", cfg.MaxIOPerSecond, "Maximum backup copy operations per second (default: 0, unlimited).")
	logLevel := flag.String("log-level", cfg.LogLevel, fmt.Sprintf("Log level: debug, info, warn, error, fatal, or panic (default: %s).", cfg.LogLevel))
	openAIModel := flag.String("openai-model", cfg.OpenAIModel, fmt.Sprintf("Model used by the openai provider (default: %s).", cfg.OpenAIModel))
	anthropicModel := flag.String("anthropic-model", cfg.AnthropicModel, fmt.Sprintf("Model used by the anthropic provider (default: %s).", cfg.AnthropicModel))
	otelEndpoint := flag.String("otel-endpoint", cfg.OtelEndpoint, "OTLP/HTTP logs endpoint for report record export (default: none).")
	otelHeaders := flag.String("otel-headers", "", "Comma-separated OTEL headers (key=value) for export (default: none).")
	otelServiceName := flag.String("otel-service-name", cfg.OtelServiceName, fmt.Sprintf("OTEL service name for export (default: %s).", cfg.OtelServiceName))
	otelTimeout := flag.Duration("otel-timeout", cfg.OtelTimeout, "OTEL export timeout (default: 5s).")
	configFile := flag.String("config", "", "Path to JSON configuration file (default: none).")
	showVersion := flag.Bool("version", false, "Print version and exit")

	flag.Usage = displayHelp
	flag.Parse()

	if *showVersion {
		fmt.Printf("Custodian version %s\n", version.Version)
		os.Exit(0)
	}

	if *configFile != "" {
		cfg.ConfigFile = *configFile
		if err := cfg.loadFromFile(cfg.ConfigFile); err != nil {
			return nil, err
		}
	}

	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "provider":
			cfg.Provider = strings.ToLower(strings.TrimSpace(*provider))
		case "no-backup":
			cfg.NoBackup = *noBackup
		case "backup-dir":
			cfg.BackupDir = *backupDir
		case "include":
			cfg.IncludePatterns = parseCommaSeparated(*includes)
		case "exclude":
			cfg.ExcludePatterns = parseCommaSeparated(*excludes)
		case "skip-ext":
			cfg.SkipExtensions = parseCommaSeparated(*skipExts)
		case "hashes":
			cfg.HashAlgorithms = parseCommaSeparated(*hashes)
		case "fuzzy-hash":
			cfg.FuzzyHash = *fuzzyHash
		case "fuzzy-algorithms":
			cfg.FuzzyAlgorithms = parseCommaSeparated(*fuzzyAlgorithms)
		case "max-io-per-second":
			cfg.MaxIOPerSecond = *maxIO
		case "log-level":
			cfg.LogLevel = *logLevel
		case "openai-model":
			cfg.OpenAIModel = strings.TrimSpace(*openAIModel)
		case "anthropic-model":
			cfg.AnthropicModel = strings.TrimSpace(*anthropicModel)
		case "otel-endpoint":
			cfg.OtelEndpoint = strings.TrimSpace(*otelEndpoint)
		case "otel-headers":
			cfg.OtelHeaders = parseHeaders(*otelHeaders)
		case "otel-service-name":
			cfg.OtelServiceName = strings.TrimSpace(*otelServiceName)
		case "otel-timeout":
			cfg.OtelTimeout = *otelTimeout
		}
	})

	if flag.NArg() > 0 {
		cfg.Directory = flag.Arg(0)
	}

	cfg.Normalize()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Defaults returns a Config with every field at its default value.
func Defaults() *Config {
	return &Config{
		Directory:       ".",
		Provider:        ProviderRuleBased,
		BackupDir:       DefaultBackupDir,
		IncludePatterns: []string{},
		ExcludePatterns: []string{},
		SkipExtensions:  []string{".go", ".py"},
		HashAlgorithms:  []string{"sha256", "xxh64"},
		FuzzyAlgorithms: []string{},
		MaxIOPerSecond:  0,
		LogLevel:        "info",
		OpenAIModel:     "gpt-4",
		AnthropicModel:  "claude-3-5-sonnet-20241022",
		OtelHeaders:     map[string]string{},
		OtelServiceName: "custodian",
		OtelTimeout:     5 * time.Second,
	}
}

func displayHelp() {
	fmt.Println("Custodian - Sensitive File Classification and Backup")
	fmt.Println()
	fmt.Println("Scans one directory, flags files whose names look sensitive, copies")
	fmt.Println("the flagged files into a backup store, and writes a JSON run report.")
	fmt.Println("Source files are never modified.")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  custodian [options] [directory]")
	fmt.Println()
	fmt.Println("Options:")
	flag.PrintDefaults()
	fmt.Println()
	fmt.Println("Examples:")
	fmt.Println("  custodian ~/Documents")
	fmt.Println("  custodian --provider anthropic --no-backup .")
	fmt.Println("  custodian --backup-dir /mnt/vault --fuzzy-hash /srv/share")
}

// Normalize canonicalizes provider, paths, and algorithm lists after merging
// file and flag values.
func (cfg *Config) Normalize() {
	cfg.Provider = strings.ToLower(strings.TrimSpace(cfg.Provider))
	if cfg.Provider == "" {
		cfg.Provider = ProviderRuleBased
	}
	if strings.TrimSpace(cfg.Directory) == "" {
		cfg.Directory = "."
	}
	if strings.TrimSpace(cfg.BackupDir) == "" {
		cfg.BackupDir = DefaultBackupDir
	}
	cfg.SkipExtensions = normalizeExtensions(cfg.SkipExtensions)
	cfg.HashAlgorithms = normalizeAlgorithms(cfg.HashAlgorithms)
	cfg.FuzzyAlgorithms = normalizeAlgorithms(cfg.FuzzyAlgorithms)
	if cfg.FuzzyHash && len(cfg.FuzzyAlgorithms) == 0 {
		cfg.FuzzyAlgorithms = []string{"tlsh"}
	}
	if len(cfg.FuzzyAlgorithms) > 0 {
		cfg.FuzzyHash = true
	}
}

func (cfg *Config) loadFromFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("could not read config file: %v", err)
	}
	if err := json.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("invalid config file format: %v", err)
	}
	return nil
}

func (cfg *Config) Validate() error {
	switch cfg.Provider {
	case ProviderRuleBased, ProviderOpenAI, ProviderAnthropic, ProviderLocal:
	default:
		return fmt.Errorf("invalid provider: %s", cfg.Provider)
	}
	if cfg.MaxIOPerSecond < 0 {
		return fmt.Errorf("max-io-per-second must be zero or positive")
	}
	if cfg.LogLevel != "debug" && cfg.LogLevel != "info" && cfg.LogLevel != "warn" &&
		cfg.LogLevel != "error" && cfg.LogLevel != "fatal" && cfg.LogLevel != "panic" {
		return fmt.Errorf("invalid log level: %s", cfg.LogLevel)
	}
	if cfg.OtelTimeout < 0 {
		return fmt.Errorf("otel-timeout must be zero or positive")
	}
	if cfg.OtelEndpoint != "" {
		if !strings.HasPrefix(cfg.OtelEndpoint, "http://") && !strings.HasPrefix(cfg.OtelEndpoint, "https://") {
			return fmt.Errorf("otel-endpoint must include scheme (http or https)")
		}
	}
	return nil
}

func parseCommaSeparated(input string) []string {
	if input == "" {
		return []string{}
	}
	items := strings.Split(input, ",")
	for i, item := range items {
		items[i] = strings.TrimSpace(item)
	}
	return items
}

func parseHeaders(input string) map[string]string {
	headers := make(map[string]string)
	if input == "" {
		return headers
	}
	for _, item := range strings.Split(input, ",") {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		parts := strings.SplitN(item, "=", 2)
		if len(parts) != 2 {
			continue
		}
		key := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])
		if key == "" {
			continue
		}
		headers[key] = value
	}
	return headers
}

func normalizeAlgorithms(items []string) []string {
	normalized := make([]string, 0, len(items))
	for _, item := range items {
		item = strings.ToLower(strings.TrimSpace(item))
		if item == "" {
			continue
		}
		normalized = append(normalized, item)
	}
	return normalized
}

func normalizeExtensions(items []string) []string {
	normalized := make([]string, 0, len(items))
	for _, item := range items {
		item = strings.ToLower(strings.TrimSpace(item))
		if item == "" {
			continue
		}
		if !strings.HasPrefix(item, ".") {
			item = "." + item
		}
		normalized = append(normalized, item)
	}
	return normalized
}
