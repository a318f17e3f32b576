package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"
	"github.com/rs/zerolog/log"

	"rc-stats/internal/ords"
	"rc-stats/internal/provider"
	"rc-stats/internal/refdata"
	"rc-stats/internal/stats"
	"rc-stats/internal/store"
)

// AppConfig holds the complete application configuration.
type AppConfig struct {
	DataPath string
	LogDir   string

	DBDriver string
	DBDSN    string

	Confidence       stats.ConfidenceLevel
	ShowPersonalData bool

	// ExternalProvider is used when its BaseURL is set.
	ExternalProvider    provider.HTTPConfig
	ExternalRecordsFile string
	ReferenceDataFile   string

	ORDS   ords.Options
	ORDSS3 ords.S3Config

	HTTPAddr            string
	EnableMermaidCharts bool
}

// Load loads the configuration from .env files and environment variables.
func Load() (*AppConfig, error) {
	// 1. Try to load from the executable's directory (highest priority for MCP servers)
	exePath, err := os.Executable()
	exeDir := ""
	if err == nil {
		exeDir = filepath.Dir(exePath)
		envPath := filepath.Join(exeDir, ".env")
		if err := godotenv.Load(envPath); err == nil {
			log.Debug().Str("path", envPath).Msg("Loaded configuration from binary directory")
		}
	}

	// 2. Fallback to current working directory
	if err := godotenv.Load(); err != nil {
		log.Debug().Msg("No .env file found in working directory, relying on environment variables or binary-relative .env")
	}

	return fromEnv(exeDir)
}

// fromEnv builds the configuration from the process environment alone.
func fromEnv(exeDir string) (*AppConfig, error) {
	dataPath := os.Getenv("DATA_PATH")
	if dataPath == "" {
		if exeDir != "" {
			dataPath = exeDir
		} else {
			dataPath = "."
		}
	}

	logDir := filepath.Join(dataPath, "logs")
	if err := os.MkdirAll(logDir, 0755); err != nil {
		log.Warn().Err(err).Str("path", logDir).Msg("Failed to create log directory")
	}

	level, err := stats.ParseConfidenceLevel(getEnv("CONFIDENCE_LEVEL", ""))
	if err != nil {
		return nil, fmt.Errorf("CONFIDENCE_LEVEL: %w", err)
	}

	driver := getEnv("DB_DRIVER", store.DriverSQLite)
	dsn := getEnv("DB_DSN", "")
	if dsn == "" && driver == store.DriverSQLite {
		dsn = filepath.Join(dataPath, "rc-stats.db")
	}

	cfg := &AppConfig{
		DataPath:         dataPath,
		LogDir:           logDir,
		DBDriver:         driver,
		DBDSN:            dsn,
		Confidence:       level,
		ShowPersonalData: getEnvBool("SHOW_PERSONAL_DATA", false),
		ExternalProvider: provider.HTTPConfig{
			BaseURL:  getEnv("EXTERNAL_PROVIDER_URL", ""),
			Token:    getEnv("EXTERNAL_PROVIDER_TOKEN", ""),
			Timeout:  time.Duration(getEnvInt("EXTERNAL_PROVIDER_TIMEOUT_SECONDS", 30)) * time.Second,
			CacheTTL: time.Duration(getEnvInt("EXTERNAL_PROVIDER_CACHE_TTL_SECONDS", 60)) * time.Second,
		},
		ExternalRecordsFile: getEnv("EXTERNAL_RECORDS_FILE", ""),
		ReferenceDataFile:   getEnv("REFERENCE_DATA_FILE", ""),
		ORDS: ords.Options{
			DataProvider:   getEnv("ORDS_DATA_PROVIDER", "Repair Café"),
			DefaultCountry: getEnv("ORDS_DEFAULT_COUNTRY", ""),
			ItemTypes:      getEnvList("ORDS_ITEM_TYPES"),
		},
		ORDSS3: ords.S3Config{
			Bucket:    getEnv("ORDS_S3_BUCKET", ""),
			Region:    getEnv("ORDS_S3_REGION", ""),
			Endpoint:  getEnv("ORDS_S3_ENDPOINT", ""),
			PathStyle: getEnvBool("ORDS_S3_PATH_STYLE", false),
		},
		HTTPAddr:            getEnv("HTTP_ADDR", ":8080"),
		EnableMermaidCharts: getEnvBool("ENABLE_MERMAID_CHARTS", false),
	}

	return cfg, nil
}

// referenceFile is the layout of the reference data YAML file.
type referenceFile struct {
	ItemTypes       []refdata.Term `koanf:"item_type"`
	FixerStations   []refdata.Term `koanf:"fixer_station"`
	VolunteerRoles  []refdata.Term `koanf:"volunteer_role"`
	EventCategories []refdata.Term `koanf:"event_category"`
}

// LoadReferenceData reads a reference data YAML file.
func LoadReferenceData(path string) (refdata.Static, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read reference data: %w", err)
	}
	return ParseReferenceData(content)
}

// ParseReferenceData decodes reference data YAML. Terms without a position
// are placed in file order.
func ParseReferenceData(content []byte) (refdata.Static, error) {
	k := koanf.New(".")
	if err := k.Load(rawbytes.Provider(content), yaml.Parser()); err != nil {
		return nil, fmt.Errorf("parse reference data: %w", err)
	}
	var f referenceFile
	if err := k.Unmarshal("", &f); err != nil {
		return nil, fmt.Errorf("decode reference data: %w", err)
	}

	out := refdata.Static{
		refdata.ItemTypes:       f.ItemTypes,
		refdata.FixerStations:   f.FixerStations,
		refdata.VolunteerRoles:  f.VolunteerRoles,
		refdata.EventCategories: f.EventCategories,
	}
	for taxonomy, terms := range out {
		seen := make(map[int64]bool, len(terms))
		for i := range terms {
			t := &terms[i]
			t.Name = strings.TrimSpace(t.Name)
			if t.Name == "" {
				return nil, fmt.Errorf("%s term %d has no name", taxonomy, t.ID)
			}
			if t.ID == taxonomy.Unspecified() {
				return nil, fmt.Errorf("%s term %q uses the reserved id %d", taxonomy, t.Name, t.ID)
			}
			if seen[t.ID] {
				return nil, fmt.Errorf("%s term id %d is duplicated", taxonomy, t.ID)
			}
			seen[t.ID] = true
			if t.Position == 0 {
				t.Position = i + 1
			}
		}
	}
	return out, nil
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if value, ok := os.LookupEnv(key); ok {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok {
		if intVal, err := strconv.Atoi(strings.TrimSpace(value)); err == nil {
			return intVal
		}
	}
	return fallback
}

// getEnvList splits a comma separated value, dropping empty entries.
func getEnvList(key string) []string {
	var out []string
	for _, part := range strings.Split(os.Getenv(key), ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
