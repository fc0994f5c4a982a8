package backend

import (
	"fmt"

	"regdash/internal/config"
	"regdash/internal/generator"
)

// FromAppConfig converts the application config to backend config
func FromAppConfig(appConfig *config.Config) (Config, error) {
	if appConfig == nil {
		return Config{}, fmt.Errorf("app config is nil")
	}

	backendType := BackendType(appConfig.DataBackend)
	if !backendType.IsValid() {
		return Config{}, fmt.Errorf("invalid backend type in config: %s", appConfig.DataBackend)
	}

	return Config{
		Type: backendType,

		DataFile:          appConfig.DataFile,
		GenerateIfMissing: appConfig.GenerateIfMissing,
		GeneratorProfile:  appConfig.GeneratorProfile,
		GeneratorSeed:     appConfig.GeneratorSeed,

		SQLiteDBPath: appConfig.SQLiteDBPath,

		GoogleSpreadsheetID: appConfig.GoogleSpreadsheetID,
		GoogleSheetName:     appConfig.GoogleSheetName,

		S3Bucket:   appConfig.S3Bucket,
		S3Key:      appConfig.S3Key,
		AWSRegion:  appConfig.AWSRegion,
		AWSProfile: appConfig.AWSProfile,
	}, nil
}

// Validate validates the backend configuration
func (c Config) Validate() error {
	if !c.Type.IsValid() {
		return fmt.Errorf("invalid backend type: %s", c.Type)
	}

	switch c.Type {
	case CSVBackend:
		if c.DataFile == "" {
			return fmt.Errorf("data file is required for csv backend")
		}
		if c.GenerateIfMissing && !generator.Profile(c.GeneratorProfile).IsValid() {
			return fmt.Errorf("invalid generator profile for csv backend: %q", c.GeneratorProfile)
		}

	case SQLiteBackend:
		if c.SQLiteDBPath == "" {
			return fmt.Errorf("SQLite database path is required for sqlite backend")
		}

	case SheetsBackend:
		if c.GoogleSpreadsheetID == "" {
			return fmt.Errorf("Google Spreadsheet ID is required for sheets backend")
		}

	case S3Backend:
		if c.S3Bucket == "" || c.S3Key == "" {
			return fmt.Errorf("S3 bucket and key are required for s3 backend")
		}
	}

	return nil
}

// GetBackendTypes returns all valid backend types
func GetBackendTypes() []BackendType {
	return []BackendType{CSVBackend, SQLiteBackend, SheetsBackend, S3Backend}
}

// GetBackendTypeStrings returns all valid backend type strings
func GetBackendTypeStrings() []string {
	types := GetBackendTypes()
	strings := make([]string, len(types))
	for i, t := range types {
		strings[i] = t.String()
	}
	return strings
}
