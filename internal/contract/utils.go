package contract

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
	"github.com/huangsam/repopulse/schema"
)

// Color variables for console output.
var (
	RedColor    = color.New(color.FgRed, color.Bold) // needs attention
	YellowColor = color.New(color.FgYellow)          // watch
	GreenColor  = color.New(color.FgGreen)           // healthy
)

// GetPlainStatusLabel returns the plain text label for a health status.
// This is the core logic used for CSV, JSON, and table printing.
func GetPlainStatusLabel(status schema.HealthStatus) string {
	return strings.ToUpper(string(status))
}

// GetColorStatusLabel returns a colored label for console table output.
func GetColorStatusLabel(status schema.HealthStatus) string {
	text := GetPlainStatusLabel(status)

	switch status {
	case schema.RedStatus:
		return RedColor.Sprint(text)
	case schema.YellowStatus:
		return YellowColor.Sprint(text)
	case schema.GreenStatus:
		return GreenColor.Sprint(text)
	default:
		return text
	}
}

// SelectOutputFile returns the appropriate file handle for output, based on
// the provided file path. It falls back to os.Stdout when no path is given.
func SelectOutputFile(filePath string) (*os.File, error) {
	if filePath == "" {
		return os.Stdout, nil
	}
	return os.Create(filePath)
}

// FileHash returns the hex SHA-256 of a file's bytes, or "" when the file
// does not exist. Run records store these hashes for reproducibility.
func FileHash(path string) string {
	data, err := os.ReadFile(path)
	if err != nil {
		return ""
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// TruncateMessage truncates an error message for summary display.
func TruncateMessage(msg string, maxLen int) string {
	runes := []rune(msg)
	if len(runes) > maxLen && maxLen > 3 {
		return string(runes[:maxLen-3]) + "..."
	}
	return msg
}

// ParseBoolString parses a string value into a boolean.
// Accepts "yes", "no", "true", "false", "1", "0" (case-insensitive).
// Returns an error for invalid values.
func ParseBoolString(s string) (bool, error) {
	switch strings.ToLower(s) {
	case "yes", "true", "1":
		return true, nil
	case "no", "false", "0":
		return false, nil
	default:
		return false, fmt.Errorf("invalid boolean string: %s (expected yes/no/true/false/1/0)", s)
	}
}

// LogFatal logs an error and exits the program.
func LogFatal(msg string, err error) {
	_, _ = fmt.Fprintf(os.Stderr, "Fatal %s: %v\n", msg, err)
	os.Exit(1)
}

// LogWarn logs a warning message to stderr.
func LogWarn(msg string, err error) {
	_, _ = fmt.Fprintf(os.Stderr, "Warn %s: %v\n", msg, err)
}

// GetDBFilePath returns the path to the default SQLite DB file.
func GetDBFilePath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ".repopulse.db"
	}
	return filepath.Join(homeDir, ".repopulse.db")
}

// ValidateDatabaseConnectionString checks that a connection string is
// present when the backend requires one.
func ValidateDatabaseConnectionString(backend schema.DatabaseBackend, connStr string) error {
	switch backend {
	case schema.MySQLBackend, schema.PostgreSQLBackend:
		if connStr == "" {
			return fmt.Errorf("backend %s requires --db-connect", backend)
		}
	case schema.SQLiteBackend, schema.NoneBackend:
		// SQLite falls back to the default file path; none needs nothing.
	default:
		return fmt.Errorf("unsupported database backend: %s", backend)
	}
	return nil
}
