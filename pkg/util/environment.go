package util

import (
	"os"
	"strings"
)

func GetEnvironmentVariables() map[string]string {
	environmentVariables := map[string]string{}

	for _, variable := range os.Environ() {
		pair := strings.SplitN(variable, "=", 2)

		environmentVariables[pair[0]] = pair[1]
	}

	return environmentVariables
}

// GetPrefixedEnvironmentVariables returns the non-empty variables starting with prefix
func GetPrefixedEnvironmentVariables(prefix string) map[string]string {
	environmentVariables := map[string]string{}

	for key, value := range GetEnvironmentVariables() {
		if strings.HasPrefix(key, prefix) && value != "" {
			environmentVariables[key] = value
		}
	}

	return environmentVariables
}

// IsEnabled treats YES, TRUE, 1 and ON as set, ignoring case
func IsEnabled(value string) bool {
	switch strings.ToUpper(strings.TrimSpace(value)) {
	case "YES", "TRUE", "1", "ON", "Y":
		return true
	default:
		return false
	}
}
