package mcp

import (
	"fmt"
)

func getStringArg(args map[string]interface{}, key string) string {
	val, ok := args[key]
	if !ok {
		return ""
	}
	switch v := val.(type) {
	case string:
		return v
	default:
		return fmt.Sprintf("%v", v)
	}
}

func getIntArg(args map[string]interface{}, key string, fallback int) int {
	val, ok := args[key]
	if !ok {
		return fallback
	}
	switch v := val.(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	default:
		return fallback
	}
}

// getBoolArg extracts a boolean argument with default.
func getBoolArg(args map[string]interface{}, key string, fallback bool) bool {
	val, ok := args[key]
	if !ok {
		return fallback
	}
	if b, ok := val.(bool); ok {
		return b
	}
	return fallback
}
