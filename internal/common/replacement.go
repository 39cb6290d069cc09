// Package common provides configuration, credentials, logging and process helpers.
//
// Config string values may reference environment variables with the {NAME}
// syntax. References are resolved after the .env file is loaded:
//
//	keyword = "{MENUSCOUT_KEYWORD}"
//
// Unresolved references are left unchanged and logged as warnings.
package common

import (
	"fmt"
	"os"
	"reflect"
	"regexp"
	"strings"

	"github.com/ternarybob/arbor"
)

// keyRefPattern matches {NAME} references in strings
var keyRefPattern = regexp.MustCompile(`\{([a-zA-Z0-9_-]+)\}`)

// EnvMap returns the process environment as a map
func EnvMap() map[string]string {
	env := make(map[string]string)
	for _, kv := range os.Environ() {
		if key, value, ok := strings.Cut(kv, "="); ok {
			env[key] = value
		}
	}
	return env
}

// ReplaceKeyReferences replaces all {NAME} references in input with values from kvMap
func ReplaceKeyReferences(input string, kvMap map[string]string, logger arbor.ILogger) string {
	if input == "" || !strings.Contains(input, "{") {
		return input
	}

	return keyRefPattern.ReplaceAllStringFunc(input, func(match string) string {
		keyName := match[1 : len(match)-1]
		if value, exists := kvMap[keyName]; exists {
			return value
		}

		logger.Warn().
			Str("reference", match).
			Msg("Unresolved key reference in configuration")
		return match
	})
}

// ReplaceInStruct replaces {NAME} references in the string and []string fields
// of a struct pointer, descending into nested structs.
func ReplaceInStruct(v interface{}, kvMap map[string]string, logger arbor.ILogger) error {
	val := reflect.ValueOf(v)
	if val.Kind() != reflect.Ptr || val.Elem().Kind() != reflect.Struct {
		return fmt.Errorf("ReplaceInStruct requires a struct pointer, got %T", v)
	}

	replaceInStructValue(val.Elem(), kvMap, logger)
	return nil
}

func replaceInStructValue(val reflect.Value, kvMap map[string]string, logger arbor.ILogger) {
	typ := val.Type()

	for i := 0; i < val.NumField(); i++ {
		field := val.Field(i)
		if !field.CanSet() {
			continue
		}

		switch field.Kind() {
		case reflect.String:
			oldValue := field.String()
			if newValue := ReplaceKeyReferences(oldValue, kvMap, logger); newValue != oldValue {
				field.SetString(newValue)
				// Values may be secrets, log the field only
				logger.Debug().
					Str("field", typ.Field(i).Name).
					Msg("Replaced key reference in config field")
			}

		case reflect.Struct:
			replaceInStructValue(field, kvMap, logger)

		case reflect.Slice:
			if field.Type().Elem().Kind() != reflect.String {
				continue
			}
			for j := 0; j < field.Len(); j++ {
				elem := field.Index(j)
				elem.SetString(ReplaceKeyReferences(elem.String(), kvMap, logger))
			}
		}
	}
}
