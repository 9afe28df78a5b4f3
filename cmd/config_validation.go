package cmd

import (
	"fmt"
	"math"
	"net/url"
	"strconv"
	"strings"

	errors "github.com/Laisky/errors/v2"
	gconfig "github.com/Laisky/go-config/v2"
)

// configGetter retrieves raw configuration values by dotted key path.
type configGetter func(key string) any

// validateStartupConfig validates startup configuration from the shared config source.
// It returns an error when any configured value is malformed or violates constraints.
func validateStartupConfig() error {
	return validateStartupConfigWithGetter(func(key string) any {
		return gconfig.S.Get(key)
	})
}

// validateStartupConfigWithGetter validates startup configuration via a key-value getter.
// It accepts a value getter and returns nil when all configured values are valid.
func validateStartupConfigWithGetter(get configGetter) error {
	if get == nil {
		return errors.New("config getter is nil")
	}

	validationErrs := make([]string, 0)

	validateDBConfig(get, &validationErrs)
	validateRedisConfig(get, &validationErrs)
	validateAuthConfig(get, &validationErrs)
	validateStorageConfig(get, &validationErrs)
	validateWebConfig(get, &validationErrs)

	if len(validationErrs) == 0 {
		return nil
	}

	return errors.Errorf("invalid configuration:\n - %s", strings.Join(validationErrs, "\n - "))
}

// validateDBConfig validates the document store backend selection and its connection settings.
func validateDBConfig(get configGetter, errs *[]string) {
	backend := "firestore"
	if raw := get("settings.db.backend"); raw != nil {
		v, err := parseStrictString(raw)
		if err != nil {
			appendValidationError(errs, "settings.db.backend must be a string")
			return
		}
		backend = strings.TrimSpace(v)
	}

	switch backend {
	case "firestore":
		validateRequiredString(get, "settings.db.firestore.project_id", errs)
		validateOptionalStringNonEmpty(get, "settings.db.firestore.credentials_file", errs)
	case "mongo":
		validateRequiredString(get, "settings.db.mongo.addr", errs)
		validateRequiredString(get, "settings.db.mongo.db", errs)
	case "memory":
	default:
		appendValidationError(errs, "settings.db.backend must be one of [firestore, mongo, memory]")
	}
}

// validateRedisConfig validates redis-related startup configuration values.
// It accepts a getter and an error collector pointer and appends validation errors.
func validateRedisConfig(get configGetter, errs *[]string) {
	validateOptionalIntMin(get, "settings.db.redis.db", 0, errs)
	if raw := get("settings.db.redis.addr"); raw != nil {
		addr, err := parseStrictString(raw)
		if err != nil || (strings.TrimSpace(addr) != "" && !isValidHost(addr)) {
			appendValidationError(errs, "settings.db.redis.addr must be a host:port")
		}
	}
}

// validateAuthConfig validates the auth provider and its credentials.
func validateAuthConfig(get configGetter, errs *[]string) {
	validateOptionalIntMin(get, "settings.auth.session_ttl_minutes", 1, errs)

	if raw := get("settings.secret"); raw != nil {
		secret, err := parseStrictString(raw)
		if err != nil {
			appendValidationError(errs, "settings.secret must be a string")
		} else if len(strings.TrimSpace(secret)) < 16 {
			appendValidationError(errs, "settings.secret must be at least 16 characters")
		}
	}

	provider := "firebase"
	if raw := get("settings.auth.provider"); raw != nil {
		v, err := parseStrictString(raw)
		if err != nil {
			appendValidationError(errs, "settings.auth.provider must be a string")
			return
		}
		provider = strings.TrimSpace(v)
	}

	switch provider {
	case "firebase":
		validateOptionalStringNonEmpty(get, "settings.auth.firebase.api_key", errs)
	case "static":
		validateStaticUsers(get, errs)
	default:
		appendValidationError(errs, "settings.auth.provider must be one of [firebase, static]")
	}
}

// validateStaticUsers validates the settings.auth.users list used by the static provider.
func validateStaticUsers(get configGetter, errs *[]string) {
	raw := get("settings.auth.users")
	if raw == nil {
		appendValidationError(errs, "settings.auth.users is required for the static provider")
		return
	}

	users, ok := raw.([]any)
	if !ok {
		appendValidationError(errs, "settings.auth.users must be a list")
		return
	}

	for i, item := range users {
		user := toStringMap(item)
		if user == nil {
			appendValidationError(errs, "settings.auth.users[%d] must be an object", i)
			continue
		}

		validateRequiredStringInMap(errs, user, fmt.Sprintf("settings.auth.users[%d].email", i), "email")
		validateRequiredStringInMap(errs, user, fmt.Sprintf("settings.auth.users[%d].password_hash", i), "password_hash")
		if v, ok := user["disabled"]; ok {
			if _, ok := parseStrictBool(v); !ok {
				appendValidationError(errs, "settings.auth.users[%d].disabled must be a boolean", i)
			}
		}
	}
}

// validateStorageConfig validates the S3-compatible cover storage.
func validateStorageConfig(get configGetter, errs *[]string) {
	raw := get("settings.storage.s3.endpoint")
	if raw == nil {
		return
	}

	endpoint, err := parseStrictString(raw)
	if err != nil || !isValidHost(endpoint) {
		appendValidationError(errs, "settings.storage.s3.endpoint must be a host without scheme")
	}
	validateRequiredString(get, "settings.storage.s3.bucket", errs)
	validateOptionalBool(get, "settings.storage.s3.secure", errs)
	validateOptionalURL(get, "settings.storage.s3.public_url", errs)
}

// validateWebConfig validates the http surface settings.
func validateWebConfig(get configGetter, errs *[]string) {
	validateOptionalIntMin(get, "settings.web.subscribe_rate_per_minute", 1, errs)
	validateOptionalIntMin(get, "settings.web.login_rate_per_minute", 1, errs)
	validateOptionalBool(get, "settings.web.enable_metric", errs)
	validateOptionalBool(get, "settings.web.secure_cookie", errs)
	validateOptionalStringNonEmpty(get, "settings.web.frontend_dir", errs)

	raw := get("settings.web.allowed_origins")
	if raw == nil {
		return
	}

	origins, ok := raw.([]any)
	if !ok {
		appendValidationError(errs, "settings.web.allowed_origins must be a list")
		return
	}
	for i, o := range origins {
		origin, err := parseStrictString(o)
		if err != nil || (origin != "*" && !isValidHost(strings.TrimPrefix(origin, "*."))) {
			appendValidationError(errs, "settings.web.allowed_origins[%d] must be a host pattern", i)
		}
	}
}

// validateRequiredString validates that key is set to a non-empty string.
func validateRequiredString(get configGetter, key string, errs *[]string) {
	if get(key) == nil {
		appendValidationError(errs, "%s is required", key)
		return
	}

	validateOptionalStringNonEmpty(get, key, errs)
}

// validateOptionalBool validates an optionally configured boolean key.
// It accepts a getter, the key, and an error collector pointer and appends validation errors.
func validateOptionalBool(get configGetter, key string, errs *[]string) {
	raw := get(key)
	if raw == nil {
		return
	}

	if _, ok := parseStrictBool(raw); !ok {
		appendValidationError(errs, "%s must be a boolean", key)
	}
}

// validateOptionalIntMin validates an optionally configured integer key with a minimum constraint.
// It accepts a getter, the key, a minimum value, and an error collector pointer and appends validation errors.
func validateOptionalIntMin(get configGetter, key string, min int, errs *[]string) {
	raw := get(key)
	if raw == nil {
		return
	}

	value, parseErr := parseStrictInt(raw)
	if parseErr != nil {
		appendValidationError(errs, "%s must be an integer", key)
		return
	}

	if value < min {
		appendValidationError(errs, "%s must be >= %d", key, min)
	}
}

// validateOptionalURL validates an optionally configured absolute URL key.
// It accepts a getter, the key, and an error collector pointer and appends validation errors.
func validateOptionalURL(get configGetter, key string, errs *[]string) {
	raw := get(key)
	if raw == nil {
		return
	}

	value, parseErr := parseStrictString(raw)
	if parseErr != nil {
		appendValidationError(errs, "%s must be a string URL", key)
		return
	}

	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		appendValidationError(errs, "%s must not be empty", key)
		return
	}

	parsed, err := url.Parse(trimmed)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		appendValidationError(errs, "%s must be a valid absolute URL", key)
	}
}

// validateOptionalStringNonEmpty validates an optionally configured non-empty string key.
// It accepts a getter, the key, and an error collector pointer and appends validation errors.
func validateOptionalStringNonEmpty(get configGetter, key string, errs *[]string) {
	raw := get(key)
	if raw == nil {
		return
	}

	value, parseErr := parseStrictString(raw)
	if parseErr != nil {
		appendValidationError(errs, "%s must be a string", key)
		return
	}

	if strings.TrimSpace(value) == "" {
		appendValidationError(errs, "%s must not be empty", key)
	}
}

// validateRequiredStringInMap validates that a required map field is a non-empty string.
// It accepts an error collector pointer, a source map, the field path label and the map key.
func validateRequiredStringInMap(errs *[]string, source map[string]any, fieldPath, key string) {
	value, ok := source[key]
	if !ok {
		appendValidationError(errs, "%s is required", fieldPath)
		return
	}

	text, parseErr := parseStrictString(value)
	if parseErr != nil || strings.TrimSpace(text) == "" {
		appendValidationError(errs, "%s must be a non-empty string", fieldPath)
	}
}

// parseStrictBool parses a value as boolean using strict conversion rules.
// It accepts a raw value and returns the parsed boolean and whether parsing succeeded.
func parseStrictBool(value any) (bool, bool) {
	switch v := value.(type) {
	case bool:
		return v, true
	case int:
		return v != 0, true
	case int64:
		return v != 0, true
	case float64:
		if math.Trunc(v) != v {
			return false, false
		}
		return int64(v) != 0, true
	case string:
		trimmed := strings.TrimSpace(v)
		if trimmed == "" {
			return false, false
		}
		switch strings.ToLower(trimmed) {
		case "true", "1", "yes":
			return true, true
		case "false", "0", "no":
			return false, true
		default:
			return false, false
		}
	default:
		return false, false
	}
}

// parseStrictInt parses a value as a strict integer.
// It accepts a raw value and returns the parsed int and an error when parsing fails.
func parseStrictInt(value any) (int, error) {
	switch v := value.(type) {
	case int:
		return v, nil
	case int64:
		return int(v), nil
	case float64:
		if math.Trunc(v) != v {
			return 0, errors.Errorf("%v is not an integer", v)
		}
		return int(v), nil
	case string:
		trimmed := strings.TrimSpace(v)
		if trimmed == "" {
			return 0, errors.New("empty integer string")
		}
		parsed, err := strconv.Atoi(trimmed)
		if err != nil {
			return 0, errors.Wrap(err, "atoi")
		}
		return parsed, nil
	default:
		return 0, errors.Errorf("unsupported int type %T", value)
	}
}

// parseStrictString parses a value as a strict string.
// It accepts a raw value and returns the parsed string and an error when parsing fails.
func parseStrictString(value any) (string, error) {
	switch v := value.(type) {
	case string:
		return v, nil
	case []byte:
		return string(v), nil
	default:
		return "", errors.Errorf("unsupported string type %T", value)
	}
}

// toStringMap converts a decoded yaml object into a string keyed map, or nil.
func toStringMap(value any) map[string]any {
	switch v := value.(type) {
	case map[string]any:
		return v
	case map[any]any:
		m := make(map[string]any, len(v))
		for k, val := range v {
			m[fmt.Sprint(k)] = val
		}
		return m
	default:
		return nil
	}
}

// isValidHost validates a host string without scheme or path components.
// It accepts a host string and returns true when the host is syntactically acceptable.
func isValidHost(host string) bool {
	trimmed := strings.TrimSpace(host)
	if trimmed == "" {
		return false
	}
	if strings.Contains(trimmed, "://") || strings.Contains(trimmed, "/") {
		return false
	}
	return true
}

// appendValidationError appends a formatted validation error to the collector.
// It accepts an error slice pointer, a format string, and format arguments, and has no return value.
func appendValidationError(errs *[]string, format string, args ...any) {
	if errs == nil {
		return
	}
	*errs = append(*errs, fmt.Sprintf(format, args...))
}
