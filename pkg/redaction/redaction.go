// Package redaction masks secrets that show up in tool commands and error
// messages before they reach a log sink.
package redaction

import (
	"regexp"
	"strings"
	"sync"
)

// Config holds redaction configuration.
type Config struct {
	// Enabled controls whether redaction is active.
	Enabled bool `json:"enabled"`

	// RedactAPIKeys redacts API keys, bearer tokens and cloud credentials.
	RedactAPIKeys bool `json:"redact_api_keys"`

	// RedactPasswords redacts password assignments and --password style flags.
	RedactPasswords bool `json:"redact_passwords"`

	// RedactURLCredentials redacts user:pass@ in URLs (git remotes, pip indexes).
	RedactURLCredentials bool `json:"redact_url_credentials"`

	// CustomPatterns allows additional regex patterns to redact.
	CustomPatterns []string `json:"custom_patterns"`

	// Replacement is the string used to replace sensitive data.
	Replacement string `json:"replacement"`
}

// DefaultConfig returns the default redaction configuration.
func DefaultConfig() Config {
	return Config{
		Enabled:              true,
		RedactAPIKeys:        true,
		RedactPasswords:      true,
		RedactURLCredentials: true,
		Replacement:          "[REDACTED]",
	}
}

type pattern struct {
	name string
	re   *regexp.Regexp
}

var (
	keyPatterns = []pattern{
		{"api_key", regexp.MustCompile(`(?i)(api[_-]?key|apikey|api[_-]?secret)\s*[=:]\s*['"]?([a-zA-Z0-9_\-]{16,})['"]?`)},
		{"auth_token", regexp.MustCompile(`(?i)(auth[_-]?token|access[_-]?token|refresh[_-]?token|npm[_-]?token|gh[_-]?token)\s*[=:]\s*['"]?([a-zA-Z0-9_\-\.]{16,})['"]?`)},
		{"bearer_token", regexp.MustCompile(`(?i)bearer\s+([a-zA-Z0-9_\-\.]{16,})`)},
		{"token_flag", regexp.MustCompile(`(?i)--(?:token|api-key|secret)[= ]['"]?([^'"\s]+)['"]?`)},
		{"anthropic_key", regexp.MustCompile(`sk-ant-[a-zA-Z0-9\-]{20,}`)},
		{"openai_key", regexp.MustCompile(`sk-[a-zA-Z0-9]{20,}`)},
		{"github_token", regexp.MustCompile(`gh[pousr]_[a-zA-Z0-9]{30,}`)},
		{"aws_access_key", regexp.MustCompile(`AKIA[0-9A-Z]{16}`)},
	}
	passwordPatterns = []pattern{
		{"password", regexp.MustCompile(`(?i)(password|passwd|pwd)\s*[=:]\s*['"]?([^'"\s]{4,})['"]?`)},
		{"password_flag", regexp.MustCompile(`(?i)--password[= ]['"]?([^'"\s]+)['"]?`)},
	}
	urlCredentials = regexp.MustCompile(`([a-zA-Z][a-zA-Z0-9+.\-]*://)([^/\s:@]+):([^/\s@]+)@`)

	sensitiveKeys = []string{
		"password", "passwd", "pwd",
		"api_key", "apikey", "api_secret",
		"secret", "private_key",
		"token", "credential",
	}
)

// Redactor applies a Config to strings and log fields.
type Redactor struct {
	mu     sync.RWMutex
	config Config
	custom []*regexp.Regexp
}

// NewRedactor creates a Redactor. Invalid custom patterns are skipped.
func NewRedactor(config Config) *Redactor {
	if config.Replacement == "" {
		config.Replacement = "[REDACTED]"
	}
	r := &Redactor{config: config}
	for _, p := range config.CustomPatterns {
		if re, err := regexp.Compile(p); err == nil {
			r.custom = append(r.custom, re)
		}
	}
	return r
}

// Redact applies all configured rules to input.
func (r *Redactor) Redact(input string) string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if !r.config.Enabled || input == "" {
		return input
	}

	result := input
	if r.config.RedactURLCredentials {
		result = urlCredentials.ReplaceAllString(result, "${1}${2}:"+r.config.Replacement+"@")
	}
	if r.config.RedactAPIKeys {
		result = r.apply(result, keyPatterns)
	}
	if r.config.RedactPasswords {
		result = r.apply(result, passwordPatterns)
	}
	for _, re := range r.custom {
		result = re.ReplaceAllString(result, r.config.Replacement)
	}
	return result
}

// apply replaces the last capture group of each match, or the whole match
// when the pattern has no groups.
func (r *Redactor) apply(input string, patterns []pattern) string {
	for _, p := range patterns {
		re := p.re
		input = re.ReplaceAllStringFunc(input, func(match string) string {
			sub := re.FindStringSubmatch(match)
			if len(sub) < 2 {
				return r.config.Replacement
			}
			secret := sub[len(sub)-1]
			if secret == "" {
				return match
			}
			idx := strings.LastIndex(match, secret)
			return match[:idx] + r.config.Replacement + match[idx+len(secret):]
		})
	}
	return input
}

// RedactFields redacts sensitive values in a log field map. Keys that look
// like credentials are replaced wholesale; string values are scanned.
func (r *Redactor) RedactFields(fields map[string]any) map[string]any {
	r.mu.RLock()
	enabled := r.config.Enabled
	replacement := r.config.Replacement
	r.mu.RUnlock()

	if !enabled || fields == nil {
		return fields
	}

	out := make(map[string]any, len(fields))
	for k, v := range fields {
		if IsSensitiveKey(k) {
			out[k] = replacement
			continue
		}
		switch val := v.(type) {
		case string:
			out[k] = r.Redact(val)
		case map[string]any:
			out[k] = r.RedactFields(val)
		default:
			out[k] = v
		}
	}
	return out
}

// SetEnabled toggles redaction at runtime.
func (r *Redactor) SetEnabled(enabled bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.config.Enabled = enabled
}

// IsSensitiveKey reports whether a field name suggests secret content.
func IsSensitiveKey(key string) bool {
	key = strings.ToLower(key)
	for _, sk := range sensitiveKeys {
		if strings.Contains(key, sk) {
			return true
		}
	}
	return false
}

var (
	globalMu       sync.RWMutex
	globalRedactor = NewRedactor(DefaultConfig())
)

func global() *Redactor {
	globalMu.RLock()
	defer globalMu.RUnlock()
	return globalRedactor
}

// Redact applies redaction using the global redactor.
func Redact(input string) string {
	return global().Redact(input)
}

// RedactFields redacts fields using the global redactor.
func RedactFields(fields map[string]any) map[string]any {
	return global().RedactFields(fields)
}

// SetGlobalConfig replaces the global redactor.
func SetGlobalConfig(config Config) {
	r := NewRedactor(config)
	globalMu.Lock()
	globalRedactor = r
	globalMu.Unlock()
}
