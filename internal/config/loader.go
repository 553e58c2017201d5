// Package config loads configuration from files, environment variables,
// and GitHub Actions inputs, in that order of precedence (later wins).
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/spf13/viper"
)

// LoaderOptions describes how configuration should be discovered.
type LoaderOptions struct {
	ConfigPaths []string
	FileName    string
	EnvPrefix   string
}

// Load returns the merged configuration from files and environment variables.
func Load(opts LoaderOptions) (Config, error) {
	v := viper.New()

	name := opts.FileName
	if name == "" {
		name = "prreview"
	}

	configFile := locateConfigFile(name, opts.ConfigPaths)
	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName(name)
	}

	prefix := opts.EnvPrefix
	if prefix == "" {
		prefix = "PRREVIEW"
	}
	v.SetEnvPrefix(prefix)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AllowEmptyEnv(true)

	setDefaults(v)
	bindAmbientEnv(v)

	if configFile != "" {
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", configFile, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	cfg = expandEnvVars(cfg)

	return cfg, nil
}

// bindAmbientEnv maps the conventional credential variables and the
// INPUT_* variables that GitHub Actions derives from a workflow's `with:`
// block onto config keys. Later bindings in a slice win over earlier ones.
func bindAmbientEnv(v *viper.Viper) {
	// Errors from BindEnv only occur with zero arguments.
	_ = v.BindEnv("github.token", "INPUT_GITHUB_TOKEN", "GITHUB_TOKEN")
	_ = v.BindEnv("openai.apiKey", "INPUT_OPENAI_API_KEY", "OPENAI_API_KEY")
	_ = v.BindEnv("openai.model", "INPUT_OPENAI_API_MODEL")
	_ = v.BindEnv("review.rulesFile", "INPUT_RULES_FILE")
	_ = v.BindEnv("review.instructions", "INPUT_INSTRUCTIONS")
	_ = v.BindEnv("review.excludePatterns", "INPUT_EXCLUDE")
	_ = v.BindEnv("review.postStartNotice", "INPUT_POST_START_NOTICE")
}

// expandEnvVars expands ${VAR} and $VAR syntax in configuration strings.
func expandEnvVars(cfg Config) Config {
	cfg.GitHub.Token = expandEnvString(cfg.GitHub.Token)
	cfg.GitHub.BaseURL = expandEnvString(cfg.GitHub.BaseURL)
	cfg.OpenAI.APIKey = expandEnvString(cfg.OpenAI.APIKey)
	cfg.OpenAI.Model = expandEnvString(cfg.OpenAI.Model)
	cfg.Review.RulesFile = expandEnvString(cfg.Review.RulesFile)
	cfg.Review.Instructions = expandEnvString(cfg.Review.Instructions)
	cfg.Review.ExcludePatterns = expandEnvStringSlice(cfg.Review.ExcludePatterns)
	cfg.HTTP.Timeout = expandEnvString(cfg.HTTP.Timeout)
	cfg.HTTP.InitialBackoff = expandEnvString(cfg.HTTP.InitialBackoff)
	cfg.HTTP.MaxBackoff = expandEnvString(cfg.HTTP.MaxBackoff)
	cfg.Logging.Level = expandEnvString(cfg.Logging.Level)
	cfg.Logging.Format = expandEnvString(cfg.Logging.Format)
	return cfg
}

var (
	bracedVarRE = regexp.MustCompile(`\$\{([A-Z_][A-Z0-9_]*)\}`)
	bareVarRE   = regexp.MustCompile(`\$([A-Z_][A-Z0-9_]*)`)
)

// expandEnvString replaces ${VAR} or $VAR with environment variable values.
func expandEnvString(s string) string {
	if s == "" {
		return s
	}

	s = bracedVarRE.ReplaceAllStringFunc(s, func(match string) string {
		varName := match[2 : len(match)-1]
		if val := os.Getenv(varName); val != "" {
			return val
		}
		return match
	})

	s = bareVarRE.ReplaceAllStringFunc(s, func(match string) string {
		varName := match[1:]
		if val := os.Getenv(varName); val != "" {
			return val
		}
		return match
	})

	return s
}

// expandEnvStringSlice expands environment variables in a slice of strings.
func expandEnvStringSlice(slice []string) []string {
	if len(slice) == 0 {
		return slice
	}
	result := make([]string, len(slice))
	for i, s := range slice {
		result[i] = expandEnvString(s)
	}
	return result
}

func locateConfigFile(name string, paths []string) string {
	searchPaths := append([]string{}, paths...)
	searchPaths = append(searchPaths, ".")
	for _, dir := range searchPaths {
		if dir == "" {
			continue
		}
		candidate := filepath.Join(dir, name+".yaml")
		info, err := os.Stat(candidate)
		if err == nil && !info.IsDir() {
			return candidate
		}
	}
	return ""
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("openai.model", "gpt-4o-mini")
	v.SetDefault("openai.temperature", 0.1)
	v.SetDefault("openai.maxTokens", 2000)

	v.SetDefault("review.rulesFile", ".cursor/rules/RULE.mdc")
	v.SetDefault("review.concurrency", 4)
	v.SetDefault("review.maxDiffTokens", 12000)
	v.SetDefault("review.allowContextLines", false)
	v.SetDefault("review.postStartNotice", false)

	v.SetDefault("http.timeout", "60s")
	v.SetDefault("http.maxRetries", 3)
	v.SetDefault("http.initialBackoff", "2s")
	v.SetDefault("http.maxBackoff", "32s")
	v.SetDefault("http.backoffMultiplier", 2.0)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "auto")
}
