// Package service maps template references such as "gh:owner/name" to the
// git URLs they are fetched from.
package service

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// DefaultPrefix is the service used when none is configured.
const DefaultPrefix = "gh"

// DefaultPattern is the URL pattern of the default service.
const DefaultPattern = "https://github.com/{{ repo }}.git"

var (
	placeholder = regexp.MustCompile(`\{\{\s*repo\s*\}\}`)
	prefixRe    = regexp.MustCompile(`^[a-z0-9][a-z0-9_-]*$`)
)

// normalizePrefix folds a prefix to lower case. The config file is read
// through viper, which lower-cases every key, so "GL" and "gl" must name the
// same service.
func normalizePrefix(prefix string) string {
	return strings.ToLower(prefix)
}

// ErrInvalidPattern is returned for URL patterns without exactly one
// {{ repo }} placeholder.
var ErrInvalidPattern = errors.New("URL pattern must contain exactly one {{ repo }} placeholder")

// UnknownServiceError is returned when a prefix has no configured pattern.
type UnknownServiceError struct {
	Prefix string
}

func (e *UnknownServiceError) Error() string {
	return fmt.Sprintf("unknown service prefix %q", e.Prefix)
}

// Service is one configured git host.
type Service struct {
	URL string `toml:"url" mapstructure:"url"`
}

// Config maps service prefixes to URL patterns.
type Config struct {
	Services       map[string]Service `toml:"services" mapstructure:"services"`
	DefaultService string             `toml:"default_service" mapstructure:"default_service"`
}

// DefaultConfig returns a Config holding only the GitHub service.
func DefaultConfig() Config {
	return Config{
		Services: map[string]Service{
			DefaultPrefix: {URL: DefaultPattern},
		},
		DefaultService: DefaultPrefix,
	}
}

// ValidatePattern checks that pattern has exactly one placeholder.
func ValidatePattern(pattern string) error {
	if n := len(placeholder.FindAllStringIndex(pattern, -1)); n != 1 {
		return fmt.Errorf("%q: %w", pattern, ErrInvalidPattern)
	}
	return nil
}

// Validate checks every pattern and that the default service exists.
func (c Config) Validate() error {
	for prefix, s := range c.Services {
		if !prefixRe.MatchString(prefix) {
			return fmt.Errorf("invalid service prefix %q", prefix)
		}
		if err := ValidatePattern(s.URL); err != nil {
			return fmt.Errorf("service %q: %w", prefix, err)
		}
	}
	if c.DefaultService != "" {
		if _, ok := c.Services[normalizePrefix(c.DefaultService)]; !ok {
			return fmt.Errorf("default service: %w", &UnknownServiceError{Prefix: c.DefaultService})
		}
	}
	return nil
}

// Add registers or replaces a service. Prefixes are stored in lower case.
func (c *Config) Add(prefix, pattern string) error {
	prefix = normalizePrefix(prefix)
	if !prefixRe.MatchString(prefix) {
		return fmt.Errorf("invalid service prefix %q", prefix)
	}
	if err := ValidatePattern(pattern); err != nil {
		return err
	}
	if c.Services == nil {
		c.Services = map[string]Service{}
	}
	c.Services[prefix] = Service{URL: pattern}
	return nil
}

// Remove deletes a service. Removing the default service clears the default.
func (c *Config) Remove(prefix string) error {
	prefix = normalizePrefix(prefix)
	if _, ok := c.Services[prefix]; !ok {
		return &UnknownServiceError{Prefix: prefix}
	}
	delete(c.Services, prefix)
	if normalizePrefix(c.DefaultService) == prefix {
		c.DefaultService = ""
	}
	return nil
}

// SetDefault makes prefix the service used for unprefixed references.
func (c *Config) SetDefault(prefix string) error {
	prefix = normalizePrefix(prefix)
	if _, ok := c.Services[prefix]; !ok {
		return &UnknownServiceError{Prefix: prefix}
	}
	c.DefaultService = prefix
	return nil
}

// Ref is a parsed template reference. A Ref with a URL set names a
// repository directly and bypasses service lookup.
type Ref struct {
	Prefix   string
	RepoPath string
	URL      string
}

func (r Ref) String() string {
	if r.URL != "" {
		return r.URL
	}
	if r.Prefix == "" {
		return r.RepoPath
	}
	return r.Prefix + ":" + r.RepoPath
}

// Name returns the last path segment of the repository, stripped of a
// ".git" suffix. It is the default directory name for new projects.
func (r Ref) Name() string {
	p := r.RepoPath
	if r.URL != "" {
		p = r.URL
	}
	p = strings.TrimSuffix(strings.TrimRight(p, "/"), ".git")
	if i := strings.LastIndexAny(p, "/:"); i >= 0 {
		p = p[i+1:]
	}
	return p
}

// ParseRef parses "prefix:owner/name", "owner/name" (default service) or a
// full git URL.
func ParseRef(s string) (Ref, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Ref{}, errors.New("empty template reference")
	}
	if strings.Contains(s, "://") || strings.HasPrefix(s, "git@") {
		return Ref{URL: s}, nil
	}
	prefix, path := "", s
	if i := strings.Index(s, ":"); i >= 0 {
		prefix, path = normalizePrefix(s[:i]), s[i+1:]
		if !prefixRe.MatchString(prefix) {
			return Ref{}, fmt.Errorf("invalid service prefix %q in %q", prefix, s)
		}
	}
	path = strings.Trim(path, "/")
	if path == "" {
		return Ref{}, fmt.Errorf("missing repository path in %q", s)
	}
	return Ref{Prefix: prefix, RepoPath: path}, nil
}

// Resolve returns the fetch URL for ref.
func Resolve(ref Ref, cfg Config) (string, error) {
	if ref.URL != "" {
		return ref.URL, nil
	}
	prefix := normalizePrefix(ref.Prefix)
	if prefix == "" {
		prefix = normalizePrefix(cfg.DefaultService)
	}
	s, ok := cfg.Services[prefix]
	if !ok {
		return "", &UnknownServiceError{Prefix: prefix}
	}
	if err := ValidatePattern(s.URL); err != nil {
		return "", err
	}
	return placeholder.ReplaceAllLiteralString(s.URL, ref.RepoPath), nil
}
