package plumbing

import (
	"fmt"
	"strconv"
	"strings"

	"gopkg.in/ini.v1"
)

// RepoConfig is a parsed .git/config. Section and key names are case-insensitive, as in git.
type RepoConfig struct {
	path string
	file *ini.File
}

func configLoadOptions() ini.LoadOptions {
	return ini.LoadOptions{
		Loose:            true, // a missing file is an empty config
		Insensitive:      true,
		AllowBooleanKeys: true, // "[core]\n\tbare" means bare = true
	}
}

// LoadRepoConfig loads the config file at cfgPath.
func LoadRepoConfig(cfgPath string) (*RepoConfig, error) {
	cfg, err := ini.LoadSources(configLoadOptions(), cfgPath)
	if err != nil {
		return nil, fmt.Errorf("bad config file %s: %w", cfgPath, err)
	}
	return &RepoConfig{path: cfgPath, file: cfg}, nil
}

// ParseRepoConfig parses config text that is not backed by a file.
func ParseRepoConfig(data []byte) (*RepoConfig, error) {
	cfg, err := ini.LoadSources(configLoadOptions(), data)
	if err != nil {
		return nil, fmt.Errorf("bad config: %w", err)
	}
	return &RepoConfig{file: cfg}, nil
}

func splitKey(key string) (string, string, error) {
	i := strings.LastIndex(key, ".")
	if i <= 0 || i == len(key)-1 {
		return "", "", fmt.Errorf("invalid config key: %s", key)
	}
	return key[:i], key[i+1:], nil
}

func (c *RepoConfig) lookup(key string) (*ini.Key, bool) {
	section, name, err := splitKey(key)
	if err != nil {
		return nil, false
	}
	sec, err := c.file.GetSection(section)
	if err != nil || !sec.HasKey(name) {
		return nil, false
	}
	return sec.Key(name), true
}

// GetString returns the raw value of key and whether it is set.
func (c *RepoConfig) GetString(key string) (string, bool) {
	k, ok := c.lookup(key)
	if !ok {
		return "", false
	}
	return k.String(), true
}

// GetBool reads key as a git boolean. ok is false when the key is unset.
func (c *RepoConfig) GetBool(key string) (value bool, ok bool, err error) {
	s, ok := c.GetString(key)
	if !ok {
		return false, false, nil
	}
	v, valid := ParseMaybeBool(s)
	if !valid {
		return false, true, fmt.Errorf("bad boolean config value '%s' for '%s'", s, key)
	}
	return v, true, nil
}

// GetInt reads key as a git integer, honouring k, m and g suffixes.
func (c *RepoConfig) GetInt(key string) (value int, ok bool, err error) {
	s, ok := c.GetString(key)
	if !ok {
		return 0, false, nil
	}
	v, err := parseConfigInt(s)
	if err != nil {
		return 0, true, fmt.Errorf("bad numeric config value '%s' for '%s': %w", s, key, err)
	}
	return v, true, nil
}

// Set stores value under key, creating the section when needed.
func (c *RepoConfig) Set(key, value string) error {
	section, name, err := splitKey(key)
	if err != nil {
		return err
	}
	c.file.Section(section).Key(name).SetValue(value)
	return nil
}

// Save writes the config back to the file it was loaded from.
func (c *RepoConfig) Save() error {
	if c.path == "" {
		return fmt.Errorf("config was not loaded from a file")
	}
	return c.file.SaveTo(c.path)
}

// ParseMaybeBool understands git's boolean spellings. "key =" with an empty value is false; a bare key is
// loaded as "true".
func ParseMaybeBool(s string) (value bool, valid bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true", "yes", "on":
		return true, true
	case "", "false", "no", "off":
		return false, true
	}
	if n, err := parseConfigInt(s); err == nil {
		return n != 0, true
	}
	return false, false
}

func parseConfigInt(s string) (int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("empty value")
	}
	factor := 1
	switch s[len(s)-1] {
	case 'k', 'K':
		factor = 1 << 10
	case 'm', 'M':
		factor = 1 << 20
	case 'g', 'G':
		factor = 1 << 30
	}
	if factor != 1 {
		s = s[:len(s)-1]
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, err
	}
	return n * factor, nil
}
