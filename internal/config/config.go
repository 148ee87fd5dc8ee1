package config

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/kozaktomas/ssim-matrix/internal/imageset"
	"github.com/kozaktomas/ssim-matrix/internal/ssim"
)

//go:embed defaults.yaml
var defaultsYAML []byte

var ErrInvalid = errors.New("invalid configuration")

type Config struct {
	Images ImagesConfig `yaml:"images"`
	Output OutputConfig `yaml:"output"`
	SSIM   SSIMConfig   `yaml:"ssim"`
}

type ImagesConfig struct {
	BasePath  string `yaml:"base_path"` // file name prefix before the image number
	Extension string `yaml:"extension"` // without the leading dot
	First     int    `yaml:"first"`     // inclusive
	Last      int    `yaml:"last"`      // inclusive
}

// Source converts the image settings into a loader source.
func (c ImagesConfig) Source() imageset.Source {
	return imageset.Source{
		BasePath:  c.BasePath,
		Extension: c.Extension,
		First:     c.First,
		Last:      c.Last,
	}
}

// Count returns Last - First + 1.
func (c ImagesConfig) Count() int {
	return c.Source().Count()
}

type OutputConfig struct {
	MatrixPath string `yaml:"matrix_path"`
	TablePath  string `yaml:"table_path"`
}

type SSIMConfig struct {
	WindowSize int     `yaml:"window_size"`
	K1         float64 `yaml:"k1"`
	K2         float64 `yaml:"k2"`
	Symmetric  bool    `yaml:"symmetric"` // compute i <= j only and mirror
}

// Options converts the SSIM settings into metric options.
func (c SSIMConfig) Options() ssim.Options {
	return ssim.Options{
		WindowSize: c.WindowSize,
		K1:         c.K1,
		K2:         c.K2,
	}
}

// Defaults returns the configuration from the embedded defaults.yaml.
func Defaults() *Config {
	var cfg Config
	if err := yaml.Unmarshal(defaultsYAML, &cfg); err != nil {
		// This is an embedded file so this error should never happen in practice
		panic("failed to unmarshal embedded defaults.yaml: " + err.Error())
	}
	return &cfg
}

// envInt reads an environment variable and parses it as an integer.
// Returns the default value if the env var is unset, empty, or invalid.
func envInt(key string, defaultVal int) int {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	if n, err := strconv.Atoi(s); err == nil {
		return n
	}
	return defaultVal
}

// envBool reads a boolean environment variable, falling back to defaultVal.
func envBool(key string, defaultVal bool) bool {
	if b, err := strconv.ParseBool(os.Getenv(key)); err == nil {
		return b
	}
	return defaultVal
}

func envString(key, defaultVal string) string {
	if s := os.Getenv(key); s != "" {
		return s
	}
	return defaultVal
}

// Load returns the defaults overridden by SSIM_* environment variables.
func Load() *Config {
	cfg := Defaults()
	cfg.applyEnv()
	return cfg
}

// LoadFile returns the defaults overridden by the YAML file at path and then
// by the environment.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	cfg := Defaults()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	cfg.applyEnv()
	return cfg, nil
}

func (c *Config) applyEnv() {
	c.Images.BasePath = envString("SSIM_IMAGES_BASE", c.Images.BasePath)
	c.Images.Extension = envString("SSIM_IMAGES_EXT", c.Images.Extension)
	c.Images.First = envInt("SSIM_FIRST", c.Images.First)
	c.Images.Last = envInt("SSIM_LAST", c.Images.Last)
	c.Output.MatrixPath = envString("SSIM_OUTPUT", c.Output.MatrixPath)
	c.Output.TablePath = envString("SSIM_TABLE_OUTPUT", c.Output.TablePath)
	c.SSIM.WindowSize = envInt("SSIM_WINDOW", c.SSIM.WindowSize)
	c.SSIM.Symmetric = envBool("SSIM_SYMMETRIC", c.SSIM.Symmetric)
}

// Validate reports the first setting that cannot produce a run.
func (c *Config) Validate() error {
	switch {
	case c.Images.BasePath == "" && c.Images.Extension == "":
		return fmt.Errorf("%w: image base path and extension are both empty", ErrInvalid)
	case c.Images.First > c.Images.Last:
		return fmt.Errorf("%w: first image %d is after last image %d", ErrInvalid, c.Images.First, c.Images.Last)
	case c.Output.MatrixPath == "":
		return fmt.Errorf("%w: output path is empty", ErrInvalid)
	case c.SSIM.WindowSize < 3 || c.SSIM.WindowSize%2 == 0:
		return fmt.Errorf("%w: window size %d must be odd and at least 3", ErrInvalid, c.SSIM.WindowSize)
	case c.SSIM.K1 <= 0 || c.SSIM.K2 <= 0:
		return fmt.Errorf("%w: k1 and k2 must be positive", ErrInvalid)
	}
	return nil
}

// AsYaml renders the effective configuration.
func (c *Config) AsYaml() string {
	b, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Sprintf("# failed to marshal config: %v\n", err)
	}
	return string(b)
}
