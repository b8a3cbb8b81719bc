// Package config loads and validates the build configuration
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/appbuilder/appbuilder/pkg/types"
	"github.com/appbuilder/appbuilder/pkg/workspace"
)

const (
	// EnvPrefix prefixes environment overrides, e.g. APPBUILDER_BUILD_DIR
	EnvPrefix = "APPBUILDER"

	// DefaultConfigName is the config file searched for in the working directory
	DefaultConfigName = "appbuilder"

	DefaultBuildDir  = "./build"
	DefaultSourceDir = "."
)

var validate = validator.New()

// Manager handles configuration operations
type Manager struct{}

// NewManager creates a new configuration manager
func NewManager() *Manager {
	return &Manager{}
}

// SetDefaults registers default values on v
func SetDefaults(v *viper.Viper) {
	v.SetDefault("build_dir", DefaultBuildDir)
	v.SetDefault("source_dir", DefaultSourceDir)
	v.SetDefault("app_name", "")
	// Defaults make these keys visible to AutomaticEnv during Unmarshal
	for _, key := range []string{"no_sign", "sign_all", "no_clean", "install", "emulator", "notify"} {
		v.SetDefault(key, false)
	}
	v.SetDefault("keystore.path", "")
	v.SetDefault("keystore.password", "")
	v.SetDefault("tools.smali", types.DefaultSmali)
	v.SetDefault("tools.zip", types.DefaultZip)
	v.SetDefault("tools.zipalign", types.DefaultZipalign)
	v.SetDefault("tools.apksigner", types.DefaultApksigner)
	v.SetDefault("tools.adb", types.DefaultAdb)
}

// NewViper returns a viper instance with defaults and environment binding.
// When cfgFile is empty, appbuilder.{yaml,yml,json} is searched in the
// working directory.
func NewViper(cfgFile string) *viper.Viper {
	v := viper.New()
	SetDefaults(v)

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.AddConfigPath(".")
		v.SetConfigName(DefaultConfigName)
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// ReadConfigFile reads the configured file. A missing default file is not an
// error; an explicitly named file that cannot be read is.
func ReadConfigFile(v *viper.Viper, explicit bool) error {
	err := v.ReadInConfig()
	if err == nil {
		return nil
	}
	var notFound viper.ConfigFileNotFoundError
	if !explicit && errors.As(err, &notFound) {
		return nil
	}
	return fmt.Errorf("read config file: %v: %w", err, types.ErrConfig)
}

// Load decodes v into a BuildConfig without validating it
func (m *Manager) Load(v *viper.Viper) (*types.BuildConfig, error) {
	var cfg types.BuildConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %v: %w", err, types.ErrConfig)
	}
	if cfg.Keystore != nil && !cfg.Keystore.Present() && cfg.Keystore.Passphrase == "" {
		cfg.Keystore = nil
	}
	cfg.Tools = cfg.Tools.WithDefaults()
	return &cfg, nil
}

// Normalize applies implied options. install-on-emulator implies install.
func Normalize(cfg *types.BuildConfig) *types.BuildConfig {
	out := *cfg
	if out.PreferEmulator {
		out.Install = true
	}
	out.Tools = out.Tools.WithDefaults()
	return &out
}

// Validate checks cfg before anything is written to disk. The returned
// warnings describe option combinations that are accepted but have no effect.
func (m *Manager) Validate(cfg *types.BuildConfig) ([]string, error) {
	if err := validate.Struct(cfg); err != nil {
		return nil, fmt.Errorf("%v: %w", err, types.ErrConfig)
	}

	if err := workspace.CheckPaths(cfg); err != nil {
		return nil, err
	}

	if cfg.NoSign && cfg.Install {
		return nil, fmt.Errorf("cannot install without signing; drop --no-sign or --install: %w", types.ErrConfig)
	}
	if cfg.NoSign && cfg.SignAll {
		return nil, fmt.Errorf("--no-sign and --sign-all cannot be used together: %w", types.ErrConfig)
	}

	if cfg.SignRequested() {
		if !cfg.Keystore.Present() {
			return nil, fmt.Errorf("no keystore provided, cannot sign: %w", types.ErrConfig)
		}
		if _, err := os.Stat(cfg.Keystore.KeyPath); err != nil {
			return nil, fmt.Errorf("keystore %q: %w", cfg.Keystore.KeyPath, types.ErrNotFound)
		}
	}

	fs := workspace.NewFileSystemUtils()
	for _, dir := range cfg.SmaliDirs {
		if !fs.IsDirectory(dir) {
			return nil, fmt.Errorf("smali dir %q: %w", dir, types.ErrNotFound)
		}
	}
	for _, f := range cfg.ExtraFiles {
		if err := f.CheckDest(); err != nil {
			return nil, err
		}
		if !fs.IsRegularFile(f.Source) {
			return nil, fmt.Errorf("extra file %q: %w", f.Source, types.ErrNotFound)
		}
	}
	if cfg.Install || cfg.SignAll {
		for _, app := range cfg.AdditionalApps {
			if !fs.IsRegularFile(app) {
				return nil, fmt.Errorf("additional app %q: %w", app, types.ErrNotFound)
			}
		}
	}

	return warnings(cfg), nil
}

func warnings(cfg *types.BuildConfig) []string {
	var out []string
	if cfg.NoSign && cfg.Keystore.Present() {
		out = append(out, "keystore is ignored with --no-sign")
	}
	if cfg.Keystore != nil && !cfg.Keystore.Present() && cfg.Keystore.Passphrase != "" {
		out = append(out, "keystore password is of no use without a keystore file")
	}
	if cfg.SignAll && len(cfg.AdditionalApps) == 0 {
		out = append(out, "--sign-all has no effect without additional apps")
	}
	if cfg.SignAll && len(cfg.AdditionalApps) > 0 {
		out = append(out, "additional apps are signed in place; the first original is kept as <app>.bak and an existing backup is never overwritten")
	}
	if !cfg.Install && !cfg.SignAll && len(cfg.AdditionalApps) > 0 {
		out = append(out, "additional apps are only used with --install or --sign-all")
	}
	return out
}

// ParseExtraFile parses "SRC[:DEST]" into an ExtraFile
func ParseExtraFile(s string) (types.ExtraFile, error) {
	src, dest, _ := strings.Cut(s, ":")
	if src == "" {
		return types.ExtraFile{}, fmt.Errorf("extra file %q: empty source: %w", s, types.ErrConfig)
	}
	return types.ExtraFile{Source: src, Dest: dest}, nil
}

// Template returns an example configuration
func Template() *types.BuildConfig {
	return &types.BuildConfig{
		BuildDir:    DefaultBuildDir,
		SourceDir:   DefaultSourceDir,
		OriginalApp: "base.apk",
		SmaliDirs:   []string{"smali"},
		ExtraFiles: []types.ExtraFile{
			{Source: "res/raw/patch.bin", Dest: "assets/patch.bin"},
		},
		Keystore: &types.Credential{KeyPath: "release.jks"},
		Tools:    types.Tools{}.WithDefaults(),
	}
}

// WriteTemplate writes the example configuration to path as YAML. An
// existing file is only replaced when force is set.
func (m *Manager) WriteTemplate(path string, force bool) error {
	if _, err := os.Stat(path); err == nil && !force {
		return fmt.Errorf("%s already exists (use --force to overwrite): %w", path, types.ErrConfig)
	}

	data, err := yaml.Marshal(Template())
	if err != nil {
		return fmt.Errorf("encode template: %w", err)
	}
	header := "# appbuilder configuration. Flags and APPBUILDER_* variables override these values.\n"
	return os.WriteFile(path, append([]byte(header), data...), 0644)
}
