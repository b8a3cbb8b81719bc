// Package types provides core types and configurations for appbuilder
package types

import (
	"fmt"
	"path/filepath"
	"strings"
)

// DeviceTarget selects where archives are installed
type DeviceTarget string

const (
	DeviceTargetDevice   DeviceTarget = "device"
	DeviceTargetEmulator DeviceTarget = "emulator"
)

// Flag returns the adb selector flag for the target
func (d DeviceTarget) Flag() string {
	if d == DeviceTargetEmulator {
		return "-e"
	}
	return "-d"
}

// Default external tool names
const (
	DefaultSmali     = "smali"
	DefaultZip       = "zip"
	DefaultZipalign  = "zipalign"
	DefaultApksigner = "apksigner"
	DefaultAdb       = "adb"
)

// ExtraFile is a file appended to the package under the entry name Dest
type ExtraFile struct {
	Source string `mapstructure:"src" yaml:"src" json:"src" validate:"required"`
	Dest   string `mapstructure:"dest" yaml:"dest" json:"dest"`
}

// EntryName returns the archive entry name, defaulting to the source base name
func (e ExtraFile) EntryName() string {
	if e.Dest != "" {
		return filepath.ToSlash(filepath.Clean(e.Dest))
	}
	return filepath.Base(e.Source)
}

// CheckDest rejects destination entry names that are absolute or do not stay
// below the archive root
func (e ExtraFile) CheckDest() error {
	if e.Dest == "" {
		return nil
	}
	if filepath.IsAbs(e.Dest) || filepath.VolumeName(e.Dest) != "" || strings.HasPrefix(filepath.ToSlash(e.Dest), "/") {
		return fmt.Errorf("extra file %q: destination %q must be relative: %w", e.Source, e.Dest, ErrConfig)
	}
	clean := filepath.ToSlash(filepath.Clean(filepath.FromSlash(e.Dest)))
	if clean == "." || clean == ".." || strings.HasPrefix(clean, "../") {
		return fmt.Errorf("extra file %q: destination %q leaves the archive root: %w", e.Source, e.Dest, ErrConfig)
	}
	return nil
}

// Credential holds the signing key reference and its passphrase
type Credential struct {
	KeyPath    string `mapstructure:"path" yaml:"path" json:"path"`
	Passphrase string `mapstructure:"password" yaml:"password" json:"-"`
}

// Present reports whether a key path was supplied
func (c *Credential) Present() bool {
	return c != nil && c.KeyPath != ""
}

// Tools names the external programs invoked by the build
type Tools struct {
	Smali     string `mapstructure:"smali" yaml:"smali" json:"smali"`
	Zip       string `mapstructure:"zip" yaml:"zip" json:"zip"`
	Zipalign  string `mapstructure:"zipalign" yaml:"zipalign" json:"zipalign"`
	Apksigner string `mapstructure:"apksigner" yaml:"apksigner" json:"apksigner"`
	Adb       string `mapstructure:"adb" yaml:"adb" json:"adb"`
}

// WithDefaults fills empty tool names with the default program names
func (t Tools) WithDefaults() Tools {
	if t.Smali == "" {
		t.Smali = DefaultSmali
	}
	if t.Zip == "" {
		t.Zip = DefaultZip
	}
	if t.Zipalign == "" {
		t.Zipalign = DefaultZipalign
	}
	if t.Apksigner == "" {
		t.Apksigner = DefaultApksigner
	}
	if t.Adb == "" {
		t.Adb = DefaultAdb
	}
	return t
}

// All returns every configured tool name
func (t Tools) All() []string {
	return []string{t.Smali, t.Zip, t.Zipalign, t.Apksigner, t.Adb}
}

// BuildConfig is the validated input of a single rebuild run.
// It is treated as immutable once handed to the engine.
type BuildConfig struct {
	BuildDir       string      `mapstructure:"build_dir" yaml:"build_dir" json:"build_dir" validate:"required"`
	SourceDir      string      `mapstructure:"source_dir" yaml:"source_dir" json:"source_dir" validate:"required"`
	OriginalApp    string      `mapstructure:"original_app" yaml:"original_app" json:"original_app" validate:"required"`
	AppName        string      `mapstructure:"app_name" yaml:"app_name,omitempty" json:"app_name,omitempty"`
	SmaliDirs      []string    `mapstructure:"smali_dirs" yaml:"smali_dirs,omitempty" json:"smali_dirs,omitempty" validate:"dive,required"`
	ExtraFiles     []ExtraFile `mapstructure:"extra_files" yaml:"extra_files,omitempty" json:"extra_files,omitempty" validate:"dive"`
	Keystore       *Credential `mapstructure:"keystore" yaml:"keystore,omitempty" json:"keystore,omitempty"`
	AdditionalApps []string    `mapstructure:"additional_apps" yaml:"additional_apps,omitempty" json:"additional_apps,omitempty" validate:"dive,required"`
	NoSign         bool        `mapstructure:"no_sign" yaml:"no_sign" json:"no_sign"`
	SignAll        bool        `mapstructure:"sign_all" yaml:"sign_all" json:"sign_all"`
	NoClean        bool        `mapstructure:"no_clean" yaml:"no_clean" json:"no_clean"`
	Install        bool        `mapstructure:"install" yaml:"install" json:"install"`
	PreferEmulator bool        `mapstructure:"emulator" yaml:"emulator" json:"emulator"`
	Notify         bool        `mapstructure:"notify" yaml:"notify" json:"notify"`
	Tools          Tools       `mapstructure:"tools" yaml:"tools" json:"tools"`
}

// SignRequested reports whether the primary archive will be signed
func (c *BuildConfig) SignRequested() bool {
	return !c.NoSign
}

// Target returns the install target selected by the config
func (c *BuildConfig) Target() DeviceTarget {
	if c.PreferEmulator {
		return DeviceTargetEmulator
	}
	return DeviceTargetDevice
}

// Stem returns the name used for the staged artifacts
func (c *BuildConfig) Stem() string {
	if c.AppName != "" {
		return c.AppName
	}
	base := filepath.Base(c.OriginalApp)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	if stem == "" || stem == "." || stem == string(filepath.Separator) {
		return "app-mod"
	}
	return stem
}

// WatchPaths returns the inputs whose changes should trigger a rebuild
func (c *BuildConfig) WatchPaths() []string {
	paths := make([]string, 0, len(c.SmaliDirs)+len(c.ExtraFiles))
	paths = append(paths, c.SmaliDirs...)
	for _, f := range c.ExtraFiles {
		paths = append(paths, f.Source)
	}
	return paths
}
