package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/appbuilder/appbuilder/pkg/config"
	"github.com/appbuilder/appbuilder/pkg/types"
)

// flag name -> config key
var rootBindings = map[string]string{
	"verbosity": "verbosity",
	"log-file":  "log_file",
}

var buildBindings = map[string]string{
	"build-dir":     "build_dir",
	"source-dir":    "source_dir",
	"original-app":  "original_app",
	"app-name":      "app_name",
	"keystore":      "keystore.path",
	"keystore-pass": "keystore.password",
	"no-sign":       "no_sign",
	"sign-all":      "sign_all",
	"no-clean":      "no_clean",
	"install":       "install",
	"emulator":      "emulator",
	"notify":        "notify",
}

// Repeatable path flags are read by hand as string arrays. Commas are legal
// in paths, so they are never split.
const (
	extraFileFlag     = "file"
	smaliDirFlag      = "smali-dir"
	additionalAppFlag = "additional-app"
)

// addBuildFlags registers the build input flags on cmd. Values are read back
// through viper so that flags override environment and config file.
func addBuildFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringP("build-dir", "b", config.DefaultBuildDir, "directory for intermediate and output files")
	f.StringP("source-dir", "c", config.DefaultSourceDir, "directory holding the decompiled sources")
	f.StringP("original-app", "o", "", "original APK the build starts from")
	f.StringP("app-name", "n", "", "name of the produced APK (default: original file name)")
	f.StringArrayP(smaliDirFlag, "s", nil, "smali directory to compile and add, repeatable")
	f.StringArrayP(extraFileFlag, "f", nil, "extra file to add as SRC[:DEST], repeatable")
	f.StringP("keystore", "k", "", "keystore used for signing")
	f.StringP("keystore-pass", "p", "", "keystore password")
	f.StringArrayP(additionalAppFlag, "w", nil, "additional APK to install or sign alongside, repeatable")
	f.Bool("no-sign", false, "do not sign the produced APK")
	f.Bool("sign-all", false, "also sign the additional APKs in place")
	f.Bool("no-clean", false, "keep the build directory")
	f.BoolP("install", "i", false, "install on a connected device")
	f.BoolP("emulator", "e", false, "install on a running emulator")
	f.Bool("notify", false, "send a desktop notification when the build ends")
}

func bindFlags(v *viper.Viper, flags *pflag.FlagSet, bindings map[string]string) error {
	for name, key := range bindings {
		flag := flags.Lookup(name)
		if flag == nil {
			continue
		}
		if err := v.BindPFlag(key, flag); err != nil {
			return fmt.Errorf("bind flag %s: %v: %w", name, err, types.ErrConfig)
		}
	}
	return nil
}

// loadBuildConfig decodes the layered configuration for cmd
func (c *CLI) loadBuildConfig(cmd *cobra.Command) (*types.BuildConfig, error) {
	cfg, err := config.NewManager().Load(c.viper)
	if err != nil {
		return nil, err
	}

	if dirs, ok, err := changedArray(cmd, smaliDirFlag); err != nil {
		return nil, err
	} else if ok {
		cfg.SmaliDirs = dirs
	}
	if apps, ok, err := changedArray(cmd, additionalAppFlag); err != nil {
		return nil, err
	} else if ok {
		cfg.AdditionalApps = apps
	}

	if flag := cmd.Flags().Lookup(extraFileFlag); flag != nil && flag.Changed {
		specs, err := cmd.Flags().GetStringArray(extraFileFlag)
		if err != nil {
			return nil, err
		}
		cfg.ExtraFiles = nil
		for _, s := range specs {
			extra, err := config.ParseExtraFile(s)
			if err != nil {
				return nil, err
			}
			cfg.ExtraFiles = append(cfg.ExtraFiles, extra)
		}
	}

	return config.Normalize(cfg), nil
}

// changedArray returns the values of a repeatable flag when it was set on the
// command line
func changedArray(cmd *cobra.Command, name string) ([]string, bool, error) {
	flag := cmd.Flags().Lookup(name)
	if flag == nil || !flag.Changed {
		return nil, false, nil
	}
	values, err := cmd.Flags().GetStringArray(name)
	if err != nil {
		return nil, false, err
	}
	return values, true, nil
}
