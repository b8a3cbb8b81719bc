package types_test

import (
	"errors"
	"testing"

	"github.com/appbuilder/appbuilder/pkg/types"
)

func TestBuildConfig_Stem(t *testing.T) {
	tests := []struct {
		name string
		cfg  types.BuildConfig
		want string
	}{
		{"apk extension", types.BuildConfig{OriginalApp: "/tmp/base.apk"}, "base"},
		{"no extension", types.BuildConfig{OriginalApp: "/tmp/base"}, "base"},
		{"dotted name", types.BuildConfig{OriginalApp: "com.example.app.apk"}, "com.example.app"},
		{"app name override", types.BuildConfig{OriginalApp: "base.apk", AppName: "mod"}, "mod"},
		{"empty stem", types.BuildConfig{OriginalApp: ".apk"}, "app-mod"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.cfg.Stem(); got != tt.want {
				t.Errorf("Stem() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestExtraFile_EntryName(t *testing.T) {
	tests := []struct {
		file types.ExtraFile
		want string
	}{
		{types.ExtraFile{Source: "mydata/foo.png", Dest: "assets/foo.png"}, "assets/foo.png"},
		{types.ExtraFile{Source: "mydata/foo.png"}, "foo.png"},
		{types.ExtraFile{Source: "a", Dest: "assets/./x/../y.bin"}, "assets/y.bin"},
	}

	for _, tt := range tests {
		if got := tt.file.EntryName(); got != tt.want {
			t.Errorf("EntryName(%+v) = %q, want %q", tt.file, got, tt.want)
		}
	}
}

func TestTools_WithDefaults(t *testing.T) {
	tools := types.Tools{Zip: "/usr/local/bin/zip"}.WithDefaults()

	if tools.Zip != "/usr/local/bin/zip" {
		t.Errorf("expected explicit zip to be kept, got %q", tools.Zip)
	}
	if tools.Smali != types.DefaultSmali || tools.Adb != types.DefaultAdb {
		t.Errorf("expected defaults to be filled, got %+v", tools)
	}
	if len(tools.All()) != 5 {
		t.Errorf("expected 5 tools, got %d", len(tools.All()))
	}
}

func TestBuildConfig_Target(t *testing.T) {
	cfg := types.BuildConfig{}
	if cfg.Target() != types.DeviceTargetDevice || cfg.Target().Flag() != "-d" {
		t.Errorf("expected device target, got %s", cfg.Target())
	}

	cfg.PreferEmulator = true
	if cfg.Target() != types.DeviceTargetEmulator || cfg.Target().Flag() != "-e" {
		t.Errorf("expected emulator target, got %s", cfg.Target())
	}
}

func TestCredential_Present(t *testing.T) {
	var nilCred *types.Credential
	if nilCred.Present() {
		t.Error("nil credential should not be present")
	}
	if (&types.Credential{Passphrase: "x"}).Present() {
		t.Error("credential without key path should not be present")
	}
	if !(&types.Credential{KeyPath: "release.jks"}).Present() {
		t.Error("credential with key path should be present")
	}
}

func TestExtraFile_CheckDest(t *testing.T) {
	tests := []struct {
		name    string
		dest    string
		wantErr bool
	}{
		{"default entry name", "", false},
		{"nested entry", "assets/img/foo.png", false},
		{"dot segments inside root", "assets/./x/../y.bin", false},
		{"absolute", "/etc/passwd", true},
		{"parent escape", "../escape.bin", true},
		{"nested parent escape", "assets/../../escape.bin", true},
		{"root itself", ".", true},
		{"collapses to root", "assets/..", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := types.ExtraFile{Source: "payload.bin", Dest: tt.dest}.CheckDest()
			if (err != nil) != tt.wantErr {
				t.Fatalf("CheckDest() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, types.ErrConfig) {
				t.Errorf("CheckDest() error = %v, want ErrConfig", err)
			}
		})
	}
}
