package watcher_test

import (
	"testing"

	"github.com/appbuilder/appbuilder/internal/watcher"
)

func TestIgnoreMatcher_Match(t *testing.T) {
	tests := []struct {
		name     string
		patterns []string
		path     string
		want     bool
	}{
		{
			name:     "element wildcard",
			patterns: []string{"*.swp"},
			path:     "/src/smali/.Main.smali.swp",
			want:     true,
		},
		{
			name:     "element wildcard no match",
			patterns: []string{"*.swp"},
			path:     "/src/smali/Main.smali",
			want:     false,
		},
		{
			name:     "directory element",
			patterns: []string{".git"},
			path:     "/src/.git/index",
			want:     true,
		},
		{
			name:     "double wildcard path",
			patterns: []string{"**/generated/**"},
			path:     "/src/smali/generated/R.smali",
			want:     true,
		},
		{
			name:     "double wildcard path no match",
			patterns: []string{"**/generated/**"},
			path:     "/src/smali/com/R.smali",
			want:     false,
		},
		{
			name:     "question mark",
			patterns: []string{"R$?.smali"},
			path:     "/src/smali/R$1.smali",
			want:     true,
		},
		{
			name:     "character class",
			patterns: []string{"R$[0-9].smali"},
			path:     "/src/smali/R$5.smali",
			want:     true,
		},
		{
			name:     "negated character class",
			patterns: []string{"R$[!0-9].smali"},
			path:     "/src/smali/R$5.smali",
			want:     false,
		},
		{
			name:     "vim probe file",
			patterns: watcher.DefaultIgnores,
			path:     "/src/smali/4913",
			want:     true,
		},
		{
			name:     "defaults keep sources",
			patterns: watcher.DefaultIgnores,
			path:     "/src/smali/com/example/Main.smali",
			want:     false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := watcher.NewIgnoreMatcher(tt.patterns)
			if err != nil {
				t.Fatalf("NewIgnoreMatcher(%v) error = %v", tt.patterns, err)
			}
			if got := m.Match(tt.path); got != tt.want {
				t.Errorf("Match(%q) = %v, want %v", tt.path, got, tt.want)
			}
		})
	}
}

func TestIgnoreMatcher_InvalidPattern(t *testing.T) {
	if _, err := watcher.NewIgnoreMatcher([]string{"[z-a]"}); err == nil {
		t.Error("expected error for invalid range")
	}
}
