package watcher

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
)

// DefaultIgnores are editor, VCS and OS files that never trigger a rebuild
var DefaultIgnores = []string{
	".git",
	".svn",
	".hg",
	"*.swp",
	"*.swo",
	"*~",
	"4913",
	".DS_Store",
	"Thumbs.db",
	"*.tmp",
	"*.bak",
}

// IgnoreMatcher matches paths against glob patterns. A pattern without a
// slash matches any path element; a pattern with one matches the whole
// slash-separated path, where ** spans directories.
type IgnoreMatcher struct {
	elements []*regexp.Regexp
	paths    []*regexp.Regexp
}

// NewIgnoreMatcher compiles patterns
func NewIgnoreMatcher(patterns []string) (*IgnoreMatcher, error) {
	m := &IgnoreMatcher{}
	if err := m.Add(patterns...); err != nil {
		return nil, err
	}
	return m, nil
}

// Add compiles and appends more patterns
func (m *IgnoreMatcher) Add(patterns ...string) error {
	for _, p := range patterns {
		p = strings.TrimSuffix(strings.TrimPrefix(filepath.ToSlash(p), "./"), "/")
		if p == "" {
			continue
		}
		re, err := globToRegex(p)
		if err != nil {
			return fmt.Errorf("invalid ignore pattern %q: %w", p, err)
		}
		if strings.Contains(p, "/") {
			m.paths = append(m.paths, re)
		} else {
			m.elements = append(m.elements, re)
		}
	}
	return nil
}

// Match reports whether path or any of its elements is ignored
func (m *IgnoreMatcher) Match(path string) bool {
	path = filepath.ToSlash(path)
	for _, re := range m.paths {
		if re.MatchString(path) || re.MatchString(strings.TrimPrefix(path, "/")) {
			return true
		}
	}
	if len(m.elements) == 0 {
		return false
	}
	for _, elem := range strings.Split(path, "/") {
		if elem == "" {
			continue
		}
		for _, re := range m.elements {
			if re.MatchString(elem) {
				return true
			}
		}
	}
	return false
}

// globToRegex converts a glob to an anchored regular expression. * and ?
// stop at slashes, ** does not.
func globToRegex(pattern string) (*regexp.Regexp, error) {
	var b strings.Builder
	b.WriteString("^")

	for i := 0; i < len(pattern); {
		switch c := pattern[i]; c {
		case '*':
			if i+1 < len(pattern) && pattern[i+1] == '*' {
				if i+2 < len(pattern) && pattern[i+2] == '/' {
					b.WriteString("(?:.*/)?")
					i += 3
				} else {
					b.WriteString(".*")
					i += 2
				}
				continue
			}
			b.WriteString("[^/]*")
			i++
		case '?':
			b.WriteString("[^/]")
			i++
		case '[':
			j := strings.IndexByte(pattern[i:], ']')
			if j < 0 {
				b.WriteString(`\[`)
				i++
				continue
			}
			class := pattern[i+1 : i+j]
			if strings.HasPrefix(class, "!") {
				class = "^" + class[1:]
			}
			b.WriteString("[" + class + "]")
			i += j + 1
		case '\\':
			if i+1 < len(pattern) {
				b.WriteString(regexp.QuoteMeta(pattern[i+1 : i+2]))
				i += 2
				continue
			}
			b.WriteString(`\\`)
			i++
		default:
			b.WriteString(regexp.QuoteMeta(string(c)))
			i++
		}
	}

	b.WriteString("$")
	return regexp.Compile(b.String())
}
