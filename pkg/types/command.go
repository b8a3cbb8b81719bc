package types

import (
	"strconv"
	"strings"
)

// Command is a structured external program invocation. Arguments are passed
// to the program verbatim; no shell is involved.
type Command struct {
	Program string   `yaml:"program" json:"program"`
	Args    []string `yaml:"args,omitempty" json:"args,omitempty"`
	Dir     string   `yaml:"dir,omitempty" json:"dir,omitempty"`
	// Stdin is written to the program's standard input when non-empty
	Stdin string `yaml:"-" json:"-"`
}

// String renders the command line for logs, quoting arguments that need it.
// Stdin content is never included.
func (c Command) String() string {
	parts := make([]string, 0, len(c.Args)+1)
	parts = append(parts, quoteArg(c.Program))
	for _, a := range c.Args {
		parts = append(parts, quoteArg(a))
	}
	line := strings.Join(parts, " ")
	if c.Stdin != "" {
		line = "<stdin> | " + line
	}
	return line
}

func quoteArg(s string) string {
	if s == "" || strings.ContainsAny(s, " \t\n'\"\\$|&;<>*?") {
		return strconv.Quote(s)
	}
	return s
}
