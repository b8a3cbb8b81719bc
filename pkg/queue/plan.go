package queue

// PlanEntry is a serializable view of a queued operation
type PlanEntry struct {
	Kind    OperationKind `yaml:"kind" json:"kind"`
	Label   string        `yaml:"label,omitempty" json:"label,omitempty"`
	Program string        `yaml:"program,omitempty" json:"program,omitempty"`
	Args    []string      `yaml:"args,omitempty" json:"args,omitempty"`
	Dir     string        `yaml:"dir,omitempty" json:"dir,omitempty"`
	Stdin   bool          `yaml:"stdin,omitempty" json:"stdin,omitempty"`
	Detail  string        `yaml:"detail,omitempty" json:"detail,omitempty"`
}

// Plan describes the pending operations without running them
func (q *CommandQueue) Plan() []PlanEntry {
	entries := make([]PlanEntry, 0, len(q.ops))
	for _, op := range q.ops {
		entry := PlanEntry{
			Kind:   op.Kind(),
			Label:  op.Label,
			Detail: op.Detail,
		}
		if op.Command != nil {
			entry.Program = op.Command.Program
			entry.Args = append([]string(nil), op.Command.Args...)
			entry.Dir = op.Command.Dir
			entry.Stdin = op.Command.Stdin != ""
		}
		entries = append(entries, entry)
	}
	return entries
}
