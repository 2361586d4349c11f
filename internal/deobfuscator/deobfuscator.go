// Package deobfuscator undoes encodings that hide structural markers from
// plain substring search.
package deobfuscator

// Deobfuscator is the interface for content decoders
type Deobfuscator interface {
	Name() string
	CanDeobfuscate(content string) bool
	Deobfuscate(content string) (string, error)
}

// Manager applies registered deobfuscators until none changes the content
type Manager struct {
	deobfuscators []Deobfuscator
	maxDepth      int
}

// NewManager creates a new deobfuscator manager
func NewManager(maxDepth int, ds ...Deobfuscator) *Manager {
	m := &Manager{
		deobfuscators: make([]Deobfuscator, 0, len(ds)),
		maxDepth:      maxDepth,
	}
	for _, d := range ds {
		m.Register(d)
	}
	return m
}

// Register registers a deobfuscator
func (m *Manager) Register(d Deobfuscator) {
	m.deobfuscators = append(m.deobfuscators, d)
}

// Deobfuscate decodes content in at most maxDepth passes and returns the
// result with the names of the deobfuscators that changed it, in order
func (m *Manager) Deobfuscate(content string) (string, []string) {
	result := content
	var applied []string

	for depth := 0; depth < m.maxDepth; depth++ {
		changed := false

		for _, d := range m.deobfuscators {
			if !d.CanDeobfuscate(result) {
				continue
			}
			next, err := d.Deobfuscate(result)
			if err != nil || next == result {
				continue
			}
			result = next
			applied = append(applied, d.Name())
			changed = true
			break // Restart with the first deobfuscator
		}

		if !changed {
			break
		}
	}

	return result, applied
}
