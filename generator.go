package gomedia

import "fmt"

// DefaultGenerator shards media into <context>/<first>/<second> directories.
// With the default levels a directory never holds more than 1000 media.
type DefaultGenerator struct {
	FirstLevel  int64
	SecondLevel int64
}

// NewDefaultGenerator returns a generator with the 100000/1000 levels.
func NewDefaultGenerator() *DefaultGenerator {
	return &DefaultGenerator{FirstLevel: 100000, SecondLevel: 1000}
}

// GeneratePath returns the storage prefix of m. It is a pure function of the
// media id and context.
func (g *DefaultGenerator) GeneratePath(m *Media) string {
	first := m.ID / g.FirstLevel
	second := (m.ID - first*g.FirstLevel) / g.SecondLevel

	return fmt.Sprintf("%s/%04d/%02d", m.Context, first+1, second+1)
}
