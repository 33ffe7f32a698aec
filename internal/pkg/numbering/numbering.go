package numbering

import (
	"crypto/rand"
	"fmt"
	"io"
	"strings"
	"time"
)

// Generator produces invoice numbers of the form INV-{year}-{8 hex chars}.
// Uniqueness is only checked by the store; callers retry on conflicts.
type Generator struct {
	random io.Reader
	now    func() time.Time
}

// NewGenerator returns a generator backed by crypto/rand.
func NewGenerator() *Generator {
	return &Generator{random: rand.Reader, now: time.Now}
}

// Next returns a fresh invoice number.
func (g *Generator) Next() (string, error) {
	var buf [4]byte
	if _, err := io.ReadFull(g.random, buf[:]); err != nil {
		return "", fmt.Errorf("read random bytes: %w", err)
	}
	return fmt.Sprintf("INV-%04d-%s", g.now().Year(), strings.ToUpper(fmt.Sprintf("%x", buf[:]))), nil
}
