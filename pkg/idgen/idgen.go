package idgen

import (
	"fmt"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

const alphanumeric = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz"

// NewChatID returns a 21 character url-safe id.
func NewChatID() (string, error) {
	return gonanoid.New()
}

// Generator produces prefixed ids such as "msgs-aZ09...".
type Generator struct {
	Prefix string
	Size   int
}

func NewGenerator(prefix string, size int) *Generator {
	return &Generator{Prefix: prefix, Size: size}
}

func (g *Generator) Next() (string, error) {
	id, err := gonanoid.Generate(alphanumeric, g.Size)
	if err != nil {
		return "", fmt.Errorf("generate id: %w", err)
	}
	if g.Prefix == "" {
		return id, nil
	}
	return g.Prefix + "-" + id, nil
}
