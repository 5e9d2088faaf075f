package checksum

import (
	"crypto/sha256"
	"fmt"
	"strings"

	"ccr-registry-scraper/internal/scraper"
)

type Generator struct{}

func NewGenerator() *Generator {
	return &Generator{}
}

// GenerateRecordHash returns the hex SHA-256 of the record fields joined by "|".
func (g *Generator) GenerateRecordHash(r scraper.Record) string {
	content := strings.Join(r.Values(), "|")

	hash := sha256.Sum256([]byte(content))

	return fmt.Sprintf("%x", hash)
}

// VerifyRecordHash reports whether r still hashes to expectedHash.
func (g *Generator) VerifyRecordHash(expectedHash string, r scraper.Record) bool {
	return g.GenerateRecordHash(r) == expectedHash
}
