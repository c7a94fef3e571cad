package seed

import (
	"fmt"
	"strings"

	"tribehub/internal/models"

	"github.com/brianvoe/gofakeit/v6"
)

// Account returns a random account address.
func Account() models.Address {
	hex := strings.ReplaceAll(gofakeit.UUID()+gofakeit.UUID(), "-", "")
	return models.MustParseAddress("0x" + hex[:40])
}

// TribeName returns a display name unique within one run.
func TribeName(i int) string {
	return fmt.Sprintf("%s %s #%d", gofakeit.HipsterWord(), gofakeit.Noun(), i+1)
}

// PostMetadata returns a content URI for a demo post.
func PostMetadata() string {
	return fmt.Sprintf("ipfs://%s/%s", gofakeit.UUID(), gofakeit.Word())
}
