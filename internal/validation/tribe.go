// Package validation checks user-supplied names, symbols and metadata before they reach the ledger.
package validation

import (
	"fmt"
	"html"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/microcosm-cc/bluemonday"
	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

const (
	MaxNameLength     = 120
	MaxMetadataLength = 4096
	MaxSymbolLength   = 16
	MaxLabelLength    = 64
)

var (
	symbolRegex   = regexp.MustCompile(`^[A-Z0-9]{1,16}$`)
	actionIDRegex = regexp.MustCompile(`^[a-z0-9_.:-]{1,64}$`)

	markupPolicy = bluemonday.StrictPolicy()
	folder       = cases.Fold()
)

// NormalizeName returns the uniqueness key of a display name: NFKC-normalized,
// case-folded, with runs of whitespace collapsed to one space.
func NormalizeName(name string) string {
	n := norm.NFKC.String(name)
	n = folder.String(n)
	return strings.Join(strings.Fields(n), " ")
}

// ValidateName checks a tribe or collectible display name.
func ValidateName(name string) error {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return fmt.Errorf("name is required")
	}
	if !utf8.ValidString(trimmed) {
		return fmt.Errorf("name must be valid UTF-8")
	}
	if utf8.RuneCountInString(trimmed) > MaxNameLength {
		return fmt.Errorf("name must be at most %d characters", MaxNameLength)
	}
	if err := rejectMarkup(trimmed); err != nil {
		return fmt.Errorf("name %w", err)
	}
	return nil
}

// ValidateMetadata checks an opaque metadata reference. Empty metadata is allowed.
func ValidateMetadata(metadata string) error {
	if len(metadata) > MaxMetadataLength {
		return fmt.Errorf("metadata must be at most %d bytes", MaxMetadataLength)
	}
	if !utf8.ValidString(metadata) {
		return fmt.Errorf("metadata must be valid UTF-8")
	}
	if err := rejectMarkup(metadata); err != nil {
		return fmt.Errorf("metadata %w", err)
	}
	return nil
}

// ValidateSymbol checks a ticker symbol such as "TRB".
func ValidateSymbol(symbol string) error {
	if !symbolRegex.MatchString(symbol) {
		return fmt.Errorf("symbol must be 1-%d uppercase letters or digits", MaxSymbolLength)
	}
	return nil
}

// ValidateLabel checks short free-text labels such as point type names.
func ValidateLabel(label string) error {
	trimmed := strings.TrimSpace(label)
	if trimmed == "" {
		return fmt.Errorf("label is required")
	}
	if utf8.RuneCountInString(trimmed) > MaxLabelLength {
		return fmt.Errorf("label must be at most %d characters", MaxLabelLength)
	}
	return rejectMarkup(trimmed)
}

// ValidateActionID checks an award action identifier.
func ValidateActionID(id string) error {
	if !actionIDRegex.MatchString(id) {
		return fmt.Errorf("action id must be 1-64 characters of a-z, 0-9, '_', '.', ':' or '-'")
	}
	return nil
}

// rejectMarkup fails when the strict HTML policy would strip anything from s.
func rejectMarkup(s string) error {
	if html.UnescapeString(markupPolicy.Sanitize(s)) != s {
		return fmt.Errorf("must not contain markup")
	}
	return nil
}
