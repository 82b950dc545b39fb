package document

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
	"time"
)

const maxBaseLen = 50

var (
	unsafeChars = regexp.MustCompile(`[^\p{L}\p{N}\s\-_]`)
	whitespace  = regexp.MustCompile(`\s+`)
)

// SanitizeFilename makes name safe for any filesystem: special characters are dropped,
// whitespace runs become a single underscore, the base is truncated and the result
// always ends in .pdf.
func SanitizeFilename(name string) string {
	base := name
	if strings.EqualFold(filepath.Ext(base), ".pdf") {
		base = base[:len(base)-len(".pdf")]
	}
	return sanitizeBase(base, "document") + ".pdf"
}

// Filename builds "<prefix>_<epoch-ms>.pdf"
func Filename(prefix string, t time.Time) string {
	return fmt.Sprintf("%s_%d.pdf", sanitizeBase(prefix, "document"), t.UnixMilli())
}

func sanitizeBase(base, fallback string) string {
	base = unsafeChars.ReplaceAllString(base, "")
	base = strings.TrimSpace(base)
	base = whitespace.ReplaceAllString(base, "_")

	if runes := []rune(base); len(runes) > maxBaseLen {
		base = string(runes[:maxBaseLen])
	}
	if base == "" {
		base = fallback
	}
	return base
}
