package places

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"regexp"
	"strings"
)

var (
	// ASCII word characters, whitespace and hyphens survive cleaning
	disallowedNameChars = regexp.MustCompile(`[^\w\s-]`)
	separatorRuns       = regexp.MustCompile(`[-\s]+`)
)

// CleanName reduces a restaurant name to a filesystem-safe token.
// Names that clean to nothing fall back to "unknown".
func CleanName(name string) string {
	cleaned := disallowedNameChars.ReplaceAllString(name, "")
	cleaned = strings.TrimSpace(cleaned)
	cleaned = separatorRuns.ReplaceAllString(cleaned, "_")
	if cleaned == "" {
		return "unknown"
	}
	return cleaned
}

// ReferenceDigest returns the first 8 hex characters of the MD5 of a photo reference.
// Two references sharing a digest overwrite each other's file; this is not mitigated.
func ReferenceDigest(photoReference string) string {
	sum := md5.Sum([]byte(photoReference))
	return hex.EncodeToString(sum[:])[:8]
}

// PhotoFilename derives <clean_name>_<digest>_<width>.jpg
func PhotoFilename(restaurantName, photoReference string, width int) string {
	return fmt.Sprintf("%s_%s_%d.jpg", CleanName(restaurantName), ReferenceDigest(photoReference), width)
}
