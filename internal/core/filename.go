package core

import (
	"fmt"
	"html"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/microcosm-cc/bluemonday"
)

// unsafeFileChars are characters Windows and macOS refuse in file names.
var unsafeFileChars = regexp.MustCompile(`[\\/:*?"<>|]`)

var (
	textPolicy     *bluemonday.Policy
	textPolicyOnce sync.Once
)

func stripMarkup(s string) string {
	textPolicyOnce.Do(func() {
		textPolicy = bluemonday.StrictPolicy()
	})
	// StrictPolicy escapes entities in the text it keeps; undo that so
	// "Q&A" stays "Q&A".
	return html.UnescapeString(textPolicy.Sanitize(s))
}

// SourceTitle returns the display name of an uploaded file: the base name
// without directory or extension, with any markup removed.
func SourceTitle(source string) string {
	base := filepath.Base(strings.ReplaceAll(source, `\`, "/"))
	if base == "." || base == "/" {
		return ""
	}
	base = strings.TrimSuffix(base, filepath.Ext(base))
	return strings.TrimSpace(stripMarkup(base))
}

// SafeBaseName returns SourceTitle with file-system-unsafe characters
// removed. It falls back to "test" when nothing usable remains.
func SafeBaseName(source string) string {
	s := strings.TrimSpace(unsafeFileChars.ReplaceAllString(SourceTitle(source), ""))
	if s == "" {
		return "test"
	}
	return s
}

// OutputFilename builds "{base}_{start}-{end}_{YYYYmmdd_HHMM}.xlsx".
func OutputFilename(source string, start, end int, at time.Time) string {
	return fmt.Sprintf("%s_%d-%d_%s.xlsx", SafeBaseName(source), start, end, at.Format("20060102_1504"))
}

// SimpleFilename builds the file name of a single-sheet export.
func SimpleFilename(start, end int) string {
	return fmt.Sprintf("test_%d-%d.xlsx", start, end)
}
