package testplan

import (
	"os"
	"regexp"
)

// refPattern recognizes two path shapes: a backtick-quoted token ending in
// .jmx, or a bare (optionally drive- or root-qualified) path of word-ish
// segments ending in .jmx. The optional leading separator sits before the
// word boundary so an absolute path keeps its root slash in the match.
var refPattern = regexp.MustCompile(
	"(?i)(?:`([^`]+\\.jmx)`|(?:[a-zA-Z]:)?[/\\\\]?\\b(?:[\\w.\\-]+[/\\\\])*[\\w.\\-]+\\.jmx\\b)")

// FindReference scans text for a path to an existing .jmx file.
//
// Candidates are checked in order of appearance and the first one that
// resolves to a regular file on disk is returned. Candidates that do not
// resolve are skipped silently; ("", false) means nothing resolved.
func FindReference(text string) (string, bool) {
	if text == "" {
		return "", false
	}

	for _, match := range refPattern.FindAllStringSubmatch(text, -1) {
		path := match[1] // backtick-quoted form
		if path == "" {
			path = match[0] // bare path form
		}
		info, err := os.Stat(path)
		if err != nil || !info.Mode().IsRegular() {
			continue
		}
		return path, true
	}

	return "", false
}
