package dropbox

import (
	"regexp"
	"strings"
)

// Dropbox accepts file/folder IDs, revision handles and namespace-relative
// paths anywhere a path argument is expected. Those must not be rewritten.
var namespacePathRe = regexp.MustCompile(`^ns:[0-9]+(/.*)?$`)

// NormalizePath canonicalizes a user-supplied path into the form the API
// expects: a single leading slash, no trailing slash, and "" for the root
// folder. Paths using the id:, rev: or ns: syntax pass through unchanged.
func NormalizePath(path string) string {
	if strings.HasPrefix(path, "id:") || strings.HasPrefix(path, "rev:") || namespacePathRe.MatchString(path) {
		return path
	}
	trimmed := strings.Trim(path, "/")
	if trimmed == "" {
		return ""
	}
	return "/" + trimmed
}
