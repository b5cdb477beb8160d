package sqlite

import (
	"fmt"
	"net/url"
	"path/filepath"
	"strings"
)

// parseDSN turns sqlite://path?opts into a driver URI with the pragmas every
// connection needs. Foreign keys are per connection in SQLite, so they are
// set through the DSN rather than a one-off PRAGMA.
func parseDSN(dsn string) (string, bool, error) {
	if !strings.HasPrefix(dsn, "sqlite://") {
		return "", false, fmt.Errorf("invalid sqlite DSN scheme, expected sqlite://")
	}

	rest := strings.TrimPrefix(dsn, "sqlite://")
	path, rawQuery, _ := strings.Cut(rest, "?")
	if path == "" {
		return "", false, fmt.Errorf("sqlite DSN has no path")
	}

	params, err := url.ParseQuery(rawQuery)
	if err != nil {
		return "", false, fmt.Errorf("parsing query: %w", err)
	}
	params.Add("_pragma", "busy_timeout(30000)")
	params.Add("_pragma", "foreign_keys(1)")
	if params.Get("_txlock") == "" {
		params.Set("_txlock", "immediate")
	}

	memory := path == ":memory:"
	if !memory {
		unescaped, err := url.PathUnescape(path)
		if err != nil {
			return "", false, fmt.Errorf("unescaping path: %w", err)
		}
		path = unescaped
		if !filepath.IsAbs(path) && !strings.HasPrefix(path, "./") && !strings.HasPrefix(path, "../") {
			path = "./" + path
		}
	}

	return "file:" + path + "?" + params.Encode(), memory, nil
}
