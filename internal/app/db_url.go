package app

import (
	"net/url"
	"strings"
)

// forceIPv4URL rewrites a localhost host to 127.0.0.1. Some container
// runtimes resolve localhost to ::1 where nothing listens.
func forceIPv4URL(raw string) string {
	parsed, err := url.Parse(raw)
	if err == nil && parsed != nil && parsed.Scheme != "" {
		if parsed.Hostname() == "localhost" {
			host := "127.0.0.1"
			if port := parsed.Port(); port != "" {
				host += ":" + port
			}
			parsed.Host = host
			return parsed.String()
		}
		return raw
	}

	// DSN key=value style.
	fields := strings.Fields(raw)
	changed := false
	for i, token := range fields {
		if token == "host=localhost" {
			fields[i] = "host=127.0.0.1"
			changed = true
		}
	}
	if changed {
		return strings.Join(fields, " ")
	}
	return raw
}

func dbNameFromURL(raw string) string {
	trimmed := strings.TrimSpace(raw)
	parsed, err := url.Parse(trimmed)
	if err == nil && parsed != nil && parsed.Scheme != "" {
		name := strings.TrimSpace(strings.TrimPrefix(parsed.Path, "/"))
		if name != "" {
			return name
		}
	}

	for _, token := range strings.Fields(trimmed) {
		if !strings.HasPrefix(token, "dbname=") {
			continue
		}
		name := strings.TrimSpace(strings.TrimPrefix(token, "dbname="))
		name = strings.Trim(name, `"'`)
		if name != "" {
			return name
		}
	}

	return ""
}
