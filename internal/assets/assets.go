// Package assets classifies static file paths and serves them from the
// assets namespace.
package assets

import (
	"mime"
	"net/url"
	"path"
	"strings"
	"time"
)

const (
	// CacheControl is sent with every non-HTML asset.
	CacheControl = "max-age=14400"
	// CacheAge matches CacheControl and bounds the in-process cache.
	CacheAge = 4 * time.Hour
)

// NormalizePath maps a directory path to its index document.
func NormalizePath(p string) string {
	if p == "" || strings.HasSuffix(p, "/") {
		return p + "index.html"
	}

	return p
}

// ContentType returns the MIME type registered for the extension of p.
func ContentType(p string) (string, bool) {
	ext := path.Ext(p)
	if ext == "" {
		return "", false
	}

	ct := mime.TypeByExtension(ext)

	return ct, ct != ""
}

// IsHTML reports whether contentType is text/html, ignoring parameters.
func IsHTML(contentType string) bool {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return false
	}

	return mediaType == "text/html"
}

// Cacheable reports whether an asset of contentType gets a long-lived
// Cache-Control header.
func Cacheable(contentType string) bool {
	return contentType != "" && !IsHTML(contentType)
}

// NeedsCaching reports whether rawURL names a non-HTML static file.
func NeedsCaching(rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}

	ct, ok := ContentType(u.Path)

	return ok && Cacheable(ct)
}
