package model

import (
	"crypto/sha256"
	"encoding/hex"
	"net/url"
	"strings"
	"time"
)

// DocumentReference identifies one enforcement-action document as discovered
// on the source site. Immutable once created; the crawl side produces these.
type DocumentReference struct {
	ID           string    `json:"id"`
	URL          string    `json:"url"`
	DiscoveredAt time.Time `json:"discovered_at"`
}

// NewDocumentReference builds a reference with a deterministic ID derived
// from the source URL.
func NewDocumentReference(rawURL string, discoveredAt time.Time) DocumentReference {
	return DocumentReference{
		ID:           DocumentID(rawURL),
		URL:          rawURL,
		DiscoveredAt: discoveredAt,
	}
}

// DocumentID derives a stable identifier from a source URL. The same URL
// always yields the same ID, which is what the store's dedup check keys on.
func DocumentID(rawURL string) string {
	sum := sha256.Sum256([]byte(canonicalURL(rawURL)))
	return hex.EncodeToString(sum[:])[:16]
}

// canonicalURL lowercases scheme/host and strips the fragment so trivially
// different spellings of the same URL map to one identifier.
func canonicalURL(rawURL string) string {
	trimmed := strings.TrimSpace(rawURL)
	u, err := url.Parse(trimmed)
	if err != nil {
		return trimmed
	}
	u.Scheme = strings.ToLower(u.Scheme)
	u.Host = strings.ToLower(u.Host)
	u.Fragment = ""
	return u.String()
}
