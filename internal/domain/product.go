package domain

import "strings"

// Product is a core entity describing one discovered skincare item.
type Product struct {
	Source      string
	Title       string
	Brand       string
	URL         string
	SkinType    string
	Description string
	Ingredients string
	Price       string
}

// DedupKey returns the normalized identifier used against history.
// Products are keyed on title; an empty key marks the product as
// unusable for publication.
func (p Product) DedupKey() string {
	return Normalize(p.Title)
}

// Normalize lowercases and trims a history key. Load, contains and
// append all go through this so persisted entries compare uniformly.
func Normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
