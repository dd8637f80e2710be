// Package i18n holds the rider-facing strings in every supported language
// and formats money for display.
package i18n

import (
	"fmt"
	"strings"
)

// DefaultLang is used when a key has no entry for the requested language.
const DefaultLang = "en"

// Supported languages, in the order they are offered.
var Supported = []string{"en", "ru", "tr", "tk"}

// Normalize reduces a locale such as "ru-RU" or "TR_tr" to a supported
// language code, or DefaultLang.
func Normalize(lang string) string {
	base := strings.ToLower(strings.TrimSpace(lang))
	if i := strings.IndexAny(base, "-_"); i >= 0 {
		base = base[:i]
	}
	for _, l := range Supported {
		if l == base {
			return l
		}
	}
	return DefaultLang
}

// Translate returns key in lang, formatted with args when given. Unknown keys
// come back unchanged so a missing string is visible rather than blank.
func Translate(key, lang string, args ...interface{}) string {
	entries, ok := translations[key]
	if !ok {
		return key
	}
	tmpl, ok := entries[Normalize(lang)]
	if !ok {
		if tmpl, ok = entries[DefaultLang]; !ok {
			return key
		}
	}
	if len(args) == 0 {
		return tmpl
	}
	return fmt.Sprintf(tmpl, args...)
}

// StatusKey returns the notification key for a ride status.
func StatusKey(status string) string {
	return "rider.status." + status
}
