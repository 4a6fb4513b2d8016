package id

import (
	"fmt"
	"strings"
	"time"
)

// maxRefLen bounds the sanitized reference part of a transaction ID.
const maxRefLen = 24

// Transaction returns an ID like "wisejson_20240105_REF123" built from the
// importer format, the transaction date, and a statement-level reference.
// The same statement row always produces the same ID.
func Transaction(importer string, date time.Time, ref string) string {
	return fmt.Sprintf("%s_%s_%s", importer, date.Format("20060102"), Sanitize(ref))
}

// Merge returns the deterministic ID of a merged transaction. The pair is
// ordered so Merge(a, b) == Merge(b, a).
func Merge(a, b string) string {
	if b < a {
		a, b = b, a
	}
	return a + "+" + b
}

// Origins joins transaction IDs into the origin-ids metadata value.
func Origins(ids ...string) string {
	return strings.Join(ids, ",")
}

// SplitOrigins splits an origin-ids metadata value back into IDs.
func SplitOrigins(v string) []string {
	if v == "" {
		return nil
	}
	return strings.Split(v, ",")
}

// Sanitize strips a reference down to letters and digits, truncated to a
// bounded length so IDs stay readable in logs and CSV files.
func Sanitize(ref string) string {
	s := strings.Map(func(r rune) rune {
		if r >= 'A' && r <= 'Z' || r >= 'a' && r <= 'z' || r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, ref)
	if len(s) > maxRefLen {
		s = s[:maxRefLen]
	}
	return s
}
