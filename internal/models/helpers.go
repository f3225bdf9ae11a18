package models

import (
	"fmt"
	"strings"

	surrealmodels "github.com/surrealdb/surrealdb.go/pkg/models"
)

// NormalizeTopicKey maps a free-text topic onto the record store keyspace:
// lowercased, trimmed, inner whitespace runs replaced by underscores.
func NormalizeTopicKey(topic string) string {
	return strings.Join(strings.Fields(strings.ToLower(topic)), "_")
}

// FirstRunes returns at most n characters of s without splitting a rune.
func FirstRunes(s string, n int) string {
	if n <= 0 {
		return ""
	}
	i := 0
	for pos := range s {
		if i == n {
			return s[:pos]
		}
		i++
	}
	return s
}

// RecordIDString extracts the string ID from a SurrealDB RecordID.
func RecordIDString(id surrealmodels.RecordID) (string, error) {
	switch v := id.ID.(type) {
	case string:
		return v, nil
	case int, int64, uint64:
		return fmt.Sprint(v), nil
	}
	return "", fmt.Errorf("unexpected ID type: %T (expected string or integer)", id.ID)
}
