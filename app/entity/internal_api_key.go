package entity

import "time"

// WildcardTable grants an internal key read access to every table.
const WildcardTable = "*"

type InternalAPIKey struct {
	ID            uint64
	ServiceName   string
	KeyHash       string
	AllowedTables []string
	IsActive      bool
	ExpiresAt     time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

func (k *InternalAPIKey) CanRead(table string) bool {
	for _, allowed := range k.AllowedTables {
		if allowed == WildcardTable || allowed == table {
			return true
		}
	}
	return false
}
