package bunstore

import (
	"time"

	"github.com/uptrace/bun"
)

// counterModel maps one rate-limit counter row.
type counterModel struct {
	bun.BaseModel `bun:"table:pacer_counters"`

	Key       string    `bun:"key,pk"`
	Count     int64     `bun:"count,notnull,default:0"`
	ExpiresAt time.Time `bun:"expires_at,notnull"`
}
