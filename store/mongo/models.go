package mongo

import "time"

// counterModel maps one rate-limit counter document.
type counterModel struct {
	Key       string    `bson:"_id"`
	Count     int64     `bson:"count"`
	ExpiresAt time.Time `bson:"expires_at"`
}
