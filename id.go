package pacer

import "github.com/xraph/pacer/id"

// ID is the primary identifier type for all pacer entities.
type ID = id.ID

// Prefix identifies the entity type encoded in a TypeID.
type Prefix = id.Prefix
