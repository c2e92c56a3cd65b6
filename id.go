package boxrate

import "github.com/xraph/boxrate/id"

// ID is the primary identifier type for all boxrate records.
type ID = id.ID

// Prefix identifies the entity type encoded in a TypeID.
type Prefix = id.Prefix
