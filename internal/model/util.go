package model

import (
	"github.com/btcsuite/btcutil/base58"
	"github.com/google/uuid"
)

// CreateID returns a short random correlation id for log lines and alerts.
func CreateID() string {
	id, _ := uuid.NewRandom()
	return base58.Encode(id[:])
}
