package db

import (
	"crypto/sha256"
	"encoding/binary"
	"fmt"
)

// AdvisoryLockKey derives a stable int64 key for pg_advisory_* functions from a namespace
// and an identifier.
func AdvisoryLockKey(namespace string, id any) int64 {
	sum := sha256.Sum256(fmt.Appendf(nil, "%s:%v", namespace, id))
	return int64(binary.LittleEndian.Uint64(sum[:8]))
}
