package boost

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Checksum binds a client predetermined guid to the entity it boosts, so a
// pre-supplied guid cannot be squatted onto a different entity.
func Checksum(guid, entityGuid uint64) string {
	sum := sha256.Sum256([]byte(fmt.Sprintf("%d:%d", guid, entityGuid)))
	return hex.EncodeToString(sum[:])
}
