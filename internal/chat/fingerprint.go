package chat

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"strings"

	"github.com/google/uuid"
)

// Fingerprint computes an order-independent hash over a participant id set.
// Two conversations with the same participants always share a fingerprint,
// regardless of the order ids were supplied in.
func Fingerprint(participantIDs []uuid.UUID) string {
	ids := make([]string, len(participantIDs))
	for i, id := range participantIDs {
		ids[i] = id.String()
	}
	sort.Strings(ids)

	sum := sha256.Sum256([]byte(strings.Join(ids, ":")))
	return hex.EncodeToString(sum[:])
}
