package identity

import (
	"strconv"
	"strings"

	hashid "github.com/goliatone/hashid/pkg/hashid"
	"github.com/google/uuid"
)

// UUID derives a deterministic UUID from a stable key using go-hashid.
//
// Callers must ensure key construction prevents cross-entity collisions (prefix by domain/type).
func UUID(key string) uuid.UUID {
	trimmed := strings.TrimSpace(key)
	if trimmed == "" {
		return uuid.Nil
	}
	uid, err := hashid.NewUUID(trimmed, hashid.WithHashAlgorithm(hashid.SHA256), hashid.WithNormalization(true))
	if err != nil || uid == uuid.Nil {
		return uuid.NewSHA1(uuid.NameSpaceOID, []byte(trimmed))
	}
	return uid
}

// InstanceUUID identifies one rendered tile section on a page. Two sections
// with the same arguments on the same page get distinct ids through the slot.
func InstanceUUID(pageKey string, slot int, fingerprint string) uuid.UUID {
	return UUID("go-tiles:instance:" + strings.TrimSpace(pageKey) + ":" + strconv.Itoa(slot) + ":" + strings.TrimSpace(fingerprint))
}
