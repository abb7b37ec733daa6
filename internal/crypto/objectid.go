package crypto

import (
	"crypto/rand"
	"encoding/binary"
	"encoding/hex"
	"regexp"
	"sync/atomic"
	"time"
)

// ObjectIDLength is the length of a hex-encoded object ID.
const ObjectIDLength = 24

var objectIDPattern = regexp.MustCompile(`^[0-9a-fA-F]{24}$`)

var (
	processUnique [5]byte
	idCounter     atomic.Uint32
)

func init() {
	rand.Read(processUnique[:])

	var seed [4]byte
	rand.Read(seed[:])
	idCounter.Store(binary.BigEndian.Uint32(seed[:]) & 0x7fffff)
}

// NewObjectID returns a new 12-byte identifier encoded as 24 lowercase hex characters.
// Layout: 4-byte unix seconds, 5 random bytes fixed per process, 3-byte counter.
func NewObjectID() string {
	return newObjectIDAt(time.Now())
}

func newObjectIDAt(t time.Time) string {
	var b [12]byte

	binary.BigEndian.PutUint32(b[0:4], uint32(t.Unix()))
	copy(b[4:9], processUnique[:])

	c := idCounter.Add(1)
	b[9] = byte(c >> 16)
	b[10] = byte(c >> 8)
	b[11] = byte(c)

	return hex.EncodeToString(b[:])
}

// IsValidObjectID reports whether s is a 24-character hex identifier.
func IsValidObjectID(s string) bool {
	return objectIDPattern.MatchString(s)
}
