package token

import (
	"crypto/rand"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
)

// Resource token prefixes.
const (
	FundingSource   = "fs"
	CardProduct     = "cp"
	CardholderUser  = "user"
	Card            = "card"
	VelocityControl = "vc"
)

// New returns a token of the form <prefix>_<timestamp><entropy>, built from a
// ULID's leading timestamp characters and a short entropy tail. Short enough to
// stay well under the platform's 36-character token limit while remaining
// human-scannable and unlikely to collide within a process run.
func New(prefix string) string {
	t := time.Now()
	entropy := ulid.Monotonic(rand.Reader, 0)
	id := ulid.MustNew(ulid.Timestamp(t), entropy).String()

	return prefix + "_" + strings.ToLower(id[:10]+id[18:])
}
