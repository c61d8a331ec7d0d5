package usecase

import (
	"crypto/rand"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
)

const idAttempts = 5

func shortHex() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
}

func newJobID() string       { return "job_" + shortHex() }
func newCandidateID() string { return "cand_" + shortHex() }

var (
	ulidMu      sync.Mutex
	ulidEntropy = ulid.Monotonic(rand.Reader, 0)
)

// newBatchID returns a monotonic ULID-based batch id.
func newBatchID() string {
	ulidMu.Lock()
	defer ulidMu.Unlock()
	return "batch_" + ulid.MustNew(ulid.Timestamp(time.Now()), ulidEntropy).String()
}
