// Package id generates time-sortable ULIDs for positions and trade records.
package id

import (
	cryptoRand "crypto/rand"
	"encoding/binary"
	"io"
	"math/rand"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// Generator produces ULID strings from one monotonic entropy source, so IDs
// minted in the same millisecond still sort in creation order.
type Generator struct {
	mu      sync.Mutex
	entropy io.Reader
}

// NewGenerator seeds a generator from crypto/rand.
func NewGenerator() *Generator {
	var seed int64
	_ = binary.Read(cryptoRand.Reader, binary.LittleEndian, &seed)
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &Generator{
		entropy: ulid.Monotonic(rand.New(rand.NewSource(seed)), 0),
	}
}

// New returns the next ULID string.
func (g *Generator) New() string {
	g.mu.Lock()
	defer g.mu.Unlock()

	u, err := ulid.New(ulid.Timestamp(time.Now().UTC()), g.entropy)
	if err != nil {
		panic(err)
	}
	return u.String()
}

var defaultGen = NewGenerator()

// New mints an ID from the process-wide generator. Journal listings and
// SQLite indexes rely on these sorting by creation time.
func New() string {
	return defaultGen.New()
}
