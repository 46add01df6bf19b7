package utils

import (
	"crypto/rand"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

const (
	epoch          int64 = 1672531200000 // 2023-01-01 UTC in ms
	nodeBits       uint8 = 10
	sequenceBits   uint8 = 12
	nodeMax              = -1 ^ (-1 << nodeBits)
	sequenceMask         = -1 ^ (-1 << sequenceBits)
	nodeShift            = sequenceBits
	timestampShift       = sequenceBits + nodeBits
)

var ErrInvalidNode = fmt.Errorf("node ID must be between 0 and %d", nodeMax)

// Snowflake generates time-ordered numeric IDs unique per node.
type Snowflake struct {
	mu        sync.Mutex
	timestamp int64
	nodeID    int64
	sequence  int64
}

func NewSnowflake(nodeID int64) (*Snowflake, error) {
	if nodeID < 0 || nodeID > int64(nodeMax) {
		return nil, ErrInvalidNode
	}
	return &Snowflake{nodeID: nodeID}, nil
}

func (s *Snowflake) Generate() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UnixNano() / 1e6

	// Clock rollback: wait until the clock catches up
	for now < s.timestamp {
		now = time.Now().UnixNano() / 1e6
	}

	if now == s.timestamp {
		s.sequence = (s.sequence + 1) & sequenceMask
		if s.sequence == 0 {
			for now <= s.timestamp {
				now = time.Now().UnixNano() / 1e6
			}
		}
	} else {
		s.sequence = 0
	}

	s.timestamp = now

	id := ((now - epoch) << timestampShift) | (s.nodeID << nodeShift) | s.sequence
	return strconv.FormatInt(id, 10)
}

// RefGenerator produces prefixed references for settlement records
// (ESC-, RFD-, CRD- prefixed) plus raw ULIDs for entity IDs.
type RefGenerator struct {
	snowflake *Snowflake
	mu        sync.Mutex
	entropy   *ulid.MonotonicEntropy
}

func NewRefGenerator(snowflake *Snowflake) *RefGenerator {
	return &RefGenerator{
		snowflake: snowflake,
		entropy:   ulid.Monotonic(rand.Reader, 0),
	}
}

// GenerateULID returns a 26-char sortable identifier.
func (g *RefGenerator) GenerateULID() string {
	g.mu.Lock()
	defer g.mu.Unlock()

	id := ulid.MustNew(ulid.Timestamp(time.Now()), g.entropy)
	return id.String()
}

func (g *RefGenerator) generatePrefixed(prefix string) string {
	return fmt.Sprintf("%s-%s", strings.ToUpper(prefix), g.snowflake.Generate())
}

// GenerateEscrowRef generates an escrow record reference.
// Format: ESC-{SNOWFLAKE}
func (g *RefGenerator) GenerateEscrowRef() string {
	return g.generatePrefixed("ESC")
}

// GenerateRefundRef generates a refund transaction reference.
// Format: RFD-{SNOWFLAKE}
func (g *RefGenerator) GenerateRefundRef() string {
	return g.generatePrefixed("RFD")
}

// GenerateCreditRef generates a loyalty credit reference.
// Format: CRD-{SNOWFLAKE}
func (g *RefGenerator) GenerateCreditRef() string {
	return g.generatePrefixed("CRD")
}
