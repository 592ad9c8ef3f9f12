package idgen

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sony/sonyflake"
)

var errNoGenerator = errors.New("sonyflake generator unavailable")

// Sequencer hands out strictly increasing ids for backends that have no sequence column.
type Sequencer struct {
	flake *sonyflake.Sonyflake

	mu   sync.Mutex
	last uint64
}

// NewSequencer builds a Sequencer for the given node. machineID must be unique per
// running instance sharing a store.
func NewSequencer(machineID uint16) (*Sequencer, error) {
	flake := sonyflake.NewSonyflake(sonyflake.Settings{
		StartTime: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		MachineID: func() (uint16, error) { return machineID, nil },
	})
	if flake == nil {
		return nil, errNoGenerator
	}
	return &Sequencer{flake: flake}, nil
}

// Next returns the next sequence value.
func (s *Sequencer) Next() (int64, error) {
	id, err := s.flake.NextID()
	if err != nil {
		return 0, fmt.Errorf("next sequence: %w", err)
	}

	s.mu.Lock()
	if id <= s.last {
		id = s.last + 1
	}
	s.last = id
	s.mu.Unlock()

	return int64(id), nil
}

// NewID returns a random identifier for groups, likes, matches and messages.
func NewID() string {
	return uuid.NewString()
}
