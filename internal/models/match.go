package models

import (
	"encoding/json"
	"fmt"
	"time"
)

// Match links two groups that liked each other. GroupA < GroupB always holds.
type Match struct {
	ID        string    `db:"id" json:"id"`
	PairKey   string    `db:"pair_key" json:"-"`
	GroupA    string    `db:"group_a" json:"-"`
	GroupB    string    `db:"group_b" json:"-"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// MatchSummary is a match as seen by one of its groups.
type MatchSummary struct {
	MatchID    string    `json:"match_id"`
	OtherGroup Group     `json:"other_group"`
	CreatedAt  time.Time `json:"created_at"`
}

// CanonicalPair orders two group ids so that {a,b} and {b,a} encode the same way.
func CanonicalPair(a, b string) (string, string) {
	if b < a {
		return b, a
	}
	return a, b
}

// PairKey is the canonical unordered pair key used to keep one match per pair.
func PairKey(a, b string) string {
	first, second := CanonicalPair(a, b)
	return first + ":" + second
}

// NewMatch builds a match for the unordered pair {a,b}.
func NewMatch(id, a, b string, createdAt time.Time) Match {
	first, second := CanonicalPair(a, b)
	return Match{
		ID:        id,
		PairKey:   first + ":" + second,
		GroupA:    first,
		GroupB:    second,
		CreatedAt: createdAt,
	}
}

// GroupIDs returns both parties of the match.
func (m Match) GroupIDs() []string {
	return []string{m.GroupA, m.GroupB}
}

// HasGroup reports whether groupID is a party of the match.
func (m Match) HasGroup(groupID string) bool {
	return groupID != "" && (m.GroupA == groupID || m.GroupB == groupID)
}

// OtherGroup returns the party that is not groupID.
func (m Match) OtherGroup(groupID string) (string, bool) {
	switch groupID {
	case m.GroupA:
		return m.GroupB, true
	case m.GroupB:
		return m.GroupA, true
	}
	return "", false
}

// Validate checks a decoded match.
func (m Match) Validate() error {
	switch {
	case m.ID == "":
		return fmt.Errorf("%w: match id is empty", ErrInvalidRecord)
	case m.GroupA == "" || m.GroupB == "":
		return fmt.Errorf("%w: match %s is missing a group", ErrInvalidRecord, m.ID)
	case m.GroupA >= m.GroupB:
		return fmt.Errorf("%w: match %s groups are not canonical", ErrInvalidRecord, m.ID)
	case m.PairKey != PairKey(m.GroupA, m.GroupB):
		return fmt.Errorf("%w: match %s pair key mismatch", ErrInvalidRecord, m.ID)
	}
	return nil
}

// MarshalJSON exposes the pair as a group_ids list.
func (m Match) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		ID        string    `json:"id"`
		GroupIDs  []string  `json:"group_ids"`
		CreatedAt time.Time `json:"created_at"`
	}{
		ID:        m.ID,
		GroupIDs:  m.GroupIDs(),
		CreatedAt: m.CreatedAt,
	})
}
