// Package identity assigns stable workout identities.
//
// An identity is a UUIDv5 of the workout's recorded start timestamp string
// under a fixed namespace. It does not depend on the exporter's workout id,
// so labels keyed by identity survive re-exports of the same data.
//
// Two distinct workouts that share the exact same start timestamp string get
// the same identity. Collisions reports such keys so callers can log them.
package identity

import (
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
)

// KeyLayout renders a start time into the identity key
const KeyLayout = "2006-01-02 15:04:05"

// Assigner derives identities under one namespace
type Assigner struct {
	namespace uuid.UUID
}

// NewAssigner parses the namespace UUID
func NewAssigner(namespace string) (*Assigner, error) {
	ns, err := uuid.Parse(namespace)
	if err != nil {
		return nil, fmt.Errorf("invalid identity namespace %q: %w", namespace, err)
	}
	return &Assigner{namespace: ns}, nil
}

// Namespace returns the namespace identities are derived under
func (a *Assigner) Namespace() uuid.UUID {
	return a.namespace
}

// Assign returns the identity of a start timestamp string
func (a *Assigner) Assign(startTimestamp string) uuid.UUID {
	return uuid.NewSHA1(a.namespace, []byte(startTimestamp))
}

// Key renders t as an identity key
func Key(t time.Time) string {
	return t.Format(KeyLayout)
}

// Collision is one identity shared by more than one distinct workout
type Collision struct {
	Identity   uuid.UUID
	Key        string
	WorkoutIDs []string
}

// Collisions groups workout ids by identity key and returns every key that
// more than one distinct workout id maps to, ordered by key
func (a *Assigner) Collisions(keys map[string]string) []Collision {
	byKey := make(map[string][]string)
	for workoutID, key := range keys {
		byKey[key] = append(byKey[key], workoutID)
	}

	var collisions []Collision
	for key, ids := range byKey {
		if len(ids) < 2 {
			continue
		}
		sort.Strings(ids)
		collisions = append(collisions, Collision{
			Identity:   a.Assign(key),
			Key:        key,
			WorkoutIDs: ids,
		})
	}

	sort.Slice(collisions, func(i, j int) bool {
		return collisions[i].Key < collisions[j].Key
	})
	return collisions
}
