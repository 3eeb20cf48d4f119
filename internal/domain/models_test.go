package domain

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRankEntriesScoreThenEarliest(t *testing.T) {
	t1 := time.Date(2026, 10, 1, 9, 0, 0, 0, time.UTC)
	t2 := t1.Add(time.Hour)
	entries := []LeaderboardEntry{
		{Username: "A", Score: 50, QuizDate: t1},
		{Username: "B", Score: 70, QuizDate: t2},
		{Username: "C", Score: 70, QuizDate: t1},
	}

	RankEntries(entries)

	var names []string
	for _, e := range entries {
		names = append(names, e.Username)
	}
	assert.Equal(t, []string{"C", "B", "A"}, names)
}

func TestStorageErrorMatchesSentinel(t *testing.T) {
	cause := errors.New("connection refused")
	err := fmt.Errorf("finish round: %w", NewStorageError("save result", cause))

	assert.True(t, errors.Is(err, ErrStorage))
	assert.True(t, errors.Is(err, cause))

	var se *StorageError
	assert.True(t, errors.As(err, &se))
	assert.Equal(t, "save result", se.Op)
	assert.Nil(t, NewStorageError("noop", nil))
}

func TestNewStorageErrorKeepsExisting(t *testing.T) {
	inner := NewStorageError("fetch ranked", errors.New("boom"))
	outer := NewStorageError("save result", inner)

	assert.Same(t, inner, outer)
}
