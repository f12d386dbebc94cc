package entity

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDuel_IsOpenForStakes(t *testing.T) {
	now := time.Now()
	future := now.Add(time.Hour)
	past := now.Add(-time.Hour)

	testCases := []struct {
		name     string
		status   string
		deadline time.Time
		want     bool
	}{
		{"pending before deadline", DuelStatusPending, future, true},
		{"active before deadline", DuelStatusActive, future, true},
		{"active after deadline", DuelStatusActive, past, false},
		{"resolved before deadline", DuelStatusResolved, future, false},
		{"cancelled before deadline", DuelStatusCancelled, future, false},
		{"resolving before deadline", DuelStatusResolving, future, false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			duel := &Duel{Status: tc.status, Deadline: tc.deadline}
			assert.Equal(t, tc.want, duel.IsOpenForStakes(now))
		})
	}
}

func TestDuel_WinningPool(t *testing.T) {
	duel := &Duel{YesPool: 1.5, NoPool: 2.5}

	assert.Equal(t, 1.5, duel.WinningPool(OutcomeYes))
	assert.Equal(t, 2.5, duel.WinningPool(OutcomeNo))
	assert.Zero(t, duel.WinningPool(""))
	assert.Zero(t, duel.WinningPool("draw"))
}

func TestValidOutcome(t *testing.T) {
	assert.True(t, ValidOutcome(OutcomeYes))
	assert.True(t, ValidOutcome(OutcomeNo))
	assert.False(t, ValidOutcome(""))
	assert.False(t, ValidOutcome("YES"))
}

func TestValidCategory(t *testing.T) {
	assert.True(t, ValidCategory(DuelCategoryCrypto))
	assert.True(t, ValidCategory(DuelCategoryOther))
	assert.False(t, ValidCategory("politics"))
	assert.False(t, ValidCategory(""))
}

func TestParticipant_CanClaim(t *testing.T) {
	assert.True(t, (&Participant{Won: true, Payout: 1.0}).CanClaim())
	assert.False(t, (&Participant{Won: true, Payout: 1.0, Claimed: true}).CanClaim())
	assert.False(t, (&Participant{Won: false, Payout: 0}).CanClaim())
	assert.False(t, (&Participant{Won: true, Payout: 0}).CanClaim())
}
