// SPDX-FileCopyrightText: 2024 The Go-Collapse Authors
//
// SPDX-License-Identifier: MIT

package reputation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScoreDefaultsToNeutral(t *testing.T) {
	a := assert.New(t)

	b := NewBook()
	a.InDelta(0.5, b.Score("stranger"), 1e-9)
	a.True(b.Admit("stranger"), "neutral clears the default threshold")
	a.Empty(b.Tracked(), "scoring must not start tracking")
}

func TestRewardSaturatesAtCeiling(t *testing.T) {
	r := require.New(t)

	b := NewBook()
	for i := 0; i < 20; i++ {
		b.Reward("alice")
	}
	r.InDelta(1.0, b.Score("alice"), 1e-9)

	b.Reward("alice")
	r.InDelta(1.0, b.Score("alice"), 1e-9)
}

func TestPunishSaturatesAtFloor(t *testing.T) {
	r := require.New(t)

	b := NewBook()
	for i := 0; i < 20; i++ {
		b.Punish("mallory")
	}
	r.InDelta(0.0, b.Score("mallory"), 1e-9)

	b.Punish("mallory")
	r.InDelta(0.0, b.Score("mallory"), 1e-9)
}

func TestStepSizes(t *testing.T) {
	r := require.New(t)

	b := NewBook()
	b.Reward("alice")
	r.InDelta(0.6, b.Score("alice"), 1e-9)

	b.Punish("mallory")
	r.InDelta(0.3, b.Score("mallory"), 1e-9)
}

func TestDecayRehabilitatesOnlySubNeutral(t *testing.T) {
	r := require.New(t)

	b := NewBook()
	b.Punish("mallory") // 0.3
	b.Reward("alice")   // 0.6

	b.Decay()

	// 10% of the remaining gap to neutral: 0.3 + 0.1*(0.5-0.3)
	r.InDelta(0.32, b.Score("mallory"), 1e-9)
	r.InDelta(0.6, b.Score("alice"), 1e-9, "decay never touches scores at or above neutral")

	// decay approaches neutral from below but never crosses it
	for i := 0; i < 1000; i++ {
		b.Decay()
	}
	r.LessOrEqual(b.Score("mallory"), 0.5)
	r.InDelta(0.5, b.Score("mallory"), 1e-6)
}

func TestAdmitThreshold(t *testing.T) {
	a := assert.New(t)

	b := NewBook(WithAdmitThreshold(0.45))
	a.InDelta(0.45, b.AdmitThreshold(), 1e-9)
	a.True(b.Admit("stranger"))

	b.Punish("mallory") // 0.3 < 0.45
	a.False(b.Admit("mallory"))

	b.Reward("mallory") // 0.4
	a.False(b.Admit("mallory"))
	b.Reward("mallory") // 0.5
	a.True(b.Admit("mallory"))
}

func TestOptions(t *testing.T) {
	r := require.New(t)

	b := NewBook(WithRewardStep(0.25), WithPunishStep(0.05))
	b.Reward("alice")
	r.InDelta(0.75, b.Score("alice"), 1e-9)
	b.Punish("alice")
	r.InDelta(0.7, b.Score("alice"), 1e-9)
}
