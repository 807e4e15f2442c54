// SPDX-FileCopyrightText: 2024 The Go-Collapse Authors
//
// SPDX-License-Identifier: MIT

// Package reputation tracks per-identity trust scores and gates
// message admission on them. A book is created per participant at
// start-up, mutated only through Reward/Punish/Decay, and never
// persisted across restarts: trust is ephemeral.
package reputation

import (
	"github.com/collapse-im/go-collapse"
)

const (
	defaultRewardStep     = 0.1
	defaultPunishStep     = 0.2
	defaultFloor          = 0.0
	defaultCeiling        = 1.0
	defaultNeutral        = 0.5
	defaultAdmitThreshold = 0.30

	// decayFactor is the fraction of the remaining gap to neutral a
	// sub-neutral score recovers per decay tick.
	decayFactor = 0.1
)

// Book holds the trust scores one observer assigns to senders.
// It is exclusively owned by that observer.
type Book struct {
	scores map[collapse.Identity]float64

	rewardStep     float64
	punishStep     float64
	floor          float64
	ceiling        float64
	neutral        float64
	admitThreshold float64
}

// Option tunes a new book.
type Option func(*Book)

func WithRewardStep(step float64) Option {
	return func(b *Book) { b.rewardStep = step }
}

func WithPunishStep(step float64) Option {
	return func(b *Book) { b.punishStep = step }
}

func WithAdmitThreshold(thresh float64) Option {
	return func(b *Book) { b.admitThreshold = thresh }
}

// NewBook returns a book with the shared neutral default for unseen
// identities.
func NewBook(opts ...Option) *Book {
	b := &Book{
		scores:         make(map[collapse.Identity]float64),
		rewardStep:     defaultRewardStep,
		punishStep:     defaultPunishStep,
		floor:          defaultFloor,
		ceiling:        defaultCeiling,
		neutral:        defaultNeutral,
		admitThreshold: defaultAdmitThreshold,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Score returns the current trust score, neutral for unknown senders.
func (b *Book) Score(who collapse.Identity) float64 {
	if s, ok := b.scores[who]; ok {
		return s
	}
	return b.neutral
}

// Reward raises the score one step, saturating at the ceiling.
func (b *Book) Reward(who collapse.Identity) {
	s := b.Score(who) + b.rewardStep
	if s > b.ceiling {
		s = b.ceiling
	}
	b.scores[who] = s
}

// Punish lowers the score one step, saturating at the floor.
func (b *Book) Punish(who collapse.Identity) {
	s := b.Score(who) - b.punishStep
	if s < b.floor {
		s = b.floor
	}
	b.scores[who] = s
}

// Decay moves every tracked sub-neutral score a tenth of the remaining
// gap back toward neutral. Scores at or above neutral are untouched:
// this is a rehabilitation mechanism, not a regression to the mean.
func (b *Book) Decay() {
	for who, s := range b.scores {
		if s < b.neutral {
			b.scores[who] = s + decayFactor*(b.neutral-s)
		}
	}
}

// AdmitThreshold is the minimum score a sender needs to be admitted.
func (b *Book) AdmitThreshold() float64 {
	return b.admitThreshold
}

// Admit reports whether a sender clears the admission threshold.
func (b *Book) Admit(who collapse.Identity) bool {
	return b.Score(who) >= b.admitThreshold
}

// Tracked returns a copy of all explicitly tracked scores, for
// inspection surfaces.
func (b *Book) Tracked() map[collapse.Identity]float64 {
	out := make(map[collapse.Identity]float64, len(b.scores))
	for who, s := range b.scores {
		out[who] = s
	}
	return out
}
