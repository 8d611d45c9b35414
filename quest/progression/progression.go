// Package progression computes the reward and rank math applied when a
// submission is approved: XP and token payouts scaled by difficulty and
// rank, level and tier derivation, and the daily streak counter.
package progression

import (
	"time"

	"github.com/xploralabs/xplora/server/model"
	"github.com/xploralabs/xplora/server/quest/policy"
)

const (
	BaseXPReward    int64 = 100
	BaseTokenReward int64 = 100_000_000
	XPPerLevel      int64 = 500
	SecondsPerDay   int64 = 86400
)

// DifficultyMultiplier returns the payout scale for a difficulty.
// Unknown values fall back to the easy multiplier; the catalog layer
// rejects them before a quest can be stored.
func DifficultyMultiplier(d model.Difficulty) float64 {
	switch d {
	case model.DifficultyHard:
		return 2.0
	case model.DifficultyMedium:
		return 1.5
	default:
		return 1.0
	}
}

// RankMultiplier returns the payout scale for a rank tier.
func RankMultiplier(tier model.RankTier) float64 {
	switch tier {
	case model.RankPlatinum:
		return 2.0
	case model.RankGold:
		return 1.5
	case model.RankSilver:
		return 1.2
	default:
		return 1.0
	}
}

// XPReward is the XP granted for an approved quest, floored. Only the
// difficulty scales XP; rank scales the token payout.
func XPReward(d model.Difficulty) int64 {
	return int64(float64(BaseXPReward) * DifficultyMultiplier(d))
}

// TokenReward is the token amount granted for an approved quest, in
// base units, floored.
func TokenReward(d model.Difficulty, tier model.RankTier) int64 {
	return int64(float64(BaseTokenReward) * DifficultyMultiplier(d) * RankMultiplier(tier))
}

// LevelForXP derives the level from accumulated XP.
func LevelForXP(xp int64) int {
	return int(xp / XPPerLevel)
}

// TierForLevel derives the rank tier from a level.
func TierForLevel(level int) model.RankTier {
	switch {
	case level >= 51:
		return model.RankPlatinum
	case level >= 26:
		return model.RankGold
	case level >= 11:
		return model.RankSilver
	default:
		return model.RankBronze
	}
}

// ApplyApproval mutates a profile with the rewards for an approved
// quest of the given difficulty and returns the token amount granted.
// Tokens are scaled by the tier the user held BEFORE this approval,
// so a level-up earned by this quest pays out at the old rate.
// Counters use checked addition; on overflow the profile is left
// unchanged and the caller is expected to roll back.
func ApplyApproval(p *model.UserProfile, d model.Difficulty, now time.Time) (int64, error) {
	xp := XPReward(d)
	tokens := TokenReward(d, p.RankTier)

	completed, err := policy.CheckedAdd(p.QuestsCompleted, 1)
	if err != nil {
		return 0, err
	}
	totalXP, err := policy.CheckedAdd(p.ExperiencePoints, xp)
	if err != nil {
		return 0, err
	}
	totalTokens, err := policy.CheckedAdd(p.TotalTokensEarned, tokens)
	if err != nil {
		return 0, err
	}

	p.QuestsCompleted = completed
	p.ExperiencePoints = totalXP
	p.TotalTokensEarned = totalTokens
	p.Level = LevelForXP(totalXP)
	p.RankTier = TierForLevel(p.Level)
	p.LastActive = now
	UpdateStreak(p, now)
	return tokens, nil
}

// UpdateStreak advances the daily streak. Days are whole 24h windows
// elapsed since the last completion: under 24h keeps the streak, 24
// to 48h extends it, anything longer resets it to one.
func UpdateStreak(p *model.UserProfile, now time.Time) {
	nowUnix := now.Unix()
	if p.LastQuestDate == 0 {
		p.CurrentStreak = 1
	} else {
		daysSince := (nowUnix - p.LastQuestDate) / SecondsPerDay
		switch {
		case daysSince == 0:
			// within the same 24h window, streak unchanged
		case daysSince == 1:
			p.CurrentStreak++
		default:
			p.CurrentStreak = 1
		}
	}
	if p.CurrentStreak > p.LongestStreak {
		p.LongestStreak = p.CurrentStreak
	}
	p.LastQuestDate = nowUnix
}
