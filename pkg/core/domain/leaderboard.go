package domain

import (
	"cmp"
	"slices"
)

// Scope selects which links a leaderboard is computed over.
type Scope string

const (
	ScopeGlobal  Scope = "global"
	ScopeProject Scope = "project"
)

// LeaderboardRow aggregates the links one owner has inside a scope.
// ClickSum is summed from Link.Clicks, not recounted from click events.
type LeaderboardRow struct {
	MemberID   int64  `json:"member_id"`
	MemberName string `json:"member_name"`
	LinkCount  int64  `json:"link_count"`
	ClickSum   int64  `json:"click_sum"`
}

// RankLeaderboard orders rows by click sum desc, then link count desc,
// then member name asc. Member id breaks any remaining tie.
func RankLeaderboard(rows []LeaderboardRow) {
	slices.SortStableFunc(rows, func(a, b LeaderboardRow) int {
		if c := cmp.Compare(b.ClickSum, a.ClickSum); c != 0 {
			return c
		}
		if c := cmp.Compare(b.LinkCount, a.LinkCount); c != 0 {
			return c
		}
		if c := cmp.Compare(a.MemberName, b.MemberName); c != 0 {
			return c
		}
		return cmp.Compare(a.MemberID, b.MemberID)
	})
}
