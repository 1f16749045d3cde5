package mockapi

import (
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
)

var fixtureEpoch = time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

// feedItems builds a deterministic page of feed items. Ids are unique per
// (seed, position) and timestamps are fixed-width RFC 3339 UTC so cursor
// comparison behaves like production.
func feedItems(seed, count int) []gin.H {
	items := make([]gin.H, 0, count)
	for i := 0; i < count; i++ {
		created := fixtureEpoch.Add(time.Duration(seed*100+i) * time.Minute)
		items = append(items, gin.H{
			"id":        int64(seed*1000 + i + 1),
			"title":     fmt.Sprintf("story %d-%d", seed, i+1),
			"createdAt": created.Format(time.RFC3339),
			"updatedAt": created.Add(30 * time.Minute).Format(time.RFC3339),
		})
	}
	return items
}

// itemsAfter filters a page to items strictly newer than the cursor, using
// the same lexical comparison the harness uses to derive cursors.
func itemsAfter(items []gin.H, after string) []gin.H {
	if after == "" {
		return items
	}
	filtered := make([]gin.H, 0, len(items))
	for _, item := range items {
		ts, _ := item["updatedAt"].(string)
		if ts > after {
			filtered = append(filtered, item)
		}
	}
	return filtered
}

func comments(itemID int64) []gin.H {
	return []gin.H{
		{"id": itemID*10 + 1, "body": "great game", "author": "fan_1"},
		{"id": itemID*10 + 2, "body": "ref was blind", "author": "fan_2"},
	}
}

func games(teamID int) []gin.H {
	return []gin.H{
		{"id": teamID*100 + 1, "opponent": "Team B", "kickoff": fixtureEpoch.Add(48 * time.Hour).Format(time.RFC3339), "status": "scheduled"},
		{"id": teamID*100 + 2, "opponent": "Team C", "kickoff": fixtureEpoch.Add(-72 * time.Hour).Format(time.RFC3339), "status": "final", "score": "2-1"},
	}
}

func teamSummary(teamID int) gin.H {
	return gin.H{
		"team_id":  teamID,
		"name":     fmt.Sprintf("Team %d", teamID),
		"wins":     11,
		"losses":   4,
		"draws":    3,
		"position": teamID%10 + 1,
	}
}
