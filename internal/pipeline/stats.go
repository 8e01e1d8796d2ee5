package pipeline

import "modpanel/pkg/models"

// CalcStats classifies every record of the FULL normalized set in one
// pass. Stats are never computed from a filtered subset.
func CalcStats(comments []models.CommentRecord) models.AggregateStats {
	stats := models.AggregateStats{Total: len(comments)}
	for _, c := range comments {
		switch c.Status {
		case models.StatusApproved:
			stats.Approved++
		case models.StatusRejected:
			stats.Rejected++
		default:
			// normalization guarantees one of the three values; anything
			// else would break total == pending+approved+rejected
			stats.Pending++
		}
	}
	debugf("stats: total=%d pending=%d approved=%d rejected=%d",
		stats.Total, stats.Pending, stats.Approved, stats.Rejected)
	return stats
}
