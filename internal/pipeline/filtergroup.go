package pipeline

import (
	"strings"

	"modpanel/pkg/models"
)

// NormalizeFilter maps user input onto a canonical filter state.
// Returns "" for anything that is not a valid filter.
func NormalizeFilter(s string) string {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", models.FilterAll:
		return models.FilterAll
	case models.StatusPending:
		return models.StatusPending
	case models.StatusApproved:
		return models.StatusApproved
	case models.StatusRejected:
		return models.StatusRejected
	default:
		return ""
	}
}

// Filter retains the records matching the given filter state.
// FilterAll passes the input through unchanged.
func Filter(comments []models.CommentRecord, filter string) []models.CommentRecord {
	if filter == models.FilterAll {
		return comments
	}
	out := make([]models.CommentRecord, 0, len(comments))
	for _, c := range comments {
		if c.Status == filter {
			out = append(out, c)
		}
	}
	debugf("filter %q: %d of %d", filter, len(out), len(comments))
	return out
}

// Group partitions comments by parent post, preserving encounter order
// both across groups and within each group. No re-sorting by date or
// author happens here; the source order is the display order.
func Group(comments []models.CommentRecord) []models.CommentGroup {
	index := make(map[string]int, len(comments))
	groups := make([]models.CommentGroup, 0, len(comments))

	for _, c := range comments {
		key := c.ParentID
		if key == "" {
			key = UnknownParent
		}
		i, ok := index[key]
		if !ok {
			i = len(groups)
			index[key] = i
			groups = append(groups, models.CommentGroup{ParentID: key})
		}
		groups[i].Comments = append(groups[i].Comments, c)
	}
	debugf("group: %d groups from %d comments", len(groups), len(comments))
	return groups
}

// FilterAndGroup runs both stages over one snapshot so filtered and
// grouped views always derive from the same fetch result.
func FilterAndGroup(comments []models.CommentRecord, filter string) []models.CommentGroup {
	return Group(Filter(comments, filter))
}
