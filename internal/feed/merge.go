package feed

import "github.com/d60-Lab/travelfeed/internal/domain"

// Merge combines two sequences already sorted by CreatedAt descending into one sorted
// sequence of at most limit items in a single linear pass. On equal timestamps the item from
// a comes first. It reports how many items of each input were consumed. limit <= 0 means no limit.
func Merge(a, b []domain.FeedItem, limit int) (out []domain.FeedItem, takenA, takenB int) {
	total := len(a) + len(b)
	if limit <= 0 || limit > total {
		limit = total
	}
	out = make([]domain.FeedItem, 0, limit)
	for len(out) < limit {
		switch {
		case takenA < len(a) && (takenB >= len(b) || !a[takenA].CreatedAt.Before(b[takenB].CreatedAt)):
			out = append(out, a[takenA])
			takenA++
		default:
			out = append(out, b[takenB])
			takenB++
		}
	}
	return out, takenA, takenB
}
