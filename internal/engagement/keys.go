package engagement

import "github.com/mmcdole/artshelf/internal/domain"

// Store keys holding each kind's ledger
const (
	// KeyLikes holds the like ledger
	KeyLikes = "engagement:likes"

	// KeyBookmarks holds the bookmark ledger
	KeyBookmarks = "engagement:bookmarks"
)

// StoreKey returns the store key that holds the ledger for kind
func StoreKey(kind domain.Kind) string {
	if kind == domain.KindBookmark {
		return KeyBookmarks
	}
	return KeyLikes
}
