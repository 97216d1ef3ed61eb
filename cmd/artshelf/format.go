package main

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/mmcdole/artshelf/internal/domain"
)

func (a *app) printArtworks(items []domain.Artwork) {
	if len(items) == 0 {
		fmt.Println("no artworks")
		return
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tLIKES\tBOOKMARKS\tVIEWS\tTAGS\tURL")
	for _, art := range items {
		fmt.Fprintf(w, "%d\t%d%s\t%d%s\t%d\t%s\t%s\n",
			art.ID,
			art.Likes, marker(a.likes.IsActive(art.ID), "*"),
			art.Bookmarks, marker(a.bookmarks.IsActive(art.ID), "*"),
			art.Views,
			art.TagLine(),
			art.URL,
		)
	}
	w.Flush()
}

// marker returns s when on, otherwise nothing
func marker(on bool, s string) string {
	if on {
		return s
	}
	return ""
}

func pastTense(kind domain.Kind, active bool) string {
	verb := "liked"
	if kind == domain.KindBookmark {
		verb = "bookmarked"
	}
	if !active {
		verb = "un" + verb
	}
	return verb
}

func formatMillis(ms int64) string {
	if ms == 0 {
		return "-"
	}
	return time.UnixMilli(ms).Format("2006-01-02 15:04:05")
}
