package main

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/Leitan123/SmartScholarsPAF/feed"
	"github.com/Leitan123/SmartScholarsPAF/model"
	"github.com/Leitan123/SmartScholarsPAF/people"
)

func renderFeed(w io.Writer, baseURL string, snap feed.Snapshot, withComments bool) {
	fmt.Fprintf(w, "== %s (%d posts) ==\n", snap.Tab, len(snap.Posts))
	for _, p := range snap.Posts {
		like := snap.Likes[p.Id]
		heart := " "
		if like.Liked {
			heart = "*"
		}
		fmt.Fprintf(w, "\n[%s] %s  %s\n", p.Id, p.User.Username, p.CreatedAt.Short())
		if p.Description != "" {
			fmt.Fprintf(w, "  %s\n", p.Description)
		}
		for _, m := range p.MediaPaths {
			fmt.Fprintf(w, "  media: %s\n", model.MediaURL(baseURL, m))
		}
		comments := snap.Comments[p.Id]
		fmt.Fprintf(w, "  %s %d likes, %d comments\n", heart, like.LikeCount, len(comments))
		if withComments || snap.Visibility[p.Id] == feed.Expanded {
			for _, c := range comments {
				fmt.Fprintf(w, "    - [%s] %s: %s\n", c.Comment.Id, c.User.Username, c.Comment.Content)
			}
		}
	}
}

func renderUsers(w io.Writer, me model.User, snap people.Snapshot) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tUSERNAME\tEMAIL\tFOLLOW")
	for _, u := range snap.Users {
		state := string(snap.Follows[u.Id])
		if me.Email != "" && me.Email == u.Email {
			state = "(you)"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", u.Id, u.Username, u.Email, state)
	}
	tw.Flush()
}

func renderStatuses(w io.Writer, statuses []model.Status) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tAUTHOR\tDATE\tCONTENT")
	for _, s := range statuses {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", s.Id, s.User.Username, s.CreatedAt.Short(), oneLine(s.Content))
	}
	tw.Flush()
}

func renderNotifications(w io.Writer, list []model.Notification) {
	for _, n := range list {
		mark := " "
		if !n.Read {
			mark = "*"
		}
		fmt.Fprintf(w, "%s %s  %s\n", mark, n.Timestamp.Short(), n.Message)
	}
}

func oneLine(s string) string {
	s = strings.ReplaceAll(s, "\n", " ")
	if len(s) > 60 {
		return s[:57] + "..."
	}
	return s
}
