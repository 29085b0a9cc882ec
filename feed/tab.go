package feed

import (
	"strings"

	"github.com/Leitan123/SmartScholarsPAF/api"
	"github.com/pkg/errors"
)

// Tab is one of the three post lists the feed screen can show.
type Tab string

const (
	TabFollowing Tab = "following"
	TabAll       Tab = "all"
	TabMy        Tab = "my"
)

var AllTabs = []Tab{TabFollowing, TabAll, TabMy}

func ParseTab(s string) (Tab, error) {
	t := Tab(strings.ToLower(strings.TrimSpace(s)))
	if t == "mine" || t == "own" {
		return TabMy, nil
	}
	for _, tab := range AllTabs {
		if t == tab {
			return tab, nil
		}
	}
	return "", errors.Errorf("unknown tab %q, expect one of following, all, my", s)
}

func (t Tab) Scope() api.PostScope {
	return api.PostScope(t)
}

// Visibility is the per-post state of the comment section.
type Visibility int

const (
	Collapsed Visibility = iota
	Expanded
)

func (v Visibility) String() string {
	if v == Expanded {
		return "expanded"
	}
	return "collapsed"
}

// EditTarget is the comment currently open in the edit box.
type EditTarget struct {
	PostId    string
	CommentId string
	Content   string
}
