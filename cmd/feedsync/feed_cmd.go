package main

import (
	"fmt"
	"strings"

	"github.com/Leitan123/SmartScholarsPAF/api"
	"github.com/Leitan123/SmartScholarsPAF/feed"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

func (a *app) feedHolder(opts ...feed.Option) *feed.Holder {
	opts = append([]feed.Option{
		feed.WithNotifier(a.notifier),
		feed.WithParallelism(a.setting.FETCH_PARALLELISM),
	}, opts...)
	return feed.NewHolder(a.api, a.session, opts...)
}

func (a *app) tab(flagValue string) (feed.Tab, error) {
	if flagValue == "" {
		flagValue = a.setting.DEFAULT_TAB
	}
	return feed.ParseTab(flagValue)
}

func newFeedCmd() *cobra.Command {
	var tabName string
	var withComments bool
	cmd := &cobra.Command{
		Use:   "feed",
		Short: "Show the posts of a tab with their likes and comments",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd, true)
			if err != nil {
				return err
			}
			tab, err := a.tab(tabName)
			if err != nil {
				return err
			}
			h := a.feedHolder()
			defer h.Close()
			if err := h.SwitchTab(cmd.Context(), tab); err != nil {
				return err
			}
			renderFeed(a.out, a.setting.BASE_URL, h.Snapshot(), withComments)
			return nil
		},
	}
	cmd.Flags().StringVarP(&tabName, "tab", "t", "", "following, all or my")
	cmd.Flags().BoolVarP(&withComments, "comments", "c", false, "expand every comment section")
	return cmd
}

func newPostCmd() *cobra.Command {
	var media []string
	cmd := &cobra.Command{
		Use:   "post <description>",
		Short: "Publish a post, optionally with media files",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd, true)
			if err != nil {
				return err
			}
			description := strings.Join(args, " ")
			uploads := []api.Upload{}
			for _, path := range media {
				if path == "" {
					continue
				}
				upload, closeFile, err := readUpload(path)
				if err != nil {
					return err
				}
				defer closeFile()
				uploads = append(uploads, *upload)
			}
			if strings.TrimSpace(description) == "" && len(uploads) == 0 {
				return errors.New("a post needs a description or at least one media file")
			}
			post, err := a.api.CreatePost(cmd.Context(), description, uploads)
			if err != nil {
				return err
			}
			a.notifier.Success("Post published " + post.Id)
			return nil
		},
	}
	cmd.Flags().StringSliceVarP(&media, "media", "m", nil, "image or video files to attach")
	return cmd
}

// loadedFeed returns a holder with the "all" tab loaded, so that any
// visible post can be acted upon.
func (a *app) loadedFeed(cmd *cobra.Command) (*feed.Holder, error) {
	h := a.feedHolder()
	if err := h.SwitchTab(cmd.Context(), feed.TabAll); err != nil {
		h.Close()
		return nil, err
	}
	return h, nil
}

func newCommentCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "comment <postId> <text>",
		Short: "Comment on a post",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd, true)
			if err != nil {
				return err
			}
			h, err := a.loadedFeed(cmd)
			if err != nil {
				return err
			}
			defer h.Close()

			postId := args[0]
			h.SetDraft(postId, strings.Join(args[1:], " "))
			if err := h.SubmitComment(cmd.Context(), postId); err != nil {
				return err
			}
			renderPostComments(a, h, postId)
			return nil
		},
	}
}

func renderPostComments(a *app, h *feed.Holder, postId string) {
	h.ToggleComments(postId)
	snap := h.Snapshot()
	only := snap
	only.Posts = nil
	for _, p := range snap.Posts {
		if p.Id == postId {
			only.Posts = append(only.Posts, p)
		}
	}
	renderFeed(a.out, a.setting.BASE_URL, only, true)
}

func newEditCommentCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "edit-comment <postId> <commentId> <text>",
		Short: "Edit a comment you wrote or that sits on your post",
		Args:  cobra.MinimumNArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd, true)
			if err != nil {
				return err
			}
			h, err := a.loadedFeed(cmd)
			if err != nil {
				return err
			}
			defer h.Close()

			if err := h.BeginEditComment(args[0], args[1]); err != nil {
				return err
			}
			h.SetEditContent(strings.Join(args[2:], " "))
			if err := h.SaveCommentEdit(cmd.Context()); err != nil {
				return err
			}
			renderPostComments(a, h, args[0])
			return nil
		},
	}
}

func newDeleteCommentCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete-comment <postId> <commentId>",
		Short: "Delete a comment you wrote or that sits on your post",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd, true)
			if err != nil {
				return err
			}
			h := a.feedHolder()
			defer h.Close()
			if err := h.DeleteComment(cmd.Context(), args[0], args[1]); err != nil {
				return err
			}
			a.notifier.Success("Comment deleted")
			return nil
		},
	}
}

func newLikeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "like <postId>",
		Short: "Like a post, or take the like back",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd, true)
			if err != nil {
				return err
			}
			h := a.feedHolder()
			defer h.Close()
			status, err := h.ToggleLike(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			verb := "unliked"
			if status.Liked {
				verb = "liked"
			}
			a.notifier.Success(verb + ", " + pluralLikes(status.LikeCount))
			return nil
		},
	}
}

func pluralLikes(n int) string {
	if n == 1 {
		return "1 like"
	}
	return fmt.Sprintf("%d likes", n)
}
