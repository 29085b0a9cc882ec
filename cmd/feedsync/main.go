package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	. "github.com/Leitan123/SmartScholarsPAF/utils"
	"github.com/Leitan123/SmartScholarsPAF/utils/dotenv"
	. "github.com/Leitan123/SmartScholarsPAF/utils/flag"
	Logger "github.com/Leitan123/SmartScholarsPAF/utils/log"
	"github.com/spf13/cobra"
)

func cleanup() {
	CloseTracer()
	Logger.Log.Debug("feedsync shutdown")
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "feedsync",
		Short:         "Terminal client of the SmartScholars social feed",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			// Flags are parsed by now, the logger picks up --verbose.
			Logger.InitLogger()
			StartTracer()
		},
	}
	Register(root.PersistentFlags())

	root.AddCommand(
		newLoginCmd(),
		newLogoutCmd(),
		newWhoamiCmd(),
		newFeedCmd(),
		newPostCmd(),
		newCommentCmd(),
		newEditCommentCmd(),
		newDeleteCommentCmd(),
		newLikeCmd(),
		newUsersCmd(),
		newFollowCmd(),
		newUnfollowCmd(),
		newStoriesCmd(),
		newStoryCmd(),
		newSettingsCmd(),
		newNotificationsCmd(),
		newWatchCmd(),
	)
	return root
}

func main() {
	defer cleanup()

	if err := dotenv.LoadDotEnvs(); err != nil {
		panic(err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		Logger.Log.WithError(err).Debug("command failed")
		os.Stderr.WriteString("error: " + err.Error() + "\n")
		cleanup()
		os.Exit(1)
	}
}
