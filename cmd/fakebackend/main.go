package main

import (
	"fmt"
	"net/http"
	"os"

	"github.com/Leitan123/SmartScholarsPAF/backendtest"
	"github.com/Leitan123/SmartScholarsPAF/model"
	. "github.com/Leitan123/SmartScholarsPAF/utils"
	"github.com/Leitan123/SmartScholarsPAF/utils/dotenv"
	. "github.com/Leitan123/SmartScholarsPAF/utils/flag"
	Logger "github.com/Leitan123/SmartScholarsPAF/utils/log"
	"github.com/brianvoe/gofakeit/v7"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	gintrace "gopkg.in/DataDog/dd-trace-go.v1/contrib/gin-gonic/gin"
)

func cleanup() {
	CloseProfiler()
	CloseTracer()
	Logger.Log.Info("fake backend shutdown")
}

// seed fills srv with a small community and prints the token of each user.
func seed(srv *backendtest.Server, users int, seedValue int64) {
	gofakeit.Seed(seedValue)

	ids := []string{}
	for i := 0; i < users; i++ {
		u := srv.AddUser(gofakeit.Username(), gofakeit.Email())
		ids = append(ids, u.Id)
		fmt.Printf("user %-20s token %s\n", u.Username, u.Id)
	}
	for i, id := range ids {
		for j := 0; j < 2; j++ {
			post := srv.AddPost(id, gofakeit.Sentence(8))
			for _, other := range ids {
				if other != id && gofakeit.Bool() {
					srv.AddComment(post.Id, other, gofakeit.Sentence(5))
				}
				if gofakeit.Bool() {
					srv.Like(post.Id, other)
				}
			}
		}
		srv.AddStatus(id, gofakeit.Quote())
		// Everyone follows the next user, and asked to follow the one after.
		if len(ids) > 1 {
			srv.SetFollow(id, ids[(i+1)%len(ids)], model.FollowFollowing)
		}
		if len(ids) > 2 {
			srv.SetFollow(id, ids[(i+2)%len(ids)], model.FollowPending)
		}
	}
}

func main() {
	defer cleanup()

	if err := dotenv.LoadDotEnvs(); err != nil {
		panic(err)
	}

	var addr string
	var users int
	var seedValue int64
	var profile bool
	root := &cobra.Command{
		Use:   "fakebackend",
		Short: "In-memory SmartScholars backend for local runs of feedsync",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			Logger.InitLogger()
			StartTracer()
			if profile {
				StartProfiler()
			}

			srv := backendtest.New()
			seed(srv, users, seedValue)

			// Default With the Logger and Recovery middleware already attached
			router := gin.Default()
			router.Use(cors.Default())
			router.Use(gintrace.Middleware(ServiceName))
			router.GET("/ping", func(c *gin.Context) {
				c.JSON(http.StatusOK, gin.H{"message": "pong"})
			})
			router.NoRoute(gin.WrapH(srv.Handler()))

			Logger.Log.WithField("addr", addr).Info("fake backend starts up")
			return router.Run(addr)
		},
	}
	ServiceName = FakeBackend
	Register(root.PersistentFlags())
	root.Flags().StringVar(&addr, "addr", ":9090", "listen address")
	root.Flags().IntVar(&users, "users", 4, "number of seeded users")
	root.Flags().Int64Var(&seedValue, "seed", 42, "seed of the fake data")
	root.Flags().BoolVar(&profile, "profile", false, "start the datadog profiler")

	if err := root.Execute(); err != nil {
		Logger.Log.WithError(err).Error("fake backend failed")
		cleanup()
		os.Exit(1)
	}
}
