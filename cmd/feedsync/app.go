package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/Leitan123/SmartScholarsPAF/api"
	"github.com/Leitan123/SmartScholarsPAF/app_setting"
	"github.com/Leitan123/SmartScholarsPAF/clients"
	"github.com/Leitan123/SmartScholarsPAF/events"
	"github.com/Leitan123/SmartScholarsPAF/notify"
	"github.com/Leitan123/SmartScholarsPAF/session"
	"github.com/Leitan123/SmartScholarsPAF/utils/flag"
	Logger "github.com/Leitan123/SmartScholarsPAF/utils/log"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

// app is everything a command needs, built once per invocation.
type app struct {
	setting  app_setting.ClientAppSetting
	store    session.TokenStore
	session  *session.Session
	api      *api.Client
	notifier notify.Notifier
	bus      *events.Bus
	out      io.Writer
	in       io.Reader
}

// terminalNotifier prints toasts on stderr.
type terminalNotifier struct {
	w io.Writer
}

func (n terminalNotifier) Success(msg string) {
	fmt.Fprintln(n.w, "ok:", msg)
}

func (n terminalNotifier) Error(msg string) {
	fmt.Fprintln(n.w, "failed:", msg)
}

func newTokenStore(ctx context.Context, setting app_setting.ClientAppSetting) (session.TokenStore, error) {
	if setting.TOKEN_STORE == app_setting.TokenStoreRedis {
		return session.GetRedisTokenStore(ctx, setting.PROFILE)
	}
	return session.NewFileTokenStore(setting.TOKEN_FILE), nil
}

// newApp reads the settings and the stored credentials. When requireSignIn
// is set a missing token is an error.
func newApp(cmd *cobra.Command, requireSignIn bool) (*app, error) {
	ctx := cmd.Context()
	setting, err := app_setting.ParseClientAppSetting(flag.ConfigPath)
	if err != nil {
		return nil, err
	}
	store, err := newTokenStore(ctx, setting)
	if err != nil {
		return nil, err
	}

	creds, err := store.Load(ctx)
	if err != nil && !errors.Is(err, session.ErrNoCredentials) {
		return nil, err
	}
	if setting.Token != "" && setting.Token != creds.Token {
		creds = session.Credentials{Token: setting.Token}
	}
	if requireSignIn && creds.Token == "" {
		return nil, errors.New("not signed in, run `feedsync login --token <token>` first")
	}

	var notifier notify.Notifier = terminalNotifier{w: cmd.ErrOrStderr()}
	if setting.SLACK_WEBHOOK_URL != "" {
		notifier = notify.Multi(notifier, notify.NewSlackNotifier(setting.SLACK_WEBHOOK_URL))
	}

	a := &app{
		setting:  setting,
		store:    store,
		session:  session.New(creds),
		notifier: notifier,
		out:      cmd.OutOrStdout(),
		in:       cmd.InOrStdin(),
	}
	a.api = api.NewClient(clients.NewHttpClient(
		setting.BASE_URL,
		clients.WithTimeout(setting.RequestTimeout()),
		clients.WithTokenSource(a.session),
	))

	if creds.Token != "" && creds.User.IsZero() {
		if err := a.resolveUser(ctx); err != nil {
			return nil, err
		}
	}
	if claims, err := session.ClaimsFromToken(creds.Token); err == nil && claims.Expired(time.Now()) {
		Logger.Log.Warn("stored token has expired, requests will likely be rejected")
	}
	return a, nil
}

// resolveUser finds who owns the token among all users.
func (a *app) resolveUser(ctx context.Context) error {
	users, err := a.api.ListUsers(ctx)
	if err != nil {
		if clients.IsUnauthorized(err) {
			return errors.New("the backend rejected the token")
		}
		return err
	}
	u, err := session.ResolveUser(a.session.Token(), users)
	if err != nil {
		return err
	}
	a.session.SetUser(u)
	return nil
}

func (a *app) withBus() *events.Bus {
	if a.bus == nil {
		a.bus = events.NewBus()
	}
	return a.bus
}

func (a *app) close() {
	a.bus.Close()
}

type stdinConfirmer struct {
	in  io.Reader
	out io.Writer
}

func (c stdinConfirmer) Confirm(prompt string) bool {
	fmt.Fprintf(c.out, "%s [y/N] ", prompt)
	line, _ := bufio.NewReader(c.in).ReadString('\n')
	answer := strings.ToLower(strings.TrimSpace(line))
	return answer == "y" || answer == "yes"
}

func readUpload(path string) (*api.Upload, func(), error) {
	if path == "" {
		return nil, func() {}, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, errors.Wrapf(err, "fail to open %s", path)
	}
	return &api.Upload{Filename: filepath.Base(path), Content: f}, func() { f.Close() }, nil
}
