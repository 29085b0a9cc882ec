/*
flag Package set up cli flags shared across binaries

Usage:

	Flags listed in this package are shared across boundaries and binary-agnostic.
	Binary dependent flags are defined on their own cobra commands.
*/

package flag

import (
	"github.com/spf13/pflag"
)

const (
	TerminalClient = "feedsync"
	FakeBackend    = "fakebackend"
)

var (
	IsDevelopment bool
	Verbose       bool
	ServiceName   = TerminalClient
	ConfigPath    string
)

// Register binds the shared flags onto fs, usually the root command's
// persistent flag set.
func Register(fs *pflag.FlagSet) {
	fs.BoolVar(&IsDevelopment, "dev", true, "set to true if the current run is for development")
	fs.BoolVarP(&Verbose, "verbose", "v", false, "log request level details")
	fs.StringVar(&ServiceName, "service", ServiceName, "'feedsync' or 'fakebackend'")
	fs.StringVar(&ConfigPath, "config", "feedsync.yaml", "path to the client settings file")
}
