package app_setting

import (
	"os"
	"time"

	"github.com/Leitan123/SmartScholarsPAF/utils"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v2"
)

const (
	BaseUrlEnv = "FEEDSYNC_BASE_URL"
	TokenEnv   = "FEEDSYNC_TOKEN"

	TokenStoreFile  = "file"
	TokenStoreRedis = "redis"
)

// This is the client config for feedsync execution.
type ClientAppSetting struct {
	// Backend base url, media paths are resolved against it too.
	BASE_URL string `yaml:"BASE_URL"`
	// Per request timeout in second, 0 means no timeout.
	REQUEST_TIMEOUT_SECOND int64 `yaml:"REQUEST_TIMEOUT_SECOND"`
	// How long the story viewer stays open before dismissing itself.
	STATUS_DURATION_MILLISECOND int64 `yaml:"STATUS_DURATION_MILLISECOND"`
	// Tab shown by `feedsync feed` when --tab is not given.
	DEFAULT_TAB string `yaml:"DEFAULT_TAB"`
	// Upper bound of per post requests in flight while loading a feed.
	FETCH_PARALLELISM int `yaml:"FETCH_PARALLELISM"`
	// Where credentials are kept between runs, "file" or "redis".
	TOKEN_STORE string `yaml:"TOKEN_STORE"`
	// Credentials file path for the "file" token store.
	TOKEN_FILE string `yaml:"TOKEN_FILE"`
	// Profile name, keeps several accounts apart in the "redis" token store.
	PROFILE string `yaml:"PROFILE"`
	// Optional slack incoming webhook that receives a copy of every toast.
	SLACK_WEBHOOK_URL string `yaml:"SLACK_WEBHOOK_URL"`
	// Token from the environment, never read from the yaml file.
	Token string `yaml:"-"`
}

func DefaultClientAppSetting() ClientAppSetting {
	return ClientAppSetting{
		BASE_URL:                    "http://localhost:9090",
		REQUEST_TIMEOUT_SECOND:      30,
		STATUS_DURATION_MILLISECOND: 5000,
		DEFAULT_TAB:                 "following",
		FETCH_PARALLELISM:           8,
		TOKEN_STORE:                 TokenStoreFile,
		TOKEN_FILE:                  defaultTokenFile(),
		PROFILE:                     "default",
	}
}

func defaultTokenFile() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ".feedsync_token.json"
	}
	return dir + "/feedsync/token.json"
}

// ParseClientAppSetting reads path over the defaults, a missing file keeps
// the defaults. FEEDSYNC_BASE_URL and FEEDSYNC_TOKEN win over the file.
func ParseClientAppSetting(path string) (ClientAppSetting, error) {
	c := DefaultClientAppSetting()
	yamlFile, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return c, errors.Wrapf(err, "fail to read %s", path)
	}
	if err == nil {
		if err := yaml.Unmarshal(yamlFile, &c); err != nil {
			return c, errors.Wrapf(err, "fail to parse %s", path)
		}
	}

	if v := os.Getenv(BaseUrlEnv); v != "" {
		c.BASE_URL = v
	}
	c.Token = os.Getenv(TokenEnv)

	if !utils.ContainsString([]string{TokenStoreFile, TokenStoreRedis}, c.TOKEN_STORE) {
		return c, errors.Errorf("TOKEN_STORE must be %q or %q, got %q", TokenStoreFile, TokenStoreRedis, c.TOKEN_STORE)
	}
	return c, nil
}

func (c ClientAppSetting) RequestTimeout() time.Duration {
	return time.Duration(c.REQUEST_TIMEOUT_SECOND) * time.Second
}

func (c ClientAppSetting) StatusDuration() time.Duration {
	return time.Duration(c.STATUS_DURATION_MILLISECOND) * time.Millisecond
}
