package dotenv

import (
	"os"
	"regexp"

	"github.com/joho/godotenv"
)

const (
	EnvName  = "FEEDSYNC_ENV"
	DevEnv   = "dev"
	ProdEnv  = "prod"
	TestEnv  = "test"
	repoName = "SmartScholarsPAF"
)

// LoadDotEnvs loads the .env files following the convention: https://github.com/bkeepers/dotenv#what-other-env-files-can-i-use
// It only need to be called once in main function, other code can use env through os.Getenv('ENV_NAME') during runtime
func LoadDotEnvs() error {
	loadDotEnvs("")
	return nil
}

func loadDotEnvs(rootPath string) {
	env := CurrentEnv()

	// .env.[runtime_env].local has highest priority, usually contains the api token
	godotenv.Load(rootPath + ".env." + env + ".local")
	godotenv.Load(rootPath + ".env.local")
	// .env.[runtime_env] usually contains the backend base url
	godotenv.Load(rootPath + ".env." + env)
	// .env usually contains shared variables(which might be overwritten by envs above)
	godotenv.Load(rootPath + ".env")
}

// CurrentEnv returns the runtime environment, dev when unset.
func CurrentEnv() string {
	env := os.Getenv(EnvName)
	if env == "" {
		return DevEnv
	}
	return env
}

func IsProdEnv() bool {
	return CurrentEnv() == ProdEnv
}

// Have to write this helper function due to a known issue of godotenv
// https://github.com/joho/godotenv/issues/43
func LoadDotEnvsInTests() error {
	re := regexp.MustCompile(`^(.*` + repoName + `)`)
	cwd, _ := os.Getwd()
	rootPath := re.Find([]byte(cwd))

	godotenv.Load(string(rootPath) + "/" + ".env.test")
	return nil
}
