package config

import (
	"os"
	"path/filepath"
	"strconv"

	"github.com/apex/log"
	"github.com/mitchellh/go-homedir"
	"github.com/subosito/gotenv"
)

// EnvStore reads keys from the process environment, optionally seeded from
// a dotenv file. Values already present in the environment win over the
// file, which is how a deployment overrides a single key without editing
// the file.
type EnvStore struct {
	Path string
}

func NewEnvStore(path string) *EnvStore {
	return &EnvStore{Path: path}
}

// MustLoadFromUserDotenv loads the daemon's dotenv file from the user's
// config directory when it exists. A missing file is not an error; the
// process environment alone may carry everything needed.
func MustLoadFromUserDotenv() *EnvStore {
	dir, err := homedir.Expand("~/.config/loopfs")
	if err != nil {
		log.Fatalf("Cannot determine home directory: %s", err)
	}

	store := NewEnvStore(filepath.Join(dir, "loopfs.env"))
	if _, err := os.Stat(store.Path); err == nil {
		if err := store.Load(); err != nil {
			log.Fatalf("Cannot load %s: %s", store.Path, err)
		}
	}

	return store
}

func (s *EnvStore) Load() error {
	return gotenv.Load(s.Path)
}

func (s *EnvStore) LoadFromPath(path string) error {
	s.Path = path
	return gotenv.Load(s.Path)
}

func (s *EnvStore) GetKey(key string) string {
	return os.Getenv(key)
}

func (s *EnvStore) MustGetKey(key string) string {
	val := s.GetKey(key)
	if val == "" {
		log.Fatalf("No such required config key: '%s'", key)
	}
	return val
}

func (s *EnvStore) GetKeyWithDefault(key, defaultValue string) string {
	if val := s.GetKey(key); val != "" {
		return val
	}
	return defaultValue
}

func (s *EnvStore) GetIntKey(key string) int {
	return s.GetIntKeyWithDefault(key, 0)
}

func (s *EnvStore) MustGetIntKey(key string) int {
	val, err := strconv.Atoi(s.GetKey(key))
	if err != nil {
		log.Fatalf("Required config key doesn't exist or isn't an int: '%s': %s", key, err)
	}
	return val
}

func (s *EnvStore) GetIntKeyWithDefault(key string, defaultValue int) int {
	val, err := strconv.Atoi(s.GetKey(key))
	if err != nil {
		return defaultValue
	}
	return val
}

func (s *EnvStore) GetBoolKey(key string) bool {
	return s.GetBoolKeyWithDefault(key, false)
}

func (s *EnvStore) GetBoolKeyWithDefault(key string, defaultValue bool) bool {
	val, err := strconv.ParseBool(s.GetKey(key))
	if err != nil {
		return defaultValue
	}
	return val
}
