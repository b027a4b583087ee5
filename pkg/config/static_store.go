package config

import (
	"strconv"
	"sync"

	"github.com/apex/log"
	"github.com/pkg/errors"
)

// StaticStore serves keys from a fixed in-memory map. Used by tests and by
// callers that assemble configuration programmatically.
type StaticStore struct {
	values sync.Map
}

func NewStaticStore(entries map[string]string) *StaticStore {
	s := &StaticStore{}
	for key, value := range entries {
		s.values.Store(key, value)
	}
	return s
}

func (s *StaticStore) Load() error {
	return nil
}

func (s *StaticStore) LoadFromPath(_ string) error {
	return errors.New("LoadFromPath not supported for StaticStore")
}

func (s *StaticStore) GetKey(key string) string {
	v, ok := s.values.Load(key)
	if !ok || v == nil {
		return ""
	}
	return v.(string)
}

func (s *StaticStore) MustGetKey(key string) string {
	val := s.GetKey(key)
	if val == "" {
		log.Fatalf("No such required config key: '%s'", key)
	}
	return val
}

func (s *StaticStore) GetKeyWithDefault(key, defaultValue string) string {
	if val := s.GetKey(key); val != "" {
		return val
	}
	return defaultValue
}

func (s *StaticStore) GetIntKey(key string) int {
	return s.GetIntKeyWithDefault(key, 0)
}

func (s *StaticStore) MustGetIntKey(key string) int {
	val, err := strconv.Atoi(s.GetKey(key))
	if err != nil {
		log.Fatalf("Required config key doesn't exist or isn't an int: '%s': %s", key, err)
	}
	return val
}

func (s *StaticStore) GetIntKeyWithDefault(key string, defaultValue int) int {
	val, err := strconv.Atoi(s.GetKey(key))
	if err != nil {
		return defaultValue
	}
	return val
}

func (s *StaticStore) GetBoolKey(key string) bool {
	return s.GetBoolKeyWithDefault(key, false)
}

func (s *StaticStore) GetBoolKeyWithDefault(key string, defaultValue bool) bool {
	val, err := strconv.ParseBool(s.GetKey(key))
	if err != nil {
		return defaultValue
	}
	return val
}
