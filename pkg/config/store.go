package config

// Store reads configuration values by key. The Must variants terminate the
// process when the key is missing or malformed; they exist for startup-time
// settings the daemon cannot run without.
type Store interface {
	Load() error
	LoadFromPath(path string) error

	GetKey(key string) string
	MustGetKey(key string) string
	GetKeyWithDefault(key, defaultValue string) string

	GetIntKey(key string) int
	MustGetIntKey(key string) int
	GetIntKeyWithDefault(key string, defaultValue int) int

	GetBoolKey(key string) bool
	GetBoolKeyWithDefault(key string, defaultValue bool) bool
}
