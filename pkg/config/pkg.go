package config

var store Store = &EnvStore{}

func SetStore(s Store) {
	store = s
}

func GetStore() Store {
	return store
}

func GetKey(key string) string {
	return store.GetKey(key)
}

func MustGetKey(key string) string {
	return store.MustGetKey(key)
}

func GetKeyWithDefault(key, defaultValue string) string {
	return store.GetKeyWithDefault(key, defaultValue)
}

func GetIntKey(key string) int {
	return store.GetIntKey(key)
}

func GetIntKeyWithDefault(key string, defaultValue int) int {
	return store.GetIntKeyWithDefault(key, defaultValue)
}

func GetBoolKey(key string) bool {
	return store.GetBoolKey(key)
}

func GetBoolKeyWithDefault(key string, defaultValue bool) bool {
	return store.GetBoolKeyWithDefault(key, defaultValue)
}
