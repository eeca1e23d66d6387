package config

import (
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// Validator is implemented by bound targets that check themselves after
// every load and reload.
type Validator interface {
	Validate() error
}

type ConfigInterface interface {
	Bind(instance any) error
	BindWithDefaults(instance any) error
	Get(key string) any
	Export(path string) error
	Close() error
}

type Config struct {
	instance   *viper.Viper
	opts       ConfigOptions
	files      []string
	watchOnce  sync.Once
	watchMutex sync.RWMutex
	watcher    *fsnotify.Watcher

	// withDefaults reapplies `default` tags on every reload.
	withDefaults bool
}

type ConfigOptions struct {
	BasePath  string
	FileName  string
	FileType  string
	EnvPrefix string
	WatchAble bool
	OnChange  func(e fsnotify.Event)
	LoadAll   bool
}
