package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"sort"
	"strings"

	"github.com/creasty/defaults"
	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/leeforge/jsonmanager/env_mode"
	apperrors "github.com/leeforge/jsonmanager/errors"
	"github.com/leeforge/jsonmanager/logging"
)

var errNoConfigFiles = errors.New("no configuration files found")

func DefaultConfigOptions() ConfigOptions {
	basePath := os.Getenv("CONFIG_PATH")
	if basePath == "" {
		basePath = "config"
	}

	return ConfigOptions{
		BasePath:  basePath,
		FileName:  "config",
		FileType:  "yaml",
		EnvPrefix: "",
		WatchAble: false,
		OnChange:  nil,
	}
}

func DevConfigOptions() ConfigOptions {
	opts := DefaultConfigOptions()
	opts.WatchAble = true
	return opts
}

func NewConfig(optsArr ...ConfigOptions) (*Config, error) {
	var opts ConfigOptions
	if len(optsArr) == 0 {
		opts = DefaultConfigOptions()
	} else {
		opts = optsArr[0]
	}

	instance, files, err := CreateConfig(opts)
	if err != nil {
		return nil, err
	}

	return &Config{
		instance: instance,
		opts:     opts,
		files:    files,
	}, nil
}

// Files returns the configuration files merged into c, lowest priority first.
func (c *Config) Files() []string {
	c.watchMutex.RLock()
	defer c.watchMutex.RUnlock()
	return append([]string(nil), c.files...)
}

// Bind unmarshals the merged configuration into instance, a pointer. When
// instance implements Validator it is validated as well. With WatchAble set,
// instance is updated again whenever a configuration file changes.
func (c *Config) Bind(instance any) error {
	if c == nil || c.instance == nil {
		return apperrors.NewInternal("config instance is nil")
	}
	if instance == nil {
		return apperrors.NewInvalid("config.target", nil, "target instance is nil")
	}
	if rv := reflect.ValueOf(instance); rv.Kind() != reflect.Ptr || rv.IsNil() {
		return apperrors.NewInvalid("config.target", fmt.Sprintf("%T", instance), "target must be a non-nil pointer")
	}

	c.watchMutex.Lock()
	err := c.unmarshal(c.instance, instance)
	c.watchMutex.Unlock()
	if err != nil {
		return err
	}

	if c.opts.WatchAble {
		var watchErr error
		c.watchOnce.Do(func() {
			watchErr = c.watch(instance)
		})
		if watchErr != nil {
			return watchErr
		}
	}

	return nil
}

// BindWithDefaults fills `default` tags before binding, so keys missing from
// every file keep their defaults.
func (c *Config) BindWithDefaults(instance any) error {
	if err := defaults.Set(instance); err != nil {
		return apperrors.NewInvalid("config.target", fmt.Sprintf("%T", instance), "cannot apply defaults").WithInnerError(err)
	}
	c.withDefaults = true
	return c.Bind(instance)
}

func (c *Config) unmarshal(v *viper.Viper, instance any) error {
	if err := v.Unmarshal(instance); err != nil {
		return apperrors.NewInvalid("config", c.opts.BasePath,
			fmt.Sprintf("cannot unmarshal %s.%s", c.opts.FileName, c.opts.FileType)).WithInnerError(err)
	}
	if v, ok := instance.(Validator); ok {
		if err := v.Validate(); err != nil {
			return err
		}
	}
	return nil
}

func (c *Config) watch(instance any) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return apperrors.NewIO("watch", c.opts.BasePath, err)
	}
	if err := watcher.Add(c.opts.BasePath); err != nil {
		watcher.Close()
		return apperrors.NewIO("watch", c.opts.BasePath, err)
	}
	c.watcher = watcher

	logger := logging.Named("config")
	go func() {
		for {
			select {
			case e, ok := <-watcher.Events:
				if !ok {
					return
				}
				if !c.isConfigEvent(e) {
					continue
				}
				if err := c.reload(instance); err != nil {
					logger.Warn("config.reload.failed", zap.String("file", e.Name), zap.Error(err))
					continue
				}
				logger.Debug("config.reloaded", zap.String("file", e.Name))
				if c.opts.OnChange != nil {
					c.opts.OnChange(e)
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				logger.Warn("config.watch.error", zap.Error(err))
			}
		}
	}()
	return nil
}

func (c *Config) isConfigEvent(e fsnotify.Event) bool {
	if !e.Has(fsnotify.Write) && !e.Has(fsnotify.Create) && !e.Has(fsnotify.Rename) && !e.Has(fsnotify.Remove) {
		return false
	}
	return strings.HasSuffix(e.Name, "."+c.opts.FileType)
}

// reload decodes the changed files into a fresh value and copies it into
// instance only when it decodes and validates. Keys removed from the files
// fall back to their zero value, or their default after BindWithDefaults.
func (c *Config) reload(instance any) error {
	v, files, err := CreateConfig(c.opts)
	if err != nil {
		return err
	}

	target := reflect.ValueOf(instance).Elem()
	fresh := reflect.New(target.Type())
	if c.withDefaults && target.Kind() == reflect.Struct {
		if err := defaults.Set(fresh.Interface()); err != nil {
			return apperrors.NewInvalid("config.target", fmt.Sprintf("%T", instance), "cannot apply defaults").WithInnerError(err)
		}
	}
	if err := c.unmarshal(v, fresh.Interface()); err != nil {
		return err
	}

	c.watchMutex.Lock()
	defer c.watchMutex.Unlock()
	c.instance = v
	c.files = files
	target.Set(fresh.Elem())
	return nil
}

// Close stops watching for file changes.
func (c *Config) Close() error {
	if c == nil || c.watcher == nil {
		return nil
	}
	return c.watcher.Close()
}

// Export writes the merged configuration to path. The format follows the
// file extension.
func (c *Config) Export(path string) error {
	if path == "" {
		return apperrors.NewNoFileConfigured("config export")
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, os.ModePerm); err != nil {
		return apperrors.NewIO("mkdir", dir, err)
	}

	c.watchMutex.RLock()
	defer c.watchMutex.RUnlock()
	if err := c.instance.WriteConfigAs(path); err != nil {
		return apperrors.NewIO("write", path, err)
	}

	return nil
}

func (c *Config) Get(key string) any {
	c.watchMutex.RLock()
	defer c.watchMutex.RUnlock()

	return c.instance.Get(key)
}

func (c *Config) Set(key string, value any) {
	c.watchMutex.Lock()
	defer c.watchMutex.Unlock()

	c.instance.Set(key, value)
}

// CreateConfig merges every configuration file found for opts, later files
// overriding earlier ones, then applies environment overrides.
func CreateConfig(opts ConfigOptions) (*viper.Viper, []string, error) {
	configPaths := getConfigFilePaths(opts)
	if opts.LoadAll {
		configPaths = getAllConfigFilePaths(opts)
	}
	if len(configPaths) == 0 {
		return nil, nil, apperrors.NewIO("read", opts.BasePath, errNoConfigFiles)
	}

	v := viper.New()
	v.SetConfigType(opts.FileType)

	for _, configPath := range configPaths {
		tempV := viper.New()
		tempV.SetConfigFile(configPath)
		if err := tempV.ReadInConfig(); err != nil {
			return nil, nil, apperrors.NewIO("read", configPath, err)
		}

		for _, key := range tempV.AllKeys() {
			v.Set(key, tempV.Get(key))
		}
	}

	v.SetEnvKeyReplacer(envKeyReplacer)
	if opts.EnvPrefix != "" {
		v.SetEnvPrefix(opts.EnvPrefix)
	}
	v.AutomaticEnv()

	// Environment variables win over every file.
	applyEnvOverrides(v, opts.EnvPrefix)

	return v, configPaths, nil
}

var envKeyReplacer = strings.NewReplacer(".", "_", "-", "_")

// applyEnvOverrides sets every known key that has a matching environment
// variable, e.g. storage.base-path -> STORAGE_BASE_PATH.
func applyEnvOverrides(v *viper.Viper, envPrefix string) {
	for _, key := range v.AllKeys() {
		envKey := strings.ToUpper(envKeyReplacer.Replace(key))
		if envPrefix != "" {
			envKey = envPrefix + "_" + envKey
		}

		if envValue := os.Getenv(envKey); envValue != "" {
			v.Set(key, envValue)
		}
	}
}

func getConfigFilePaths(opts ConfigOptions) (configFiles []string) {
	env := env_mode.Mode()
	fileNames := []string{
		opts.FileName,
		fmt.Sprintf("%s.local", opts.FileName),
		fmt.Sprintf("%s.%s", opts.FileName, env),
		fmt.Sprintf("%s.%s.local", opts.FileName, env),
	}

	switch env {
	case env_mode.DevMode:
		fileNames = append(fileNames, fmt.Sprintf("%s.dev", opts.FileName))
		fileNames = append(fileNames, fmt.Sprintf("%s.dev.local", opts.FileName))
	case env_mode.ProMode:
		fileNames = append(fileNames, fmt.Sprintf("%s.prod", opts.FileName))
		fileNames = append(fileNames, fmt.Sprintf("%s.prod.local", opts.FileName))
	case env_mode.TestMode:
		fileNames = append(fileNames, fmt.Sprintf("%s.testing", opts.FileName))
		fileNames = append(fileNames, fmt.Sprintf("%s.testing.local", opts.FileName))
	}

	for _, fileName := range fileNames {
		file := filepath.Join(opts.BasePath, fmt.Sprintf("%s.%s", fileName, opts.FileType))
		if info, err := os.Stat(file); err == nil && !info.IsDir() {
			configFiles = append(configFiles, file)
		}
	}

	return configFiles
}

func getAllConfigFilePaths(opts ConfigOptions) (configFiles []string) {
	baseNames := getConfigBaseNames(opts.BasePath, opts.FileType)
	if len(baseNames) == 0 {
		return nil
	}

	sort.Strings(baseNames)
	baseNames = moveFirst(baseNames, opts.FileName)
	seen := make(map[string]struct{}, len(baseNames))
	for _, baseName := range baseNames {
		tempOpts := opts
		tempOpts.FileName = baseName
		tempOpts.LoadAll = false
		for _, path := range getConfigFilePaths(tempOpts) {
			if _, exists := seen[path]; exists {
				continue
			}
			seen[path] = struct{}{}
			configFiles = append(configFiles, path)
		}
	}

	return configFiles
}

func getConfigBaseNames(basePath, fileType string) []string {
	entries, err := os.ReadDir(basePath)
	if err != nil {
		return nil
	}

	suffix := "." + fileType
	seen := make(map[string]struct{})
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if !strings.HasSuffix(name, suffix) {
			continue
		}
		base := stripConfigSuffix(strings.TrimSuffix(name, suffix))
		if base == "" {
			continue
		}
		seen[base] = struct{}{}
	}

	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	return names
}

func stripConfigSuffix(name string) string {
	name = strings.TrimSuffix(name, ".local")
	for _, suffix := range []string{".development", ".dev", ".production", ".prod", ".testing", ".test"} {
		if strings.HasSuffix(name, suffix) {
			return strings.TrimSuffix(name, suffix)
		}
	}
	return name
}

// moveFirst puts name at the front so the main file has the lowest priority.
func moveFirst(names []string, name string) []string {
	idx := -1
	for i, n := range names {
		if n == name {
			idx = i
			break
		}
	}

	if idx <= 0 {
		return names
	}

	out := make([]string, 0, len(names))
	out = append(out, name)
	out = append(out, names[:idx]...)
	out = append(out, names[idx+1:]...)
	return out
}
