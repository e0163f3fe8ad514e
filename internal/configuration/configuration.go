/*
 * Copyright 2024 The Gojumble Authors
 *
 *    Licensed under the Apache License, Version 2.0 (the "License");
 *    you may not use this file except in compliance with the License.
 *    You may obtain a copy of the License at
 *
 *        http://www.apache.org/licenses/LICENSE-2.0
 *
 *    Unless required by applicable law or agreed to in writing, software
 *    distributed under the License is distributed on an "AS IS" BASIS,
 *    WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 *    See the License for the specific language governing permissions and
 *    limitations under the License.
 */

// Package configuration centralises gojumble's configuration, sourced
// from flags, environment variables, and a .gojumble.yaml file, in that
// order of precedence, via Viper.
package configuration

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"

	"github.com/mitchellh/go-homedir"
	"github.com/spf13/viper"
)

// Keys available in config files and as flags.
const (
	SilentKey               = "silent"
	MutateDryRunKey         = "mutate.dry-run"
	MutateClasspathKey      = "mutate.classpath"
	MutateExcludeKey        = "mutate.exclude"
	MutateDeferClassKey     = "mutate.defer-class"
	MutatePrinterKey        = "mutate.printer"
	MutateEmacsKey          = "mutate.emacs"
	MutateFirstMutationKey  = "mutate.first-mutation"
	MutateMaxExternalKey    = "mutate.max-external-mutations"
	MutateNoOrderKey        = "mutate.no-order"
	MutateNoSaveCacheKey    = "mutate.no-save-cache"
	MutateNoLoadCacheKey    = "mutate.no-load-cache"
	MutateNoUseCacheKey     = "mutate.no-use-cache"
	MutateSinceRefKey       = "mutate.since-ref"
	MutateNoDummyRewriteKey = "mutate.no-dummy-rewrite"
	MutateJVMArgKey         = "mutate.jvm-arg"
	MutateDefinePropertyKey = "mutate.define-property"
	MutateVerboseKey        = "mutate.verbose"
)

const (
	cfgName      = ".gojumble"
	envVarPrefix = "GOJUMBLE"

	xdgConfigHomeKey = "XDG_CONFIG_HOME"
	windowsOs        = "windows"
)

// Init sets up Viper: config name .gojumble.yaml, GOJUMBLE_ environment
// variables taking precedence over the file, and a search path derived
// from cPaths (or a sensible default chain when cPaths is empty).
func Init(cPaths []string) error {
	replacer := strings.NewReplacer(".", "_", "-", "_")
	viper.SetEnvKeyReplacer(replacer)
	viper.SetEnvPrefix(envVarPrefix)
	viper.AutomaticEnv()
	viper.SetConfigName(cfgName)
	viper.SetConfigType("yaml")

	if isSpecificFile(cPaths) {
		viper.SetConfigFile(cPaths[0])
		if err := viper.ReadInConfig(); err != nil {
			return err
		}
	} else if arePathsNotSet(cPaths) {
		cPaths = defaultConfigPaths()
	}

	for _, p := range cPaths {
		viper.AddConfigPath(p)
	}

	_ = viper.ReadInConfig() // no config file present is not an error

	return nil
}

func isSpecificFile(cPaths []string) bool {
	return len(cPaths) == 1 && filepath.Ext(cPaths[0]) != ""
}

func arePathsNotSet(cPaths []string) bool {
	return len(cPaths) == 0 || (len(cPaths) == 1 && cPaths[0] == "")
}

func defaultConfigPaths() []string {
	result := make([]string, 0, 4)

	if runtime.GOOS != windowsOs {
		result = append(result, "/etc/gojumble")
	}

	xchLocation, _ := homedir.Expand("~/.config")
	if x := os.Getenv(xdgConfigHomeKey); x != "" {
		xchLocation = x
	}
	result = append(result, filepath.Join(xchLocation, "gojumble"))

	if homeLocation, err := homedir.Expand("~/.gojumble"); err == nil {
		result = append(result, homeLocation)
	}

	result = append(result, ".")

	return result
}

var mutex sync.RWMutex

// Set offers synchronised write access to the configuration.
func Set[T any](k string, v T) {
	mutex.Lock()
	defer mutex.Unlock()
	viper.Set(k, v)
}

// Get offers synchronised read access to the configuration.
func Get[T any](k string) T {
	var r T
	mutex.RLock()
	defer mutex.RUnlock()
	r, _ = viper.Get(k).(T)

	return r
}

// Reset clears the underlying Viper instance, mainly for tests.
func Reset() {
	mutex.Lock()
	defer mutex.Unlock()
	viper.Reset()
}
