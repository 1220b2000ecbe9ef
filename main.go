/*
This is an example application that wires the loader subsystem together:
an event system, a resource cache, the loader system and (optionally) the
asset watcher, then loads whatever sits under the configured asset path.
*/
package main

import (
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spaghettifunk/forge/engine/assets"
	"github.com/spaghettifunk/forge/engine/core"
	"github.com/spaghettifunk/forge/engine/resources"
	"github.com/spaghettifunk/forge/engine/systems"
)

func main() {
	configPath := "forge.toml"
	if len(os.Args) > 1 {
		configPath = os.Args[1]
	}
	config, err := systems.LoadConfig(configPath)
	if err != nil {
		panic(err)
	}

	events := core.NewEventSystem()
	cache := systems.NewResourceCache(events)

	loader, err := systems.NewLoaderSystem(cache, events, systems.LoaderSystemConfig{
		WorkerCount: config.WorkerPoolSize(),
	})
	if err != nil {
		panic(err)
	}

	onState := func(code core.SystemEventCode, sender, listener interface{}, data core.EventContext) bool {
		switch code {
		case core.EVENT_CODE_RESOURCE_LOADED:
			core.LogInfo("ready: %s", data.Filepath)
		case core.EVENT_CODE_RESOURCE_FAILED:
			core.LogWarn("failed: %s", data.Filepath)
		case core.EVENT_CODE_RESOURCE_UNLOADED:
			core.LogInfo("unloaded: %s", data.Filepath)
		}
		return false
	}
	listener := &struct{}{}
	events.Register(core.EVENT_CODE_RESOURCE_LOADED, listener, onState)
	events.Register(core.EVENT_CODE_RESOURCE_FAILED, listener, onState)
	events.Register(core.EVENT_CODE_RESOURCE_UNLOADED, listener, onState)

	if config.WatchAssets {
		// The watcher submits everything it finds and keeps watching.
		watcher, err := assets.NewAssetWatcher(loader, cache)
		if err != nil {
			panic(err)
		}
		if err := watcher.Initialize(config.AssetBasePath); err != nil {
			core.LogWarn("asset watcher failed to start: %v", err)
		} else {
			defer watcher.Close()
		}
	} else {
		err := filepath.Walk(config.AssetBasePath, func(path string, fi os.FileInfo, err error) error {
			if err != nil || fi.IsDir() {
				return err
			}
			if resources.MediaTypeFromPath(path) == resources.MediaTypeUndefined {
				return nil
			}
			r := resources.NewFromFile(path, resources.MediaTypeUndefined)
			if err := loader.AddResource(r); err != nil {
				core.LogWarn("skipping '%s': %v", path, err)
			}
			return nil
		})
		if err != nil {
			core.LogWarn("failed to walk asset path '%s': %v", config.AssetBasePath, err)
		}
	}
	loader.Sync()

	// signal channel to capture system calls
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGTERM, syscall.SIGINT, syscall.SIGQUIT)
	<-sigCh

	cache.Dump()
	if err := loader.Shutdown(); err != nil {
		panic(err)
	}
}
