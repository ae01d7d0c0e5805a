package platform

import (
	"context"
	"fmt"

	"github.com/aretw0/purple/pkg/adapters/fs"
	"github.com/aretw0/purple/pkg/adapters/memory"
	"github.com/aretw0/purple/pkg/core"
)

// Init opens and prepares the storage medium.
// The 'uri' argument is adapter-specific (a directory for 'fs', ignored by 'memory').
func Init(uri string, opts ...Option) (core.Medium, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}
	return initMedium(context.Background(), uri, o)
}

func initMedium(ctx context.Context, uri string, o *options) (core.Medium, error) {
	// 1. Check for injected medium
	if o.medium != nil {
		return o.medium, nil
	}

	// 2. Build based on adapter
	var medium core.Medium
	switch o.adapter {
	case "fs":
		medium = initFS(uri, o)
	case "memory":
		medium = memory.New()
	default:
		return nil, fmt.Errorf("unknown adapter: %s", o.adapter)
	}

	// 3. Run initialization
	if initializer, ok := medium.(core.Initializer); ok {
		if err := initializer.Initialize(ctx); err != nil {
			return nil, err
		}
	}
	return medium, nil
}

// initFS builds the filesystem medium, applying the dev safety rules.
func initFS(path string, o *options) *fs.Medium {
	tempDir, _ := o.config["temp_dir"].(bool)
	mustExist, _ := o.config["must_exist"].(bool)
	systemDir, _ := o.config["system_dir"].(string)
	eventBuffer, _ := o.config["event_buffer"].(int)
	errorHandler, _ := o.config["watcher_error_handler"].(func(error))
	isReadOnly, _ := o.config["read_only"].(bool)

	// Default to safe if dev_safety is not set.
	devSafety := true
	if val, ok := o.config["dev_safety"].(bool); ok {
		devSafety = val
	}

	// Read-only access is inherently safe.
	bypassSafety := isReadOnly || !devSafety

	useTemp := tempDir || (IsDevRun() && !bypassSafety)
	resolvedPath := ResolveDataPath(path, useTemp)

	if IsDevRun() && o.logger != nil {
		if bypassSafety {
			if isReadOnly {
				o.logger.Debug("running in READ-ONLY mode (bypassing dev sandbox)", "path", resolvedPath)
			} else {
				o.logger.Warn("running in UNSAFE mode (bypassing dev sandbox)", "path", resolvedPath)
			}
		} else {
			o.logger.Debug("running in SAFE mode (dev sandbox enabled)", "path", resolvedPath)
		}
	}

	if o.logger != nil && useTemp && resolvedPath != path {
		o.logger.Warn("running in SAFE MODE (Dev/Test)", "original_path", path, "resolved_path", resolvedPath)
	}

	return fs.NewMedium(fs.Config{
		Path:         resolvedPath,
		MustExist:    mustExist,
		ReadOnly:     isReadOnly,
		Logger:       o.logger,
		SystemDir:    systemDir,
		EventBuffer:  eventBuffer,
		ErrorHandler: errorHandler,
	})
}
