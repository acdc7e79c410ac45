package scene

import (
	"fmt"
	"path/filepath"

	"github.com/plus3/kiln/ecs"
	"go.uber.org/zap"
)

// Instance is a scene file spawned into a storage. Reload replaces the entities
// it spawned with a fresh build of the file.
type Instance struct {
	path     string
	storage  *ecs.Storage
	kinds    Kinds
	resolve  Resolver
	logger   *zap.Logger
	entities []ecs.EntityId
}

// Spawn loads path and builds it into storage.
func Spawn(path string, storage *ecs.Storage, kinds Kinds, resolve Resolver, logger *zap.Logger) (*Instance, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	inst := &Instance{
		path:    path,
		storage: storage,
		kinds:   kinds,
		resolve: resolve,
		logger:  logger,
	}
	if err := inst.build(); err != nil {
		return nil, err
	}
	inst.logger.Info("scene loaded", zap.String("path", path), zap.Int("entities", len(inst.entities)))
	return inst, nil
}

// Path returns the scene file.
func (i *Instance) Path() string {
	return i.path
}

// Entities returns the entities spawned by the last successful build.
func (i *Instance) Entities() []ecs.EntityId {
	return i.entities
}

// Matches reports whether a changed file is this scene's file.
func (i *Instance) Matches(changed string) bool {
	a, err1 := filepath.Abs(changed)
	b, err2 := filepath.Abs(i.path)
	if err1 != nil || err2 != nil {
		return filepath.Clean(changed) == filepath.Clean(i.path)
	}
	return a == b
}

// Reload rebuilds the scene. If the file fails to load or build, the previous
// entities stay in place and the error is returned. It must run between frames.
func (i *Instance) Reload() error {
	old := i.entities
	if err := i.build(); err != nil {
		i.logger.Warn("scene reload failed", zap.String("path", i.path), zap.Error(err))
		return err
	}
	for _, e := range old {
		i.storage.Delete(e)
	}
	i.logger.Info("scene reloaded",
		zap.String("path", i.path),
		zap.Int("removed", len(old)),
		zap.Int("entities", len(i.entities)))
	return nil
}

func (i *Instance) build() error {
	spec, err := Load(i.path)
	if err != nil {
		return err
	}
	entities, err := spec.Build(i.storage, i.kinds, i.resolve)
	if err != nil {
		return fmt.Errorf("scene: build %s: %w", i.path, err)
	}
	i.entities = entities
	return nil
}
