package assets

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spaghettifunk/glitch/engine/assets/loaders"
	"github.com/spaghettifunk/glitch/engine/core"
	"github.com/spaghettifunk/glitch/engine/renderer/metadata"
)

type AssetType uint8

const (
	AssetTypeNone AssetType = iota
	AssetTypeShader
)

func (t AssetType) String() string {
	switch t {
	case AssetTypeShader:
		return "shader"
	}
	return "none"
}

type AssetInfo struct {
	/** @brief The path relative to the assets directory. */
	Path string
	/** @brief The file name without directory and extension. */
	Name       string
	Type       AssetType
	LastLoaded time.Time
}

type AssetManagerConfig struct {
	/** @brief The directory holding every asset. */
	AssetsDir string
	/** @brief Watches AssetsDir and records changed assets for reloading. */
	HotReload bool
}

/**
 * @brief Indexes the asset directory and loads assets by name. With hot
 * reload enabled a background goroutine watches the directory and records
 * which assets changed; the main loop collects them with Changed.
 */
type AssetManager struct {
	baseDir string
	assets  map[string]AssetInfo
	loaders map[AssetType]Loader
	changed map[AssetType]map[string]struct{}

	mutex sync.RWMutex

	done     chan struct{}
	stopped  chan struct{}
	fsnotify *fsnotify.Watcher
	isClosed bool
}

func NewAssetManager(config *AssetManagerConfig) (*AssetManager, error) {
	baseDir, err := filepath.Abs(config.AssetsDir)
	if err != nil {
		return nil, err
	}
	if fi, err := os.Stat(baseDir); err != nil || !fi.IsDir() {
		return nil, fmt.Errorf("%w: assets directory %s", core.ErrAssetNotFound, baseDir)
	}
	am := &AssetManager{
		baseDir: baseDir,
		assets:  make(map[string]AssetInfo),
		loaders: make(map[AssetType]Loader),
		changed: make(map[AssetType]map[string]struct{}),
	}
	am.registerLoader(AssetTypeShader, &loaders.ShaderLoader{})

	if config.HotReload {
		am.fsnotify, err = fsnotify.NewWatcher()
		if err != nil {
			return nil, err
		}
		am.done = make(chan struct{})
		am.stopped = make(chan struct{})
		go am.start()
	}
	if err := am.watchRecursive(baseDir); err != nil {
		_ = am.Shutdown()
		return nil, err
	}
	core.LogDebug("indexed %d assets in %s", len(am.assets), baseDir)
	return am, nil
}

// Register loaders for each asset type
func (am *AssetManager) registerLoader(assetType AssetType, loader Loader) {
	am.loaders[assetType] = loader
}

// Assets returns the indexed assets of one type sorted by path.
func (am *AssetManager) Assets(assetType AssetType) []AssetInfo {
	am.mutex.RLock()
	defer am.mutex.RUnlock()

	var infos []AssetInfo
	for _, info := range am.assets {
		if info.Type == assetType {
			infos = append(infos, info)
		}
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].Path < infos[j].Path })
	return infos
}

/**
 * @brief Loads an asset by name with the loader of its type.
 * @param name The file name without extension, for example "quad".
 * @param assetType The kind of asset to load.
 * @return What the loader produced, or ErrAssetNotFound.
 */
func (am *AssetManager) LoadAsset(name string, assetType AssetType) (interface{}, error) {
	am.mutex.Lock()
	var path string
	for key, info := range am.assets {
		if info.Name == name && info.Type == assetType {
			info.LastLoaded = time.Now()
			am.assets[key] = info
			path = filepath.Join(am.baseDir, strings.TrimSuffix(key, filepath.Ext(key)))
			break
		}
	}
	am.mutex.Unlock()
	if path == "" {
		return nil, fmt.Errorf("%w: %s `%s`", core.ErrAssetNotFound, assetType, name)
	}

	loader, ok := am.loaders[assetType]
	if !ok {
		return nil, fmt.Errorf("no loader registered for asset type: %s", assetType)
	}
	return loader.Load(path)
}

// LoadShader loads the vertex and fragment stages named name.
func (am *AssetManager) LoadShader(name string) (metadata.ShaderProgramSource, error) {
	asset, err := am.LoadAsset(name, AssetTypeShader)
	if err != nil {
		return metadata.ShaderProgramSource{}, err
	}
	source, ok := asset.(*metadata.ShaderProgramSource)
	if !ok {
		return metadata.ShaderProgramSource{}, fmt.Errorf("%w: `%s`", errNotShader, name)
	}
	return *source, nil
}

// Changed returns, sorted and once, the names of the assets of one type
// modified since the previous call.
func (am *AssetManager) Changed(assetType AssetType) []string {
	am.mutex.Lock()
	defer am.mutex.Unlock()

	pending := am.changed[assetType]
	if len(pending) == 0 {
		return nil
	}
	names := make([]string, 0, len(pending))
	for name := range pending {
		names = append(names, name)
	}
	delete(am.changed, assetType)
	sort.Strings(names)
	return names
}

func (am *AssetManager) Shutdown() error {
	if am.fsnotify == nil || am.isClosed {
		return nil
	}
	am.isClosed = true
	close(am.done)
	<-am.stopped
	return nil
}

func (am *AssetManager) start() {
	defer close(am.stopped)
	for {
		select {
		case e, ok := <-am.fsnotify.Events:
			if !ok {
				return
			}
			s, err := os.Stat(e.Name)
			if err == nil && s.IsDir() {
				if e.Op&fsnotify.Create != 0 {
					if err := am.watchRecursive(e.Name); err != nil {
						core.LogError(err.Error())
					}
				}
				continue
			}
			// Editors often save by renaming a temporary file over the original.
			if e.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename) != 0 && err == nil {
				am.handleFileEvent(e.Name, true)
			}
			if e.Op&fsnotify.Remove != 0 {
				am.removeAsset(e.Name)
			}

		case err, ok := <-am.fsnotify.Errors:
			if !ok {
				return
			}
			core.LogError(err.Error())

		case <-am.done:
			if err := am.fsnotify.Close(); err != nil {
				core.LogError(err.Error())
			}
			return
		}
	}
}

// watchRecursive indexes every file under path and, with hot reload, adds
// each directory to the watch list.
func (am *AssetManager) watchRecursive(path string) error {
	return filepath.Walk(path, func(walkPath string, fi os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !fi.IsDir() {
			am.handleFileEvent(walkPath, false)
			return nil
		}
		if am.fsnotify != nil {
			if err := am.fsnotify.Add(walkPath); err != nil {
				return err
			}
		}
		return nil
	})
}

// Handle the creation or modification of a file
func (am *AssetManager) handleFileEvent(path string, modified bool) {
	assetType := determineAssetType(path)
	if assetType == AssetTypeNone {
		return
	}
	rel, err := filepath.Rel(am.baseDir, path)
	if err != nil {
		return
	}
	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))

	am.mutex.Lock()
	defer am.mutex.Unlock()

	info := am.assets[rel]
	info.Path = rel
	info.Name = name
	info.Type = assetType
	am.assets[rel] = info
	if modified {
		if am.changed[assetType] == nil {
			am.changed[assetType] = make(map[string]struct{})
		}
		am.changed[assetType][name] = struct{}{}
	}
}

// Remove the asset from the index if it was deleted
func (am *AssetManager) removeAsset(path string) {
	rel, err := filepath.Rel(am.baseDir, path)
	if err != nil {
		return
	}
	am.mutex.Lock()
	defer am.mutex.Unlock()

	delete(am.assets, rel)
}

func determineAssetType(path string) AssetType {
	switch filepath.Ext(path) {
	case loaders.VertexExtension, loaders.FragmentExtension:
		return AssetTypeShader
	default:
		return AssetTypeNone
	}
}

var errNotShader = errors.New("asset is not a shader")
