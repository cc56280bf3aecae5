package assets

// Loader reads one kind of asset from disk. path has no extension, loaders
// append the ones they need.
type Loader interface {
	Load(path string) (interface{}, error)
}
