package ports

// FileSystem is the storage the exporters, loaders, debug sink and summary
// writer go through. Paths are plain OS paths.
type FileSystem interface {
	ReadFile(path string) ([]byte, error)

	// WriteFile replaces path with data, creating parent directories.
	WriteFile(path string, data []byte) error

	MkdirAll(path string) error

	// Exists reports whether a file or directory is present at path.
	Exists(path string) (bool, error)

	Remove(path string) error
}
