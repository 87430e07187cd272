package models

// FileInfo describes one entry yielded by the directory walker
type FileInfo struct {
	Path      string // Full path
	Name      string // Base name
	Depth     int    // Depth below the walk root (root children are 1)
	IsDir     bool   // Is directory
	IsSymlink bool   // Is symbolic link
	IsHidden  bool   // Is hidden entry
}
