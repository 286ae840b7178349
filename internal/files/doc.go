// Package files provides file system operations and discovery utilities
// for the conversion step and the latest-database lookup.
//
// Discovery finds files by glob pattern and picks the latest one by creation
// time. Manager moves and deletes files, and UniquePath picks a free dated
// name so repeated conversions accumulate instead of overwriting each other.
//
// Example usage:
//
//	discovery := files.NewDiscovery(dataDir)
//	latest, count, err := discovery.LatestDatabase(".", "healthkit_db_*.sqlite")
//
//	manager := files.NewManager(logger)
//	dst := files.UniquePath(files.DatedName(archive, "2024_05_01"))
//	err = manager.MoveFile(archive, dst)
package files
