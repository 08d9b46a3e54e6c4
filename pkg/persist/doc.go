// Package persist provides snapshot storage backends for stateart stores.
//
// Every backend implements stateart.Storage and stores opaque JSON
// snapshots by key:
//
//   - Memory keeps snapshots in a map, for tests and ephemeral state.
//   - File writes one <key>.json file per store into a directory.
//   - Bolt keeps snapshots in a bbolt database bucket.
//   - SQLite keeps snapshots in a table of a SQLite database.
//   - S3 keeps snapshots as objects under a bucket prefix.
//
// Open builds the backend named by the configuration:
//
//	backend, err := persist.Open(ctx, cfg)
//	if err != nil {
//	    return err
//	}
//	defer backend.Close()
//
//	reg := stateart.NewRegistry(stateart.WithStorage(backend))
package persist
