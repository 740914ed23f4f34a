// Package resources provides the client-side persistence layer for synced
// resources.
//
// # Data Model
//
// A resource row stores the decoded metadata (name, username, uris,
// description), the encrypted secret and an awaiting_update flag. Its
// permissions live in resource_permissions and its tags in tags and
// resource_tags.
//
// # Awaiting update
//
// A full sync marks every row, upserts whatever the server returns (which
// clears the mark), then deletes rows that are still marked. This is how
// server-side deletions reach the local store.
//
// Typical Usage
//
//	err := executor.Do(ctx, func(ctx context.Context, tx dbx.DBTX) error {
//	    repo := resources.NewSQLiteRepository(tx)
//	    return repo.Upsert(ctx, res)
//	})
package resources
