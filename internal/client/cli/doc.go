// Package cli provides the interactive OrgKeeper command-line client.
//
// It wires configuration, the local store, the API client and the sync
// services behind a small REPL that keeps working offline. Typical flow:
// log in (online, falling back to the cached keyring), let the first sync
// run, then browse resources or edit their permissions.
//
// Commands:
//   - login / logout
//   - sync, status
//   - list, show <id>, folders
//   - share <id>, which opens a sub-prompt collecting permission changes
//     until they are submitted in one request
//
// The REPL is started via App.Root(ctx), which blocks until the user exits.
package cli
