/*
Package disks reports mounted disks and serves name queries against the
volume index, building or loading that index on first use.

The first call to Disks decides, once per process, how the index is
populated:

  - If a snapshot file exists it is loaded, and no volume is walked, not even
    one that is missing from the snapshot.
  - If loading fails the error is logged and the service builds instead.
  - If no snapshot exists an empty one is created, every enumerated volume is
    walked in turn into its own bucket, and the index is saved once.

After that the service is Loaded or Built for the rest of the process and
later calls only re-enumerate disks. Concurrent first calls wait for the one
initialization that runs.

Initialization runs under the service lifetime (Config.Lifetime), not under
the caller's context. A caller whose context ends stops waiting and gets the
context error, while the build carries on for the callers that follow. Only
cancelling the lifetime at shutdown abandons a build: nothing is published,
the unfinished snapshot file is removed and the state stays Uninitialized. Deleting the snapshot (volumectl reset) is how a
volume attached later gets indexed on the next start.
*/
package disks
