// Command volumectl inspects and maintains the volume index snapshot
// outside the running server.
//
// Usage:
//
//	volumectl [--snapshot PATH] <command>
//
// Commands:
//
//	inspect [-o FORMAT]  Per-volume name and entry counts of the snapshot.
//	search NAME          Exact-name lookup across volumes, or one with --volume.
//	                     -o json or -o yaml prints the matches structured.
//	ls PATH              Immediate children of a directory, directories first.
//	build [--root DIR]   Walk volumes (or only the given roots) and write a
//	                     fresh snapshot.
//	reset [--yes]        Delete the snapshot so the server rebuilds on its
//	                     next start. Asks for confirmation on a terminal.
//	env                  Describe the server's environment variables.
//
// Environment:
//
//	SNAPSHOT_PATH - Default for --snapshot (default: ./disk_cache.json)
//	CONFIG_PATH   - Optional YAML config file read like the server does
//
// The server loads the snapshot only when it starts, so a build or reset
// takes effect on the next start.
package main
