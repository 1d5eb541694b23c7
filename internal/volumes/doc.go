// Package volumes enumerates mounted volumes and resolves the user's
// well-known folders.
//
// Enumeration uses gopsutil: physical partitions only, with capacity from a
// statfs of each mount point. Pseudo and network filesystems that gopsutil
// reports as non-physical are left out. Folder resolution uses the XDG user
// directories on unix, and the known-folder equivalents on windows and macOS.
package volumes
