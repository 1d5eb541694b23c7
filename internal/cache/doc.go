/*
Package cache holds the in-memory name index of every indexed volume and
persists it as a single JSON snapshot.

# Model

A Store maps a volume ID (the volume's root mount path) to a Bucket. A Bucket
maps a base name to every CachedEntry with that name anywhere on the volume.
Entries under one name are in insertion order, which for a parallel walk is
arbitrary; callers must not rely on it.

# Locking

The Store's lock guards the volume map. Each Bucket has its own mutex, so
inserts into one bucket are atomic with respect to each other and never
contend with lookups on other volumes. Save holds the Store lock for the whole
encode-and-write, and copies each bucket under that bucket's lock, so the
snapshot is never torn by a concurrent Put or Load.

# Snapshot Format

	{
	  "version": 1,
	  "volumes": {
	    "/": {
	      "x.txt": [{"file_path": "/a/x.txt", "file_type": "file"}],
	      "y":     [{"file_path": "/a/y",     "file_type": "directory"}]
	    }
	  }
	}

A document without a version field is version 0. The bare
volume -> name -> entries map written by earlier releases is also read as
version 0. Saves always write the current version and replace the file
through a rename, so readers never see a half-written snapshot.
*/
package cache
