// Package memory keeps the index build inside the process's memory budget.
//
// The name index lives entirely in memory and grows with every entry a walk
// records, so a large volume can push a container past its limit. The package
// does two things about it:
//
//   - [Configure] sets GOMEMLIMIT from a container limit (MEMORY_LIMIT, as
//     passed by the Kubernetes Downward API) scaled by MEMORY_RATIO, unless
//     GOMEMLIMIT is already set in the environment.
//   - [Monitor] samples heap usage against that limit. Above the critical
//     mark it pauses walk workers (see indexer.ParallelWalkerConfig.Memory)
//     and forces a GC; they resume once usage drops below the high mark.
//
// With no limit configured the monitor is inert and never pauses.
//
// Kubernetes example:
//
//	env:
//	- name: MEMORY_LIMIT
//	  valueFrom:
//	    resourceFieldRef:
//	      resource: limits.memory
//	- name: MEMORY_RATIO
//	  value: "0.9"
package memory
