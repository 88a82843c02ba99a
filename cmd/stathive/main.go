// Stathive is a process-shared counter registry with a Prometheus exporter.
//
// It maintains a fixed-capacity table of named 64-bit counters in a
// memory-mapped region file that any number of cooperating processes can
// attach to, providing:
//   - Lock-protected get-or-create registration of named counters
//   - Atomic increment returning the previous value
//   - Consistent snapshots for enumeration and export
//   - A Prometheus exposition endpoint for the whole registry
//
// Usage:
//
//	# Initialize a region file
//	stathive init --max-entries 50
//
//	# Start the exporter server
//	stathive serve --config /path/to/config.yaml
//
//	# Increment a counter from a shell
//	stathive add requests_total 1
//
//	# List all counters
//	stathive list
//
//	# Show version information
//	stathive version
//
// For complete documentation, see: https://github.com/stathive-hq/stathive
package main

func main() {
	Execute()
}
