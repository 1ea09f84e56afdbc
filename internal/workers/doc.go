/*
Package workers sizes the search shard pool.

Go sets GOMAXPROCS from the container CPU limit, while runtime.NumCPU
reports the host's CPU count. The helpers here derive worker counts from
GOMAXPROCS so that a daemon running under a 2 CPU limit on a 64 core host
builds 2 shards, not 64.

	// One shard per available CPU, at most 8
	n := workers.ForCPU(8)

	// Never make shards smaller than 5000 basenames
	n := workers.ForShards(len(basenames), 5000, 8)

Operators can pin the count with the SEARCH_SHARDS environment variable:

	SEARCH_SHARDS=2 quickopen
*/
package workers
