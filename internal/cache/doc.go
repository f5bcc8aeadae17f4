// Package cache holds fixed-size blocks of remote matrix files in memory.
//
// When a matrix lives on object storage, the same row blocks are read again
// on every pass of an iterative algorithm. LRUBlockCache keeps recently read
// storage blocks (not matrix row blocks; storage blocks are a fixed byte
// granularity chosen by the caching blob store) and charges their bytes to a
// resource.Controller so cached data competes fairly with in-flight reads.
package cache
