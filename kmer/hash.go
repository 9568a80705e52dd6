package kmer

import (
	"encoding/binary"

	farm "github.com/dgryski/go-farm"
	"github.com/minio/highwayhash"
)

// highwayKey is a fixed, non-secret 32-byte key: HighwayHash here is
// used purely as a stronger integer mixer for bucket distribution,
// not as a keyed MAC, so a constant key is appropriate.
var highwayKey = make([]byte, 32)

// FarmHash is an alternative Hasher for callers who want a stronger
// mixer than Identity over the packed k-mer integer.
func FarmHash(km uint64) uint64 {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], km)
	return farm.Hash64(buf[:])
}

// HighwayHash is an alternative Hasher built on
// github.com/minio/highwayhash.
func HighwayHash(km uint64) uint64 {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], km)
	h, err := highwayhash.New64(highwayKey)
	if err != nil {
		return Identity(km)
	}
	_, _ = h.Write(buf[:])
	return h.Sum64()
}
