package hash

import (
	"github.com/glowsphere/glowsphere/pkg/util"
)

// CalcMerkleRoot calculates the Merkle root hash value for the given slice of
// hashes. It doesn't create a full MerkleTree structure and it uses the given
// slice as a scratchpad, so it will destroy its contents in the process. The
// odd node of every level is paired with itself. An empty slice gives zero
// hash.
func CalcMerkleRoot(hashes []util.Uint256) util.Uint256 {
	if len(hashes) == 0 {
		return util.Uint256{}
	}
	if len(hashes) == 1 {
		return hashes[0]
	}

	scratch := make([]byte, 64)
	parents := hashes[:(len(hashes)+1)/2]
	for i := range parents {
		copy(scratch, hashes[i*2][:])

		if i*2+1 == len(hashes) {
			copy(scratch[32:], hashes[i*2][:])
		} else {
			copy(scratch[32:], hashes[i*2+1][:])
		}

		parents[i] = DoubleSha256(scratch)
	}

	return CalcMerkleRoot(parents)
}
