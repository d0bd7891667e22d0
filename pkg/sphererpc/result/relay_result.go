package result

import "github.com/glowsphere/glowsphere/pkg/util"

// RelayResult is a result of `sendtransaction` RPC call.
type RelayResult struct {
	Hash util.Uint256 `json:"hash"`
}
