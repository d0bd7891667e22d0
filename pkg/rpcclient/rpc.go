package rpcclient

import (
	"encoding/base64"
	"errors"
	"fmt"
	"math/rand"

	"github.com/glowsphere/glowsphere/pkg/core/block"
	"github.com/glowsphere/glowsphere/pkg/core/state"
	"github.com/glowsphere/glowsphere/pkg/core/transaction"
	"github.com/glowsphere/glowsphere/pkg/crypto/keys"
	"github.com/glowsphere/glowsphere/pkg/encoding/address"
	"github.com/glowsphere/glowsphere/pkg/smartcontract"
	"github.com/glowsphere/glowsphere/pkg/smartcontract/manifest"
	"github.com/glowsphere/glowsphere/pkg/sphererpc/result"
	"github.com/glowsphere/glowsphere/pkg/util"
)

// GetBestBlockHash returns the hash of the tallest block in the blockchain.
func (c *Client) GetBestBlockHash() (util.Uint256, error) {
	var resp = util.Uint256{}
	if err := c.performRequest("getbestblockhash", nil, &resp); err != nil {
		return resp, err
	}
	return resp, nil
}

// GetBlockCount returns the number of blocks in the blockchain.
func (c *Client) GetBlockCount() (uint32, error) {
	var resp uint32
	if err := c.performRequest("getblockcount", nil, &resp); err != nil {
		return resp, err
	}
	return resp, nil
}

// GetBlockByIndex returns a block by its height.
func (c *Client) GetBlockByIndex(index uint32) (*block.Block, error) {
	return c.getBlock(index)
}

// GetBlockByHash returns a block by its hash.
func (c *Client) GetBlockByHash(hash util.Uint256) (*block.Block, error) {
	return c.getBlock(hash.String())
}

func (c *Client) getBlock(param any) (*block.Block, error) {
	var resp []byte
	if err := c.performRequest("getblock", []any{param}, &resp); err != nil {
		return nil, err
	}
	return block.NewBlockFromBytes(resp)
}

// GetBlockByIndexVerbose returns a block wrapper with additional metadata by
// its height.
func (c *Client) GetBlockByIndexVerbose(index uint32) (*result.Block, error) {
	return c.getBlockVerbose(index)
}

// GetBlockByHashVerbose returns a block wrapper with additional metadata by
// its hash.
func (c *Client) GetBlockByHashVerbose(hash util.Uint256) (*result.Block, error) {
	return c.getBlockVerbose(hash.String())
}

func (c *Client) getBlockVerbose(param any) (*result.Block, error) {
	var resp = new(result.Block)
	if err := c.performRequest("getblock", []any{param, 1}, resp); err != nil {
		return nil, err
	}
	return resp, nil
}

// GetReceipt returns the execution receipt of the transaction with the given
// hash.
func (c *Client) GetReceipt(hash util.Uint256) (*state.Receipt, error) {
	var resp = new(state.Receipt)
	if err := c.performRequest("getreceipt", []any{hash.String()}, resp); err != nil {
		return nil, err
	}
	return resp, nil
}

// GetVersion returns the version information about the queried node.
func (c *Client) GetVersion() (*result.Version, error) {
	var resp = &result.Version{}
	if err := c.performRequest("getversion", nil, resp); err != nil {
		return nil, err
	}
	return resp, nil
}

// GetManifest returns the contract manifest.
func (c *Client) GetManifest() (*manifest.Manifest, error) {
	var resp = new(manifest.Manifest)
	if err := c.performRequest("getmanifest", nil, resp); err != nil {
		return nil, err
	}
	return resp, nil
}

// ValidateAddress verifies that the address is a correct GlowSphere address.
// Consider using the address package instead to do it locally.
func (c *Client) ValidateAddress(addr string) error {
	var resp = &result.ValidateAddress{}
	if err := c.performRequest("validateaddress", []any{addr}, resp); err != nil {
		return err
	}
	if !resp.IsValid {
		return errors.New("validateaddress returned false")
	}
	return nil
}

// InvokeFunction evaluates the contract method on the latest node state on
// behalf of the caller without persisting anything. A nil caller means an
// anonymous call.
func (c *Client) InvokeFunction(method string, args []smartcontract.Parameter, caller *util.Uint160) (*result.Invoke, error) {
	if args == nil {
		args = []smartcontract.Parameter{}
	}
	var (
		params = []any{method, args}
		resp   = new(result.Invoke)
	)
	if caller != nil {
		params = append(params, address.Uint160ToString(*caller))
	}
	if err := c.performRequest("invokefunction", params, resp); err != nil {
		return nil, err
	}
	return resp, nil
}

// GetRoutine returns the routine with the given id as seen by the caller. The
// result is a none parameter if the routine doesn't exist or is private.
func (c *Client) GetRoutine(id uint64, caller *util.Uint160) (smartcontract.Parameter, error) {
	params := []any{id}
	if caller != nil {
		params = append(params, address.Uint160ToString(*caller))
	}
	return c.getParameter("getroutine", params)
}

// IsFollowing checks whether follower follows followee.
func (c *Client) IsFollowing(follower, followee util.Uint160) (bool, error) {
	p, err := c.getParameter("isfollowing", []any{
		address.Uint160ToString(follower), address.Uint160ToString(followee)})
	if err != nil {
		return false, err
	}
	return p.GetBoolean()
}

// HasLiked checks whether the user liked the routine.
func (c *Client) HasLiked(user util.Uint160, id uint64) (bool, error) {
	p, err := c.getParameter("hasliked", []any{address.Uint160ToString(user), id})
	if err != nil {
		return false, err
	}
	return p.GetBoolean()
}

// GetProgressRecord returns the progress record of the user as seen by the
// caller. The result is a none parameter if there is no such record or the
// caller is not its owner. A nil caller means an anonymous call.
func (c *Client) GetProgressRecord(user util.Uint160, id uint64, caller *util.Uint160) (smartcontract.Parameter, error) {
	params := []any{address.Uint160ToString(user), id}
	if caller != nil {
		params = append(params, address.Uint160ToString(*caller))
	}
	return c.getParameter("getprogressrecord", params)
}

// GetUserStats returns the user counters.
func (c *Client) GetUserStats(user util.Uint160) (smartcontract.Parameter, error) {
	return c.getParameter("getuserstats", []any{address.Uint160ToString(user)})
}

func (c *Client) getParameter(method string, params []any) (smartcontract.Parameter, error) {
	var resp smartcontract.Parameter
	if err := c.performRequest(method, params, &resp); err != nil {
		return smartcontract.Parameter{}, err
	}
	return resp, nil
}

// SendRawTransaction broadcasts the given transaction to the node's
// mempool.
func (c *Client) SendRawTransaction(tx *transaction.Transaction) (util.Uint256, error) {
	var (
		params = []any{base64.StdEncoding.EncodeToString(tx.Bytes())}
		resp   = new(result.RelayResult)
	)
	if err := c.performRequest("sendtransaction", params, resp); err != nil {
		return util.Uint256{}, err
	}
	return resp.Hash, nil
}

// CalculateValidUntilBlock calculates ValidUntilBlock field for a transaction
// as the highest block index the node accepts. Init must be called before.
func (c *Client) CalculateValidUntilBlock() (uint32, error) {
	c.cacheLock.RLock()
	initDone := c.cache.initDone
	increment := c.cache.version.Protocol.MaxValidUntilBlockIncrement
	c.cacheLock.RUnlock()
	if !initDone {
		return 0, errNotInitialized
	}
	blockCount, err := c.GetBlockCount()
	if err != nil {
		return 0, fmt.Errorf("can't get block count: %w", err)
	}
	return blockCount - 1 + increment, nil
}

// SignAndPushTx creates a transaction calling the method with the given
// arguments, signs it with the key and sends it to the node.
func (c *Client) SignAndPushTx(priv *keys.PrivateKey, method string, args ...smartcontract.Parameter) (*transaction.Transaction, error) {
	vub, err := c.CalculateValidUntilBlock()
	if err != nil {
		return nil, err
	}
	if args == nil {
		args = []smartcontract.Parameter{}
	}
	tx := transaction.New(method, args, rand.Uint32(), vub)
	tx.Sign(priv)
	if _, err := c.SendRawTransaction(tx); err != nil {
		return nil, fmt.Errorf("failed to send transaction: %w", err)
	}
	return tx, nil
}
