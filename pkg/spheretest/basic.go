package spheretest

import (
	"testing"

	"github.com/glowsphere/glowsphere/pkg/core"
	"github.com/glowsphere/glowsphere/pkg/core/block"
	"github.com/glowsphere/glowsphere/pkg/core/state"
	"github.com/glowsphere/glowsphere/pkg/core/transaction"
	"github.com/glowsphere/glowsphere/pkg/smartcontract"
	"github.com/glowsphere/glowsphere/pkg/util"
	"github.com/stretchr/testify/require"
)

// Executor is a wrapper over chain state.
type Executor struct {
	Chain    *core.Blockchain
	Deployer Signer
}

// NewExecutor creates a new executor instance from the provided blockchain.
// The deployer account is the well-known "deployer" one.
func NewExecutor(t testing.TB, bc *core.Blockchain) *Executor {
	require.NotNil(t, bc)
	return &Executor{
		Chain:    bc,
		Deployer: Account("deployer"),
	}
}

// TopBlock returns the block with the highest index.
func (e *Executor) TopBlock(t testing.TB) *block.Block {
	b, err := e.Chain.GetBlock(e.Chain.CurrentBlockHash())
	require.NoError(t, err)
	return b
}

// NewTx creates a new transaction calling the method with the given
// arguments signed by the signer. The transaction stays valid for the
// maximum number of blocks allowed.
func (e *Executor) NewTx(t testing.TB, signer Signer, method string, args ...any) *transaction.Transaction {
	params, err := smartcontract.NewParametersFromValues(args...)
	require.NoError(t, err)
	vub := e.Chain.BlockHeight() + e.Chain.GetConfig().MaxValidUntilBlockIncrement - 1
	tx := transaction.New(method, params, Nonce(), vub)
	signer.SignTx(tx)
	return tx
}

// AddNewBlock creates a new block with the specified transactions and adds
// it to the chain.
func (e *Executor) AddNewBlock(t testing.TB, txs ...*transaction.Transaction) *block.Block {
	b, err := e.Chain.MineBlock(txs...)
	require.NoError(t, err)
	return b
}

// GetReceipt returns the receipt of the included transaction.
func (e *Executor) GetReceipt(t testing.TB, h util.Uint256) *state.Receipt {
	r, err := e.Chain.GetReceipt(h)
	require.NoError(t, err)
	return r
}

// CheckOK checks that the transaction was executed with an ok response
// holding the expected value. Expected can be anything accepted by
// smartcontract.NewParameterFromValue or nil to skip the value check.
func (e *Executor) CheckOK(t testing.TB, h util.Uint256, expected any) *state.Receipt {
	r := e.GetReceipt(t, h)
	require.True(t, r.Succeeded(), "%s: %s %s", r.Method, r.Response, r.FaultException)
	if expected != nil {
		p, err := smartcontract.NewParameterFromValue(expected)
		require.NoError(t, err)
		require.Equal(t, p, r.Response.Value)
	}
	return r
}

// CheckErr checks that the transaction was executed with an error response
// carrying the given code and that it has emitted nothing.
func (e *Executor) CheckErr(t testing.TB, h util.Uint256, code uint64) *state.Receipt {
	r := e.GetReceipt(t, h)
	require.False(t, r.IsFault(), r.FaultException)
	c, isErr := r.Response.ErrorCode()
	require.True(t, isErr, "%s: %s", r.Method, r.Response)
	require.Equal(t, code, c)
	require.Empty(t, r.Events)
	return r
}

// CheckFault checks that the transaction couldn't be executed and its fault
// message contains the given substring.
func (e *Executor) CheckFault(t testing.TB, h util.Uint256, s string) *state.Receipt {
	r := e.GetReceipt(t, h)
	require.True(t, r.IsFault(), "%s: %s", r.Method, r.Response)
	require.Contains(t, r.FaultException, s)
	return r
}

// Invoker returns a contract invoker acting on behalf of the signer.
func (e *Executor) Invoker(s Signer) *ContractInvoker {
	return &ContractInvoker{Executor: e, Signer: s}
}

// DeployerInvoker returns a contract invoker acting on behalf of the deployer.
func (e *Executor) DeployerInvoker() *ContractInvoker {
	return e.Invoker(e.Deployer)
}
