package spheretest

import (
	"testing"

	"github.com/glowsphere/glowsphere/pkg/core/transaction"
	"github.com/glowsphere/glowsphere/pkg/smartcontract"
	"github.com/glowsphere/glowsphere/pkg/util"
	"github.com/stretchr/testify/require"
)

// ContractInvoker is a client for the contract bound to a single signer.
type ContractInvoker struct {
	*Executor
	Signer Signer
}

// WithSigner creates a new client with the provided signer.
func (c *ContractInvoker) WithSigner(s Signer) *ContractInvoker {
	return &ContractInvoker{Executor: c.Executor, Signer: s}
}

// PrepareInvoke creates a new signed transaction calling the method.
func (c *ContractInvoker) PrepareInvoke(t testing.TB, method string, args ...any) *transaction.Transaction {
	return c.NewTx(t, c.Signer, method, args...)
}

// Invoke invokes the method in a new block and checks that it returns an ok
// response with the expected value (nil expected skips the value check).
func (c *ContractInvoker) Invoke(t testing.TB, expected any, method string, args ...any) util.Uint256 {
	tx := c.PrepareInvoke(t, method, args...)
	c.AddNewBlock(t, tx)
	c.CheckOK(t, tx.Hash(), expected)
	return tx.Hash()
}

// InvokeFail invokes the method in a new block and checks that it returns an
// error response with the given code.
func (c *ContractInvoker) InvokeFail(t testing.TB, code uint64, method string, args ...any) util.Uint256 {
	tx := c.PrepareInvoke(t, method, args...)
	c.AddNewBlock(t, tx)
	c.CheckErr(t, tx.Hash(), code)
	return tx.Hash()
}

// InvokeRead evaluates the method on the latest state on behalf of the
// signer without creating a transaction and returns the value of its ok
// response.
func (c *ContractInvoker) InvokeRead(t testing.TB, method string, args ...any) smartcontract.Parameter {
	params, err := smartcontract.NewParametersFromValues(args...)
	require.NoError(t, err)
	r, err := c.Chain.CallReadOnly(c.Signer.Principal(), method, params...)
	require.NoError(t, err)
	require.True(t, r.Response.OK, "%s: %s", method, r.Response)
	return r.Response.Value
}

// Call is a single contract call to be mined with others by Mine.
type Call struct {
	Signer Signer
	Method string
	Args   []any
}

// Mine puts all calls into a single block in the given order and returns
// the hashes of their transactions. Calls without a signer use the
// invoker's one.
func (c *ContractInvoker) Mine(t testing.TB, calls ...Call) []util.Uint256 {
	var (
		txs    = make([]*transaction.Transaction, len(calls))
		hashes = make([]util.Uint256, len(calls))
	)
	for i, call := range calls {
		s := call.Signer
		if s == nil {
			s = c.Signer
		}
		txs[i] = c.NewTx(t, s, call.Method, call.Args...)
		hashes[i] = txs[i].Hash()
	}
	c.AddNewBlock(t, txs...)
	return hashes
}
