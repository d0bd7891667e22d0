package rpcevent

import (
	"testing"

	"github.com/glowsphere/glowsphere/pkg/core/block"
	"github.com/glowsphere/glowsphere/pkg/core/mempoolevent"
	"github.com/glowsphere/glowsphere/pkg/core/state"
	"github.com/glowsphere/glowsphere/pkg/core/transaction"
	"github.com/glowsphere/glowsphere/pkg/crypto/keys"
	"github.com/glowsphere/glowsphere/pkg/smartcontract"
	"github.com/glowsphere/glowsphere/pkg/sphererpc"
	"github.com/glowsphere/glowsphere/pkg/util"
	"github.com/stretchr/testify/require"
)

type (
	testComparator struct {
		id     sphererpc.EventID
		filter any
	}
	testContainer struct {
		id  sphererpc.EventID
		pld any
	}
)

func (c testComparator) EventID() sphererpc.EventID {
	return c.id
}
func (c testComparator) Filter() any {
	return c.filter
}
func (c testContainer) EventID() sphererpc.EventID {
	return c.id
}
func (c testContainer) EventPayload() any {
	return c.pld
}

func TestMatches(t *testing.T) {
	since, till := uint32(3), uint32(5)
	badSince := uint32(6)
	sender := util.Uint160{1, 2, 3}
	badSender := util.Uint160{9, 9, 9}
	method := "like-routine"
	badMethod := "follow-user"
	okState, faultState := sphererpc.ExecutionOK, sphererpc.ExecutionFault
	added, removed := "added", "removed"

	priv := keys.NewPrivateKeyFromSeed("wallet_1")
	tx := transaction.New(method, nil, 1, 10)
	tx.Sign(priv)
	txSender := tx.SenderHash()

	bContainer := testContainer{
		id:  sphererpc.BlockEventID,
		pld: &block.Block{Header: block.Header{Index: 5}},
	}
	eContainer := testContainer{
		id: sphererpc.ExecutionEventID,
		pld: &state.Receipt{
			Sender:   sender,
			Method:   method,
			Response: smartcontract.NewOK(smartcontract.NewBool(true)),
		},
	}
	mContainer := testContainer{
		id:  sphererpc.MempoolEventID,
		pld: &mempoolevent.Event{Type: mempoolevent.TransactionAdded, Tx: tx},
	}
	testCases := []struct {
		name       string
		comparator testComparator
		container  testContainer
		expected   bool
	}{
		{
			name:       "ID mismatch",
			comparator: testComparator{id: sphererpc.BlockEventID},
			container:  eContainer,
			expected:   false,
		},
		{
			name:       "missing filter",
			comparator: testComparator{id: sphererpc.BlockEventID},
			container:  bContainer,
			expected:   true,
		},
		{
			name: "block, range match",
			comparator: testComparator{
				id:     sphererpc.BlockEventID,
				filter: sphererpc.BlockFilter{Since: &since, Till: &till},
			},
			container: bContainer,
			expected:  true,
		},
		{
			name: "block, since mismatch",
			comparator: testComparator{
				id:     sphererpc.BlockEventID,
				filter: sphererpc.BlockFilter{Since: &badSince},
			},
			container: bContainer,
			expected:  false,
		},
		{
			name: "execution, full match",
			comparator: testComparator{
				id:     sphererpc.ExecutionEventID,
				filter: sphererpc.ExecutionFilter{Sender: &sender, Method: &method, State: &okState},
			},
			container: eContainer,
			expected:  true,
		},
		{
			name: "execution, sender mismatch",
			comparator: testComparator{
				id:     sphererpc.ExecutionEventID,
				filter: sphererpc.ExecutionFilter{Sender: &badSender},
			},
			container: eContainer,
			expected:  false,
		},
		{
			name: "execution, method mismatch",
			comparator: testComparator{
				id:     sphererpc.ExecutionEventID,
				filter: sphererpc.ExecutionFilter{Method: &badMethod},
			},
			container: eContainer,
			expected:  false,
		},
		{
			name: "execution, state mismatch",
			comparator: testComparator{
				id:     sphererpc.ExecutionEventID,
				filter: sphererpc.ExecutionFilter{State: &faultState},
			},
			container: eContainer,
			expected:  false,
		},
		{
			name: "mempool, match",
			comparator: testComparator{
				id:     sphererpc.MempoolEventID,
				filter: sphererpc.MempoolEventFilter{Sender: &txSender, Type: &added},
			},
			container: mContainer,
			expected:  true,
		},
		{
			name: "mempool, type mismatch",
			comparator: testComparator{
				id:     sphererpc.MempoolEventID,
				filter: sphererpc.MempoolEventFilter{Type: &removed},
			},
			container: mContainer,
			expected:  false,
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.expected, Matches(tc.comparator, tc.container))
		})
	}
}

func TestReceiptState(t *testing.T) {
	require.Equal(t, sphererpc.ExecutionOK, ReceiptState(&state.Receipt{Response: smartcontract.NewOK(smartcontract.None())}))
	require.Equal(t, sphererpc.ExecutionErr, ReceiptState(&state.Receipt{Response: smartcontract.NewErr(101)}))
	require.Equal(t, sphererpc.ExecutionFault, ReceiptState(&state.Receipt{FaultException: "boom"}))
}
