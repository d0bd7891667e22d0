package state

import (
	"encoding/json"
	"testing"

	"github.com/glowsphere/glowsphere/pkg/io"
	"github.com/glowsphere/glowsphere/pkg/smartcontract"
	"github.com/glowsphere/glowsphere/pkg/util"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func encodeDecode(t *testing.T, expected, actual io.Serializable) {
	bw := io.NewBufBinWriter()
	expected.EncodeBinary(bw.BinWriter)
	require.NoError(t, bw.Err)

	r := io.NewBinReaderFromBuf(bw.Bytes())
	actual.DecodeBinary(r)
	require.NoError(t, r.Err)
	require.Equal(t, expected, actual)
}

func TestRoutine(t *testing.T) {
	creator := util.Uint160{1, 2, 3}
	r := &Routine{
		ID:          1,
		Creator:     creator,
		Name:        "Morning Routine",
		Description: "My daily morning skincare routine",
		Products:    []string{"Cleanser", "Toner", "Moisturizer"},
		IsPublic:    false,
		Likes:       3,
		CreatedAt:   7,
	}
	encodeDecode(t, r, new(Routine))

	assert.True(t, r.VisibleTo(creator))
	assert.False(t, r.VisibleTo(util.Uint160{4}))
	r.IsPublic = true
	assert.True(t, r.VisibleTo(util.Uint160{4}))

	p := r.ToParameter()
	name, ok := p.MapValue("name")
	require.True(t, ok)
	assert.Equal(t, smartcontract.NewString("Morning Routine"), name)
	likes, ok := p.MapValue("likes")
	require.True(t, ok)
	assert.Equal(t, smartcontract.NewInteger(3), likes)
	products, ok := p.MapValue("products")
	require.True(t, ok)
	arr, err := products.GetArray()
	require.NoError(t, err)
	assert.Len(t, arr, 3)
}

func TestRoutineTooManyProducts(t *testing.T) {
	r := &Routine{Products: make([]string, MaxProducts+1)}
	bw := io.NewBufBinWriter()
	r.EncodeBinary(bw.BinWriter)
	require.NoError(t, bw.Err)

	br := io.NewBinReaderFromBuf(bw.Bytes())
	new(Routine).DecodeBinary(br)
	require.Error(t, br.Err)
}

func TestProgressRecordAndStats(t *testing.T) {
	rec := &ProgressRecord{RoutineID: 1, Notes: "Skin feels great", PhotoHash: "QmHash", Timestamp: 4}
	encodeDecode(t, rec, new(ProgressRecord))
	notes, ok := rec.ToParameter().MapValue("notes")
	require.True(t, ok)
	assert.Equal(t, smartcontract.NewString("Skin feels great"), notes)

	st := &UserStats{Routines: 1, Followers: 2, Following: 3, Records: 4}
	encodeDecode(t, st, new(UserStats))
	f, ok := st.ToParameter().MapValue("following")
	require.True(t, ok)
	assert.Equal(t, smartcontract.NewInteger(3), f)
}

func TestReceipt(t *testing.T) {
	r := &Receipt{
		TxHash:     util.Uint256{1, 2, 3},
		BlockIndex: 10,
		Method:     "like-routine",
		Sender:     util.Uint160{5, 6},
		Response:   smartcontract.NewOK(smartcontract.NewBool(true)),
		Events: []NotificationEvent{{
			Name: "routine-liked",
			Item: []smartcontract.Parameter{smartcontract.NewInteger(1), smartcontract.NewHash160(util.Uint160{5, 6})},
		}},
	}
	encodeDecode(t, r, new(Receipt))
	assert.True(t, r.Succeeded())
	assert.False(t, r.IsFault())

	data, err := json.Marshal(r)
	require.NoError(t, err)
	actual := new(Receipt)
	require.NoError(t, json.Unmarshal(data, actual))
	require.Equal(t, r, actual)

	fault := &Receipt{
		TxHash:         util.Uint256{7},
		Method:         "unknown",
		Response:       smartcontract.Response{Value: smartcontract.None()},
		Events:         []NotificationEvent{},
		FaultException: "method not found",
	}
	encodeDecode(t, fault, new(Receipt))
	assert.True(t, fault.IsFault())
	assert.False(t, fault.Succeeded())
}
