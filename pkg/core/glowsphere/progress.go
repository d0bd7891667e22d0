package glowsphere

import (
	"errors"

	"github.com/glowsphere/glowsphere/pkg/core/state"
	"github.com/glowsphere/glowsphere/pkg/core/storage"
	"github.com/glowsphere/glowsphere/pkg/smartcontract"
)

func (c *Contract) addProgressRecord(ic *Context, args []smartcontract.Parameter) (smartcontract.Parameter, error) {
	notes, err := toASCII(args[1], 0, MaxNotesLen)
	if err != nil {
		return smartcontract.Parameter{}, err
	}
	photo, err := toASCII(args[2], 1, MaxPhotoHashLen)
	if err != nil {
		return smartcontract.Parameter{}, err
	}
	r, err := visibleRoutine(ic, args[0])
	if err != nil {
		return smartcontract.Parameter{}, err
	}

	last, err := getUint64(ic.Store, recordCountKey(ic.Caller))
	if err != nil {
		return smartcontract.Parameter{}, err
	}
	id := last + 1
	rec := &state.ProgressRecord{
		RoutineID: r.ID,
		Notes:     notes,
		PhotoHash: photo,
		Timestamp: ic.BlockIndex,
	}
	if err := putConvertible(ic.Store, recordKey(ic.Caller, id), rec); err != nil {
		return smartcontract.Parameter{}, err
	}
	putUint64(ic.Store, recordCountKey(ic.Caller), id)
	err = updateStats(ic.Store, ic.Caller, func(st *state.UserStats) { st.Records++ })
	if err != nil {
		return smartcontract.Parameter{}, err
	}
	err = ic.Notify(EventProgressRecorded, smartcontract.NewHash160(ic.Caller),
		smartcontract.NewInteger(id), smartcontract.NewInteger(r.ID))
	if err != nil {
		return smartcontract.Parameter{}, err
	}
	return smartcontract.NewInteger(id), nil
}

// getProgressRecord returns the record tuple or none. Records are only
// visible to their owner.
func (c *Contract) getProgressRecord(ic *Context, args []smartcontract.Parameter) (smartcontract.Parameter, error) {
	user, err := toPrincipal(args[0])
	if err != nil {
		return smartcontract.Parameter{}, err
	}
	id, err := toUint(args[1])
	if err != nil {
		return smartcontract.Parameter{}, err
	}
	if !user.Equals(ic.Caller) {
		return smartcontract.None(), nil
	}
	rec := new(state.ProgressRecord)
	err = getConvertible(ic.Store, recordKey(user, id), rec)
	if errors.Is(err, storage.ErrKeyNotFound) {
		return smartcontract.None(), nil
	}
	if err != nil {
		return smartcontract.Parameter{}, err
	}
	return rec.ToParameter(), nil
}
