package glowsphere

import (
	"errors"

	"github.com/glowsphere/glowsphere/pkg/core/state"
	"github.com/glowsphere/glowsphere/pkg/smartcontract"
)

func (c *Contract) createRoutine(ic *Context, args []smartcontract.Parameter) (smartcontract.Parameter, error) {
	name, err := toASCII(args[0], 1, MaxNameLen)
	if err != nil {
		return smartcontract.Parameter{}, err
	}
	description, err := toASCII(args[1], 0, MaxDescriptionLen)
	if err != nil {
		return smartcontract.Parameter{}, err
	}
	products, err := toProducts(args[2])
	if err != nil {
		return smartcontract.Parameter{}, err
	}
	isPublic, err := toBool(args[3])
	if err != nil {
		return smartcontract.Parameter{}, err
	}

	last, err := getUint64(ic.Store, routineCountKey)
	if err != nil {
		return smartcontract.Parameter{}, err
	}
	r := &state.Routine{
		ID:          last + 1,
		Creator:     ic.Caller,
		Name:        name,
		Description: description,
		Products:    products,
		IsPublic:    isPublic,
		CreatedAt:   ic.BlockIndex,
	}
	if err := putConvertible(ic.Store, routineKey(r.ID), r); err != nil {
		return smartcontract.Parameter{}, err
	}
	putUint64(ic.Store, routineCountKey, r.ID)
	err = updateStats(ic.Store, ic.Caller, func(st *state.UserStats) {
		st.Routines++
	})
	if err != nil {
		return smartcontract.Parameter{}, err
	}
	err = ic.Notify(EventRoutineCreated, smartcontract.NewInteger(r.ID), smartcontract.NewHash160(ic.Caller))
	if err != nil {
		return smartcontract.Parameter{}, err
	}
	return smartcontract.NewInteger(r.ID), nil
}

// visibleRoutine returns the routine if it exists and the caller can see it.
func visibleRoutine(ic *Context, arg smartcontract.Parameter) (*state.Routine, error) {
	id, err := toUint(arg)
	if err != nil {
		return nil, err
	}
	r, err := loadRoutine(ic.Store, id)
	if err != nil {
		return nil, err
	}
	if !r.VisibleTo(ic.Caller) {
		return nil, ErrNotAuthorized
	}
	return r, nil
}

func (c *Contract) likeRoutine(ic *Context, args []smartcontract.Parameter) (smartcontract.Parameter, error) {
	r, err := visibleRoutine(ic, args[0])
	if err != nil {
		return smartcontract.Parameter{}, err
	}
	key := likeKey(ic.Caller, r.ID)
	liked, err := hasFlag(ic.Store, key)
	if err != nil {
		return smartcontract.Parameter{}, err
	}
	if liked {
		return smartcontract.Parameter{}, ErrAlreadyExists
	}
	setFlag(ic.Store, key)
	r.Likes++
	if err := putConvertible(ic.Store, routineKey(r.ID), r); err != nil {
		return smartcontract.Parameter{}, err
	}
	err = ic.Notify(EventRoutineLiked, smartcontract.NewInteger(r.ID), smartcontract.NewHash160(ic.Caller))
	if err != nil {
		return smartcontract.Parameter{}, err
	}
	return smartcontract.NewBool(true), nil
}

func (c *Contract) unlikeRoutine(ic *Context, args []smartcontract.Parameter) (smartcontract.Parameter, error) {
	id, err := toUint(args[0])
	if err != nil {
		return smartcontract.Parameter{}, err
	}
	r, err := loadRoutine(ic.Store, id)
	if err != nil {
		return smartcontract.Parameter{}, err
	}
	key := likeKey(ic.Caller, r.ID)
	liked, err := hasFlag(ic.Store, key)
	if err != nil {
		return smartcontract.Parameter{}, err
	}
	if !liked {
		return smartcontract.Parameter{}, ErrNotLiked
	}
	ic.Store.Delete(key)
	r.Likes--
	if err := putConvertible(ic.Store, routineKey(r.ID), r); err != nil {
		return smartcontract.Parameter{}, err
	}
	err = ic.Notify(EventRoutineUnliked, smartcontract.NewInteger(r.ID), smartcontract.NewHash160(ic.Caller))
	if err != nil {
		return smartcontract.Parameter{}, err
	}
	return smartcontract.NewBool(true), nil
}

func (c *Contract) setRoutineVisibility(ic *Context, args []smartcontract.Parameter) (smartcontract.Parameter, error) {
	id, err := toUint(args[0])
	if err != nil {
		return smartcontract.Parameter{}, err
	}
	isPublic, err := toBool(args[1])
	if err != nil {
		return smartcontract.Parameter{}, err
	}
	r, err := loadRoutine(ic.Store, id)
	if err != nil {
		return smartcontract.Parameter{}, err
	}
	if !r.Creator.Equals(ic.Caller) {
		return smartcontract.Parameter{}, ErrNotAuthorized
	}
	r.IsPublic = isPublic
	if err := putConvertible(ic.Store, routineKey(r.ID), r); err != nil {
		return smartcontract.Parameter{}, err
	}
	err = ic.Notify(EventVisibilityChanged, smartcontract.NewInteger(r.ID), smartcontract.NewBool(isPublic))
	if err != nil {
		return smartcontract.Parameter{}, err
	}
	return smartcontract.NewBool(true), nil
}

// getRoutine returns the routine tuple or none if it doesn't exist or is
// private and the caller isn't its creator.
func (c *Contract) getRoutine(ic *Context, args []smartcontract.Parameter) (smartcontract.Parameter, error) {
	r, err := visibleRoutine(ic, args[0])
	if errors.Is(err, ErrNotFound) || errors.Is(err, ErrNotAuthorized) {
		return smartcontract.None(), nil
	}
	if err != nil {
		return smartcontract.Parameter{}, err
	}
	return r.ToParameter(), nil
}

func (c *Contract) hasLikedRoutine(ic *Context, args []smartcontract.Parameter) (smartcontract.Parameter, error) {
	u, err := toPrincipal(args[0])
	if err != nil {
		return smartcontract.Parameter{}, err
	}
	id, err := toUint(args[1])
	if err != nil {
		return smartcontract.Parameter{}, err
	}
	liked, err := hasFlag(ic.Store, likeKey(u, id))
	if err != nil {
		return smartcontract.Parameter{}, err
	}
	return smartcontract.NewBool(liked), nil
}

func (c *Contract) getRoutineCount(ic *Context, _ []smartcontract.Parameter) (smartcontract.Parameter, error) {
	n, err := getUint64(ic.Store, routineCountKey)
	if err != nil {
		return smartcontract.Parameter{}, err
	}
	return smartcontract.NewInteger(n), nil
}
