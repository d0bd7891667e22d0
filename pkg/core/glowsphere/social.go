package glowsphere

import (
	"github.com/glowsphere/glowsphere/pkg/core/state"
	"github.com/glowsphere/glowsphere/pkg/smartcontract"
)

func (c *Contract) followUser(ic *Context, args []smartcontract.Parameter) (smartcontract.Parameter, error) {
	user, err := toPrincipal(args[0])
	if err != nil {
		return smartcontract.Parameter{}, err
	}
	if user.Equals(ic.Caller) {
		return smartcontract.Parameter{}, ErrSelfFollow
	}
	key := followKey(ic.Caller, user)
	following, err := hasFlag(ic.Store, key)
	if err != nil {
		return smartcontract.Parameter{}, err
	}
	if following {
		return smartcontract.Parameter{}, ErrAlreadyExists
	}
	setFlag(ic.Store, key)
	err = updateStats(ic.Store, ic.Caller, func(st *state.UserStats) { st.Following++ })
	if err != nil {
		return smartcontract.Parameter{}, err
	}
	err = updateStats(ic.Store, user, func(st *state.UserStats) { st.Followers++ })
	if err != nil {
		return smartcontract.Parameter{}, err
	}
	err = ic.Notify(EventUserFollowed, smartcontract.NewHash160(ic.Caller), smartcontract.NewHash160(user))
	if err != nil {
		return smartcontract.Parameter{}, err
	}
	return smartcontract.NewBool(true), nil
}

func (c *Contract) unfollowUser(ic *Context, args []smartcontract.Parameter) (smartcontract.Parameter, error) {
	user, err := toPrincipal(args[0])
	if err != nil {
		return smartcontract.Parameter{}, err
	}
	key := followKey(ic.Caller, user)
	following, err := hasFlag(ic.Store, key)
	if err != nil {
		return smartcontract.Parameter{}, err
	}
	if !following {
		return smartcontract.Parameter{}, ErrNotLiked
	}
	ic.Store.Delete(key)
	err = updateStats(ic.Store, ic.Caller, func(st *state.UserStats) { st.Following-- })
	if err != nil {
		return smartcontract.Parameter{}, err
	}
	err = updateStats(ic.Store, user, func(st *state.UserStats) { st.Followers-- })
	if err != nil {
		return smartcontract.Parameter{}, err
	}
	err = ic.Notify(EventUserUnfollowed, smartcontract.NewHash160(ic.Caller), smartcontract.NewHash160(user))
	if err != nil {
		return smartcontract.Parameter{}, err
	}
	return smartcontract.NewBool(true), nil
}

func (c *Contract) isFollowing(ic *Context, args []smartcontract.Parameter) (smartcontract.Parameter, error) {
	follower, err := toPrincipal(args[0])
	if err != nil {
		return smartcontract.Parameter{}, err
	}
	followee, err := toPrincipal(args[1])
	if err != nil {
		return smartcontract.Parameter{}, err
	}
	following, err := hasFlag(ic.Store, followKey(follower, followee))
	if err != nil {
		return smartcontract.Parameter{}, err
	}
	return smartcontract.NewBool(following), nil
}

func (c *Contract) getUserStats(ic *Context, args []smartcontract.Parameter) (smartcontract.Parameter, error) {
	user, err := toPrincipal(args[0])
	if err != nil {
		return smartcontract.Parameter{}, err
	}
	st, err := loadStats(ic.Store, user)
	if err != nil {
		return smartcontract.Parameter{}, err
	}
	return st.ToParameter(), nil
}
