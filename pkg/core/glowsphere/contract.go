/*
Package glowsphere implements the GlowSphere contract: skincare routines,
likes, follows and per-user progress records. All state lives in the
provided Storage, the contract itself is stateless.
*/
package glowsphere

import (
	"errors"
	"fmt"

	"github.com/glowsphere/glowsphere/pkg/smartcontract"
	"github.com/glowsphere/glowsphere/pkg/smartcontract/manifest"
)

// Name is the contract name.
const Name = "glow-sphere"

// Method names.
const (
	MethodCreateRoutine        = "create-routine"
	MethodLikeRoutine          = "like-routine"
	MethodUnlikeRoutine        = "unlike-routine"
	MethodFollowUser           = "follow-user"
	MethodUnfollowUser         = "unfollow-user"
	MethodSetRoutineVisibility = "set-routine-visibility"
	MethodAddProgressRecord    = "add-progress-record"

	MethodGetRoutine        = "get-routine"
	MethodIsFollowing       = "is-following"
	MethodHasLikedRoutine   = "has-liked-routine"
	MethodGetProgressRecord = "get-progress-record"
	MethodGetUserStats      = "get-user-stats"
	MethodGetRoutineCount   = "get-routine-count"
)

// Notification names.
const (
	EventRoutineCreated    = "routine-created"
	EventRoutineLiked      = "routine-liked"
	EventRoutineUnliked    = "routine-unliked"
	EventUserFollowed      = "user-followed"
	EventUserUnfollowed    = "user-unfollowed"
	EventVisibilityChanged = "visibility-changed"
	EventProgressRecorded  = "progress-recorded"
)

// MethodFunc is a contract method implementation. Arguments are checked
// against the method descriptor before the call.
type MethodFunc func(ic *Context, args []smartcontract.Parameter) (smartcontract.Parameter, error)

// Method is a contract method with its descriptor.
type Method struct {
	MD   *manifest.Method
	Func MethodFunc
}

// Contract is the GlowSphere contract.
type Contract struct {
	methods  map[string]Method
	manifest *manifest.Manifest
}

// New returns the contract with all methods registered.
func New() *Contract {
	c := &Contract{
		methods:  make(map[string]Method),
		manifest: manifest.NewManifest(Name),
	}

	desc := newDescriptor(MethodCreateRoutine, smartcontract.IntegerType,
		manifest.NewParameter("name", smartcontract.StringType),
		manifest.NewParameter("description", smartcontract.StringType),
		manifest.NewParameter("products", smartcontract.ArrayType),
		manifest.NewParameter("is-public", smartcontract.BoolType))
	c.AddMethod(desc, c.createRoutine)

	desc = newDescriptor(MethodLikeRoutine, smartcontract.BoolType,
		manifest.NewParameter("routine-id", smartcontract.IntegerType))
	c.AddMethod(desc, c.likeRoutine)

	desc = newDescriptor(MethodUnlikeRoutine, smartcontract.BoolType,
		manifest.NewParameter("routine-id", smartcontract.IntegerType))
	c.AddMethod(desc, c.unlikeRoutine)

	desc = newDescriptor(MethodFollowUser, smartcontract.BoolType,
		manifest.NewParameter("user", smartcontract.Hash160Type))
	c.AddMethod(desc, c.followUser)

	desc = newDescriptor(MethodUnfollowUser, smartcontract.BoolType,
		manifest.NewParameter("user", smartcontract.Hash160Type))
	c.AddMethod(desc, c.unfollowUser)

	desc = newDescriptor(MethodSetRoutineVisibility, smartcontract.BoolType,
		manifest.NewParameter("routine-id", smartcontract.IntegerType),
		manifest.NewParameter("is-public", smartcontract.BoolType))
	c.AddMethod(desc, c.setRoutineVisibility)

	desc = newDescriptor(MethodAddProgressRecord, smartcontract.IntegerType,
		manifest.NewParameter("routine-id", smartcontract.IntegerType),
		manifest.NewParameter("notes", smartcontract.StringType),
		manifest.NewParameter("photo-hash", smartcontract.StringType))
	c.AddMethod(desc, c.addProgressRecord)

	desc = newSafeDescriptor(MethodGetRoutine, smartcontract.MapType,
		manifest.NewParameter("routine-id", smartcontract.IntegerType))
	c.AddMethod(desc, c.getRoutine)

	desc = newSafeDescriptor(MethodIsFollowing, smartcontract.BoolType,
		manifest.NewParameter("follower", smartcontract.Hash160Type),
		manifest.NewParameter("followee", smartcontract.Hash160Type))
	c.AddMethod(desc, c.isFollowing)

	desc = newSafeDescriptor(MethodHasLikedRoutine, smartcontract.BoolType,
		manifest.NewParameter("user", smartcontract.Hash160Type),
		manifest.NewParameter("routine-id", smartcontract.IntegerType))
	c.AddMethod(desc, c.hasLikedRoutine)

	desc = newSafeDescriptor(MethodGetProgressRecord, smartcontract.MapType,
		manifest.NewParameter("user", smartcontract.Hash160Type),
		manifest.NewParameter("record-id", smartcontract.IntegerType))
	c.AddMethod(desc, c.getProgressRecord)

	desc = newSafeDescriptor(MethodGetUserStats, smartcontract.MapType,
		manifest.NewParameter("user", smartcontract.Hash160Type))
	c.AddMethod(desc, c.getUserStats)

	desc = newSafeDescriptor(MethodGetRoutineCount, smartcontract.IntegerType)
	c.AddMethod(desc, c.getRoutineCount)

	c.addEvent(EventRoutineCreated,
		manifest.NewParameter("routine-id", smartcontract.IntegerType),
		manifest.NewParameter("creator", smartcontract.Hash160Type))
	c.addEvent(EventRoutineLiked,
		manifest.NewParameter("routine-id", smartcontract.IntegerType),
		manifest.NewParameter("user", smartcontract.Hash160Type))
	c.addEvent(EventRoutineUnliked,
		manifest.NewParameter("routine-id", smartcontract.IntegerType),
		manifest.NewParameter("user", smartcontract.Hash160Type))
	c.addEvent(EventUserFollowed,
		manifest.NewParameter("follower", smartcontract.Hash160Type),
		manifest.NewParameter("followee", smartcontract.Hash160Type))
	c.addEvent(EventUserUnfollowed,
		manifest.NewParameter("follower", smartcontract.Hash160Type),
		manifest.NewParameter("followee", smartcontract.Hash160Type))
	c.addEvent(EventVisibilityChanged,
		manifest.NewParameter("routine-id", smartcontract.IntegerType),
		manifest.NewParameter("is-public", smartcontract.BoolType))
	c.addEvent(EventProgressRecorded,
		manifest.NewParameter("user", smartcontract.Hash160Type),
		manifest.NewParameter("record-id", smartcontract.IntegerType),
		manifest.NewParameter("routine-id", smartcontract.IntegerType))

	return c
}

func newDescriptor(name string, ret smartcontract.ParamType, ps ...manifest.Parameter) *manifest.Method {
	if ps == nil {
		ps = []manifest.Parameter{}
	}
	return &manifest.Method{
		Name:       name,
		Parameters: ps,
		ReturnType: ret,
	}
}

func newSafeDescriptor(name string, ret smartcontract.ParamType, ps ...manifest.Parameter) *manifest.Method {
	md := newDescriptor(name, ret, ps...)
	md.Safe = true
	return md
}

// AddMethod adds a new method to the contract.
func (c *Contract) AddMethod(md *manifest.Method, f MethodFunc) {
	c.manifest.ABI.Methods = append(c.manifest.ABI.Methods, *md)
	c.methods[md.Name] = Method{MD: md, Func: f}
}

func (c *Contract) addEvent(name string, ps ...manifest.Parameter) {
	c.manifest.ABI.Events = append(c.manifest.ABI.Events, manifest.Event{
		Name:       name,
		Parameters: ps,
	})
}

// Manifest returns the contract manifest.
func (c *Contract) Manifest() *manifest.Manifest {
	return c.manifest
}

// GetMethod returns the method descriptor by name or nil.
func (c *Contract) GetMethod(name string) *manifest.Method {
	m, ok := c.methods[name]
	if !ok {
		return nil
	}
	return m.MD
}

// Invoke calls the named method. A contract Error of a public method is
// returned as (err code) response and its notifications are dropped. Any other
// error means the call couldn't be executed. Safe methods always produce an ok
// response wrapping their result.
func (c *Contract) Invoke(ic *Context, name string, args []smartcontract.Parameter) (smartcontract.Response, error) {
	m, ok := c.methods[name]
	if !ok {
		return smartcontract.Response{}, fmt.Errorf("%w: %s", ErrMethodNotFound, name)
	}
	if err := m.MD.CheckArgs(args); err != nil {
		return smartcontract.Response{}, fmt.Errorf("%w: %w", ErrInvalidArgs, err)
	}
	res, err := m.Func(ic, args)
	if err != nil {
		var cErr Error
		if !m.MD.Safe && errors.As(err, &cErr) {
			ic.Events = ic.Events[:0]
			return smartcontract.NewErr(cErr.Code()), nil
		}
		return smartcontract.Response{}, err
	}
	return smartcontract.NewOK(res), nil
}
