// Package blocktype keeps block type definitions: authoritative on the server, replicated on the client
package blocktype

import (
	"github.com/pkg/errors"
	"github.com/xiaonanln/worldsync/engine/common"
	"github.com/xiaonanln/worldsync/engine/world"
)

var (
	// ErrNotRegistered is returned by the server cache for unknown block types
	ErrNotRegistered = errors.New("block type not registered")
	// ErrClientRegister is returned when the client tries to define a block type
	ErrClientRegister = errors.New("block types can only be registered by the server")
)

// Cache is a block type cache
type Cache interface {
	GetBlockProperties(id common.BlockTypeID) (*world.BlockProperties, error)
	RegisterProperties(bp *world.BlockProperties) error
	Len() int
}
