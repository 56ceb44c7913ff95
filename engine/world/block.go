package world

import (
	"fmt"

	"github.com/xiaonanln/typeconv"
	"github.com/xiaonanln/worldsync/engine/common"
	"github.com/xiaonanln/worldsync/engine/netutil"
)

// Well-known block property keys
const (
	BLOCK_PROP_MATERIAL = "material"
	BLOCK_PROP_NAME     = "name"
	BLOCK_PROP_SOLID    = "solid"
	BLOCK_PROP_LIGHT    = "light"
)

// BlockProperties describes one block type
type BlockProperties struct {
	ID    common.BlockTypeID
	Props map[string]interface{}
}

// NewBlockProperties creates block properties for the type id
func NewBlockProperties(id common.BlockTypeID, props map[string]interface{}) *BlockProperties {
	if props == nil {
		props = map[string]interface{}{}
	}
	return &BlockProperties{ID: id, Props: props}
}

func (bp *BlockProperties) String() string {
	return fmt.Sprintf("BlockProperties<%d>%v", bp.ID, bp.Props)
}

// Material returns the material id of the block type
//
// Decoded numbers may be of any numeric type, so they are converted loosely.
func (bp *BlockProperties) Material() int {
	v, ok := bp.Props[BLOCK_PROP_MATERIAL]
	if !ok {
		return 0
	}
	return int(typeconv.Int(v))
}

// Name returns the name of the block type
func (bp *BlockProperties) Name() string {
	name, _ := bp.Props[BLOCK_PROP_NAME].(string)
	return name
}

// IsSolid returns if the block type is solid; block types are solid unless stated otherwise
func (bp *BlockProperties) IsSolid() bool {
	solid, ok := bp.Props[BLOCK_PROP_SOLID].(bool)
	return !ok || solid
}

// LightLevel returns the light emitted by the block type
func (bp *BlockProperties) LightLevel() int {
	v, ok := bp.Props[BLOCK_PROP_LIGHT]
	if !ok {
		return 0
	}
	return int(typeconv.Int(v))
}

// AppendBlockProperties appends the block properties to the packet
func AppendBlockProperties(p *netutil.Packet, bp *BlockProperties) {
	p.AppendUint16(uint16(bp.ID))
	p.AppendData(bp.Props)
}

// ReadBlockProperties reads block properties written by AppendBlockProperties
func ReadBlockProperties(p *netutil.Packet) *BlockProperties {
	id := common.BlockTypeID(p.ReadUint16())
	var props map[string]interface{}
	p.ReadData(&props)
	return NewBlockProperties(id, props)
}
