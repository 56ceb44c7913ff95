package netutil

var (
	// MSG_PACKER is used for packing and unpacking message data embedded in packets
	MSG_PACKER MsgPacker = MessagePackMsgPacker{}
	// JSON_PACKER is used where a human readable encoding is wanted (filesystem storage)
	JSON_PACKER MsgPacker = JSONMsgPacker{}
)

// MsgPacker is used to packs and unpacks messages
type MsgPacker interface {
	PackMsg(msg interface{}, buf []byte) ([]byte, error)
	UnpackMsg(data []byte, msg interface{}) error
}
