package proto

import (
	"time"

	"github.com/xiaonanln/worldsync/engine/common"
	"github.com/xiaonanln/worldsync/engine/consts"
)

// NeverExpires is the expiry delay of messages which never expire
const NeverExpires time.Duration = -1

// Envelope is the metadata shared by every message
//
// Embed it in payload structs. A zero ExpiryDelay means the default expiry.
type Envelope struct {
	ID          int32
	Delivery    DeliveryMethod
	Channel     uint8
	CreatedAt   time.Time
	ExpiryDelay time.Duration
}

// Header returns the envelope itself, so that every payload embedding it satisfies Message
func (e *Envelope) Header() *Envelope {
	return e
}

// Expiry returns the effective expiry delay
func (e *Envelope) Expiry() time.Duration {
	if e.ExpiryDelay == 0 {
		return consts.DEFAULT_MESSAGE_EXPIRY
	}
	if e.ExpiryDelay < 0 {
		return NeverExpires
	}
	return e.ExpiryDelay
}

// SetNeverExpires marks the message as never expiring
func (e *Envelope) SetNeverExpires() {
	e.ExpiryDelay = NeverExpires
}

// HasExpired returns true iff the message has a finite expiry and CreatedAt + expiry < now
func (e *Envelope) HasExpired(now time.Time) bool {
	delay := e.Expiry()
	if delay == NeverExpires {
		return false
	}
	return e.CreatedAt.Add(delay).Before(now)
}

// DependsOn returns no entities by default
func (e *Envelope) DependsOn() []common.EntityID {
	return nil
}

// SubMessages returns no sub-messages by default
func (e *Envelope) SubMessages() []Message {
	return nil
}

func (e *Envelope) hasCustomExpiry() bool {
	return e.ExpiryDelay != 0
}
