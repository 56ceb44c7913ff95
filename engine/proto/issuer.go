package proto

import "sync/atomic"

// IdentityIssuer assigns message identities from one atomic counter
//
// Identities are unique for the lifetime of the issuer; concurrent callers never observe the same value.
type IdentityIssuer struct {
	last int32
}

// NewIdentityIssuer creates an issuer starting at 1
func NewIdentityIssuer() *IdentityIssuer {
	return &IdentityIssuer{}
}

// Next returns the next identity
func (ii *IdentityIssuer) Next() int32 {
	return atomic.AddInt32(&ii.last, 1)
}

// Last returns the last identity issued
func (ii *IdentityIssuer) Last() int32 {
	return atomic.LoadInt32(&ii.last)
}

// Reset restarts identities from 1
func (ii *IdentityIssuer) Reset() {
	atomic.StoreInt32(&ii.last, 0)
}
