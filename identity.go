package brickfolio

// Identity is an opaque account identifier for any party interacting with
// the engine: property creators, share holders, buyers and sellers, the
// platform administrator and the fee recipient.
//
// The zero Identity is never a valid party; operations that would credit or
// debit it are rejected during validation.
type Identity string

// NoIdentity is the zero identity.
const NoIdentity Identity = ""

// IsZero reports whether the identity is the zero identity.
func (id Identity) IsZero() bool { return id == NoIdentity }

func (id Identity) String() string { return string(id) }
