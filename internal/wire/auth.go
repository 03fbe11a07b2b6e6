package wire

// OpaqueAuth is the (flavor, body) pair RFC 5531 uses for both the
// credential and verifier fields of a call, and the verifier field of an
// accepted reply. internal/rpc's flavor constants (AuthNull, AuthUnix, ...)
// are the values that belong in Flavor; this package only needs to know
// about the one flavor every call carries by default.
type OpaqueAuth struct {
	Flavor uint32
	Body   []byte
}

// NoneAuth returns the AUTH_NONE opaque auth: flavor 0, empty body. It is
// what a client sends when it has no credentials to present, and what the
// no-procedure-result side of a reply always sends as its verifier.
func NoneAuth() OpaqueAuth {
	return OpaqueAuth{Flavor: 0, Body: nil}
}
