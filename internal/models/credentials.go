package models

// Credentials is the tagged union of sign-in methods. Implementations are
// matched exhaustively at the authentication boundary.
type Credentials interface {
	isCredentials()
}

// EmailCredentials authenticates with an email and password pair.
type EmailCredentials struct {
	Email    string
	Password string
}

func (EmailCredentials) isCredentials() {}

// WalletCredentials authenticates with a wallet address and signature. The
// wallet flow is declared but not implemented; sign-in with it fails fast.
type WalletCredentials struct {
	WalletAddress string
	Signature     string
}

func (WalletCredentials) isCredentials() {}
