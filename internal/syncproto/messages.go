// Package syncproto is the wire contract between vaultmerged and its
// clients. There is no .proto file and no generated stubs: every RPC
// exchanges a single google.golang.org/protobuf/types/known/wrapperspb
// BytesValue, whose Value is a JSON encoding of one of the request/response
// structs below. This keeps the transport on real protobuf wire types
// without hand-authoring a fake generated package.
package syncproto

// Service and method names, mirroring what a .proto-generated FullMethod
// string would look like.
const (
	ServiceName = "vaultmerge.sync.VaultSyncService"

	MethodRegisterUser  = "/" + ServiceName + "/RegisterUser"
	MethodGetSalt       = "/" + ServiceName + "/GetSalt"
	MethodLogin         = "/" + ServiceName + "/Login"
	MethodRefreshToken  = "/" + ServiceName + "/RefreshToken"
	MethodPing          = "/" + ServiceName + "/Ping"
	MethodSync          = "/" + ServiceName + "/Sync"

	MethodGetBackupUploadURL   = "/" + ServiceName + "/GetBackupUploadURL"
	MethodGetBackupDownloadURL = "/" + ServiceName + "/GetBackupDownloadURL"
)

// RegisterUserRequest registers a new account. Salt and Verifier are
// SRP-style values computed client-side from the master password; the
// server never sees the password itself.
type RegisterUserRequest struct {
	Username string `json:"username"`
	Salt     []byte `json:"salt"`
	Verifier []byte `json:"verifier"`
}

// RegisterUserResponse confirms registration.
type RegisterUserResponse struct {
	UserID string `json:"userId"`
}

// GetSaltRequest asks for a username's SRP salt.
type GetSaltRequest struct {
	Username string `json:"username"`
}

// GetSaltResponse carries the salt. A nonexistent user gets a random salt
// back rather than an error, so login can't be used to enumerate accounts.
type GetSaltResponse struct {
	Salt []byte `json:"salt"`
}

// LoginRequest authenticates with a username and an SRP verifier candidate.
type LoginRequest struct {
	Username          string `json:"username"`
	VerifierCandidate []byte `json:"verifierCandidate"`
}

// LoginResponse carries a fresh token pair.
type LoginResponse struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// RefreshTokenRequest rotates a refresh token.
type RefreshTokenRequest struct {
	RefreshToken string `json:"refreshToken"`
}

// RefreshTokenResponse carries the rotated token pair.
type RefreshTokenResponse struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// PingRequest is an empty liveness probe.
type PingRequest struct{}

// PingResponse reports server status.
type PingResponse struct {
	Status string `json:"status"`
}

// SyncRequest carries the caller's full vault.Snapshot for structural
// merging against the server's stored copy.
type SyncRequest struct {
	Snapshot []byte `json:"snapshot"`
}

// SyncResponse carries the merged vault.Snapshot the client should adopt,
// plus a human-readable summary of what the merge changed.
type SyncResponse struct {
	Snapshot []byte   `json:"snapshot"`
	Changes  []string `json:"changes"`
}

// GetBackupUploadURLRequest is an empty request: the storage key is chosen
// server-side, namespaced to the authenticated user.
type GetBackupUploadURLRequest struct{}

// GetBackupUploadURLResponse carries a presigned S3 PUT URL for a full-vault
// export and the storage key it was issued for.
type GetBackupUploadURLResponse struct {
	StorageKey string `json:"storageKey"`
	URL        string `json:"url"`
}

// GetBackupDownloadURLRequest asks for a presigned GET URL for a previously
// uploaded backup.
type GetBackupDownloadURLRequest struct {
	StorageKey string `json:"storageKey"`
}

// GetBackupDownloadURLResponse carries the presigned GET URL.
type GetBackupDownloadURLResponse struct {
	URL string `json:"url"`
}
