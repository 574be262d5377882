package syncproto

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// Server is what a vaultmerged gRPC handler implements. Every method takes
// and returns a wrapperspb.BytesValue envelope; handlers Decode the request
// and Encode the response themselves (see envelope.go).
type Server interface {
	RegisterUser(context.Context, *wrapperspb.BytesValue) (*wrapperspb.BytesValue, error)
	GetSalt(context.Context, *wrapperspb.BytesValue) (*wrapperspb.BytesValue, error)
	Login(context.Context, *wrapperspb.BytesValue) (*wrapperspb.BytesValue, error)
	RefreshToken(context.Context, *wrapperspb.BytesValue) (*wrapperspb.BytesValue, error)
	Ping(context.Context, *wrapperspb.BytesValue) (*wrapperspb.BytesValue, error)
	Sync(context.Context, *wrapperspb.BytesValue) (*wrapperspb.BytesValue, error)
	GetBackupUploadURL(context.Context, *wrapperspb.BytesValue) (*wrapperspb.BytesValue, error)
	GetBackupDownloadURL(context.Context, *wrapperspb.BytesValue) (*wrapperspb.BytesValue, error)
}

type serverMethod func(s Server) func(context.Context, *wrapperspb.BytesValue) (*wrapperspb.BytesValue, error)

func methodHandler(fullMethod string, bind serverMethod) func(interface{}, context.Context, func(interface{}) error, grpc.UnaryServerInterceptor) (interface{}, error) {
	return func(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
		in := new(wrapperspb.BytesValue)
		if err := dec(in); err != nil {
			return nil, err
		}
		method := bind(srv.(Server))
		if interceptor == nil {
			return method(ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
		wrapped := func(ctx context.Context, req interface{}) (interface{}, error) {
			return method(ctx, req.(*wrapperspb.BytesValue))
		}
		return interceptor(ctx, in, info, wrapped)
	}
}

// ServiceDesc registers a Server implementation on a *grpc.Server, matching
// the shape grpc-generated code would produce.
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*Server)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "RegisterUser", Handler: methodHandler(MethodRegisterUser, func(s Server) func(context.Context, *wrapperspb.BytesValue) (*wrapperspb.BytesValue, error) { return s.RegisterUser })},
		{MethodName: "GetSalt", Handler: methodHandler(MethodGetSalt, func(s Server) func(context.Context, *wrapperspb.BytesValue) (*wrapperspb.BytesValue, error) { return s.GetSalt })},
		{MethodName: "Login", Handler: methodHandler(MethodLogin, func(s Server) func(context.Context, *wrapperspb.BytesValue) (*wrapperspb.BytesValue, error) { return s.Login })},
		{MethodName: "RefreshToken", Handler: methodHandler(MethodRefreshToken, func(s Server) func(context.Context, *wrapperspb.BytesValue) (*wrapperspb.BytesValue, error) { return s.RefreshToken })},
		{MethodName: "Ping", Handler: methodHandler(MethodPing, func(s Server) func(context.Context, *wrapperspb.BytesValue) (*wrapperspb.BytesValue, error) { return s.Ping })},
		{MethodName: "Sync", Handler: methodHandler(MethodSync, func(s Server) func(context.Context, *wrapperspb.BytesValue) (*wrapperspb.BytesValue, error) { return s.Sync })},
		{MethodName: "GetBackupUploadURL", Handler: methodHandler(MethodGetBackupUploadURL, func(s Server) func(context.Context, *wrapperspb.BytesValue) (*wrapperspb.BytesValue, error) { return s.GetBackupUploadURL })},
		{MethodName: "GetBackupDownloadURL", Handler: methodHandler(MethodGetBackupDownloadURL, func(s Server) func(context.Context, *wrapperspb.BytesValue) (*wrapperspb.BytesValue, error) { return s.GetBackupDownloadURL })},
	},
}

// Client wraps a grpc.ClientConnInterface with typed, envelope-handling
// method calls, playing the role a generated *ServiceClient would.
type Client struct {
	cc grpc.ClientConnInterface
}

// NewClient binds a Client to an established connection.
func NewClient(cc grpc.ClientConnInterface) *Client {
	return &Client{cc: cc}
}

func (c *Client) call(ctx context.Context, method string, req any, resp any) error {
	in, err := Encode(req)
	if err != nil {
		return err
	}
	out := new(wrapperspb.BytesValue)
	if err := c.cc.Invoke(ctx, method, in, out); err != nil {
		return err
	}
	return Decode(out, resp)
}

// RegisterUser registers a new account.
func (c *Client) RegisterUser(ctx context.Context, req *RegisterUserRequest) (*RegisterUserResponse, error) {
	resp := &RegisterUserResponse{}
	if err := c.call(ctx, MethodRegisterUser, req, resp); err != nil {
		return nil, err
	}
	return resp, nil
}

// GetSalt fetches a username's SRP salt.
func (c *Client) GetSalt(ctx context.Context, req *GetSaltRequest) (*GetSaltResponse, error) {
	resp := &GetSaltResponse{}
	if err := c.call(ctx, MethodGetSalt, req, resp); err != nil {
		return nil, err
	}
	return resp, nil
}

// Login authenticates and returns a token pair.
func (c *Client) Login(ctx context.Context, req *LoginRequest) (*LoginResponse, error) {
	resp := &LoginResponse{}
	if err := c.call(ctx, MethodLogin, req, resp); err != nil {
		return nil, err
	}
	return resp, nil
}

// RefreshToken rotates a refresh token.
func (c *Client) RefreshToken(ctx context.Context, req *RefreshTokenRequest) (*RefreshTokenResponse, error) {
	resp := &RefreshTokenResponse{}
	if err := c.call(ctx, MethodRefreshToken, req, resp); err != nil {
		return nil, err
	}
	return resp, nil
}

// Ping checks server liveness.
func (c *Client) Ping(ctx context.Context, req *PingRequest) (*PingResponse, error) {
	resp := &PingResponse{}
	if err := c.call(ctx, MethodPing, req, resp); err != nil {
		return nil, err
	}
	return resp, nil
}

// Sync submits the caller's snapshot and returns the merged result.
func (c *Client) Sync(ctx context.Context, req *SyncRequest) (*SyncResponse, error) {
	resp := &SyncResponse{}
	if err := c.call(ctx, MethodSync, req, resp); err != nil {
		return nil, err
	}
	return resp, nil
}

// GetBackupUploadURL requests a presigned URL to upload a full-vault backup.
func (c *Client) GetBackupUploadURL(ctx context.Context, req *GetBackupUploadURLRequest) (*GetBackupUploadURLResponse, error) {
	resp := &GetBackupUploadURLResponse{}
	if err := c.call(ctx, MethodGetBackupUploadURL, req, resp); err != nil {
		return nil, err
	}
	return resp, nil
}

// GetBackupDownloadURL requests a presigned URL to download a previously
// uploaded backup.
func (c *Client) GetBackupDownloadURL(ctx context.Context, req *GetBackupDownloadURLRequest) (*GetBackupDownloadURLResponse, error) {
	resp := &GetBackupDownloadURLResponse{}
	if err := c.call(ctx, MethodGetBackupDownloadURL, req, resp); err != nil {
		return nil, err
	}
	return resp, nil
}
