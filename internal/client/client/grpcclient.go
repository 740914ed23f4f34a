package client

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/dmitrijs2005/orgkeeper/internal/client/models"
	"github.com/dmitrijs2005/orgkeeper/internal/common"
	"github.com/golang-jwt/jwt/v5"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// ServiceName is the fully qualified gRPC service the client talks to.
const ServiceName = "orgkeeper.v1.OrgKeeper"

// Method names of ServiceName.
const (
	MethodPing               = "Ping"
	MethodGetSalt            = "GetSalt"
	MethodLogin              = "Login"
	MethodRefreshToken       = "RefreshToken"
	MethodFetchResourceTypes = "FetchResourceTypes"
	MethodFetchResources     = "FetchResources"
	MethodFetchFolders       = "FetchFolders"
	MethodFetchUsers         = "FetchUsers"
	MethodFetchUserGroups    = "FetchUserGroups"
	MethodShareResource      = "ShareResource"
)

// FullMethod returns the wire path of a method, e.g.
// "/orgkeeper.v1.OrgKeeper/Ping".
func FullMethod(name string) string {
	return "/" + ServiceName + "/" + name
}

// Wire bodies that have no model counterpart.
type (
	LoginRequest struct {
		Username string `json:"username"`
		Verifier []byte `json:"verifier"`
	}
	RefreshTokenRequest struct {
		RefreshToken string `json:"refresh_token"`
	}
	RefreshTokenResponse struct {
		AccessToken  string `json:"access_token"`
		RefreshToken string `json:"refresh_token"`
	}
	PageRequest struct {
		Page  int `json:"page"`
		Limit int `json:"limit"`
	}
	ListResponse[T any] struct {
		Items []T `json:"items"`
	}
)

type GRPCClient struct {
	endpointURL string
	conn        *grpc.ClientConn
	dialOpts    []grpc.DialOption
	refreshSkew time.Duration

	mu           sync.Mutex
	accessToken  string
	refreshToken string

	// refreshMu serializes refreshes so concurrent calls share one new token.
	refreshMu sync.Mutex
}

func withAccessToken(ctx context.Context, token string) context.Context {
	md, _ := metadata.FromOutgoingContext(ctx)
	md = md.Copy()
	if md == nil {
		md = metadata.MD{}
	}
	md.Delete(common.AccessTokenHeaderName)
	if token != "" {
		md.Set(common.AccessTokenHeaderName, token)
	}

	return metadata.NewOutgoingContext(ctx, md)
}

func (s *GRPCClient) tokens() (string, string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.accessToken, s.refreshToken
}

func (s *GRPCClient) setTokens(access, refresh string) {
	s.mu.Lock()
	s.accessToken = access
	s.refreshToken = refresh
	s.mu.Unlock()
}

// expiresSoon reports whether the token's exp claim falls within skew. The
// signature is not checked; the server does that.
func expiresSoon(token string, skew time.Duration, now time.Time) bool {
	if token == "" {
		return false
	}
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return false
	}
	return !now.Add(skew).Before(exp.Time)
}

// refresh exchanges the refresh token for a new pair. stale is the access
// token the caller saw; if another goroutine already replaced it the call
// returns without contacting the server.
func (s *GRPCClient) refresh(ctx context.Context, stale string) error {
	s.refreshMu.Lock()
	defer s.refreshMu.Unlock()

	access, refresh := s.tokens()
	if access != stale {
		return nil
	}
	if refresh == "" {
		return ErrUnauthorized
	}

	var resp RefreshTokenResponse
	if err := s.conn.Invoke(ctx, FullMethod(MethodRefreshToken), &RefreshTokenRequest{RefreshToken: refresh}, &resp); err != nil {
		return err
	}
	s.setTokens(resp.AccessToken, resp.RefreshToken)
	return nil
}

func isTokenExpired(err error) bool {
	st, ok := status.FromError(err)
	if !ok {
		return false
	}
	return st.Code() == codes.Unauthenticated && st.Message() == common.ErrTokenExpired.Error()
}

func (s *GRPCClient) accessTokenInterceptor(
	ctx context.Context,
	method string,
	req, reply interface{},
	cc *grpc.ClientConn,
	invoker grpc.UnaryInvoker,
	opts ...grpc.CallOption,
) error {

	if method == FullMethod(MethodRefreshToken) {
		return invoker(ctx, method, req, reply, cc, opts...)
	}

	access, refresh := s.tokens()
	if refresh != "" && expiresSoon(access, s.refreshSkew, time.Now()) {
		if err := s.refresh(ctx, access); err == nil {
			access, _ = s.tokens()
		}
	}

	err := invoker(withAccessToken(ctx, access), method, req, reply, cc, opts...)
	if err == nil || !isTokenExpired(err) {
		return err
	}

	if _, refresh := s.tokens(); refresh == "" {
		return err
	}
	if rerr := s.refresh(ctx, access); rerr != nil {
		return rerr
	}

	// tokens refreshed, retry once with the new access token
	access, _ = s.tokens()
	return invoker(withAccessToken(ctx, access), method, req, reply, cc, opts...)
}

// NewOrgKeeperClient connects to endpointURL. refreshSkew is how long
// before expiry the access token is refreshed proactively. Extra dial
// options are appended after the defaults.
func NewOrgKeeperClient(endpointURL string, refreshSkew time.Duration, opts ...grpc.DialOption) (*GRPCClient, error) {
	c := &GRPCClient{endpointURL: endpointURL, refreshSkew: refreshSkew, dialOpts: opts}
	err := c.InitGRPCClient()
	if err != nil {
		return nil, err
	}
	return c, nil
}

func (s *GRPCClient) InitGRPCClient() error {
	opts := append([]grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithUnaryInterceptor(s.accessTokenInterceptor),
		grpc.WithDefaultCallOptions(grpc.CallContentSubtype(codecName)),
	}, s.dialOpts...)

	conn, err := grpc.NewClient(s.endpointURL, opts...)
	if err != nil {
		return err
	}
	s.conn = conn
	return nil
}

func (s *GRPCClient) Close() error {
	return s.conn.Close()
}

func (s *GRPCClient) invoke(ctx context.Context, method string, req, reply any) error {
	if err := s.conn.Invoke(ctx, FullMethod(method), req, reply); err != nil {
		return s.mapError(err)
	}
	return nil
}

func (s *GRPCClient) Ping(ctx context.Context) error {
	var resp wrapperspb.StringValue
	if err := s.invoke(ctx, MethodPing, &emptypb.Empty{}, &resp); err != nil {
		return err
	}

	if resp.GetValue() != "OK" {
		return ErrUnavailable
	}

	return nil
}

func (s *GRPCClient) GetSalt(ctx context.Context, userName string) ([]byte, error) {

	ctx, cancel := context.WithTimeout(ctx, 12*time.Second)
	defer cancel()

	var resp wrapperspb.BytesValue
	if err := s.invoke(ctx, MethodGetSalt, wrapperspb.String(userName), &resp); err != nil {
		return nil, err
	}
	return resp.GetValue(), nil
}

func (s *GRPCClient) Login(ctx context.Context, userName string, verifier []byte) (*models.Session, error) {
	var session models.Session
	if err := s.invoke(ctx, MethodLogin, &LoginRequest{Username: userName, Verifier: verifier}, &session); err != nil {
		return nil, err
	}

	s.setTokens(session.AccessToken, session.RefreshToken)

	return &session, nil
}

func (s *GRPCClient) FetchResourceTypes(ctx context.Context) ([]models.ResourceType, error) {
	var resp ListResponse[models.ResourceType]
	if err := s.invoke(ctx, MethodFetchResourceTypes, &emptypb.Empty{}, &resp); err != nil {
		return nil, err
	}
	return resp.Items, nil
}

func (s *GRPCClient) FetchResources(ctx context.Context, page, limit int) (*models.Page[models.ResourceRecord], error) {
	var resp models.Page[models.ResourceRecord]
	if err := s.invoke(ctx, MethodFetchResources, &PageRequest{Page: page, Limit: limit}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (s *GRPCClient) FetchFolders(ctx context.Context) ([]models.Folder, error) {
	var resp ListResponse[models.Folder]
	if err := s.invoke(ctx, MethodFetchFolders, &emptypb.Empty{}, &resp); err != nil {
		return nil, err
	}
	return resp.Items, nil
}

func (s *GRPCClient) FetchUsers(ctx context.Context) ([]models.User, error) {
	var resp ListResponse[models.User]
	if err := s.invoke(ctx, MethodFetchUsers, &emptypb.Empty{}, &resp); err != nil {
		return nil, err
	}
	return resp.Items, nil
}

func (s *GRPCClient) FetchUserGroups(ctx context.Context) ([]models.Group, error) {
	var resp ListResponse[models.Group]
	if err := s.invoke(ctx, MethodFetchUserGroups, &emptypb.Empty{}, &resp); err != nil {
		return nil, err
	}
	return resp.Items, nil
}

func (s *GRPCClient) ShareResource(ctx context.Context, req models.ShareRequest) error {
	return s.invoke(ctx, MethodShareResource, &req, &emptypb.Empty{})
}

func (s *GRPCClient) mapError(err error) error {
	if err == nil {
		return nil
	}
	st, _ := status.FromError(err)
	switch st.Code() {
	case codes.Unauthenticated, codes.PermissionDenied:
		return ErrUnauthorized
	case codes.Unavailable, codes.DeadlineExceeded:
		return ErrUnavailable
	case codes.InvalidArgument, codes.FailedPrecondition:
		return fmt.Errorf("%w: %s", ErrRejected, st.Message())
	default:
		return fmt.Errorf("rpc error: %w", err)
	}
}
