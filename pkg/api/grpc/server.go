// Package grpcapi implements the plf.v1.PopulationLoader gRPC service. The
// service carries google.protobuf.Struct messages that mirror the JSON bodies
// of the REST surface, so it needs no generated code.
package grpcapi

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand/v2"
	"net"

	"github.com/sirupsen/logrus"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/lemonberrylabs/population-loader/pkg/loader"
	"github.com/lemonberrylabs/population-loader/pkg/types"
)

// ServiceName is the fully qualified gRPC service name.
const ServiceName = "plf.v1.PopulationLoader"

// Full method names, for clients invoking the service without stubs.
const (
	LoadMethod  = "/" + ServiceName + "/Load"
	CheckMethod = "/" + ServiceName + "/Check"
)

// PopulationLoaderServer is the server API for the PopulationLoader service.
type PopulationLoaderServer interface {
	// Load evaluates {script, seed?} and returns {organisms, summary}.
	Load(context.Context, *structpb.Struct) (*structpb.Struct, error)
	// Check parses {script} and returns {plan}.
	Check(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

// ServiceDesc describes the PopulationLoader service for grpc.Server.
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*PopulationLoaderServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Load", Handler: loadHandler},
		{MethodName: "Check", Handler: checkHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "plf/v1/loader.proto",
}

// RegisterPopulationLoaderServer registers srv with s.
func RegisterPopulationLoaderServer(s grpc.ServiceRegistrar, srv PopulationLoaderServer) {
	s.RegisterService(&ServiceDesc, srv)
}

func loadHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(PopulationLoaderServer).Load(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: LoadMethod}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(PopulationLoaderServer).Load(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

func checkHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(PopulationLoaderServer).Check(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: CheckMethod}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(PopulationLoaderServer).Check(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

// Options configures the gRPC server.
type Options struct {
	Dir    string
	Logger logrus.FieldLogger
}

// Server implements PopulationLoaderServer.
type Server struct {
	opts Options
	grpc *grpc.Server
}

// New creates a new gRPC server.
func New(opts Options) *Server {
	if opts.Logger == nil {
		opts.Logger = logrus.StandardLogger()
	}
	srv := &Server{opts: opts}

	gs := grpc.NewServer(grpc.UnaryInterceptor(srv.recoverUnary))
	RegisterPopulationLoaderServer(gs, srv)
	srv.grpc = gs

	return srv
}

// recoverUnary turns a panic in a handler into an Internal status.
func (s *Server) recoverUnary(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (resp interface{}, err error) {
	defer func() {
		if r := recover(); r != nil {
			s.opts.Logger.WithField("method", info.FullMethod).Errorf("panic: %v", r)
			err = status.Errorf(codes.Internal, "internal error: %v", r)
		}
	}()
	return handler(ctx, req)
}

// Serve starts listening on the given address and serves gRPC requests.
func (s *Server) Serve(addr string) error {
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("grpc listen: %w", err)
	}
	return s.grpc.Serve(lis)
}

// GracefulStop gracefully stops the gRPC server.
func (s *Server) GracefulStop() {
	s.grpc.GracefulStop()
}

// Load implements PopulationLoaderServer.
func (s *Server) Load(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	script := req.GetFields()["script"].GetStringValue()
	if script == "" {
		return nil, status.Error(codes.InvalidArgument, "script is required")
	}

	opts := loader.Options{Dir: s.opts.Dir, Logger: s.opts.Logger}
	if v, ok := req.GetFields()["seed"]; ok {
		n := v.GetNumberValue()
		if n < 0 || n != float64(uint64(n)) {
			return nil, status.Errorf(codes.InvalidArgument, "seed must be a non-negative integer, got %v", n)
		}
		seed := uint64(n)
		opts.Shuffler = rand.New(rand.NewPCG(seed, seed))
	}

	res, err := loader.New(opts).Load(script)
	if err != nil {
		return nil, statusError(err)
	}
	return toStruct(res)
}

// Check implements PopulationLoaderServer.
func (s *Server) Check(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	script := req.GetFields()["script"].GetStringValue()
	if script == "" {
		return nil, status.Error(codes.InvalidArgument, "script is required")
	}
	plan, err := loader.New(loader.Options{Logger: s.opts.Logger}).Check(script)
	if err != nil {
		return nil, statusError(err)
	}
	return toStruct(map[string]interface{}{"plan": plan})
}

func statusError(err error) error {
	switch types.KindOf(err) {
	case types.KindSyntax, types.KindBinding:
		return status.Error(codes.InvalidArgument, err.Error())
	case types.KindScriptNotFound, types.KindFile:
		return status.Error(codes.NotFound, err.Error())
	case types.KindData:
		return status.Error(codes.FailedPrecondition, err.Error())
	default:
		return status.Error(codes.Internal, err.Error())
	}
}

// toStruct converts v to a Struct through its JSON encoding.
func toStruct(v interface{}) (*structpb.Struct, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "encode response: %v", err)
	}
	var m map[string]interface{}
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, status.Errorf(codes.Internal, "encode response: %v", err)
	}
	out, err := structpb.NewStruct(m)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "encode response: %v", err)
	}
	return out, nil
}
