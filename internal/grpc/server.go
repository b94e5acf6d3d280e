package grpc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/z32nissan/CSGOFloat-Extension/internal/interfaces"
	"github.com/z32nissan/CSGOFloat-Extension/internal/logger"
)

const (
	ServiceName   = "floatcheck.Inspector"
	inspectMethod = "/" + ServiceName + "/Inspect"
)

// InspectRequest asks the backend to resolve one inspect link
type InspectRequest struct {
	InspectLink string `json:"inspectLink"`
}

// InspectorServer is the server side of the relay
type InspectorServer interface {
	Inspect(ctx context.Context, req *InspectRequest) (*interfaces.InspectResponse, error)
}

var serviceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*InspectorServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "Inspect",
			Handler:    inspectHandler,
		},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "floatcheck/inspector",
}

func inspectHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(InspectRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(InspectorServer).Inspect(ctx, in)
	}
	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: inspectMethod,
	}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(InspectorServer).Inspect(ctx, req.(*InspectRequest))
	}
	return interceptor(ctx, in, info, handler)
}

type inspectorService struct {
	inspector interfaces.Inspector
}

func (s *inspectorService) Inspect(ctx context.Context, req *InspectRequest) (*interfaces.InspectResponse, error) {
	if req.InspectLink == "" {
		return nil, status.Error(codes.InvalidArgument, "inspect link is required")
	}

	resp, err := s.inspector.Inspect(ctx, req.InspectLink)
	if err != nil {
		logger.Logger.Error().Err(err).Msg("Backend inspection failed")
		return nil, status.Errorf(codes.Unavailable, "inspect: %v", err)
	}
	return resp, nil
}

// Register serves inspector on s
func Register(s *grpc.Server, inspector interfaces.Inspector) {
	s.RegisterService(&serviceDesc, &inspectorService{inspector: inspector})
}
