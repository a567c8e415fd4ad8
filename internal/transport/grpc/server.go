package grpc

import (
	"net"
	"strings"

	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/rentspace/messaging/internal/application"
	"github.com/rentspace/messaging/internal/auth"
)

type Server struct {
	grpcServer *grpc.Server
	health     *health.Server
	app        *application.Service
	log        *zap.Logger
}

var _ MessagingApiServer = (*Server)(nil)

func New(app *application.Service, log *zap.Logger) *Server {
	grpcServer := grpc.NewServer(
		grpc.StatsHandler(otelgrpc.NewServerHandler()),
		grpc.UnaryInterceptor(auth.UnaryInterceptor(MethodNotify, healthpb.Health_Check_FullMethodName)),
	)

	s := &Server{
		grpcServer: grpcServer,
		health:     health.NewServer(),
		app:        app,
		log:        log,
	}

	RegisterMessagingApiServer(grpcServer, s)
	healthpb.RegisterHealthServer(grpcServer, s.health)
	s.health.SetServingStatus(ServiceName, healthpb.HealthCheckResponse_SERVING)

	return s
}

// Serve blocks until the listener fails or Stop is called.
func (s *Server) Serve(lis net.Listener) error {
	s.log.Info("gRPC listening", zap.String("addr", lis.Addr().String()))
	return s.grpcServer.Serve(lis)
}

func (s *Server) Start(addr string) error {
	lisAddr := addr
	if addr != "" && !strings.Contains(addr, ":") {
		lisAddr = ":" + addr
	}

	lis, err := net.Listen("tcp", lisAddr)
	if err != nil {
		return err
	}
	return s.Serve(lis)
}

func (s *Server) Stop() {
	s.log.Info("shutting down gRPC...")
	s.health.Shutdown()
	s.grpcServer.GracefulStop()
}
