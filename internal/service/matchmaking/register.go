package matchmaking

import (
	"google.golang.org/grpc"

	"github.com/oggyb/muzz-swipe/internal/app"
	pb "github.com/oggyb/muzz-swipe/internal/proto/swipe"
)

// Registrar ties the SwipeBackend service into the gRPC server
type Registrar struct {
	appCtx *app.AppContext
	opts   []Option
}

// NewRegistrar creates a new Registrar for the SwipeBackend service
func NewRegistrar(appCtx *app.AppContext, opts ...Option) *Registrar {
	return &Registrar{appCtx: appCtx, opts: opts}
}

// Register attaches the SwipeBackend service implementation to the gRPC server
func (r *Registrar) Register(s *grpc.Server) {
	service := NewMatchmakingService(r.appCtx, r.opts...)
	pb.RegisterSwipeBackendServer(s, service)
}
