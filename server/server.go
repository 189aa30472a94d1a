package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	logging "github.com/ipfs/go-log/v2"
	"github.com/shopspring/decimal"

	"github.com/velora-social/boostd/boost"
	"github.com/velora-social/boostd/common"
	"github.com/velora-social/boostd/model"
	"github.com/velora-social/boostd/payments"
	"github.com/velora-social/boostd/supermind"
)

var log = logging.Logger("server")

// BoostService is the slice of the boost manager the handlers use.
type BoostService interface {
	Add(ctx context.Context, args boost.CreateArgs) (*model.Boost, error)
	GetBoostByGuid(ctx context.Context, guid uint64) (*model.Boost, error)
	Revoke(ctx context.Context, guid, actorGuid uint64) error
	Approve(ctx context.Context, guid uint64) error
	Reject(ctx context.Context, guid uint64) error
	ReviewQueue(ctx context.Context, limit int) ([]*model.Boost, error)
	ListByOwner(ctx context.Context, ownerGuid uint64, limit int) ([]*model.Boost, error)
}

// SupermindService is the slice of the supermind manager the handlers use.
type SupermindService interface {
	Create(ctx context.Context, args supermind.CreateArgs) (*model.SupermindRequest, error)
	GetRequest(ctx context.Context, guid uint64) (*model.SupermindRequest, error)
	Accept(ctx context.Context, guid, actorGuid uint64) error
	Reject(ctx context.Context, guid, actorGuid uint64) error
	Revoke(ctx context.Context, guid, actorGuid uint64) error
}

// RatesService serves the public rates payload.
type RatesService interface {
	Snapshot(ctx context.Context) payments.RatesSnapshot
}

// AdminChecker answers whether an authenticated user is an administrator.
type AdminChecker interface {
	GetUserByGuid(ctx context.Context, guid uint64) (*model.User, error)
}

// Server is the HTTP surface. It sits behind the platform gateway, which
// authenticates requests and forwards the caller guid in X-User-Guid.
type Server struct {
	srv *http.Server
}

func NewServer(addr string, boosts BoostService, superminds SupermindService, rates RatesService, admins AdminChecker) *Server {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())

	h := &handlers{
		boosts:     boosts,
		superminds: superminds,
		rates:      rates,
		admins:     admins,
	}

	v2 := router.Group("/api/v2")
	{
		v2.GET("/boost/rates", h.getRates)
		v2.GET("/boost/own", h.listOwnBoosts)
		v2.GET("/boost/review", h.listReviewQueue)
		v2.POST("/boost/:type/:guid", h.createBoost)
		v2.GET("/boost/:type/:guid", h.getBoost)
		v2.DELETE("/boost/:type/:guid/revoke", h.revokeBoost)
		v2.POST("/boost/:type/:guid/approve", h.approveBoost)
		v2.POST("/boost/:type/:guid/reject", h.rejectBoost)

		v2.POST("/supermind", h.createSupermind)
		v2.GET("/supermind/:guid", h.getSupermind)
		v2.POST("/supermind/:guid/accept", h.acceptSupermind)
		v2.POST("/supermind/:guid/reject", h.rejectSupermind)
		v2.DELETE("/supermind/:guid", h.revokeSupermind)
	}

	return &Server{
		srv: &http.Server{
			Addr:         addr,
			Handler:      router,
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 30 * time.Second,
		},
	}
}

func (s *Server) Start() error {
	log.Infof("http listening on %s", s.srv.Addr)
	if err := s.srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *Server) Stop(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}

// decimalFromJSON accepts both "2.50" and 2.50 payload encodings.
func decimalFromJSON(s string) (decimal.Decimal, error) {
	if s == "" {
		return decimal.Zero, common.Validation("Amount must be supplied")
	}
	return decimal.NewFromString(s)
}
