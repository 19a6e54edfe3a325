package rpc

import (
	"context"
	"errors"
	"net"
	"net/rpc"
	"time"

	"github.com/wfunc/spyserver/logger"
	"github.com/wfunc/spyserver/models"
)

// Server manages the RPC listener.
type Server struct {
	listener net.Listener
	address  string
	rpc      *rpc.Server
}

// NewServer creates a new RPC server with its own service registry.
func NewServer(addr string) (*Server, error) {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}
	return &Server{
		listener: listener,
		address:  listener.Addr().String(),
		rpc:      rpc.NewServer(),
	}, nil
}

// Register exposes service under its type name.
func (s *Server) Register(service any) error {
	return s.rpc.Register(service)
}

func (s *Server) Addr() string {
	return s.address
}

// Start begins listening for RPC requests.
func (s *Server) Start() {
	logger.Log.Infof("RPC server listening on %s", s.address)
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				logger.Log.Info("RPC server listener closed.")
				return
			}
			logger.Log.Errorf("RPC server accept error: %v", err)
			continue
		}
		go s.rpc.ServeConn(conn)
	}
}

// Stop closes the RPC listener.
func (s *Server) Stop() {
	if s.listener != nil {
		logger.Log.Info("Stopping RPC server.")
		s.listener.Close()
	}
}

// RoomStats reports live room and player counts.
type RoomStats interface {
	Stats() (rooms, players int)
}

// ConnectionCounter reports open connections.
type ConnectionCounter interface {
	Count() int
}

// GameArchive lists finished games.
type GameArchive interface {
	RecentGames(ctx context.Context, limit int) ([]*models.GameRecord, error)
}

// UptimeSource reports how long the process has been serving.
type UptimeSource interface {
	Uptime() time.Duration
}

// AdminService is the struct that exposes RPC methods.
type AdminService struct {
	rooms       RoomStats
	connections ConnectionCounter
	archive     GameArchive
	uptime      UptimeSource
}

func NewAdminService(rooms RoomStats, connections ConnectionCounter, archive GameArchive, uptime UptimeSource) *AdminService {
	return &AdminService{
		rooms:       rooms,
		connections: connections,
		archive:     archive,
		uptime:      uptime,
	}
}

// Methods must follow the net/rpc signature: exported method, exported
// arguments, second argument is a pointer, return type is error.
type StatsArgs struct {
	Caller string
}

type StatsReply struct {
	Rooms       int
	Players     int
	Connections int
	Uptime      time.Duration
}

func (a *AdminService) Stats(args *StatsArgs, reply *StatsReply) error {
	logger.Log.Debugf("Admin stats requested by %q", args.Caller)
	reply.Rooms, reply.Players = a.rooms.Stats()
	reply.Connections = a.connections.Count()
	reply.Uptime = a.uptime.Uptime()
	return nil
}

type RecentGamesArgs struct {
	Limit int
}

type RecentGamesReply struct {
	Games []*models.GameRecord
}

const recentGamesTimeout = 5 * time.Second

func (a *AdminService) RecentGames(args *RecentGamesArgs, reply *RecentGamesReply) error {
	ctx, cancel := context.WithTimeout(context.Background(), recentGamesTimeout)
	defer cancel()

	games, err := a.archive.RecentGames(ctx, args.Limit)
	if err != nil {
		return err
	}
	reply.Games = games
	return nil
}
