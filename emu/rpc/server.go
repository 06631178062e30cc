// Package rpc allows to control a running emulator from another process.
package rpc

import (
	"errors"
	"net"
	"net/rpc"

	"chipper/emu"
	"chipper/emu/log"
)

// Emu is the part of the emulator API exposed over RPC.
type Emu interface {
	SetPause(pause bool)
	Reset()
	Stop()
	Status() emu.Status
}

// Name of the RPC service.
const service = "emu"

type emuProxy struct {
	emu Emu
}

func (ep *emuProxy) SetPause(pause bool, _ *struct{}) error { ep.emu.SetPause(pause); return nil }
func (ep *emuProxy) Reset(_, _ *struct{}) error             { ep.emu.Reset(); return nil }
func (ep *emuProxy) Stop(_, _ *struct{}) error              { ep.emu.Stop(); return nil }

func (ep *emuProxy) Status(_ *struct{}, reply *emu.Status) error {
	*reply = ep.emu.Status()
	return nil
}

type Server struct {
	l    net.Listener
	done chan struct{}
}

// NewServer starts serving RPC requests for e on the tcp address addr, such
// as "localhost:7070". Use port 0 to pick a free port, and Addr to get it.
func NewServer(addr string, e Emu) (*Server, error) {
	srv := rpc.NewServer()
	if err := srv.RegisterName(service, &emuProxy{emu: e}); err != nil {
		return nil, err
	}
	l, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}

	s := &Server{l: l, done: make(chan struct{})}
	go func() {
		defer close(s.done)
		s.serve(srv)
	}()

	log.ModRPC.InfoZ("RPC server listening").String("addr", s.Addr()).End()
	return s, nil
}

func (s *Server) serve(srv *rpc.Server) {
	for {
		conn, err := s.l.Accept()
		if err != nil {
			if !errors.Is(err, net.ErrClosed) {
				log.ModRPC.WarnZ("Accept failed").Error("err", err).End()
			}
			return
		}
		log.ModRPC.DebugZ("Client connected").String("remote", conn.RemoteAddr().String()).End()
		go srv.ServeConn(conn)
	}
}

// Addr returns the address the server listens on.
func (s *Server) Addr() string { return s.l.Addr().String() }

// Close stops accepting new connections.
func (s *Server) Close() error {
	err := s.l.Close()
	<-s.done
	return err
}
