// Package ssdp answers UPnP discovery searches so Hue clients find the bridge.
package ssdp

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"

	"floodlight-bridge/internal/infrastructure/logging"
)

const multicastAddr = "239.255.255.250:1900"

// searchTargets are the ST values Echo devices use when looking for a bridge.
var searchTargets = []string{
	"urn:schemas-upnp-org:device:basic:1",
	"upnp:rootdevice",
	"ssdp:all",
}

type Server struct {
	ip     string
	port   int
	logger *logging.Logger
}

func NewServer(ip string, port int, logger *logging.Logger) *Server {
	return &Server{ip: ip, port: port, logger: logger.With("component", "ssdp")}
}

// Start listens for M-SEARCH requests until ctx is cancelled.
func (s *Server) Start(ctx context.Context) error {
	addr, err := net.ResolveUDPAddr("udp4", multicastAddr)
	if err != nil {
		return err
	}

	conn, err := net.ListenMulticastUDP("udp4", nil, addr)
	if err != nil {
		return fmt.Errorf("joining %s: %w", multicastAddr, err)
	}

	go func() {
		<-ctx.Done()
		conn.Close()
	}()

	s.logger.Info("ssdp responder listening", "addr", multicastAddr, "location", s.location())

	buf := make([]byte, 1024)
	for {
		n, src, err := conn.ReadFromUDP(buf)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				return nil
			}
			s.logger.Debug("ssdp read failed", "error", err)
			continue
		}

		if Matches(string(buf[:n])) {
			s.respond(src)
		}
	}
}

// Matches reports whether msg is an M-SEARCH this bridge should answer.
func Matches(msg string) bool {
	if !strings.Contains(msg, "M-SEARCH") {
		return false
	}
	lower := strings.ToLower(msg)
	for _, st := range searchTargets {
		if strings.Contains(lower, st) {
			return true
		}
	}
	return false
}

func (s *Server) location() string {
	return fmt.Sprintf("http://%s:%d/description.xml", s.ip, s.port)
}

// Response is the unicast reply sent to a matching search.
func (s *Server) Response() string {
	return "HTTP/1.1 200 OK\r\n" +
		"CACHE-CONTROL: max-age=100\r\n" +
		"EXT:\r\n" +
		"LOCATION: " + s.location() + "\r\n" +
		"SERVER: FreeRTOS/6.0.5, UPnP/1.1, IpBridge/1.17.0\r\n" +
		"ST: urn:schemas-upnp-org:device:basic:1\r\n" +
		"USN: uuid:2f402f80-da50-11e1-9b23-001788102201::urn:schemas-upnp-org:device:basic:1\r\n\r\n"
}

func (s *Server) respond(dest *net.UDPAddr) {
	conn, err := net.DialUDP("udp4", nil, dest)
	if err != nil {
		s.logger.Warn("ssdp reply failed", "dest", dest.String(), "error", err)
		return
	}
	defer conn.Close()

	if _, err := conn.Write([]byte(s.Response())); err != nil {
		s.logger.Warn("ssdp reply failed", "dest", dest.String(), "error", err)
		return
	}
	s.logger.Debug("answered search", "dest", dest.String())
}
