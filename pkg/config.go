package pkg

import (
	"errors"
	"fmt"
	"time"
)

const (
	ServerIdleTimeout = 5 * time.Minute
	SshPort           = ":2222"
	ServerPort        = ":1998"
	HTTPPort          = ":8080"
	MessageQueueSize  = 20
	ConnQueueSize     = 10
)

const (
	TransportHTTP  = "http"
	TransportTCP   = "tcp"
	TransportLocal = "local"

	GesturesClick = "click"
	GesturesDrag  = "drag"
)

// ClientConfig is everything the terminal client is started with.
type ClientConfig struct {
	Server    string
	Transport string
	Gestures  string
	Theme     string
	Flip      bool
	Resume    bool
	GameID    string
	LogPath   string
	PrefsDir  string
	Timeout   time.Duration
}

func DefaultClientConfig() ClientConfig {
	return ClientConfig{
		Server:    "http://localhost" + HTTPPort,
		Transport: TransportHTTP,
		Gestures:  GesturesClick,
		Theme:     "basic",
		LogPath:   "./log",
		Timeout:   10 * time.Second,
	}
}

func (c ClientConfig) Validate() error {
	var errs []error
	switch c.Transport {
	case TransportHTTP, TransportTCP, TransportLocal:
	default:
		errs = append(errs, fmt.Errorf("transport must be %s, %s or %s, got %q", TransportHTTP, TransportTCP, TransportLocal, c.Transport))
	}
	if c.Transport != TransportLocal && c.Server == "" {
		errs = append(errs, errors.New("server address is required"))
	}
	switch c.Gestures {
	case GesturesClick, GesturesDrag:
	default:
		errs = append(errs, fmt.Errorf("gestures must be %s or %s, got %q", GesturesClick, GesturesDrag, c.Gestures))
	}
	if c.Timeout <= 0 {
		errs = append(errs, errors.New("timeout must be positive"))
	}
	return errors.Join(errs...)
}

// ServerConfig is everything the reference server is started with. Empty addresses disable the
// corresponding listener.
type ServerConfig struct {
	TCPAddr     string
	HTTPAddr    string
	SSHAddr     string
	HostKey     string
	ClientCmd   string
	DSN         string
	LogPath     string
	IdleTimeout time.Duration
	CleanEvery  time.Duration
}

func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		TCPAddr:     ServerPort,
		HTTPAddr:    HTTPPort,
		LogPath:     "./log",
		IdleTimeout: ServerIdleTimeout,
		CleanEvery:  time.Minute,
	}
}

func (c ServerConfig) Validate() error {
	var errs []error
	if c.TCPAddr == "" && c.HTTPAddr == "" && c.SSHAddr == "" {
		errs = append(errs, errors.New("at least one listener address is required"))
	}
	if c.SSHAddr != "" {
		if c.HostKey == "" {
			errs = append(errs, errors.New("ssh needs a host key"))
		}
		if c.ClientCmd == "" {
			errs = append(errs, errors.New("ssh needs the client command to run"))
		}
	}
	if c.IdleTimeout < 0 || c.CleanEvery < 0 {
		errs = append(errs, errors.New("durations must not be negative"))
	}
	return errors.Join(errs...)
}
