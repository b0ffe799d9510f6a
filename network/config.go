package network

import (
	"crypto/tls"
	"time"
)

// Config holds feed server and client settings
type Config struct {
	// Address to bind (server) or connect to (client)
	Address string

	// TLS configuration (nil = plaintext)
	TLS *tls.Config

	MaxPeers int

	ConnectTimeout time.Duration
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration

	BufferSize    int
	SendQueueSize int
}

// DefaultConfig returns local defaults listening on addr
func DefaultConfig(addr string) Config {
	return Config{
		Address:        addr,
		MaxPeers:       16,
		ConnectTimeout: 5 * time.Second,
		ReadTimeout:    2 * time.Minute,
		WriteTimeout:   5 * time.Second,
		BufferSize:     32 * 1024,
		SendQueueSize:  64,
	}
}

func (c Config) withDefaults() Config {
	def := DefaultConfig(c.Address)
	if c.MaxPeers <= 0 {
		c.MaxPeers = def.MaxPeers
	}
	if c.ConnectTimeout <= 0 {
		c.ConnectTimeout = def.ConnectTimeout
	}
	if c.WriteTimeout <= 0 {
		c.WriteTimeout = def.WriteTimeout
	}
	if c.BufferSize <= 0 {
		c.BufferSize = def.BufferSize
	}
	if c.SendQueueSize <= 0 {
		c.SendQueueSize = def.SendQueueSize
	}
	return c
}
