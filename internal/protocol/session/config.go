package session

import "time"

// Config defines duplex session reliability defaults.
type Config struct {
	DialTimeout      time.Duration
	HandshakeTimeout time.Duration
	WriteTimeout     time.Duration
	CallTimeout      time.Duration
	ReconnectDelay   time.Duration
}

// DefaultConfig returns the broker-contract defaults: duplex calls expire
// after 10s and a lost channel is redialed at a fixed 5s interval.
func DefaultConfig() Config {
	return Config{
		DialTimeout:      5 * time.Second,
		HandshakeTimeout: 10 * time.Second,
		WriteTimeout:     15 * time.Second,
		CallTimeout:      10 * time.Second,
		ReconnectDelay:   5 * time.Second,
	}
}

// WithDefaults fills unset fields from DefaultConfig.
func (c Config) WithDefaults() Config {
	def := DefaultConfig()
	if c.DialTimeout <= 0 {
		c.DialTimeout = def.DialTimeout
	}
	if c.HandshakeTimeout <= 0 {
		c.HandshakeTimeout = def.HandshakeTimeout
	}
	if c.WriteTimeout <= 0 {
		c.WriteTimeout = def.WriteTimeout
	}
	if c.CallTimeout <= 0 {
		c.CallTimeout = def.CallTimeout
	}
	if c.ReconnectDelay <= 0 {
		c.ReconnectDelay = def.ReconnectDelay
	}
	return c
}
