package config

import "time"

const (
	// Reconnect
	ReconnectBaseDelay   = 1 * time.Second
	MaxReconnectAttempts = 5

	// Poll fallback
	MessagePollInterval = 3 * time.Second

	// Optimistic reconciliation
	ConfirmMatchWindow = 60 * time.Second

	// WebSocket
	WriteWait      = 10 * time.Second
	PongWait       = 60 * time.Second
	PingPeriod     = (PongWait * 9) / 10
	MaxMessageSize = 4096
)
