package ws

import "time"

type ConnInfo struct {
	ConnID      string
	Username    string
	IP          string
	RequestID   string
	ConnectedAt time.Time
}
