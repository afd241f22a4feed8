package gelf

import (
	"encoding/json"
	"net"
	"os"
	"time"

	"go.uber.org/zap/zapcore"
)

// Syslog severities used by GELF.
const (
	LevelCritical      = 2
	LevelError         = 3
	LevelWarning       = 4
	LevelInformational = 6
	LevelDebug         = 7
)

// Writer sends GELF messages over UDP, one datagram per message.
type Writer struct {
	conn     net.Conn
	hostname string
	service  string
}

// New creates a GELF UDP writer connected to addr (e.g. "172.17.0.1:12201").
func New(addr, service string) (*Writer, error) {
	conn, err := net.Dial("udp", addr)
	if err != nil {
		return nil, err
	}

	hostname, _ := os.Hostname()
	if hostname == "" {
		hostname = service + "-server"
	}

	return &Writer{conn: conn, hostname: hostname, service: service}, nil
}

// Send writes one message. Delivery is fire-and-forget.
func (w *Writer) Send(short string, level int, at time.Time, extra map[string]any) error {
	msg := make(map[string]any, len(extra)+6)
	for k, v := range extra {
		if k == "id" {
			k = "field_id" // _id is reserved
		}
		msg["_"+k] = v
	}
	msg["version"] = "1.1"
	msg["host"] = w.hostname
	msg["short_message"] = short
	msg["timestamp"] = float64(at.UnixNano()) / 1e9
	msg["level"] = level
	msg["_service"] = w.service

	payload, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	_, err = w.conn.Write(payload)
	return err
}

func (w *Writer) Close() error {
	return w.conn.Close()
}

// Level maps a zap level onto a GELF severity.
func Level(l zapcore.Level) int {
	switch {
	case l >= zapcore.DPanicLevel:
		return LevelCritical
	case l == zapcore.ErrorLevel:
		return LevelError
	case l == zapcore.WarnLevel:
		return LevelWarning
	case l == zapcore.InfoLevel:
		return LevelInformational
	}
	return LevelDebug
}
