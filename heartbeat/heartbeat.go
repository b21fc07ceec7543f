// Package heartbeat announces this kart to the fleet supervisor so its
// restart policy can track liveness. The pipeline itself never depends on a
// heartbeat succeeding.
package heartbeat

import (
	"context"
	"fmt"
	"net"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jashmkapadia0/self-driving-kart/logger"
)

const interval = 5 * time.Second

// Config addresses the supervisor and describes this instance.
type Config struct {
	Host       string
	Port       int
	StatusPort int
}

type announcement struct {
	ID        string `json:"id"`
	IP        string `json:"ip"`
	Port      int    `json:"port"`
	Timestamp int64  `json:"timestamp"`
}

type ack struct {
	ID      string `json:"id"`
	Success bool   `json:"success"`
}

// outboundIP resolves the local egress address without sending traffic; the
// UDP dial only consults the routing table.
func outboundIP() (string, error) {
	conn, err := net.Dial("udp", "8.8.8.8:80")
	if err != nil {
		return "", err
	}
	defer conn.Close()
	return conn.LocalAddr().(*net.UDPAddr).IP.String(), nil
}

// Run posts a liveness announcement every interval until ctx is cancelled.
func Run(ctx context.Context, cfg Config) {
	ip, err := outboundIP()
	if err != nil {
		logger.Log().Warn("resolving outbound IP for heartbeat", zap.Error(err))
		ip = "127.0.0.1"
	}
	client := resty.New().SetTimeout(interval)
	id := uuid.NewString()
	url := fmt.Sprintf("http://%s:%d/api/register", cfg.Host, cfg.Port)

	post := func() {
		var resp ack
		r, err := client.R().
			SetContext(ctx).
			SetHeader("Content-Type", "application/json").
			SetBody(announcement{
				ID:        id,
				IP:        ip,
				Port:      cfg.StatusPort,
				Timestamp: time.Now().Unix(),
			}).
			SetResult(&resp).
			Post(url)
		if err != nil {
			logger.Log().Warn("heartbeat request failed", zap.Error(err))
			return
		}
		if r.IsError() {
			logger.Log().Warn("supervisor rejected heartbeat",
				zap.String("status", r.Status()), zap.String("body", r.String()))
			return
		}
		if !resp.Success {
			logger.Log().Warn("supervisor declined registration",
				zap.String("ackId", resp.ID))
		}
	}

	post()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			logger.Log().Info("heartbeat stopped")
			return
		case <-ticker.C:
			post()
		}
	}
}
