package handlers

import (
	"sync"
	"time"

	"go.uber.org/zap"
)

// Pinger probes every open connection.
type Pinger interface {
	PingAll()
}

// HeartbeatService periodically pings all connections so dead peers leave
// the roster even when nobody sends them anything.
type HeartbeatService struct {
	pinger   Pinger
	interval time.Duration
	logger   *zap.Logger

	mu        sync.Mutex
	isRunning bool
	stopChan  chan struct{}
	done      chan struct{}
}

func NewHeartbeatService(pinger Pinger, interval time.Duration, logger *zap.Logger) *HeartbeatService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &HeartbeatService{
		pinger:   pinger,
		interval: interval,
		logger:   logger,
	}
}

// Start launches the ticker loop. Starting a running service does nothing.
func (hs *HeartbeatService) Start() {
	hs.mu.Lock()
	defer hs.mu.Unlock()
	if hs.isRunning {
		hs.logger.Debug("heartbeat already running")
		return
	}

	hs.isRunning = true
	hs.stopChan = make(chan struct{})
	hs.done = make(chan struct{})
	hs.logger.Info("heartbeat started", zap.Duration("interval", hs.interval))

	go func(stop <-chan struct{}, done chan<- struct{}) {
		defer close(done)
		ticker := time.NewTicker(hs.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				hs.pinger.PingAll()
			case <-stop:
				return
			}
		}
	}(hs.stopChan, hs.done)
}

// Stop ends the loop and waits for it to exit.
func (hs *HeartbeatService) Stop() {
	hs.mu.Lock()
	if !hs.isRunning {
		hs.mu.Unlock()
		return
	}
	hs.isRunning = false
	close(hs.stopChan)
	done := hs.done
	hs.mu.Unlock()

	<-done
	hs.logger.Info("heartbeat stopped")
}
