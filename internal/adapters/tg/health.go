package tg

import (
	"fmt"
	"log/slog"
	"net"
	"time"

	"github.com/larriantoniy/tg_sales_bot/internal/ports"
)

const (
	probeTimeout      = 3 * time.Second
	proxyProbeTimeout = 5 * time.Second
)

// probeNetwork только пишет в лог, что доступно: старт бота она не останавливает.
// TDLib при недоступной сети молча ждёт, и без этих строк причину не найти.
func probeNetwork(logger *slog.Logger, proxy *ports.ProxyConfig) {
	probe(logger, "tcp4", "8.8.8.8:53", probeTimeout)
	probe(logger, "tcp6", "[2606:4700:4700::1111]:53", probeTimeout)

	if proxy == nil || !proxy.Enabled {
		logger.Info("proxy disabled, skipping check")
		return
	}
	checkProxy(logger, proxy)
}

func probe(logger *slog.Logger, network, addr string, timeout time.Duration) bool {
	conn, err := net.DialTimeout(network, addr, timeout)
	if err != nil {
		logger.Warn("network probe failed", "network", network, "addr", addr, "error", err)
		return false
	}
	_ = conn.Close()
	logger.Info("network probe ok", "network", network, "addr", addr)
	return true
}

func checkProxy(logger *slog.Logger, proxy *ports.ProxyConfig) {
	host := proxy.Server
	addr4 := fmt.Sprintf("%s:%d", host, proxy.Port)
	addr6 := fmt.Sprintf("[%s]:%d", host, proxy.Port)

	if ip := net.ParseIP(host); ip != nil {
		if ip.To4() != nil {
			probe(logger, "tcp4", addr4, proxyProbeTimeout)
		} else {
			probe(logger, "tcp6", addr6, proxyProbeTimeout)
		}
		return
	}

	// hostname: сначала IPv6, потом IPv4
	if probe(logger, "tcp6", addr6, proxyProbeTimeout) {
		return
	}
	if !probe(logger, "tcp4", addr4, proxyProbeTimeout) {
		logger.Error("proxy unreachable on both IPv6 and IPv4", "server", host, "port", proxy.Port)
	}
}
