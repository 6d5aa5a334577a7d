package infra

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/baywoodland/woodland/internal/config"
)

const mqttConnectTimeout = 10 * time.Second

// ConnectHooks runs registered functions every time the client (re)connects.
// The broker drops subscriptions of a clean session, so subscribers register
// here to restore them.
type ConnectHooks struct {
	mu    sync.Mutex
	hooks []func()
}

// Add registers fn to run after each successful connection.
func (h *ConnectHooks) Add(fn func()) {
	h.mu.Lock()
	h.hooks = append(h.hooks, fn)
	h.mu.Unlock()
}

func (h *ConnectHooks) run() {
	if h == nil {
		return
	}
	h.mu.Lock()
	hooks := append([]func(){}, h.hooks...)
	h.mu.Unlock()
	for _, fn := range hooks {
		fn()
	}
}

// NewMQTTClient connects to the broker with automatic reconnects. hooks may be
// nil; otherwise it runs after every connection, including reconnects.
func NewMQTTClient(cfg config.MQTTConfig, logger *slog.Logger, hooks *ConnectHooks) (mqtt.Client, error) {
	if cfg.BrokerURL == "" {
		return nil, fmt.Errorf("mqtt broker url is required")
	}

	clientID := fmt.Sprintf("%s-%d", cfg.ClientID, time.Now().UnixNano())
	opts := mqtt.NewClientOptions().
		AddBroker(cfg.BrokerURL).
		SetClientID(clientID).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectTimeout(mqttConnectTimeout).
		SetConnectionLostHandler(func(_ mqtt.Client, err error) {
			logger.Warn("mqtt connection lost", "error", err)
		}).
		SetOnConnectHandler(onConnect(cfg.BrokerURL, clientID, logger, hooks))
	if cfg.Username != "" {
		opts = opts.SetUsername(cfg.Username).SetPassword(cfg.Password)
	}

	client := mqtt.NewClient(opts)
	token := client.Connect()
	if !token.WaitTimeout(mqttConnectTimeout) {
		client.Disconnect(0)
		return nil, fmt.Errorf("connect mqtt: timed out")
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("connect mqtt: %w", err)
	}
	return client, nil
}

func onConnect(broker, clientID string, logger *slog.Logger, hooks *ConnectHooks) mqtt.OnConnectHandler {
	return func(_ mqtt.Client) {
		logger.Info("mqtt connected", "broker", broker, "client_id", clientID)
		hooks.run()
	}
}
