package mqtt

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"os"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"

	"github.com/kilianp07/wcs/core/shuttle"
	"github.com/kilianp07/wcs/infra/logger"
	"github.com/kilianp07/wcs/internal/eventbus"
)

// Config defines the connection parameters for the Paho MQTT link.
type Config struct {
	Broker     string      `json:"broker"`
	ClientID   string      `json:"client_id"`
	ShuttleID  string      `json:"shuttle_id"`
	Username   string      `json:"username"`
	Password   string      `json:"password"`
	UseTLS     bool        `json:"use_tls"`
	ClientCert string      `json:"client_cert"`
	ClientKey  string      `json:"client_key"`
	CABundle   string      `json:"ca_bundle"`
	AuthMethod string      `json:"auth_method"`
	QoS        byte        `json:"qos"`
	MaxRetries int         `json:"max_retries"`
	BackoffMS  int         `json:"backoff_ms"`
	TLSConfig  *tls.Config `json:"-"`
}

// DirectiveTopic returns the topic directives are published to.
func (c Config) DirectiveTopic() string { return fmt.Sprintf("shuttle/%s/directive", c.ShuttleID) }

// StateTopic returns the topic state reports arrive on.
func (c Config) StateTopic() string { return fmt.Sprintf("shuttle/%s/state", c.ShuttleID) }

// pahoClient is the slice of the Paho API the link uses, extracted so tests
// can substitute a fake.
type pahoClient interface {
	IsConnected() bool
	Connect() paho.Token
	Disconnect(quiesce uint)
	Publish(topic string, qos byte, retained bool, payload interface{}) paho.Token
	Subscribe(topic string, qos byte, callback paho.MessageHandler) paho.Token
}

var newMQTTClient = func(opts *paho.ClientOptions) pahoClient {
	return paho.NewClient(opts)
}

// PahoLink implements shuttle.Link over Eclipse Paho. Reconnection is owned
// by the session, so auto-reconnect stays off and a lost connection surfaces
// as a failed publish.
type PahoLink struct {
	cfg    Config
	cli    pahoClient
	states *eventbus.TypedBus[shuttle.State]
	log    logger.Logger

	// OnState is invoked for every decoded state report. Set before Connect.
	OnState func(shuttle.State)
}

// NewPahoLink builds a link for one shuttle. The link is not connected yet.
func NewPahoLink(cfg Config) (*PahoLink, error) {
	if cfg.Broker == "" || cfg.ShuttleID == "" {
		return nil, fmt.Errorf("mqtt: broker and shuttle_id are required")
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 3
	}
	if cfg.BackoffMS <= 0 {
		cfg.BackoffMS = 100
	}
	return &PahoLink{
		cfg:    cfg,
		states: eventbus.NewTyped[shuttle.State](),
		log:    logger.New("mqtt_link"),
	}, nil
}

// States returns a bus carrying every decoded state report, for observers
// beyond the session.
func (l *PahoLink) States() *eventbus.TypedBus[shuttle.State] { return l.states }

// Connect dials the broker and subscribes to the shuttle's state topic.
func (l *PahoLink) Connect(ctx context.Context) error {
	opts, err := newClientOptions(l.cfg)
	if err != nil {
		return err
	}
	opts.OnConnectionLost = func(_ paho.Client, err error) {
		l.log.Errorf("connection lost: %v", err)
	}
	c := newMQTTClient(opts)
	token := c.Connect()
	if !token.WaitTimeout(connectTimeout(ctx)) {
		return fmt.Errorf("mqtt: connect to %s timed out", l.cfg.Broker)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("mqtt: connect to %s: %w", l.cfg.Broker, err)
	}
	sub := c.Subscribe(l.cfg.StateTopic(), l.cfg.QoS, l.onState)
	if sub.Wait() && sub.Error() != nil {
		c.Disconnect(250)
		return fmt.Errorf("mqtt: subscribe %s: %w", l.cfg.StateTopic(), sub.Error())
	}
	l.cli = c
	l.log.Infof("connected to %s, listening on %s", l.cfg.Broker, l.cfg.StateTopic())
	return nil
}

// Publish encodes the directive and publishes it with bounded retries.
func (l *PahoLink) Publish(_ context.Context, d shuttle.Directive) error {
	if l.cli == nil || !l.cli.IsConnected() {
		return fmt.Errorf("mqtt: link not connected")
	}
	payload, err := encodeDirective(d, time.Now().UnixMilli())
	if err != nil {
		return fmt.Errorf("mqtt: encode directive %s: %w", d.Kind, err)
	}
	backoff := time.Duration(l.cfg.BackoffMS) * time.Millisecond
	var publishErr error
	for attempt := 0; attempt <= l.cfg.MaxRetries; attempt++ {
		token := l.cli.Publish(l.cfg.DirectiveTopic(), l.cfg.QoS, false, payload)
		token.Wait()
		publishErr = token.Error()
		if publishErr == nil {
			l.log.Debugf("published %s to %s", d.Kind, l.cfg.DirectiveTopic())
			return nil
		}
		l.log.Errorf("publish attempt %d failed: %v", attempt+1, publishErr)
		time.Sleep(backoff * time.Duration(1<<attempt))
	}
	return fmt.Errorf("mqtt: publish %s: %w", d.Kind, publishErr)
}

// Disconnect closes the connection. Safe to call when never connected.
func (l *PahoLink) Disconnect() {
	if l.cli != nil && l.cli.IsConnected() {
		l.cli.Disconnect(250)
	}
	l.cli = nil
}

func (l *PahoLink) onState(_ paho.Client, msg paho.Message) {
	st, err := decodeState(msg.Payload())
	if err != nil {
		l.log.Errorf("bad state report on %s: %v", msg.Topic(), err)
		return
	}
	l.states.Publish(st)
	if l.OnState != nil {
		l.OnState(st)
	}
}

func connectTimeout(ctx context.Context) time.Duration {
	if deadline, ok := ctx.Deadline(); ok {
		if d := time.Until(deadline); d > 0 {
			return d
		}
	}
	return 10 * time.Second
}

// newClientOptions builds mqtt client options from Config.
func newClientOptions(cfg Config) (*paho.ClientOptions, error) {
	opts := paho.NewClientOptions().AddBroker(cfg.Broker).SetClientID(cfg.ClientID)
	opts.AutoReconnect = false
	if cfg.AuthMethod == "username_password" || cfg.AuthMethod == "both" || cfg.AuthMethod == "" {
		if cfg.Username != "" {
			opts.SetUsername(cfg.Username)
		}
		if cfg.Password != "" {
			opts.SetPassword(cfg.Password)
		}
	}
	if cfg.UseTLS {
		tlsCfg, err := cfg.LoadTLSConfig()
		if err != nil {
			return nil, err
		}
		opts.SetTLSConfig(tlsCfg)
	}
	return opts, nil
}

// LoadTLSConfig loads the TLS configuration from the file paths in the config.
func (c Config) LoadTLSConfig() (*tls.Config, error) {
	if c.TLSConfig != nil {
		return c.TLSConfig, nil
	}
	if c.ClientCert == "" || c.ClientKey == "" || c.CABundle == "" {
		return nil, fmt.Errorf("tls config requires client_cert, client_key and ca_bundle")
	}
	cert, err := tls.LoadX509KeyPair(c.ClientCert, c.ClientKey)
	if err != nil {
		return nil, fmt.Errorf("load cert: %w", err)
	}
	caBytes, err := os.ReadFile(c.CABundle)
	if err != nil {
		return nil, fmt.Errorf("read ca: %w", err)
	}
	pool := x509.NewCertPool()
	pool.AppendCertsFromPEM(caBytes)
	cfg := &tls.Config{Certificates: []tls.Certificate{cert}, RootCAs: pool, MinVersion: tls.VersionTLS12}
	return cfg, nil
}
