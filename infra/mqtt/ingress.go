// Package mqtt ingests job-feed events from an MQTT broker. Each message
// is one reconcile payload; the broker is an alternative ingress to the
// HTTP webhook for telematics integrations that already speak MQTT.
package mqtt

import (
	"context"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"

	"github.com/fleetops/dispatchd/core/dispatch"
	"github.com/fleetops/dispatchd/core/logger"
)

// Config defines the connection parameters for the job-feed subscriber.
type Config struct {
	Enabled  bool   `json:"enabled"`
	Broker   string `json:"broker"`
	ClientID string `json:"client_id"`
	Username string `json:"username"`
	Password string `json:"password"`
	Topic    string `json:"topic"`
	QoS      byte   `json:"qos"`
	// Source tags audit rows and ops.refresh events for feed-originated
	// mutations.
	Source string `json:"source"`
}

// SetDefaults applies sane defaults.
func (c *Config) SetDefaults() {
	if c.ClientID == "" {
		c.ClientID = "dispatchd-ingress"
	}
	if c.Topic == "" {
		c.Topic = "dispatch/jobs/feed"
	}
	if c.Source == "" {
		c.Source = "mqtt.jobfeed"
	}
}

// Reconciler is the slice of the dispatch engine the ingress needs.
type Reconciler interface {
	Reconcile(ctx context.Context, p *dispatch.JobFeedPayload, actor *uuid.UUID, source string) (*dispatch.ReconcileResult, error)
}

// Ingress subscribes to the job-feed topic and feeds payloads through the
// reconciler. Malformed payloads are logged and dropped; the feed is not
// acknowledged back.
type Ingress struct {
	cli    paho.Client
	cfg    Config
	rec    Reconciler
	log    logger.Logger
	cancel context.CancelFunc
	ctx    context.Context
}

var newMQTTClient = func(opts *paho.ClientOptions) paho.Client {
	return paho.NewClient(opts)
}

// NewIngress connects to the broker and subscribes to the feed topic.
func NewIngress(cfg Config, rec Reconciler, log logger.Logger) (*Ingress, error) {
	cfg.SetDefaults()
	ctx, cancel := context.WithCancel(context.Background())
	ing := &Ingress{cfg: cfg, rec: rec, log: log, ctx: ctx, cancel: cancel}

	opts := paho.NewClientOptions().AddBroker(cfg.Broker).SetClientID(cfg.ClientID)
	opts.AutoReconnect = true
	if cfg.Username != "" {
		opts.SetUsername(cfg.Username)
	}
	if cfg.Password != "" {
		opts.SetPassword(cfg.Password)
	}
	opts.OnConnect = func(c paho.Client) {
		log.Infof("MQTT connected, subscribing %s", cfg.Topic)
		if token := c.Subscribe(cfg.Topic, cfg.QoS, ing.onMessage); token.Wait() && token.Error() != nil {
			log.Errorf("subscribe error: %v", token.Error())
		}
	}
	opts.OnConnectionLost = func(_ paho.Client, err error) {
		log.Errorf("connection lost: %v", err)
	}
	opts.OnReconnecting = func(_ paho.Client, _ *paho.ClientOptions) {
		log.Warnf("reconnecting to MQTT broker")
	}

	c := newMQTTClient(opts)
	if token := c.Connect(); token.Wait() && token.Error() != nil {
		cancel()
		return nil, token.Error()
	}
	ing.cli = c
	return ing, nil
}

func (i *Ingress) onMessage(_ paho.Client, msg paho.Message) {
	payload, err := dispatch.ParseJobFeedPayload(msg.Payload())
	if err != nil {
		i.log.Warnf("drop feed message on %s: %v", msg.Topic(), err)
		return
	}
	ctx, cancel := context.WithTimeout(i.ctx, 30*time.Second)
	defer cancel()
	res, err := i.rec.Reconcile(ctx, payload, nil, i.cfg.Source)
	if err != nil {
		i.log.Errorf("reconcile %s: %v", payload.JobCode, err)
		return
	}
	i.log.Debugw("feed reconciled", map[string]any{
		"job_code": payload.JobCode,
		"created":  res.Created,
	})
}

// Close disconnects from the broker.
func (i *Ingress) Close() {
	i.cancel()
	if i.cli != nil {
		i.cli.Disconnect(250)
	}
}
