// SPDX-License-Identifier: MIT

package factory

import (
	"context"
	"strings"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"

	"github.com/cvedix/edge-ai-api/internal/core"
	"github.com/cvedix/edge-ai-api/internal/engine"
	"github.com/cvedix/edge-ai-api/internal/log"
	"github.com/cvedix/edge-ai-api/internal/metrics"
	"github.com/cvedix/edge-ai-api/internal/nodes"
)

// connectTimeout bounds the initial broker connect attempt. Beyond it
// the publish function is a no-op until the background reconnect
// succeeds; the node itself is still returned.
const connectTimeout = 3 * time.Second

// Publisher accepts event bytes for a topic. Broker nodes expose it to
// the analytics stages.
type Publisher interface {
	Publish(topic string, payload []byte) error
}

func (f *Factory) buildBroker(nodeType, name string, params map[string]string, instanceID string) (engine.Node, error) {
	switch nodeType {
	case "mqtt_broker":
		brokerURL := params["MQTT_URL"]
		if brokerURL == "" || nodes.IsPlaceholder(brokerURL) {
			f.logger.Debug().Str(log.FieldNode, name).Msg("mqtt broker elided, no URL")
			return nil, nil
		}
		return f.newMQTTNode(name, params, brokerURL, instanceID), nil

	case "kafka_broker":
		brokers := params["KAFKA_BROKERS"]
		if brokers == "" || nodes.IsPlaceholder(brokers) {
			f.logger.Debug().Str(log.FieldNode, name).Msg("kafka broker elided, no brokers")
			return nil, nil
		}
		return f.newKafkaNode(name, params, brokers), nil

	case "console_broker":
		return &consoleNode{
			node:   newNode(nodeType, name, nodes.CategoryBroker, params),
			logger: f.logger.With().Str(log.FieldNode, name).Logger(),
		}, nil

	default:
		return nil, core.InvalidArgumentf("unknown broker type %q", nodeType)
	}
}

// consoleNode emits events to the structured log.
type consoleNode struct {
	*node
	logger zerolog.Logger
}

func (n *consoleNode) Publish(topic string, payload []byte) error {
	n.logger.Info().Str("topic", topic).Bytes("event", payload).Msg("broker event")
	metrics.BrokerPublishTotal.WithLabelValues("console", "ok").Inc()
	return nil
}

// mqttNode owns exactly one client with auto-reconnect. Publishes
// serialise on a per-node mutex so message order per topic holds.
type mqttNode struct {
	*node
	mu     sync.Mutex
	client mqtt.Client
	topic  string
}

func (f *Factory) newMQTTNode(name string, params map[string]string, brokerURL, instanceID string) engine.Node {
	clientID := "edgeai-" + name
	if len(instanceID) >= 8 {
		clientID = "edgeai-" + instanceID[:8]
	}
	opts := mqtt.NewClientOptions().
		AddBroker(brokerURL).
		SetClientID(clientID).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectTimeout(connectTimeout)

	logger := f.logger.With().Str(log.FieldNode, name).Logger()
	opts.OnConnect = func(mqtt.Client) {
		logger.Info().Str(log.FieldURL, brokerURL).Msg("mqtt connected")
	}
	opts.OnConnectionLost = func(_ mqtt.Client, err error) {
		logger.Warn().Err(err).Msg("mqtt connection lost, reconnecting")
	}

	client := mqtt.NewClient(opts)
	// Eager connect; failure is not fatal, the client reconnects in the
	// background.
	token := client.Connect()
	if !token.WaitTimeout(connectTimeout) || token.Error() != nil {
		logger.Warn().AnErr("error", token.Error()).Str(log.FieldURL, brokerURL).
			Msg("mqtt initial connect pending, will retry in background")
	}

	mn := &mqttNode{
		node:   newNode("mqtt_broker", name, nodes.CategoryBroker, params),
		client: client,
		topic:  params["topic"],
	}
	mn.node.destroyFn = func() {
		mn.client.Disconnect(250)
	}
	return mn
}

func (n *mqttNode) Publish(topic string, payload []byte) error {
	if topic == "" {
		topic = n.topic
	}
	n.mu.Lock()
	defer n.mu.Unlock()
	if !n.client.IsConnected() {
		metrics.BrokerPublishTotal.WithLabelValues("mqtt", "dropped").Inc()
		return nil
	}
	token := n.client.Publish(topic, 0, false, payload)
	if !token.WaitTimeout(connectTimeout) || token.Error() != nil {
		metrics.BrokerPublishTotal.WithLabelValues("mqtt", "failed").Inc()
		return core.Wrap(core.KindTransientIO, "mqtt publish", token.Error())
	}
	metrics.BrokerPublishTotal.WithLabelValues("mqtt", "ok").Inc()
	return nil
}

// kafkaNode wraps one writer; the writer is internally safe but the
// per-node mutex keeps publish ordering aligned with the MQTT node.
type kafkaNode struct {
	*node
	mu     sync.Mutex
	writer *kafka.Writer
}

func (f *Factory) newKafkaNode(name string, params map[string]string, brokers string) engine.Node {
	writer := &kafka.Writer{
		Addr:     kafka.TCP(strings.Split(brokers, ",")...),
		Topic:    params["topic"],
		Balancer: &kafka.LeastBytes{},
		// Async writes: broker outages must not stall the pipeline.
		Async: true,
	}
	kn := &kafkaNode{
		node:   newNode("kafka_broker", name, nodes.CategoryBroker, params),
		writer: writer,
	}
	kn.node.destroyFn = func() {
		if err := kn.writer.Close(); err != nil {
			f.logger.Warn().Err(err).Str(log.FieldNode, name).Msg("kafka writer close failed")
		}
	}
	return kn
}

func (n *kafkaNode) Publish(topic string, payload []byte) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	msg := kafka.Message{Value: payload}
	// A writer with a fixed topic rejects per-message topics.
	if n.writer.Topic == "" && topic != "" {
		msg.Topic = topic
	}
	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()
	if err := n.writer.WriteMessages(ctx, msg); err != nil {
		metrics.BrokerPublishTotal.WithLabelValues("kafka", "failed").Inc()
		return core.Wrap(core.KindTransientIO, "kafka publish", err)
	}
	metrics.BrokerPublishTotal.WithLabelValues("kafka", "ok").Inc()
	return nil
}
