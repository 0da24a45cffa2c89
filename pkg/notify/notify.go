// Package notify is the fire-and-forget notification dispatcher. Business
// services publish user events here after their transaction commits; a
// publish failure is logged by the caller and never rolls anything back.
package notify

import (
	"encoding/json"
	"fmt"
	"log"
	"time"

	amqp "github.com/streadway/amqp"
)

// Events published by the order lifecycle.
const (
	EventOrderConfirmed = "order.confirmed"
	EventOrderShipped   = "order.shipped"
	EventOrderDelivered = "order.delivered"
	EventOrderCanceled  = "order.canceled"
)

const notificationQueue = "notification_queue"

// Dispatcher is the interface consumed by the services. Implemented by
// Client; tests substitute a mock.
type Dispatcher interface {
	Notify(userID, event string, payload map[string]interface{}) error
}

// Client holds the RabbitMQ connection and channel.
type Client struct {
	conn    *amqp.Connection
	channel *amqp.Channel
}

// Config holds RabbitMQ connection details.
type Config struct {
	URL string
}

// message is the wire format placed on the notification queue.
type message struct {
	UserID  string                 `json:"user_id"`
	Event   string                 `json:"event"`
	Payload map[string]interface{} `json:"payload,omitempty"`
	SentAt  time.Time              `json:"sent_at"`
}

// NewClient connects to RabbitMQ and declares the notification queue.
func NewClient(cfg Config) (*Client, error) {
	conn, err := amqp.Dial(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close() // Close connection if channel creation fails
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	_, err = ch.QueueDeclare(
		notificationQueue, // name
		true,              // durable (persists messages across broker restarts)
		false,             // delete when unused
		false,             // exclusive
		false,             // no-wait
		nil,               // arguments
	)
	if err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("failed to declare %s: %w", notificationQueue, err)
	}

	log.Println("RabbitMQ client connected and notification_queue declared.")

	return &Client{
		conn:    conn,
		channel: ch,
	}, nil
}

// Close closes the RabbitMQ connection and channel.
func (c *Client) Close() error {
	var errs []error
	if c.channel != nil {
		if err := c.channel.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close channel: %w", err))
		}
	}
	if c.conn != nil {
		if err := c.conn.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close connection: %w", err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("multiple errors occurred during RabbitMQ client close: %v", errs)
	}
	return nil
}

// Notify publishes a user event to the notification queue as a persistent
// JSON message.
func (c *Client) Notify(userID, event string, payload map[string]interface{}) error {
	if c.channel == nil {
		return fmt.Errorf("RabbitMQ channel is not available")
	}

	body, err := json.Marshal(message{
		UserID:  userID,
		Event:   event,
		Payload: payload,
		SentAt:  time.Now(),
	})
	if err != nil {
		return fmt.Errorf("failed to marshal notification to JSON: %w", err)
	}

	err = c.channel.Publish(
		"",                // exchange: default exchange
		notificationQueue, // routing key: the queue name
		false,             // mandatory
		false,             // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			Body:         body,
			DeliveryMode: amqp.Persistent, // Make message persistent
			Timestamp:    time.Now(),
		})
	if err != nil {
		return fmt.Errorf("failed to publish notification: %w", err)
	}

	log.Printf(" [x] Sent %s notification for user %s", event, userID)
	return nil
}

// Consume delivers queued notifications to the given handler. The push
// gateway that talks to devices lives outside this service; this consumer
// exists so a worker process can drain the queue.
func (c *Client) Consume(handler func(msg amqp.Delivery) error) error {
	if c.channel == nil {
		return fmt.Errorf("RabbitMQ channel is not available")
	}

	msgs, err := c.channel.Consume(
		notificationQueue, // queue
		"",                // consumer tag
		false,             // auto-ack: we ack manually after handling
		false,             // exclusive
		false,             // no-local
		false,             // no-wait
		nil,               // args
	)
	if err != nil {
		return fmt.Errorf("failed to register consumer: %w", err)
	}

	go func() {
		for msg := range msgs {
			if err := handler(msg); err != nil {
				log.Printf("Error processing notification %d: %v", msg.DeliveryTag, err)
				if requeueErr := msg.Nack(false, true); requeueErr != nil {
					log.Printf("Error nacking message %d: %v", msg.DeliveryTag, requeueErr)
				}
			} else {
				if ackErr := msg.Ack(false); ackErr != nil {
					log.Printf("Error acking message %d: %v", msg.DeliveryTag, ackErr)
				}
			}
		}
	}()

	return nil
}
