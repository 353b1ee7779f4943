// Package notify turns new-results events into user-facing notifications.
//
// LogNotifier writes the notification as a structured log record and is
// always registered. AMQPNotifier additionally publishes it to a RabbitMQ
// exchange when an AMQP URL is configured, for a separate process to deliver.
// Both implement events.EventHandler.
package notify
