package sim

// A Connection is responsible for delivering messages to its destination.
type Connection interface {
	Named
	Hookable

	// PlugIn connects a port to the connection. The connection can buffer at
	// most sourceSideBufSize messages sent from the port.
	PlugIn(port Port, sourceSideBufSize int)

	// CanSend checks if the connection can accept a message from the port.
	CanSend(src Port) bool

	// Send hands a message to the connection.
	Send(msg Msg) *SendError

	// NotifyAvailable is called by a port to notify that the port can
	// receive messages again.
	NotifyAvailable(port Port)
}
