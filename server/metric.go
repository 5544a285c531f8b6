package server

import (
	"sync/atomic"
)

// ConnectionMetrics contains atomic metrics for a connection.
// Metrics can be used as the value of a prometheus CounterFunc or GaugeFunc.
type ConnectionMetrics struct {
	// BytesRead indicates the number of bytes read from the socket.
	BytesRead atomic.Uint64
	// BytesWritten indicates the number of bytes written to the socket.
	BytesWritten atomic.Uint64

	// MsgRecvCount indicates the number of messages decoded.
	MsgRecvCount atomic.Uint64
	// MsgSendCount indicates the number of messages queued for sending.
	MsgSendCount atomic.Uint64
	// MsgErrCount indicates the number of protocol errors.
	MsgErrCount atomic.Uint64

	// WriteBackpressureCount indicates the number of outbound messages rejected because the write buffer was full.
	WriteBackpressureCount atomic.Uint64
}

func (m *ConnectionMetrics) addBytesRead(n int) {
	m.BytesRead.Add(uint64(n)) //nolint:gosec
}

func (m *ConnectionMetrics) addBytesWritten(n int) {
	m.BytesWritten.Add(uint64(n)) //nolint:gosec
}

func (m *ConnectionMetrics) incMsgRecvCount() {
	m.MsgRecvCount.Add(1)
}

func (m *ConnectionMetrics) incMsgSendCount() {
	m.MsgSendCount.Add(1)
}

func (m *ConnectionMetrics) incMsgErrCount() {
	m.MsgErrCount.Add(1)
}

func (m *ConnectionMetrics) incWriteBackpressureCount() {
	m.WriteBackpressureCount.Add(1)
}
