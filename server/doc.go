// Package server implements the connection core of a Stellarium telescope server.
//
// A Server collaborator accepts TCP clients, wraps each accepted socket with NewSocket and creates a
// Connection for it with NewConnection. Connections are registered with a Loop, a single-threaded
// poll(2) based reactor that drives every socket without blocking:
//
//	loop, _ := server.NewLoop(nil)
//	cfg, _ := server.NewConnectionConfig(server.WithBufferSize(120))
//	// on the loop goroutine, or via loop.Post from the accepting goroutine:
//	sock, _ := server.NewSocket(tcpConn)
//	conn, _ := server.NewConnection(sock, handler, cfg)
//	_ = loop.Add(conn)
//	_ = loop.Run(ctx)
//
// Each poll cycle a connection always asks for read readiness and asks for write readiness only
// while its write buffer holds pending bytes. Decoded goto commands are reported to the Handler,
// current position reports are queued with Connection.SendPosition.
//
// Any I/O failure, peer shutdown, malformed frame or unknown message type terminates the connection;
// the Handler is notified exactly once through OnConnectionClosed and the loop drops the connection
// from its Registry.
package server
