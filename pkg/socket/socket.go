// Package socket is the raw TCP socket wrapper (C4): create, bind, listen,
// connect, accept, close, and the send-exact/recv-exact helpers the rest of
// the library builds on. Handles are bare OS file descriptors, deliberately,
// because the event multiplexer (pkg/mux) needs to hand them straight to
// epoll/poll/select.
package socket

// Handle is a raw OS socket file descriptor.
type Handle = int
