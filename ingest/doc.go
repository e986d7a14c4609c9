// Package ingest turns the raw byte stream of a serial adapter into bounded,
// line-oriented messages.
//
// Bytes pass through a Filter, which drops adapter status frames, terminal
// escape sequences and CRLF pairs, then through a Framer, which accumulates
// payload into fixed-capacity Message values. Sealed messages are copied into
// a Queue that consumers drain with Receive.
//
//	q := ingest.NewQueue(ingest.DefaultQueueDepth)
//	p := ingest.NewPipeline(q)
//	p.Feed([]byte("hi\r\nworld\r\n"))
//
//	msg, err := q.Receive(time.Second) // "hi"
//
// A Pipeline serves one logical stream at a time. Feed must not be called
// concurrently; the Queue is the only synchronised hand-off.
package ingest
