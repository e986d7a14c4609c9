// Package vcpmon ingests log lines from hot-pluggable USB serial adapters.
//
// Start installs the device monitor, registers the FTDI, CP210x and CH34x
// drivers and launches the event pump and the device lifecycle loop. It
// returns at once; framed lines are then pulled from the Core:
//
//	core, err := vcpmon.Start(ctx, vcpmon.WithLogger(logger))
//	if err != nil {
//		return err
//	}
//	defer core.Stop()
//
//	for {
//		msg, err := core.ReceiveContext(ctx)
//		if err != nil {
//			return err
//		}
//		fmt.Println(msg)
//	}
//
// Adapter status bytes, terminal colour sequences and CRLF pairs are removed
// from the stream. Lines are at most 255 bytes; longer runs are split. When
// consumers fall behind, the newest lines are dropped and counted.
//
// Only one Core may be running per process.
package vcpmon
