// Package player hosts an interactive WebAssembly script with a real-time
// render/audio loop in a terminal window.
//
// The runtime is split over two OS threads. The primary thread owns the event
// pump and the window surface. The worker thread owns the graphics and audio
// contexts and drives the script engine until the script finishes.
//
// # Architecture Overview
//
//	player/              Root package with Surface, Device and context interfaces
//	├── lifecycle/       ThreadContext, worker state machine, termination handshake
//	├── signal/          One-shot latches and overwrite-latest slots
//	├── shared/          Engine-global state bracketed by the worker's contexts
//	├── script/          wazero-backed script engine
//	├── window/          Terminal window surface and bubbletea event pump
//	├── gfx/             Text canvas graphics contexts
//	├── audio/           Output devices and bell audio contexts
//	├── input/           Key bindings
//	├── resource/        Resource handle table used by the shared runtime
//	├── config/          Configuration snapshot
//	├── notify/          Operator-visible messages
//	├── metrics/         Prometheus collectors
//	├── logging/         zap logger construction
//	└── errors/          Structured error types
//
// # Startup and Shutdown
//
// The primary thread opens the window and the audio device, fills a
// lifecycle.ThreadContext and starts lifecycle.Worker on its own goroutine.
// It then runs the event pump until the user quits or the worker finishes,
// and calls lifecycle.Terminate to run the termination handshake:
//
//	tc := lifecycle.NewThreadContext(cfg, win, dev, refreshRate)
//	handle := worker.Start(ctx, tc)
//	pump.Process(ctx, tc)
//	lifecycle.Terminate(tc, handle, notifier, lifecycle.DefaultTermination())
//	pump.Cleanup(tc)
//
// # Thread Safety
//
// ThreadContext is shared by reference. Its latches, slots and error message
// are safe for concurrent use. Graphics and audio contexts are only touched by
// the worker thread.
package player
