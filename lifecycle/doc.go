// Package lifecycle coordinates the primary and worker threads.
//
// The primary thread builds a ThreadContext, starts a Worker and runs the
// event pump. When the pump returns it calls Terminate, which requests
// termination, waits a bounded time for the worker's acknowledgement and
// then either joins the worker or abandons it.
//
// # Worker Stages
//
//	init_graphics -> init_audio -> init_runtime -> running -> teardown
//
// A failure in any init stage stores a message in ThreadContext.ErrorMessage
// and jumps to teardown. Teardown always acknowledges termination, asks the
// pump to stop, then releases the shared runtime, the audio context and the
// graphics context, in that order. Only what was acquired is released.
//
// # Cancellation
//
// Scripts are not interrupted. They observe TerminationRequested through the
// should_stop host function. A script that never checks it runs past the
// termination budget and its worker is abandoned.
package lifecycle
