// Package shared holds the engine-global state of one worker run: the
// resource table and its caches, the wazero runtime with its compilation
// cache, WASI and the "player" host module.
//
// A Runtime is built by New after the worker's graphics and audio contexts
// exist and is released by Teardown before they are destroyed. It is owned
// by the worker and passed explicitly to the script engine; there is no
// package-level instance.
//
// # Host Module
//
// Scripts import these functions from the "player" module:
//
//	should_stop() -> i32           1 once the primary thread asked to stop
//	log(ptr, len)                  write a log line
//	window_width() -> i32          window width in cells
//	window_height() -> i32         window height in cells
//	draw(ptr, len)                 append text to the back buffer
//	present() -> i32               publish the back buffer, 0 on success
//	beep()                         ring the audio device
//	action_pressed(ptr, len) -> i32
//	key_pressed(ptr, len) -> i32
//	sprite_load(ptr, len) -> i32   load a text sprite from the game folder
//	draw_sprite(handle) -> i32     draw a loaded sprite, 0 on success
//	sprite_free(handle)
//
// Strings are passed as (pointer, length) into the script's exported memory.
// The window size seen by window_width and window_height changes only at
// should_stop and present, so both describe the same size within a frame.
package shared
