// Package resource provides the handle table behind the shared runtime's
// resource caches.
//
// Scripts never see Go values. They receive small integer handles that the
// host resolves through a Table. Handle 0 is reserved and always invalid, so
// scripts can use it as "no resource".
//
// # Handle Table
//
// The Table maps handles to Go values tagged with a type id:
//
//	table := resource.NewTable()
//	h := table.Insert(resource.TypeSprite, sprite)
//	v, ok := table.GetTyped(h, resource.TypeSprite)
//	table.Remove(h)
//
// # Caches
//
// Cache deduplicates loads by name, so a sprite loaded twice by a script is
// read from disk once and shares a handle:
//
//	sprites := resource.NewCache(table, resource.TypeSprite, loadSprite)
//	h, err := sprites.Load("title.txt")
//
// # Borrows
//
// A handle that is borrowed (for example while a frame referencing it is being
// composed) cannot be dropped until the borrow is returned.
//
// # Teardown
//
// Values implementing Dropper are released when removed and when the table is
// closed. The shared runtime closes its table during teardown, before the
// graphics and audio contexts go away.
package resource
