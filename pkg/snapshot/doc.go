// Package snapshot stores scope documents: binding contexts saved as YAML so
// a view can be bound again later, by another process, or from the CLI.
//
// A document is a YAML (or JSON) mapping. Decode turns it into a
// *reactive.Object with nested objects and arrays, keeping key order;
// Encode does the reverse for any reactive value.
//
// # Stores
//
// Two Store implementations are provided:
//
//   - DiskStore keeps one <id>.yaml file plus a <id>.meta sidecar per snapshot.
//   - S3Store keeps one object per snapshot under a key prefix, with the
//     snapshot name in the object metadata.
//
// # Usage
//
//	store, _ := snapshot.NewDiskStore(".vbind/snapshots")
//	snap, err := snapshot.SaveObject(ctx, store, "checkout", model)
//	...
//	model, err = snapshot.LoadObject(ctx, store, snap.ID)
//	app.Mount(view, vbind.NewScope(model))
package snapshot
