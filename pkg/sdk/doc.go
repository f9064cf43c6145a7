// Package resultgrid embeds the search result grid in a Go program.
//
// A Client owns in-memory grid sessions. Each session turns raw search
// envelopes into display columns and rows, and remembers the user's column
// edits until the derived schema or the entity filter changes.
//
//	client, _ := resultgrid.New(resultgrid.WithColumnWidth(180))
//	defer client.Close()
//
//	sess, _ := client.NewSession(ctx)
//	view, _ := sess.Ingest(ctx, envelopeJSON, "Customer")
//	view, _, _ = sess.Resize(ctx, "name", 240)
//	items, _ := sess.Detail(ctx, view.Rows[0].PrimaryKey.Value)
//
// Rows produced from one element each of a nested array share a group; the
// anchor row of a group carries the row span of the group's columns, its
// siblings carry zero.
package resultgrid
