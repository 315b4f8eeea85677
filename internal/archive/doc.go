// Package archive normalizes the nested export archive into a flat tree.
//
// The service ships a workspace export as a zip that nests content two
// levels deep: the top-level archive may embed numbered part archives
// ("...Part-1.zip") that need a second extraction pass, and may wrap
// content in "Export-..." folders whose children belong at the destination
// root.
//
// # Flatten
//
//	err := archive.Flatten(ctx, "export.zip", "workspace-export", archive.Options{})
//
// Flatten replaces the destination directory, extracts the top-level
// archive, extracts and removes every part archive, and hoists the
// children of every export folder. Afterwards the destination contains
// only the flattened content. Part archives are independent of one another
// and are extracted by a small worker pool.
//
// Exactly one level of part nesting is supported: a part archive that
// itself embeds part archives fails with *ExtractionError.
package archive
