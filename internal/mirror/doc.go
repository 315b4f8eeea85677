// Package mirror copies a flattened export tree to object storage.
//
// Storage is accessed through gocloud.dev/blob, so any supported bucket
// URL works (s3://, gs://, file://...). Driver registration is the
// caller's concern via blank imports.
//
// # Layout
//
//	{bucket}/{prefix}/path/to/file.md
//	{bucket}/{prefix}.manifest.json
//
// The manifest lists every uploaded file with its size. A mirror run
// replaces the previous one: objects listed in the prior manifest that no
// longer exist locally are deleted after the upload.
//
// # Usage
//
//	manifest, err := mirror.Upload(ctx, "s3://backups", "workspace", dir, mirror.Options{})
package mirror
