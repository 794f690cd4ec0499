// Package migrations embeds the SQL migration files so the CQS server can run them at startup
// without depending on a working directory layout, per spec's "schema-managed by embedded
// migrations run at startup".
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
