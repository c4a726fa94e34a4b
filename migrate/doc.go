// Package migrate runs the versioned schema migrations that back
// sql.InitDB's additive, IF NOT EXISTS table creation. InitDB is meant
// for tests and single-binary bootstrap; migrate is meant for
// production rollouts where schema changes need an up/down history and
// a tracked current version, via goose.
//
// Migration files live under migrations/sqlite and migrations/postgres,
// each embedded into the binary; every call points goose at the embedded
// set that matches the Dialect it is given, so the two dialects each get
// their own SQL rather than one file trying to stay portable across both.
package migrate
