package journal

// AppendWithRollback exposes appendWithRollback to the external tests.
var AppendWithRollback = appendWithRollback
