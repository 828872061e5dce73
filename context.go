package workflow

import "context"

// Context is the execution context for engine operations. It is an alias
// for context.Context; every blocking operation takes one first.
type Context = context.Context
