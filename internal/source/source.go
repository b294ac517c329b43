// Package source keeps the local copy of person vault files in sync with
// where they are maintained.
package source

import "context"

type Source interface {
	Sync(context.Context) error
	Close(context.Context) error
	Clean() error
}
