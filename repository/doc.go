// Package repository provides a generic repository abstraction built on Bun
// for reads, query composition, pagination, and staged writes that are
// flushed by the owning unit of work.
package repository
