// Package database provides connection management, configuration, logging,
// health checks, query hooks, the entity model registry, and the data-access
// error taxonomy built on top of Bun.
package database
