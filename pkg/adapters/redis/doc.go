// Package redis provides a Redis-backed StateStore and a DistributedLocker
// so several bot replicas can share conversations.
package redis
