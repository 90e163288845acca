/*
Package ports defines the driven ports (interfaces) of the bot flow runtime.

These interfaces decouple the core logic from external implementations, so the
same engine runs against different storage backends, flow sources and
messaging transports.

# Key Interfaces

  - GraphLoader: supplies flow graphs by id (memory, file).
  - StateStore: persists conversation State (memory, file, redis, badger, postgres).
  - DistributedLocker: per-conversation exclusion across replicas (redis).
  - Transport / Receiver / CommandRegistrar: the messaging provider (telegram).
  - Deliverer: turns actions into transport calls (dispatch).
*/
package ports
