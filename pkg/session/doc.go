/*
Package session implements conversation state management.

It serializes read-modify-write cycles per (flow, conversation) key with
reference-counted local mutexes and, optionally, a distributed locker shared
by every replica. Variables are merged across turns; the pending node is
replaced on every save.
*/
package session
