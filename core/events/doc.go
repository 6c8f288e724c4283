// Package events implements the named-event dispatcher that chains
// orchestration steps, plus the payload types fired on it.
//
// Available event payloads:
//   - RequestReceived: a movement request passed validation
//   - TaskCreated: a transport task was persisted
//   - TaskCompleted: a task finished and was archived
//   - TaskCancelled: a task was cancelled and archived
package events
