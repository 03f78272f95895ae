// Package events defines the typed session event contract.
//
// Event kinds are grouped by receiver-facing namespaces:
//
//   - session.*: lifecycle and state transitions of the voice session.
//   - user_input.*: speech activity and finalized transcripts.
//   - assistant_response.*: streamed assistant text.
//   - assistant_playback.*: sentence-level speech playback milestones.
//
// Error events carry the pipeline stage they originate from; recoverable
// failures surface here instead of aborting the session.
package events
