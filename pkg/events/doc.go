/*
Package events connects the platform's notifications to the two Outpost
controllers.

The controllers never talk to each other and never assume a shared
address space; their only coupling is signal content plus the state
store. This package models the delivery side of that contract:

	SQS queue (EventBridge rules) -> SQSSource -> Broker -> Dispatcher -> controllers

# Delivery semantics

Signals are at-least-once and may be duplicated or reordered across the
two controllers. The source deletes a queue message as soon as it has
been published (or proven unparseable); redelivery after a handler
failure is the Dispatcher's job, bounded at a configured number of extra
attempts (default 2). Both controllers discard anything stale or foreign
by checking the authoritative instance reference, which is what makes
blind redelivery safe.

A process crash between publish and dispatch loses the in-flight signal.
The failure modes that matter — instance interrupted, instance started —
recur or are recoverable by a manual `outpost recover`/`outpost
reconcile`, so the window is accepted rather than papered over with
acknowledgment plumbing.

# Testing

Tests publish into a Broker directly or call Dispatcher.Dispatch with
hand-built signals; nothing in the package requires AWS to be present.
ParseEventBridge is a pure function over the two EventBridge envelopes
Outpost subscribes to.
*/
package events
