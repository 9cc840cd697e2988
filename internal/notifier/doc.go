// Package notifier implements the due-reminder pipeline: a supervised loop
// that scans the store for reminders whose due time has passed, delivers each
// one to its owner's chat, and durably marks it notified.
//
// Delivery is at-least-once: on any failure between send and acknowledge the
// reminder is re-delivered at a later cycle rather than silently dropped.
package notifier
