/*
Package moderation implements a chat moderation engine: per-user rate and
flood admission, lexical content classification, a warning escalation
policy, and manual sanction commands backed by a persistent ledger.

Every inbound message goes through ProcessMessage, which runs the rate
tracker first and the content rule set second. The first failing check
denies the message and later checks are skipped. Rate denials only drop
the message; content denials (banned words and links) additionally feed
the escalation policy, which warns the user and past a threshold applies
an automatic timed mute.

All mutation for a single user is serialized by a per-user lock, so a
burst of concurrent messages from the same user observes a consistent
flood window and warning count. Operations on different users proceed in
parallel.
*/
package moderation
