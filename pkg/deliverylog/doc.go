// Package deliverylog records every attempted email delivery.
//
// One Entry exists per delivery lineage (the first attempt plus all of its
// retries). Entries are created in StatusPending before the first transport
// call and then only move forward:
//
//	pending -> retrying* -> sent | failed
//	pending -> test
//
// Log wraps a Store. Create returns errors to the caller; Update and Advance
// are best-effort and swallow store failures so a flaky database can never
// interrupt a retry loop. Metadata is deep-merged on every update.
//
// Stores: MemoryStore (tests, no database), MongoStore (collection
// "email_logs"), RedisStore (JSON document per key).
//
//	log := deliverylog.New(deliverylog.NewMongoStore(db, ""), deliverylog.WithLogger(l))
//	entry, err := log.Create(ctx, deliverylog.Record{To: []string{"a@example.com"}}, "")
//	_ = log.Advance(ctx, entry, deliverylog.Patch{}.WithStatus(deliverylog.StatusSent))
package deliverylog
