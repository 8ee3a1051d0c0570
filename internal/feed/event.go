// Package feed implements the row change feed: an in-process hub that fans
// row-level insert/update/delete notifications out to subscribers, a
// RabbitMQ bridge that mirrors events between instances, and a snapshot
// view that keeps a full table snapshot current by applying one minimal
// patch per event.
package feed

// Op identifies the kind of row change carried by an event.
type Op string

const (
	OpInsert Op = "INSERT"
	OpUpdate Op = "UPDATE"
	OpDelete Op = "DELETE"
)

// ChangeEvent is published once per committed row change.  Payload contents
// beyond the row id are deliberately absent: subscribers that need the row
// fetch it themselves, which keeps the event cheap and the policy check in
// the repository where it belongs.
type ChangeEvent struct {
	ID         string `json:"id"`          // unique event id
	Origin     string `json:"origin"`      // publishing instance, used to drop broker echoes
	Op         Op     `json:"op"`          // INSERT | UPDATE | DELETE
	Schema     string `json:"schema"`      // always "public" for this application
	Table      string `json:"table"`       // table the change occurred on
	RowID      uint64 `json:"row_id"`      // primary key of the changed row
	OccurredAt string `json:"occurred_at"` // RFC3339 UTC timestamp
}
