package events

import (
	"github.com/ethereum/go-ethereum/event"
	"github.com/rotblauer/catpace/records"
	"github.com/rotblauer/catpace/types/catrun"
)

// CompletedRunFeed is emitted for every completed activity once the save has been attempted.
// The run may not have been persisted; see StoredRunFeed.
var CompletedRunFeed = event.FeedOf[*catrun.CatRun]{}

// StoredRunFeed is emitted for every completed activity that is successfully persisted.
var StoredRunFeed = event.FeedOf[*catrun.CatRun]{}

// RecordsBroken is the payload of BrokenRecordsFeed.
type RecordsBroken struct {
	Run    *catrun.CatRun
	Broken []records.Broken
}

// BrokenRecordsFeed is emitted when a completed activity improves any personal record.
var BrokenRecordsFeed = event.FeedOf[RecordsBroken]{}
