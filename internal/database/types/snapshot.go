package types

// Snapshot holds every cached row, read in one transaction.
type Snapshot struct {
	Details       []*PostDetails
	Counts        []*PostCounts
	Relationships []*PostRelationships
	Tags          []*PostTags
	UserCounts    []*UserCounts
	UserTags      []*UserTags
}
