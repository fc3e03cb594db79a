package domain

// EntityQuery describes one paginated retrieval. MaxRecords <= 0 means no limit.
type EntityQuery struct {
	Entity       string
	Select       []string
	CrossCompany bool
	MaxRecords   int
}
