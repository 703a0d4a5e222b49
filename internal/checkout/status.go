package checkout

type Status string

const (
	StatusIdle     Status = "idle"
	StatusLoading  Status = "loading"
	StatusApproved Status = "approved"
	StatusDeclined Status = "declined"
	StatusError    Status = "error"
)

// approved only goes back to idle through an explicit reset; declined and
// error may be retried directly.
var validNext = map[Status]map[Status]bool{
	StatusIdle:     {StatusLoading: true},
	StatusLoading:  {StatusApproved: true, StatusDeclined: true, StatusError: true},
	StatusApproved: {StatusIdle: true},
	StatusDeclined: {StatusIdle: true, StatusLoading: true},
	StatusError:    {StatusIdle: true, StatusLoading: true},
}

func CanTransition(from, to Status) bool {
	return validNext[from][to]
}
