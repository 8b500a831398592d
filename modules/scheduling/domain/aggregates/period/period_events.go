package period

func NewPublishedEvent(result SchedulePeriod) *PublishedEvent {
	return &PublishedEvent{Result: result}
}

// PublishedEvent fires once per period, on the first successful publish.
type PublishedEvent struct {
	Result SchedulePeriod
}

func NewLockedEvent(result SchedulePeriod) *LockedEvent {
	return &LockedEvent{Result: result}
}

type LockedEvent struct {
	Result SchedulePeriod
}
