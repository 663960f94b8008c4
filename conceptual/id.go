package conceptual

// ActivityID uniquely identifies a session and the completed activity it becomes.
type ActivityID string

func (c ActivityID) String() string {
	return string(c)
}

func (c ActivityID) Empty() bool {
	return c == ""
}
