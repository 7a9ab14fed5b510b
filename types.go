package main

// ActionType is what a toggle command does to a mapping.
type ActionType int

const (
	Enable ActionType = iota
	Disable
)

func (a ActionType) Enabled() bool {
	return a == Enable
}
