package domain

// VoteType is the direction of a cast vote.
type VoteType string

const (
	VoteUp   VoteType = "up"
	VoteDown VoteType = "down"
)

func ParseVoteType(s string) (VoteType, error) {
	switch VoteType(s) {
	case VoteUp, VoteDown:
		return VoteType(s), nil
	}
	return "", ErrInvalidVoteType
}

// VoteState is a voter's current vote on an item; VoteNone means no row.
type VoteState string

const (
	VoteNone      VoteState = "none"
	VoteStateUp   VoteState = "up"
	VoteStateDown VoteState = "down"
)

// StateOf returns the state a cast of t produces from None.
func StateOf(t VoteType) VoteState {
	if t == VoteUp {
		return VoteStateUp
	}
	return VoteStateDown
}

// VoteSummary is the stored baseline for an item from one voter's perspective.
type VoteSummary struct {
	Up   int
	Down int
	Mine VoteState
}
