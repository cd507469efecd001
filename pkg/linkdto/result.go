package linkdto

// Code is the terminal, user-facing classification of one workflow run.
// Every failure path maps to exactly one code; the presenter turns the
// code into reply text.
type Code string

const (
	CodeLinked            Code = "linked"
	CodeNameNotFound      Code = "name_not_found"
	CodeChatAlreadyLinked Code = "chat_already_linked"
	CodeIdentityClaimed   Code = "identity_claimed"
	CodeFleetUnavailable  Code = "fleet_unavailable"

	CodeUnlinked         Code = "unlinked"
	CodeNeverLinked      Code = "never_linked"
	CodeUnlinkIncomplete Code = "unlink_incomplete"
	CodeNameUnresolvable Code = "name_unresolvable"

	CodeSystemError Code = "system_error"
)

// LinkResult is the outcome of one link attempt.
type LinkResult struct {
	Code          Code
	MinecraftName string
}

// UnlinkResult is the outcome of one unlink attempt.
type UnlinkResult struct {
	Code          Code
	MinecraftName string
}
