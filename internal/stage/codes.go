package stage

// Wire field names shared by every stage submission.
const (
	formParam       = "wizardForm"
	transitionParam = "wizardForm:transition"
	windowQuery     = "jfwid"
)

// transitionCodes maps a stage number to the code its submission must carry.
// The codes are fixed by the remote wizard; a wrong code silently re-renders
// the same screen.
var transitionCodes = map[int]string{
	1: "next1",
	2: "next2",
	3: "next3",
	4: "next4",
	5: "next5",
	6: "next6",
	7: "next7",
	8: "submitFiling",
}

// TransitionCode returns the stage-transition code for a stage number.
func TransitionCode(stage int) string {
	return transitionCodes[stage]
}
