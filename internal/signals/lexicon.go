package signals

// Word lists used by the extractor. Matching is whole-word and
// case-insensitive. The lists are intentionally small; they gate protocol
// decisions, not content understanding, which belongs to the model tier.

var topicWords = []string{
	"want", "wish", "goal", "hope", "trying", "need", "about",
	"issue", "problem", "struggling", "working on", "figure out",
}

var locationWords = []string{
	"chest", "stomach", "belly", "throat", "shoulders", "shoulder",
	"neck", "head", "jaw", "back", "arms", "hands", "legs", "heart",
	"gut", "face", "eyes", "body",
}

var qualityWords = []string{
	"tight", "tightness", "heavy", "heaviness", "warm", "warmth",
	"cold", "numb", "tingling", "pressure", "knot", "fluttery",
	"buzzing", "hollow", "sharp", "dull", "aching", "tense", "tension",
}

var laterStepWords = []string{
	"pattern", "always", "reminds", "meaning", "means", "because",
	"childhood", "relationship", "why do i", "every time", "makes sense",
	"realize", "realized", "connection",
}

var nothingMoreWords = []string{
	"nothing else", "nothing more", "that's all", "thats all",
	"that's it", "thats it", "no more", "nothing", "done", "that is all",
}

var presentMarkers = []string{
	"right now", "now", "currently", "at the moment", "in this moment",
	"as we speak", "presently", "today i feel", "i notice", "i'm noticing",
	"i am noticing",
}

var pastMarkers = []string{
	"yesterday", "last week", "last month", "last year", "used to",
	"back then", "when i was", "ago", "felt", "was feeling", "happened",
	"remember",
}

var intensifiers = []string{
	"very", "really", "so", "extremely", "incredibly", "completely",
	"totally", "overwhelming", "unbearable", "intense",
}

var softeners = []string{
	"slightly", "a little", "a bit", "somewhat", "mildly", "kind of",
	"sort of", "barely",
}

// riskWords trigger the safety short circuit. Any match routes the turn to
// the dedicated safety path before normal decision making.
var riskWords = []string{
	"kill myself", "suicide", "suicidal", "end my life", "end it all",
	"hurt myself", "harm myself", "self-harm", "self harm",
	"don't want to live", "dont want to live", "no reason to live",
	"better off dead", "overdose",
}
