package lexical

// stopWords only lists words of MinTermLength or more; shorter tokens are dropped anyway.
var stopWords = map[string]struct{}{
	"about": {}, "above": {}, "actually": {}, "after": {}, "again": {}, "against": {},
	"also": {}, "always": {}, "among": {}, "another": {}, "anything": {}, "around": {},
	"basically": {}, "because": {}, "been": {}, "before": {}, "being": {}, "below": {},
	"between": {}, "both": {}, "but": {}, "came": {}, "come": {}, "could": {},
	"does": {}, "doing": {}, "down": {}, "during": {}, "each": {}, "even": {},
	"every": {}, "everything": {}, "from": {}, "further": {}, "gets": {}, "going": {},
	"gonna": {}, "good": {}, "great": {}, "have": {}, "having": {}, "hello": {},
	"here": {}, "hers": {}, "herself": {}, "himself": {}, "into": {}, "itself": {},
	"just": {}, "know": {}, "like": {}, "looking": {}, "made": {}, "make": {},
	"many": {}, "maybe": {}, "more": {}, "most": {}, "much": {}, "must": {},
	"myself": {}, "need": {}, "never": {}, "next": {}, "okay": {}, "once": {},
	"only": {}, "other": {}, "ours": {}, "ourselves": {}, "over": {}, "pretty": {},
	"really": {}, "right": {}, "same": {}, "said": {}, "says": {}, "should": {},
	"since": {}, "some": {}, "something": {}, "still": {}, "such": {}, "take": {},
	"than": {}, "thank": {}, "thanks": {}, "that": {}, "their": {}, "theirs": {},
	"them": {}, "themselves": {}, "then": {}, "there": {}, "these": {}, "they": {},
	"thing": {}, "things": {}, "think": {}, "this": {}, "those": {}, "through": {},
	"today": {}, "under": {}, "until": {}, "very": {}, "want": {}, "wants": {},
	"well": {}, "were": {}, "what": {}, "when": {}, "where": {}, "which": {},
	"while": {}, "will": {}, "with": {}, "within": {}, "without": {}, "would": {},
	"yeah": {}, "your": {}, "yours": {}, "yourself": {}, "yourselves": {},
}

// IsStopWord reports whether a lower-cased token is in the stop-word set.
func IsStopWord(token string) bool {
	_, ok := stopWords[token]
	return ok
}
