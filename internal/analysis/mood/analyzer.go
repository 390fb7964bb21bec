package mood

import (
	"strings"
	"unicode"
)

// Label names the mood attached to a journal entry.
type Label string

const (
	Neutral  Label = "neutral"
	Happy    Label = "happy"
	Sad      Label = "sad"
	Angry    Label = "angry"
	Anxious  Label = "anxious"
	Calm     Label = "calm"
	Grateful Label = "grateful"
)

// Decision carries the winning label and its keyword score.
type Decision struct {
	Mood  Label
	Score int
}

// labelOrder fixes iteration order so ties resolve the same way every run.
var labelOrder = []Label{Grateful, Happy, Sad, Angry, Anxious, Calm}

var keywordBuckets = map[Label][]string{
	Happy: {
		"happy", "glad", "joy", "excited", "great day", "amazing", "awesome", "wonderful",
		"fun", "laughed", "smile", "love", "proud", "celebrate",
	},
	Sad: {
		"sad", "down", "cry", "cried", "lonely", "alone", "miss", "hurt", "heartbroken",
		"grief", "lost", "hard", "disappointed", "empty",
	},
	Angry: {
		"angry", "furious", "mad", "annoyed", "irritated", "frustrated", "hate", "rage",
		"fed up", "unfair",
	},
	Anxious: {
		"anxious", "worried", "worry", "nervous", "scared", "afraid", "overwhelmed", "stress",
		"panic", "can't sleep", "deadline", "pressure",
	},
	Calm: {
		"calm", "peaceful", "relaxed", "quiet", "rest", "slow", "walk", "breathe", "meditate",
		"meditated", "meditation", "still", "gentle",
	},
	Grateful: {
		"grateful", "thankful", "thank you", "thanks", "appreciate", "blessed", "lucky",
	},
}

// Analyze tags text with the best scoring mood, or Neutral when nothing matches.
// Keywords only match whole words; phrases match runs of whole words.
func Analyze(text string) Decision {
	tokens := tokenize(text)
	if len(tokens) == 0 {
		return Decision{Mood: Neutral}
	}

	words := make(map[string]struct{}, len(tokens))
	for _, token := range tokens {
		words[token] = struct{}{}
	}
	joined := " " + strings.Join(tokens, " ") + " "

	scores := make(map[Label]int, len(keywordBuckets))
	for label, keywords := range keywordBuckets {
		for _, keyword := range keywords {
			if matches(keyword, words, joined) {
				scores[label] += 3
			}
		}
	}

	// A burst of exclamation marks reads as excitement unless something darker already scored.
	if exclamations := strings.Count(text, "!"); exclamations > 0 && scores[Sad] == 0 && scores[Angry] == 0 {
		scores[Happy] += exclamations
	}

	best := Neutral
	bestScore := 0
	for _, label := range labelOrder {
		if s := scores[label]; s > bestScore {
			best = label
			bestScore = s
		}
	}

	return Decision{Mood: best, Score: bestScore}
}

func tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && r != '\''
	})
}

func matches(keyword string, words map[string]struct{}, joined string) bool {
	if !strings.Contains(keyword, " ") {
		_, ok := words[keyword]
		return ok
	}
	return strings.Contains(joined, " "+keyword+" ")
}
