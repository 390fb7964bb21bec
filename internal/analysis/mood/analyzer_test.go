package mood

import "testing"

func TestAnalyzeSadEntry(t *testing.T) {
	decision := Analyze("I cried on the bus and felt so lonely")
	if decision.Mood != Sad {
		t.Fatalf("expected sad mood, got %s", decision.Mood)
	}
	if decision.Score <= 0 {
		t.Fatalf("expected positive score, got %d", decision.Score)
	}
}

func TestAnalyzeAnxiousEntry(t *testing.T) {
	decision := Analyze("I feel overwhelmed by work today, the deadline is tomorrow")
	if decision.Mood != Anxious {
		t.Fatalf("expected anxious mood, got %s", decision.Mood)
	}
}

func TestAnalyzeExclamationsLeanHappy(t *testing.T) {
	decision := Analyze("We finally shipped it!!!")
	if decision.Mood != Happy {
		t.Fatalf("expected happy mood, got %s", decision.Mood)
	}
}

func TestAnalyzeNeutralWhenNothingMatches(t *testing.T) {
	for _, text := range []string{"", "   ", "Bought groceries."} {
		if got := Analyze(text).Mood; got != Neutral {
			t.Fatalf("Analyze(%q) = %s, want neutral", text, got)
		}
	}
}

func TestAnalyzeIgnoresKeywordsInsideWords(t *testing.T) {
	for _, text := range []string{
		"I made a cake for mom",
		"Went to a funeral today",
		"I downloaded a new book",
		"It was interesting",
	} {
		if got := Analyze(text).Mood; got != Neutral {
			t.Fatalf("Analyze(%q) = %s, want neutral", text, got)
		}
	}
}

func TestAnalyzeMatchesPhrasesAcrossPunctuation(t *testing.T) {
	if got := Analyze("Honestly, I can't sleep.").Mood; got != Anxious {
		t.Fatalf("expected anxious mood, got %s", got)
	}
	if got := Analyze("I'm so FED UP with this").Mood; got != Angry {
		t.Fatalf("expected angry mood, got %s", got)
	}
}
