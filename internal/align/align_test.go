package align

import (
	"testing"
	"time"

	"quoteclip/internal/subtitle"
)

func track(texts ...string) subtitle.Track {
	tr := make(subtitle.Track, len(texts))
	for i, text := range texts {
		tr[i] = subtitle.Entry{
			Index:     i + 1,
			StartTime: time.Duration(i) * 2 * time.Second,
			EndTime:   time.Duration(i)*2*time.Second + time.Second,
			Text:      text,
		}
	}
	return tr
}

func TestLocateSpansTwoEntries(t *testing.T) {
	tr := track("Hello there.", "General Kenobi!")

	res := Locate("Hello there. General Kenobi!", tr)

	if res.StartIndex != 0 || res.EndIndex != 1 {
		t.Fatalf("span = %d..%d, want 0..1", res.StartIndex, res.EndIndex)
	}
	if res.Score < 0.99 {
		t.Errorf("score = %v, want ~1.0", res.Score)
	}
}

func TestLocateUnrelatedQuote(t *testing.T) {
	tr := track("Hello there.", "General Kenobi!")

	res := Locate("completely unrelated text", tr)

	if res != NoMatch {
		t.Fatalf("got %+v, want NoMatch", res)
	}
}

func TestLocateEmptyInputs(t *testing.T) {
	if res := Locate("", track("something")); res != NoMatch {
		t.Errorf("empty quote: got %+v", res)
	}
	if res := Locate("a quote", nil); res != NoMatch {
		t.Errorf("empty track: got %+v", res)
	}
	if res := Locate("?!...", track("something")); res != NoMatch {
		t.Errorf("quote normalizing to nothing: got %+v", res)
	}
}

func TestLocateSingleEntryContainment(t *testing.T) {
	tr := track(
		"Something else entirely.",
		"I am the one who knocks, he said.",
		"And then silence.",
	)

	res := Locate("I am the one who knocks", tr)

	if res.StartIndex != 1 || res.EndIndex != 1 {
		t.Fatalf("span = %d..%d, want 1..1", res.StartIndex, res.EndIndex)
	}
	if res.Score != 1.0 {
		t.Errorf("score = %v, want 1.0 on containment", res.Score)
	}
}

func TestLocateMultiEntryContainment(t *testing.T) {
	tr := track(
		"Previous scene dialogue here.",
		"I'm going to make him",
		"an offer",
		"he can't refuse.",
		"Later dialogue.",
	)

	res := Locate("I'm going to make him an offer he can't refuse.", tr)

	if res.StartIndex != 1 || res.EndIndex != 3 {
		t.Fatalf("span = %d..%d, want 1..3", res.StartIndex, res.EndIndex)
	}
	if res.Score != 1.0 {
		t.Errorf("score = %v, want 1.0 on containment", res.Score)
	}
}

func TestLocateAnchorsOnFirstCandidate(t *testing.T) {
	tr := track(
		"Crowd noise.",
		"Now this is podracing!",
		"Unrelated chatter.",
		"More chatter.",
		"Now this is podracing, again!",
	)

	res := Locate("now this is podracing yes", tr)

	if res.StartIndex != 1 {
		t.Fatalf("start = %d, want first anchor at 1", res.StartIndex)
	}
	if res.EndIndex != 1 {
		t.Errorf("end = %d, want 1", res.EndIndex)
	}
}

func TestLocateStopsAfterStaleEntries(t *testing.T) {
	texts := []string{"The quick brown fox jumps high."}
	junk := []string{
		"Marble columns lined the plaza.",
		"Vendors shouted over one another.",
		"Somewhere a bell rang twice.",
		"Dust settled on the rooftops.",
		"Pigeons scattered into the alleys.",
		"Carts rolled past the fountain.",
		"Lanterns flickered at dusk.",
	}
	texts = append(texts, junk...)

	// one word differs, so containment never fires and the span must
	// stop expanding on stale entries instead
	res := Locate("the quick brown fox leaps high", track(texts...))

	if res.StartIndex != 0 || res.EndIndex != 0 {
		t.Fatalf("span = %d..%d, want 0..0", res.StartIndex, res.EndIndex)
	}
	if res.Score < 0.8 {
		t.Errorf("score = %v, want > 0.8", res.Score)
	}
}

func TestLocateEndSignalFloorsScore(t *testing.T) {
	tr := track(
		"He began the ancient prophecy of stars.",
		"Merchants argued loudly about copper prices while servants carried heavy barrels toward distant cellars.",
		"Soldiers polished armor beside crackling fires as minstrels tuned their strings quietly upstairs.",
		"With dawn breaking over the mountains.",
	)
	quote := "He began the long tale that nobody in the hall could remember hearing before that night and it ended with dawn breaking over the mountains"

	res := Locate(quote, tr)

	if res.StartIndex != 0 || res.EndIndex != 3 {
		t.Fatalf("span = %d..%d, want 0..3", res.StartIndex, res.EndIndex)
	}
	if res.Score < EndSignalFloor {
		t.Errorf("score = %v, want at least the end-signal floor %v", res.Score, EndSignalFloor)
	}
}

func TestLocateFallbackSingleEntry(t *testing.T) {
	tr := track(
		"A quiet morning in the village.",
		"The crops failed again this year.",
		"We need to find more water soon.",
		"Nothing else matters now.",
	)

	// opening words never appear, so anchoring fails and the best
	// overlapping entry wins
	res := Locate("they say find extra water helps", tr)

	if res.StartIndex != 2 || res.EndIndex != 2 {
		t.Fatalf("span = %d..%d, want 2..2", res.StartIndex, res.EndIndex)
	}
	if res.Score <= FallbackMinScore {
		t.Errorf("score = %v, want above %v", res.Score, FallbackMinScore)
	}
}

func TestLocateFallbackExpandsWhileImproving(t *testing.T) {
	tr := track(
		"Unrelated prelude line.",
		"Every choice",
		"echoes through",
		"eternity itself.",
	)

	res := Locate("every choice echoes through eternity itself", tr)

	if res.StartIndex != 1 || res.EndIndex != 3 {
		t.Fatalf("span = %d..%d, want 1..3", res.StartIndex, res.EndIndex)
	}
	if res.Score < 0.99 {
		t.Errorf("score = %v, want ~1.0", res.Score)
	}
}

func TestLocateFallbackRejectsWeakMatch(t *testing.T) {
	tr := track("The weather is nice.", "Dinner at eight.")

	res := Locate("a tale of seven kingdoms and the iron throne tonight", tr)

	if res != NoMatch {
		t.Fatalf("got %+v, want NoMatch", res)
	}
}
