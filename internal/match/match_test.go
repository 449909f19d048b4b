package match

import "testing"

func TestTopN_RanksByScore(t *testing.T) {
	titles := map[int][]string{
		5114:  {"Fullmetal Alchemist: Brotherhood", "Hagane no Renkinjutsushi"},
		30276: {"One Punch Man", "OPM"},
		21:    {"One Piece"},
	}

	matches := TopN("one punch man", titles, 3)
	if len(matches) != 3 {
		t.Fatalf("len(matches) = %d, want 3", len(matches))
	}
	if matches[0].ID != 30276 {
		t.Errorf("best match id = %d, want 30276", matches[0].ID)
	}
	if matches[0].Matched != "One Punch Man" {
		t.Errorf("best match title = %q, want One Punch Man", matches[0].Matched)
	}

	for i := 1; i < len(matches); i++ {
		if matches[i].Score > matches[i-1].Score {
			t.Errorf("matches not sorted: score[%d]=%f > score[%d]=%f",
				i, matches[i].Score, i-1, matches[i-1].Score)
		}
	}
}

func TestTopN_ExactMatchScoresFull(t *testing.T) {
	titles := map[int][]string{1: {"Frieren"}}

	matches := TopN("frieren", titles, 1)
	if len(matches) != 1 {
		t.Fatalf("len(matches) = %d, want 1", len(matches))
	}
	if matches[0].Score != 100 {
		t.Errorf("exact match score = %f, want 100", matches[0].Score)
	}
}

func TestTopN_TruncatesToN(t *testing.T) {
	titles := map[int][]string{
		1: {"aaa", "aab", "aac"},
		2: {"aad", "aae"},
	}

	if got := len(TopN("aaa", titles, 2)); got != 2 {
		t.Errorf("len = %d, want 2", got)
	}
}

func TestTopN_EdgeCases(t *testing.T) {
	if got := TopN("query", nil, 3); len(got) != 0 {
		t.Errorf("empty title map yielded %d matches", len(got))
	}
	if got := TopN("query", map[int][]string{1: {"a"}}, 0); got != nil {
		t.Errorf("n=0 yielded %v", got)
	}
	if got := TopN("query", map[int][]string{1: {""}}, 3); len(got) != 0 {
		t.Errorf("blank titles yielded %d matches", len(got))
	}
}
