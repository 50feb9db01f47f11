package listing

import "testing"

func TestPageNormalize(t *testing.T) {
	cases := []struct {
		in         Page
		wantPage   int
		wantLimit  int
		wantOffset int
	}{
		{Page{}, 1, DefaultLimit, 0},
		{Page{Page: 3, Limit: 10}, 3, 10, 20},
		{Page{Page: -1, Limit: 1000}, 1, MaxLimit, 0},
	}
	for _, tc := range cases {
		got := tc.in.Normalize()
		if got.Page != tc.wantPage || got.Limit != tc.wantLimit || tc.in.Offset() != tc.wantOffset {
			t.Fatalf("Normalize(%+v) = %+v offset=%d", tc.in, got, tc.in.Offset())
		}
	}
}

func TestLikeEscapesWildcards(t *testing.T) {
	if got := Like(" 50%_Off "); got != `%50\%\_off%` {
		t.Fatalf("Like = %q", got)
	}
}
