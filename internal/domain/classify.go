package domain

import "sort"

// HandType is the structural category of a played group of cards.
type HandType int

const (
	Invalid HandType = iota
	Single
	Pair
	Triple
	Straight
	Flush
	FullHouse
	FourKind
	StraightFlush
)

var handTypeNames = map[HandType]string{
	Invalid:       "invalid",
	Single:        "single",
	Pair:          "pair",
	Triple:        "triple",
	Straight:      "straight",
	Flush:         "flush",
	FullHouse:     "fullhouse",
	FourKind:      "fourkind",
	StraightFlush: "straightflush",
}

func (t HandType) String() string { return handTypeNames[t] }

// fiveCardRank orders the five-card categories against each other. Zero means
// the type is not a five-card hand.
var fiveCardRank = map[HandType]int{
	Straight:      1,
	Flush:         2,
	FullHouse:     3,
	FourKind:      4,
	StraightFlush: 5,
}

// HandClass is the classification of a group of cards, carrying the
// comparison keys for its type. A zero HandClass has Type Invalid.
//
//	Single:        Key = rank weight, Suit
//	Pair:          Key = rank weight, Suit = higher suit of the two
//	Triple:        Key = rank weight
//	Straight:      Key = high-card weight (wraparound sets use fixed highs)
//	Flush:         Suit, Top = highest rank weight
//	FullHouse:     Key = triple weight, PairRank = pair weight
//	FourKind:      Key = quad weight, Kicker = kicker weight
//	StraightFlush: Key = high-card weight
type HandClass struct {
	Type     HandType
	Key      int
	Suit     int
	Kicker   int
	PairRank int
	Top      int
}

// IsFiveCard reports whether the class is one of the five-card categories.
func (h HandClass) IsFiveCard() bool { return fiveCardRank[h.Type] != 0 }

// Classify determines the hand class of a proposed group of cards. Any group
// whose length is not 1, 2, 3 or 5, and any 5-card group matching no
// category, classifies as Invalid; malformed input never panics.
func Classify(cards []Card) HandClass {
	switch len(cards) {
	case 1:
		return HandClass{Type: Single, Key: RankWeight(cards[0].Rank), Suit: cards[0].Suit}
	case 2:
		wa, wb := RankWeight(cards[0].Rank), RankWeight(cards[1].Rank)
		if wa != wb {
			return HandClass{}
		}
		suit := cards[0].Suit
		if cards[1].Suit > suit {
			suit = cards[1].Suit
		}
		return HandClass{Type: Pair, Key: wa, Suit: suit}
	case 3:
		w := RankWeight(cards[0].Rank)
		if RankWeight(cards[1].Rank) != w || RankWeight(cards[2].Rank) != w {
			return HandClass{}
		}
		return HandClass{Type: Triple, Key: w}
	case 5:
		return classifyFive(cards)
	default:
		return HandClass{}
	}
}

func classifyFive(cards []Card) HandClass {
	flush := isFlush(cards)
	high, straight := straightHigh(cards)

	if straight && flush {
		return HandClass{Type: StraightFlush, Key: high}
	}

	groups := rankGroups(cards)
	if groups[0].count == 4 {
		return HandClass{Type: FourKind, Key: groups[0].weight, Kicker: groups[1].weight}
	}
	if groups[0].count == 3 && groups[1].count == 2 {
		return HandClass{Type: FullHouse, Key: groups[0].weight, PairRank: groups[1].weight}
	}

	if flush {
		top := 0
		for _, c := range cards {
			if w := RankWeight(c.Rank); w > top {
				top = w
			}
		}
		return HandClass{Type: Flush, Suit: cards[0].Suit, Top: top}
	}

	if straight {
		return HandClass{Type: Straight, Key: high}
	}

	return HandClass{}
}

func isFlush(cards []Card) bool {
	s := cards[0].Suit
	for _, c := range cards[1:] {
		if c.Suit != s {
			return false
		}
	}
	return true
}

// Wraparound straight sets, keyed by their sorted rank weights. Only these
// three non-consecutive sets qualify; each carries a fixed high card.
var wraparoundStraights = []struct {
	weights [5]int
	high    int
}{
	{[5]int{3, 4, 5, 14, 15}, 5},     // A-2-3-4-5, high 5
	{[5]int{11, 12, 13, 14, 15}, 15}, // J-Q-K-A-2, high 2
	{[5]int{3, 4, 5, 6, 15}, 6},      // 2-3-4-5-6, high 6
}

// straightHigh reports whether the five cards form a straight and its high
// card weight. Five consecutive weights with no duplicate qualify, as do
// the three explicit wraparound sets.
func straightHigh(cards []Card) (int, bool) {
	var weights [5]int
	for i, c := range cards {
		weights[i] = RankWeight(c.Rank)
	}
	sort.Ints(weights[:])

	for i := 1; i < 5; i++ {
		if weights[i] == weights[i-1] {
			return 0, false
		}
	}

	consecutive := true
	for i := 1; i < 5; i++ {
		if weights[i] != weights[i-1]+1 {
			consecutive = false
			break
		}
	}
	if consecutive {
		return weights[4], true
	}

	for _, ws := range wraparoundStraights {
		if weights == ws.weights {
			return ws.high, true
		}
	}

	return 0, false
}

type rankGroup struct {
	weight int
	count  int
}

// rankGroups buckets the cards by rank weight, largest group first, higher
// weight breaking ties.
func rankGroups(cards []Card) []rankGroup {
	counts := make(map[int]int, 5)
	for _, c := range cards {
		counts[RankWeight(c.Rank)]++
	}
	groups := make([]rankGroup, 0, len(counts))
	for w, n := range counts {
		groups = append(groups, rankGroup{weight: w, count: n})
	}
	sort.Slice(groups, func(i, j int) bool {
		if groups[i].count != groups[j].count {
			return groups[i].count > groups[j].count
		}
		return groups[i].weight > groups[j].weight
	})
	return groups
}

// Beats reports whether candidate beats target. An Invalid target means a
// free lead and always loses to any valid candidate. Five-card hands compare
// by category first; everything else requires identical type. Mismatched
// types never error, they simply do not beat.
func Beats(candidate, target HandClass) bool {
	if candidate.Type == Invalid {
		return false
	}
	if target.Type == Invalid {
		return true // free lead
	}

	if candidate.IsFiveCard() && target.IsFiveCard() {
		ca, ta := fiveCardRank[candidate.Type], fiveCardRank[target.Type]
		if ca != ta {
			return ca > ta
		}
		return beatsSameType(candidate, target)
	}

	if candidate.Type != target.Type {
		return false
	}
	return beatsSameType(candidate, target)
}

func beatsSameType(candidate, target HandClass) bool {
	switch candidate.Type {
	case Single, Pair:
		if candidate.Key != target.Key {
			return candidate.Key > target.Key
		}
		return candidate.Suit > target.Suit
	case Triple, Straight, StraightFlush:
		return candidate.Key > target.Key
	case FullHouse:
		if candidate.Key != target.Key {
			return candidate.Key > target.Key
		}
		return candidate.PairRank > target.PairRank
	case FourKind:
		if candidate.Key != target.Key {
			return candidate.Key > target.Key
		}
		return candidate.Kicker > target.Kicker
	case Flush:
		if candidate.Suit != target.Suit {
			return candidate.Suit > target.Suit
		}
		return candidate.Top > target.Top
	default:
		return false
	}
}
