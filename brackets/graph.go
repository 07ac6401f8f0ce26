package brackets

import (
	"fmt"

	"github.com/matchpoint-app/matchpoint/models"
)

// The generators build a proto-match graph where every slot is fed by a
// known registration, the winner/loser of an earlier match, or nothing
// (a structural bye). resolve then walks the graph in insertion order,
// removes byes and walkover pass-throughs, and emits only playable
// matches with forward advancement links.

type feedKind int

const (
	feedEmpty feedKind = iota
	feedReg
	feedWinnerOf
	feedLoserOf
)

type feed struct {
	kind  feedKind
	regID int
	src   string
}

func emptyFeed() feed          { return feed{kind: feedEmpty} }
func regFeed(id int) feed      { return feed{kind: feedReg, regID: id} }
func winnerOf(uid string) feed { return feed{kind: feedWinnerOf, src: uid} }
func loserOf(uid string) feed  { return feed{kind: feedLoserOf, src: uid} }

type protoMatch struct {
	uid     string
	bracket models.BracketKind
	round   int
	order   int
	feeds   [2]feed
}

type matchState int

const (
	statePlayable matchState = iota
	// stateBye: exactly one real participant, who advances without playing.
	stateBye
	// stateVoid: no participant can ever reach this match.
	stateVoid
	// stateCollapsed: one pending feed, no opposition; the pending feed
	// passes straight through to this match's winner target.
	stateCollapsed
)

type graph struct {
	order     []string
	matches   map[string]*protoMatch
	states    map[string]matchState
	byeWinner map[string]int
	redirects map[string]feed
}

func newGraph() *graph {
	return &graph{
		matches:   make(map[string]*protoMatch),
		states:    make(map[string]matchState),
		byeWinner: make(map[string]int),
		redirects: make(map[string]feed),
	}
}

// add appends a proto-match. Feeds may only reference UIDs added earlier;
// insertion order doubles as topological order for resolve.
func (g *graph) add(uid string, bracket models.BracketKind, round, order int, f1, f2 feed) {
	g.order = append(g.order, uid)
	g.matches[uid] = &protoMatch{
		uid:     uid,
		bracket: bracket,
		round:   round,
		order:   order,
		feeds:   [2]feed{f1, f2},
	}
}

// normalize chases a feed through resolved sources until it lands on a
// concrete registration, an empty slot, or a still-playable source.
func (g *graph) normalize(f feed) feed {
	for {
		switch f.kind {
		case feedWinnerOf:
			switch g.states[f.src] {
			case stateBye:
				f = regFeed(g.byeWinner[f.src])
			case stateVoid:
				f = emptyFeed()
			case stateCollapsed:
				f = g.redirects[f.src]
			default:
				return f
			}
		case feedLoserOf:
			// A bye, void or collapsed match produces no loser.
			switch g.states[f.src] {
			case stateBye, stateVoid, stateCollapsed:
				f = emptyFeed()
			default:
				return f
			}
		default:
			return f
		}
	}
}

func (g *graph) resolve() ([]*BracketMatch, error) {
	for _, uid := range g.order {
		m := g.matches[uid]
		m.feeds[0] = g.normalize(m.feeds[0])
		m.feeds[1] = g.normalize(m.feeds[1])
		a, b := m.feeds[0], m.feeds[1]

		switch {
		case a.kind == feedReg && b.kind == feedReg:
			g.states[uid] = statePlayable
		case a.kind == feedReg && b.kind == feedEmpty:
			g.states[uid] = stateBye
			g.byeWinner[uid] = a.regID
		case b.kind == feedReg && a.kind == feedEmpty:
			g.states[uid] = stateBye
			g.byeWinner[uid] = b.regID
		case a.kind == feedEmpty && b.kind == feedEmpty:
			g.states[uid] = stateVoid
		case a.kind == feedEmpty:
			g.states[uid] = stateCollapsed
			g.redirects[uid] = b
		case b.kind == feedEmpty:
			g.states[uid] = stateCollapsed
			g.redirects[uid] = a
		default:
			g.states[uid] = statePlayable
		}
	}

	out := make([]*BracketMatch, 0, len(g.order))
	index := make(map[string]*BracketMatch)
	for _, uid := range g.order {
		if g.states[uid] != statePlayable {
			continue
		}
		m := g.matches[uid]
		bm := &BracketMatch{
			UID:          m.uid,
			Bracket:      m.bracket,
			Round:        m.round,
			OrderInRound: m.order,
		}
		if m.feeds[0].kind == feedReg {
			id := m.feeds[0].regID
			bm.Registration1ID = &id
		}
		if m.feeds[1].kind == feedReg {
			id := m.feeds[1].regID
			bm.Registration2ID = &id
		}
		out = append(out, bm)
		index[uid] = bm
	}

	// Invert the remaining pending feeds into forward advancement links.
	for _, uid := range g.order {
		if g.states[uid] != statePlayable {
			continue
		}
		m := g.matches[uid]
		for i, f := range m.feeds {
			if f.kind != feedWinnerOf && f.kind != feedLoserOf {
				continue
			}
			src, ok := index[f.src]
			if !ok {
				return nil, fmt.Errorf("match %s fed by unresolved source %s", uid, f.src)
			}
			target := uid
			slot := i + 1
			if f.kind == feedWinnerOf {
				src.WinnerToUID = &target
				src.WinnerToSlot = &slot
			} else {
				src.LoserToUID = &target
				src.LoserToSlot = &slot
			}
		}
	}

	return out, nil
}

// seedOrder returns the classic bracket position sequence for a full
// bracket of the given size (a power of two), so that the top seeds can
// only meet in the latest possible round: 1,2 -> 1,4,2,3 -> 1,8,4,5,2,7,3,6.
func seedOrder(size int) []int {
	order := []int{1}
	for len(order) < size {
		n := len(order) * 2
		next := make([]int, 0, n)
		for _, s := range order {
			next = append(next, s, n+1-s)
		}
		order = next
	}
	return order
}

// buildWinnersBracket lays down a full single-elimination structure over
// the next power of two, seeds beyond len(regs) becoming byes. Returns
// the number of rounds.
func buildWinnersBracket(g *graph, regs []*models.Registration) int {
	n := len(regs)
	rounds := 1
	for 1<<rounds < n {
		rounds++
	}
	size := 1 << rounds

	positions := seedOrder(size)
	matchesInRound := size / 2
	for m := 1; m <= matchesInRound; m++ {
		f1 := emptyFeed()
		if s := positions[2*(m-1)]; s <= n {
			f1 = regFeed(regs[s-1].ID)
		}
		f2 := emptyFeed()
		if s := positions[2*m-1]; s <= n {
			f2 = regFeed(regs[s-1].ID)
		}
		g.add(winnersUID(1, m), models.BracketWinners, 1, m, f1, f2)
	}

	for r := 2; r <= rounds; r++ {
		matchesInRound /= 2
		for m := 1; m <= matchesInRound; m++ {
			g.add(winnersUID(r, m), models.BracketWinners, r, m,
				winnerOf(winnersUID(r-1, 2*m-1)),
				winnerOf(winnersUID(r-1, 2*m)))
		}
	}
	return rounds
}

func winnersUID(round, order int) string {
	return fmt.Sprintf("WR%dM%d", round, order)
}

func losersUID(round, order int) string {
	return fmt.Sprintf("LR%dM%d", round, order)
}
