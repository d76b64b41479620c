package quote

import (
	"context"
	"errors"
	"fmt"

	"referral-attribution/internal/chain"
	"referral-attribution/internal/domain"
	"referral-attribution/internal/num"
	"referral-attribution/internal/storage"
)

// DefaultMaxHops caps route length through the pair graph. Pair graphs
// are cyclic, so traversal is iterative with a visited set and a hard
// depth limit rather than recursive.
const DefaultMaxHops = 4

// HopQuoter prices a single hop across one pair edge.
type HopQuoter interface {
	// QuoteHop returns how much of the opposite token amountIn of tokenIn
	// buys across the given pair.
	QuoteHop(ctx context.Context, edge *domain.PairEdge, tokenIn string, amountIn *num.Uint) (*num.Uint, error)
}

// Graph is a pair-graph route finder and per-route quoter. It implements
// chain.Quoter by discovering the shortest edge path from the input token
// to the quote token and pricing hop by hop.
type Graph struct {
	pairs    storage.PairEdgeStore
	hops     HopQuoter
	decimals chain.Quoter // decimals source only
	maxHops  int
}

// NewGraph creates a Graph quoter. decimalsSource supplies TokenDecimals;
// its UnitQuote is never called.
func NewGraph(pairs storage.PairEdgeStore, hops HopQuoter, decimalsSource chain.Quoter, maxHops int) *Graph {
	if maxHops <= 0 {
		maxHops = DefaultMaxHops
	}
	return &Graph{
		pairs:    pairs,
		hops:     hops,
		decimals: decimalsSource,
		maxHops:  maxHops,
	}
}

// RegisterPair adds a pair-created event to the graph. Duplicate pairs
// are ignored.
func (g *Graph) RegisterPair(ctx context.Context, edge *domain.PairEdge) error {
	err := g.pairs.Insert(ctx, edge)
	if err != nil && !errors.Is(err, storage.ErrDuplicateKey) {
		return fmt.Errorf("register pair %s: %w", edge.Pair, err)
	}
	return nil
}

// UnitQuote prices unitAmount of tokenIn in quoteToken along the
// shortest discovered route. Returns chain.ErrNoRoute when the graph does
// not connect the two tokens within the hop cap.
func (g *Graph) UnitQuote(ctx context.Context, tokenIn, quoteToken string, unitAmount *num.Uint) (*num.Uint, error) {
	route, err := g.FindRoute(ctx, tokenIn, quoteToken)
	if err != nil {
		return nil, err
	}

	amount := unitAmount.Clone()
	current := tokenIn
	for _, edge := range route {
		amount, err = g.hops.QuoteHop(ctx, edge, current, amount)
		if err != nil {
			return nil, fmt.Errorf("quote hop across %s: %w", edge.Pair, err)
		}
		current = otherToken(edge, current)
	}
	return amount, nil
}

// TokenDecimals delegates to the configured decimals source.
func (g *Graph) TokenDecimals(ctx context.Context, token string) (uint8, error) {
	return g.decimals.TokenDecimals(ctx, token)
}

// FindRoute returns the shortest edge path from tokenIn to tokenOut using
// iterative breadth-first search. Cycles are cut by the visited set and
// the path length is capped at maxHops.
func (g *Graph) FindRoute(ctx context.Context, tokenIn, tokenOut string) ([]*domain.PairEdge, error) {
	if tokenIn == tokenOut {
		return nil, nil
	}

	type node struct {
		token string
		path  []*domain.PairEdge
	}

	visited := map[string]bool{tokenIn: true}
	queue := []node{{token: tokenIn}}

	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]

		if len(cur.path) >= g.maxHops {
			continue
		}

		edges, err := g.pairs.EdgesFor(ctx, cur.token)
		if err != nil {
			return nil, fmt.Errorf("load edges for %s: %w", cur.token, err)
		}

		for _, edge := range edges {
			next := otherToken(edge, cur.token)
			if visited[next] {
				continue
			}
			visited[next] = true

			path := make([]*domain.PairEdge, len(cur.path), len(cur.path)+1)
			copy(path, cur.path)
			path = append(path, edge)

			if next == tokenOut {
				return path, nil
			}
			queue = append(queue, node{token: next, path: path})
		}
	}

	return nil, chain.ErrNoRoute
}

func otherToken(edge *domain.PairEdge, token string) string {
	if edge.Token0 == token {
		return edge.Token1
	}
	return edge.Token0
}

var _ chain.Quoter = (*Graph)(nil)
