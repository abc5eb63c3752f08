package engine

import (
	"context"
	"fmt"
	"math/rand/v2"
	"slices"
	"sync"
	"time"

	"ladders/game"
	"ladders/learning"
	"ladders/meta"
	"ladders/metrics"
	"ladders/oracle"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

type Option func(e *Engine)

func WithBoard(board *game.Board) Option {
	return func(e *Engine) {
		if board != nil {
			e.board = board
		}
	}
}

func WithRules(rules game.Rules) Option {
	return func(e *Engine) {
		if rules != nil {
			e.rules = rules
		}
	}
}

func WithOracle(client *oracle.Client) Option {
	return func(e *Engine) {
		if client != nil {
			e.oracle = client
		}
	}
}

func WithLearning(store learning.Store) Option {
	return func(e *Engine) {
		if store != nil {
			e.store = store
		}
	}
}

func WithRoller(roller Roller) Option {
	return func(e *Engine) {
		if roller != nil {
			e.roller = roller
		}
	}
}

func WithTopology(topology Topology) Option {
	return func(e *Engine) {
		if topology != nil {
			e.topology = topology
		}
	}
}

func WithObserver(observer Observer) Option {
	return func(e *Engine) {
		if observer != nil {
			e.observer = observer
		}
	}
}

func WithShopWindow(window ShopWindow) Option {
	return func(e *Engine) {
		e.window = window
	}
}

func WithMetrics(collector metrics.Collector) Option {
	return func(e *Engine) {
		if collector != nil {
			e.metrics = collector
		}
	}
}

// WithSettleDelay sets the pause between an item's effect and the next turn.
// Zero disables it.
func WithSettleDelay(delay time.Duration) Option {
	return func(e *Engine) {
		if delay >= 0 {
			e.settleDelay = delay
		}
	}
}

func WithSeed(seed uint64) Option {
	return func(e *Engine) {
		e.rng = rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	}
}

func WithEffectDuration(turns int) Option {
	return func(e *Engine) {
		if turns > 0 {
			e.duration = turns
		}
	}
}

func WithShopTimePerPlayer(d time.Duration) Option {
	return func(e *Engine) {
		if d > 0 {
			e.shopTime = d
		}
	}
}

func WithShopOfferSize(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.offerSize = n
		}
	}
}

// WithMaxTurns stops automated play after n turns. Zero means no limit.
func WithMaxTurns(n int) Option {
	return func(e *Engine) {
		if n >= 0 {
			e.maxTurns = n
		}
	}
}

type pendingStun struct {
	user *game.PlayerProfile
	item string
}

type pendingBomb struct {
	owner  *game.PlayerProfile
	item   string
	effect game.PlaceBomb
}

type trap struct {
	tile    int
	bomb    pendingBomb
	expires int // turn count at which the trap disarms
}

// Engine is the turn scheduler for one session. Every exported method is
// safe for concurrent use; calls are serialized and automated players'
// turns are played out before a call returns.
type Engine struct {
	mu sync.Mutex

	session  string
	board    *game.Board
	rules    game.Rules
	players  []*game.PlayerProfile
	statuses *game.StatusRegistry
	mover    *Mover
	shop     *Shop

	phase   game.Phase
	current int
	round   int
	turns   int
	winner  *game.PlayerProfile
	started bool
	botTurn bool

	stun  *pendingStun
	bomb  *pendingBomb
	traps []trap

	oracle    *oracle.Client
	heuristic *oracle.Heuristic
	store     learning.Store
	roller    Roller
	topology  Topology
	observer  Observer
	window    ShopWindow
	metrics   metrics.Collector
	rng       *rand.Rand

	settleDelay time.Duration
	duration    int
	shopTime    time.Duration
	offerSize   int
	maxTurns    int
	fallbacks   int
}

// New validates the roster and builds a session. Players keep their
// pointers: the engine owns and mutates them from here on.
func New(players []*game.PlayerProfile, options ...Option) (*Engine, error) {
	if len(players) != meta.PLAYERS {
		return nil, fmt.Errorf("need exactly %d players, got %d", meta.PLAYERS, len(players))
	}

	e := &Engine{ // Default values
		session:     uuid.NewString(),
		board:       game.DefaultBoard(),
		rules:       game.NewStandardRules(),
		players:     players,
		oracle:      oracle.NewClient(nil),
		store:       learning.NewFileStore(""),
		topology:    GridTopology{Width: 10},
		observer:    nopObserver{},
		metrics:     metrics.NewDummyCollector(),
		rng:         rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())),
		settleDelay: meta.SETTLE_DELAY,
		duration:    meta.EFFECT_DURATION,
		shopTime:    meta.SHOP_TIME_PER_PLAYER,
		offerSize:   meta.SHOP_OFFER_SIZE,
	}
	for _, option := range options {
		option(e)
	}
	if e.roller == nil {
		e.roller = diceRoller{rng: e.rng}
	}

	size := e.board.Graph.Size()
	seen := make(map[game.PlayerID]bool, len(players))
	for i, p := range players {
		if p == nil {
			return nil, fmt.Errorf("player %d is missing", i+1)
		}
		if p.ID == "" || seen[p.ID] {
			return nil, fmt.Errorf("player %d has a missing or duplicate id %q", i+1, p.ID)
		}
		seen[p.ID] = true
		if p.Tile < meta.FIRST_TILE || p.Tile > size {
			return nil, fmt.Errorf("player %s starts on tile %d outside [%d,%d]", p.Name, p.Tile, meta.FIRST_TILE, size)
		}
		if len(p.Items) > meta.MAX_ITEMS {
			return nil, fmt.Errorf("player %s starts with %d items", p.Name, len(p.Items))
		}
	}

	e.statuses = game.NewStatusRegistry(e.duration)
	for _, p := range players {
		e.statuses.Register(p.ID)
	}
	e.heuristic = oracle.NewHeuristic(e.board)
	e.mover = &Mover{
		board:    e.board,
		rules:    e.rules,
		statuses: e.statuses,
		topology: e.topology,
		notify:   e.notify,
		consumed: e.recordUse,
	}
	e.shop = &Shop{e: e, window: e.window, timePerPlayer: e.shopTime, offerSize: e.offerSize}
	return e, nil
}

// Start begins the first player's turn.
func (e *Engine) Start(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.started {
		return fmt.Errorf("%w: session already started", ErrWrongPhase)
	}
	e.started = true
	log.Info().Str("session", e.session).Msgf("%s is starting", e.players[0].Name)
	e.beginTurn(e.players[0])
	return e.drain(ctx)
}

// RollDice plays the current human player's turn with the given dice value.
func (e *Engine) RollDice(ctx context.Context, value int) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.humanTurn(game.Normal); err != nil {
		return err
	}
	if value < 1 || value > 6 {
		return fmt.Errorf("%w: %d", ErrInvalidRoll, value)
	}
	e.botTurn = false
	if err := e.takeTurn(ctx, value); err != nil {
		return err
	}
	return e.drain(ctx)
}

// UseItem consumes an owned item while the inventory is open.
func (e *Engine) UseItem(ctx context.Context, name string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.humanTurn(game.CheckingInventory); err != nil {
		return err
	}
	if err := e.useItem(ctx, e.players[e.current], name); err != nil {
		return err
	}
	return e.drain(ctx)
}

// CancelInventory closes the inventory without using anything and ends the turn.
func (e *Engine) CancelInventory(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.humanTurn(game.CheckingInventory); err != nil {
		return err
	}
	e.closeInventory(e.players[e.current])
	if err := e.advanceTurn(ctx); err != nil {
		return err
	}
	return e.drain(ctx)
}

// StunCandidates lists the players the current player may stun, in seat order.
func (e *Engine) StunCandidates() []game.PlayerID {
	e.mu.Lock()
	defer e.mu.Unlock()

	var ids []game.PlayerID
	for _, p := range e.stunCandidates(e.players[e.current]) {
		ids = append(ids, p.ID)
	}
	return ids
}

// SelectStunTarget resolves a pending stun.
func (e *Engine) SelectStunTarget(ctx context.Context, id game.PlayerID) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.winner != nil {
		return ErrGameOver
	}
	if e.stun == nil {
		return fmt.Errorf("%w: no stun pending", ErrWrongPhase)
	}
	target := e.player(id)
	if target == nil || target == e.stun.user || e.statuses.Is(id, game.Stunned) {
		return fmt.Errorf("%w: %s", ErrInvalidTarget, id)
	}
	if err := e.resolveStun(ctx, target); err != nil {
		return err
	}
	return e.drain(ctx)
}

// PlaceBomb arms the pending bomb on tile.
func (e *Engine) PlaceBomb(ctx context.Context, tile int) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.winner != nil {
		return ErrGameOver
	}
	if e.bomb == nil {
		return fmt.Errorf("%w: no bomb pending", ErrWrongPhase)
	}
	if err := e.placeBomb(ctx, tile); err != nil {
		return err
	}
	return e.drain(ctx)
}

// humanTurn checks that the current human player may act in phase.
func (e *Engine) humanTurn(phase game.Phase) error {
	if e.winner != nil {
		return ErrGameOver
	}
	if !e.started {
		return fmt.Errorf("%w: session not started", ErrWrongPhase)
	}
	if e.phase != phase || e.stun != nil || e.bomb != nil {
		return fmt.Errorf("%w: %s", ErrWrongPhase, e.phase)
	}
	if e.players[e.current].Automated {
		return ErrNotYourTurn
	}
	return nil
}

// drain plays automated turns until a human has to act or the session ends.
func (e *Engine) drain(ctx context.Context) error {
	for e.winner == nil && e.botTurn {
		if err := ctx.Err(); err != nil {
			return err
		}
		if e.maxTurns > 0 && e.turns >= e.maxTurns {
			return ErrTurnLimit
		}
		e.botTurn = false
		if err := e.takeTurn(ctx, e.roller.Roll()); err != nil {
			return err
		}
	}
	return nil
}

func (e *Engine) notify(ev Event) {
	if ev.Round == 0 {
		ev.Round = e.round
	}
	e.observer.Notify(ev)
}

func (e *Engine) player(id game.PlayerID) *game.PlayerProfile {
	for _, p := range e.players {
		if p.ID == id {
			return p
		}
	}
	return nil
}

// settle pauses between an effect and the next turn.
func (e *Engine) settle(ctx context.Context) {
	if e.settleDelay <= 0 {
		return
	}
	t := time.NewTimer(e.settleDelay)
	defer t.Stop()
	select {
	case <-t.C:
	case <-ctx.Done():
	}
}

// view is what the current state reveals to p's agent. Slices are copied so
// a transport still encoding after a timeout never races with the engine.
func (e *Engine) view(p *game.PlayerProfile) oracle.View {
	v := oracle.View{
		Player: p.ID,
		Name:   p.Name,
		Tile:   p.Tile,
		Points: p.Points,
		Items:  slices.Clone(p.Items),
		Status: e.statuses.Get(p.ID).Status,
		Round:  e.round,
	}
	for _, o := range e.players {
		if o.ID == p.ID {
			continue
		}
		v.Opponents = append(v.Opponents, oracle.Seat{
			ID:     o.ID,
			Tile:   o.Tile,
			Items:  slices.Clone(o.Items),
			Status: e.statuses.Get(o.ID).Status,
		})
	}
	return v
}

// decide asks the oracle on behalf of p. An oracle answer that fails valid
// is discarded in favour of the fallback.
func (e *Engine) decide(ctx context.Context, kind oracle.Kind, p *game.PlayerProfile, candidates []string, fallback oracle.Fallback, valid func(string) bool) (string, bool) {
	d := e.oracle.Decide(ctx, oracle.NewRequest(kind, e.view(p), candidates), fallback)
	if d.Source == oracle.SourceFallback {
		e.fallbacks++
	}
	if d.Skip {
		return "", false
	}
	if valid(d.Choice) {
		return d.Choice, true
	}
	if d.Source == oracle.SourceOracle {
		log.Warn().Str("player", p.Name).Str("kind", string(kind)).Msgf("discarding invalid oracle choice %q", d.Choice)
		e.fallbacks++
		if choice, ok := fallback(); ok && valid(choice) {
			return choice, true
		}
	}
	return "", false
}

func (e *Engine) recordUse(p *game.PlayerProfile, item string) {
	e.metrics.ItemUsed(item)
	if err := e.store.RecordItemUsed(item, p.Tile); err != nil {
		log.Warn().Err(err).Msg("failed to record item use")
	}
}

func (e *Engine) recordHit(item string, rank int) {
	if err := e.store.RecordItemHit(item, rank); err != nil {
		log.Warn().Err(err).Msg("failed to record item hit")
	}
}

func (e *Engine) Phase() game.Phase {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.phase
}

func (e *Engine) Round() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.round
}

func (e *Engine) Turns() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.turns
}

func (e *Engine) Session() string {
	return e.session
}

// Fallbacks counts automated decisions that did not come from the oracle.
func (e *Engine) Fallbacks() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.fallbacks
}

func (e *Engine) Current() game.PlayerProfile {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.players[e.current].Copy()
}

func (e *Engine) Winner() (game.PlayerProfile, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.winner == nil {
		return game.PlayerProfile{}, false
	}
	return e.winner.Copy(), true
}

// Snapshot is a read-only copy of the session state.
type Snapshot struct {
	Session  string
	Phase    game.Phase
	Round    int
	Turns    int
	Current  game.PlayerID
	Winner   game.PlayerID
	Players  []game.PlayerProfile
	Statuses map[game.PlayerID]game.StatusEffect
	Traps    []int
}

func (e *Engine) Snapshot() Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()

	s := Snapshot{
		Session:  e.session,
		Phase:    e.phase,
		Round:    e.round,
		Turns:    e.turns,
		Current:  e.players[e.current].ID,
		Statuses: make(map[game.PlayerID]game.StatusEffect, len(e.players)),
	}
	if e.winner != nil {
		s.Winner = e.winner.ID
	}
	for _, p := range e.players {
		s.Players = append(s.Players, p.Copy())
		s.Statuses[p.ID] = e.statuses.Get(p.ID)
	}
	for _, t := range e.traps {
		s.Traps = append(s.Traps, t.tile)
	}
	return s
}
