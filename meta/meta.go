// meta/meta.go
package meta

import "time"

// PLAYERS is the number of seats in a session.
const PLAYERS = 4

// FIRST_TILE and LAST_TILE bound the path.
const FIRST_TILE = 1
const LAST_TILE = 100

// STEP_POINTS is awarded for every tile advanced (and for every redirect).
const STEP_POINTS = 10

// MULTIPLIER_BONUS is added to STEP_POINTS while PointsMultiplier is active.
const MULTIPLIER_BONUS = 5

// WIN_BONUS is awarded on reaching LAST_TILE.
const WIN_BONUS = 5000

// CROWNS_TO_WIN ends the session.
const CROWNS_TO_WIN = 2

// EFFECT_DURATION is the shared duration of every timed status.
const EFFECT_DURATION = 3

// MAX_ITEMS is the inventory capacity.
const MAX_ITEMS = 3

// SHOP_EVERY_ROUNDS opens the shop on every n-th round.
const SHOP_EVERY_ROUNDS = 2

// SHOP_OFFER_SIZE caps the random subset revealed by the shop.
const SHOP_OFFER_SIZE = 6

// BOMB_LEAD is how far ahead of the leader an automated agent drops a bomb.
const BOMB_LEAD = 4

// SNAKE_LOOKAHEAD is the distance within which a snake counts as a known hazard.
const SNAKE_LOOKAHEAD = 6

// MAX_TURNS stops headless simulations that never produce a winner.
const MAX_TURNS = 2000

// ORACLE_TIMEOUT bounds the wait for an external decision.
const ORACLE_TIMEOUT = 8 * time.Second

// SHOP_TIME_PER_PLAYER is a human's purchase window.
const SHOP_TIME_PER_PLAYER = 10 * time.Second

// SETTLE_DELAY separates an item's effect from the next turn.
const SETTLE_DELAY = 200 * time.Millisecond
