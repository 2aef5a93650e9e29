package domain

import (
	"errors"
)

// ──────────────────────────────────────────────────────────────────────────────
// Sentinel errors, compared with errors.Is()
// ──────────────────────────────────────────────────────────────────────────────

// Validation errors
var (
	// ErrEmptyQuestion is returned when a market is created with no question text.
	ErrEmptyQuestion = errors.New("question cannot be empty")

	// ErrQuestionTooLong is returned when the question exceeds MaxQuestionLen bytes.
	ErrQuestionTooLong = errors.New("question exceeds the maximum length")

	// ErrInvalidCloseTime is returned when close_time is not strictly in the future.
	ErrInvalidCloseTime = errors.New("close time must be in the future")

	// ErrInvalidLiquidity is returned when initial liquidity is zero.
	ErrInvalidLiquidity = errors.New("initial liquidity must be greater than zero")

	// ErrLiquidityTooLow is returned when initial liquidity is below MinLiquidity.
	ErrLiquidityTooLow = errors.New("initial liquidity below minimum required")

	// ErrInvalidAmount is returned when a bet's gross amount is zero.
	ErrInvalidAmount = errors.New("bet amount must be greater than zero")

	// ErrInvalidSide is returned when the side is neither YES nor NO.
	ErrInvalidSide = errors.New("invalid side: must be YES or NO")

	// ErrInvalidFeeRate is returned when the protocol fee rate exceeds 10000 bps.
	ErrInvalidFeeRate = errors.New("fee rate must not exceed 10000 basis points")

	// ErrCannotBetBothSides is returned when a bettor with an existing position
	// tries to bet the opposite side of the same market.
	ErrCannotBetBothSides = errors.New("cannot bet on both sides of a market")
)

// State errors
var (
	// ErrMarketNotFound is returned when no market matches the given id.
	ErrMarketNotFound = errors.New("market not found")

	// ErrMarketNotActive is returned when an operation requires an active market.
	ErrMarketNotActive = errors.New("market is not in active state")

	// ErrInvalidState is returned when a state filter names an unknown state.
	ErrInvalidState = errors.New("invalid market state")

	// ErrMarketClosed is returned when a bet arrives at or after close_time.
	ErrMarketClosed = errors.New("market has closed, no more bets allowed")

	// ErrMarketStillOpen is returned when resolution is attempted before close_time.
	ErrMarketStillOpen = errors.New("market is still open, cannot resolve yet")

	// ErrAlreadyResolved is returned when resolving an already-resolved market.
	ErrAlreadyResolved = errors.New("market has already been resolved")

	// ErrNotResolved is returned when a claim arrives before resolution.
	ErrNotResolved = errors.New("market has not been resolved yet")

	// ErrProtocolNotInitialized is returned when no protocol state row exists.
	ErrProtocolNotInitialized = errors.New("protocol has not been initialized")

	// ErrProtocolAlreadyInitialized is returned on a second initialization attempt.
	ErrProtocolAlreadyInitialized = errors.New("protocol is already initialized")
)

// Authorization errors
var (
	// ErrUnauthorizedResolver is returned when the caller is not the market's
	// designated resolver.
	ErrUnauthorizedResolver = errors.New("only the designated resolver can resolve this market")
)

// Settlement errors
var (
	// ErrPositionNotFound is returned when no position exists for (market, user).
	ErrPositionNotFound = errors.New("position not found")

	// ErrAlreadyClaimed is returned on a second payout claim for the same position.
	ErrAlreadyClaimed = errors.New("position has already been claimed")

	// ErrPositionLost is returned when a losing position attempts a payout claim.
	ErrPositionLost = errors.New("this position is on the losing side")

	// ErrNoFeesToClaim is returned when an LP fee claim finds nothing accrued.
	ErrNoFeesToClaim = errors.New("no fees to claim")

	// ErrInsufficientBalance is returned by the ledger when the source account
	// cannot cover a transfer.
	ErrInsufficientBalance = errors.New("insufficient balance")

	// ErrInsufficientVault is returned when the market escrow cannot cover a
	// payout or fee claim.
	ErrInsufficientVault = errors.New("insufficient vault balance for payout")

	// ErrAccountNotFound is returned when a ledger account does not exist.
	ErrAccountNotFound = errors.New("ledger account not found")
)

// Arithmetic errors
var (
	// ErrOverflow is returned by any checked operation whose result does not
	// fit the target integer type. The enclosing operation must abort with no
	// state mutation.
	ErrOverflow = errors.New("integer overflow in calculation")
)

// Auth / account errors
var (
	// ErrUserNotFound is returned when no user matches the given criteria.
	ErrUserNotFound = errors.New("user not found")

	// ErrEmailTaken is returned on registration when the email already exists.
	ErrEmailTaken = errors.New("email address is already registered")

	// ErrUsernameTaken is returned on registration when the username already exists.
	ErrUsernameTaken = errors.New("username is already taken")

	// ErrInvalidCredentials is returned when login credentials are wrong.
	ErrInvalidCredentials = errors.New("invalid email or password")

	// ErrUserInactive is returned when a suspended user attempts an action.
	ErrUserInactive = errors.New("user account is inactive")

	// ErrUnauthorized is returned when a valid token is not present.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrForbidden is returned when the caller does not own the target entity.
	ErrForbidden = errors.New("forbidden: insufficient permissions")

	// ErrTokenExpired is returned when a JWT has passed its TTL.
	ErrTokenExpired = errors.New("token has expired")

	// ErrTokenInvalid is returned when a token cannot be parsed or its
	// signature does not match.
	ErrTokenInvalid = errors.New("token is invalid")
)

// ──────────────────────────────────────────────────────────────────────────────
// Helper predicates
// ──────────────────────────────────────────────────────────────────────────────

// notFoundErrors collects all "entity not found" sentinel errors so that
// IsNotFound can stay in sync automatically.
var notFoundErrors = []error{
	ErrMarketNotFound,
	ErrPositionNotFound,
	ErrUserNotFound,
	ErrAccountNotFound,
	ErrProtocolNotInitialized,
}

// IsNotFound returns true when err (or any error in its chain) is one of the
// domain "not found" errors. Use this instead of comparing error values
// directly when translating domain errors to HTTP 404 responses.
func IsNotFound(err error) bool {
	for _, target := range notFoundErrors {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// IsConflict returns true for errors that represent a state conflict (e.g.
// double resolution, double claim, betting into a closed market).
func IsConflict(err error) bool {
	conflictErrors := []error{
		ErrMarketNotActive,
		ErrMarketClosed,
		ErrMarketStillOpen,
		ErrAlreadyResolved,
		ErrNotResolved,
		ErrAlreadyClaimed,
		ErrCannotBetBothSides,
		ErrNoFeesToClaim,
		ErrProtocolAlreadyInitialized,
		ErrEmailTaken,
		ErrUsernameTaken,
	}
	for _, target := range conflictErrors {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// IsValidation returns true for request-shape errors that map to HTTP 400.
func IsValidation(err error) bool {
	validationErrors := []error{
		ErrEmptyQuestion,
		ErrQuestionTooLong,
		ErrInvalidCloseTime,
		ErrInvalidLiquidity,
		ErrLiquidityTooLow,
		ErrInvalidAmount,
		ErrInvalidSide,
		ErrInvalidFeeRate,
		ErrInvalidState,
	}
	for _, target := range validationErrors {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// IsAuthError returns true for authentication/authorisation errors.
func IsAuthError(err error) bool {
	authErrors := []error{
		ErrUnauthorized,
		ErrForbidden,
		ErrTokenExpired,
		ErrTokenInvalid,
		ErrInvalidCredentials,
		ErrUnauthorizedResolver,
	}
	for _, target := range authErrors {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
