package state

import "errors"

// Set of errors returned when a block fails validation. Each error
// represents a distinct rule and is wrapped with the details of the
// failure, so use errors.Is to check for a kind.
var (
	ErrDuplicateBlock             = errors.New("block already exists")
	ErrUnknownParentBlock         = errors.New("unknown parent block")
	ErrDifficultyMismatch         = errors.New("difficulty does not match the ledger difficulty")
	ErrInsufficientProofOfWork    = errors.New("block hash does not solve the difficulty")
	ErrNonMonotonicTimestamp      = errors.New("timestamp is not after the parent block")
	ErrTimestampTooFarAhead       = errors.New("timestamp is too far ahead of current time")
	ErrMissingCoinbaseTransaction = errors.New("missing coinbase transaction")
	ErrNonZeroRewardOnNonCoinbase = errors.New("reward declared by a non coinbase transaction")
	ErrDuplicateTransaction       = errors.New("transaction already exists")
	ErrUnknownInputTransaction    = errors.New("input references an unknown transaction")
	ErrUnknownInputOutputIndex    = errors.New("input references an unknown output index")
	ErrDoubleSpend                = errors.New("output already spent in this block")
	ErrInvalidAuthorization       = errors.New("input authorization is invalid")
	ErrValueOverflow              = errors.New("value overflows")
	ErrOutputsExceedInputs        = errors.New("outputs exceed inputs")
	ErrCoinbaseFeeNotZero         = errors.New("coinbase transaction has a fee")
	ErrRewardAnnouncementMismatch = errors.New("announced reward does not match the block reward")
)

// validationErrors lists every error kind a block can be rejected with.
var validationErrors = []error{
	ErrDuplicateBlock,
	ErrUnknownParentBlock,
	ErrDifficultyMismatch,
	ErrInsufficientProofOfWork,
	ErrNonMonotonicTimestamp,
	ErrTimestampTooFarAhead,
	ErrMissingCoinbaseTransaction,
	ErrNonZeroRewardOnNonCoinbase,
	ErrDuplicateTransaction,
	ErrUnknownInputTransaction,
	ErrUnknownInputOutputIndex,
	ErrDoubleSpend,
	ErrInvalidAuthorization,
	ErrValueOverflow,
	ErrOutputsExceedInputs,
	ErrCoinbaseFeeNotZero,
	ErrRewardAnnouncementMismatch,
}

// IsValidationError reports whether the error is the rejection of an
// invalid block.
func IsValidationError(err error) bool {
	return ValidationKind(err) != nil
}

// ValidationKind returns the rule the block was rejected for, or nil when
// the error is not a validation error.
func ValidationKind(err error) error {
	for _, kind := range validationErrors {
		if errors.Is(err, kind) {
			return kind
		}
	}

	return nil
}
