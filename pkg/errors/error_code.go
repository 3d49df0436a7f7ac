package errors

// ErrorCode represents a unique error code for identifying different error types.
type ErrorCode int

const (
	// General errors (1-99)
	ErrCodeUnknown ErrorCode = 1

	// Validation errors (100-199)
	ErrCodeInvalidParameter     ErrorCode = 100
	ErrCodeInvalidConfiguration ErrorCode = 101
	ErrCodeInvalidPeriod        ErrorCode = 102
	ErrCodeInvalidTradeRequest  ErrorCode = 103
	ErrCodeInvalidThreshold     ErrorCode = 104
	ErrCodeMissingParameter     ErrorCode = 105
	ErrCodeInvalidType          ErrorCode = 106
	ErrCodeMissingCredential    ErrorCode = 107

	// Indicator errors (200-299)
	ErrCodeInsufficientData       ErrorCode = 200
	ErrCodeIndicatorNotFound      ErrorCode = 201
	ErrCodeIndicatorAlreadyExists ErrorCode = 202
	ErrCodeIndicatorCalculation   ErrorCode = 203

	// Market data errors (300-399)
	ErrCodeMarketDataFetchFailed ErrorCode = 300
	ErrCodeMarketDataParseFailed ErrorCode = 301
	ErrCodePriceNotFound         ErrorCode = 302
	ErrCodePairNotFound          ErrorCode = 303
	ErrCodeInvalidProvider       ErrorCode = 304

	// Execution errors (400-499)
	ErrCodeTradeFailed       ErrorCode = 400
	ErrCodePortfolioFailed   ErrorCode = 401
	ErrCodeBalanceFailed     ErrorCode = 402
	ErrCodeQuoteFailed       ErrorCode = 403
	ErrCodeInsufficientFunds ErrorCode = 404

	// Oracle errors (500-599)
	ErrCodeOracleRequestFailed ErrorCode = 500
	ErrCodeOracleParseFailed   ErrorCode = 501

	// Store errors (600-699)
	ErrCodeStoreNotLoaded     ErrorCode = 600
	ErrCodeStoreWriteFailed   ErrorCode = 601
	ErrCodeStoreReadFailed    ErrorCode = 602
	ErrCodePositionNotFound   ErrorCode = 603
	ErrCodeDuplicatePositionID ErrorCode = 604

	// Engine errors (700-799)
	ErrCodeEngineNotInitialized ErrorCode = 700
	ErrCodeCycleFailed          ErrorCode = 701
	ErrCodeUnsupportedStrategy  ErrorCode = 702

	// Journal errors (800-899)
	ErrCodeJournalOpenFailed  ErrorCode = 800
	ErrCodeJournalWriteFailed ErrorCode = 801
	ErrCodeJournalQueryFailed ErrorCode = 802
)
