package engine

// Default tuning values; overridable through configuration
const (
	DefaultDateWindowDays      = 3
	DefaultTieEpsilon          = 0.01
	DefaultMaxSplitItems       = 5
	DefaultSplitCandidateCap   = 32
	DefaultSplitToleranceMinor = 1
	DefaultAutoAcceptScore     = 0.92
	DefaultMinSuggestionScore  = 0.50
)

// Params are the configuration knobs of the matching pipeline
type Params struct {
	// DateWindowDays bounds the AmountAndDate strategy (± calendar days),
	// absorbing bank processing and settlement lag
	DateWindowDays int
	// TieEpsilon is the confidence margin inside which competing candidates
	// count as tied and escalate to manual resolution
	TieEpsilon float64
	// MaxSplitItems caps how many items one side of a split match may hold
	MaxSplitItems int
	// SplitCandidateCap caps the candidate set fed to the subset-sum search
	SplitCandidateCap int
	// SplitToleranceMinor is the rounding tolerance of the split sum, in minor units
	SplitToleranceMinor int64
	// AutoAcceptScore is the suggestion score above which an Automatic run
	// commits an uncontested suggestion
	AutoAcceptScore float64
	// MinSuggestionScore drops scored pairs below this floor entirely
	MinSuggestionScore float64
	// FeeKeywords classify unmatched bank debits as bank fees when the line
	// description contains one of them
	FeeKeywords []string
}

// DefaultParams returns the engine defaults
func DefaultParams() Params {
	return Params{
		DateWindowDays:      DefaultDateWindowDays,
		TieEpsilon:          DefaultTieEpsilon,
		MaxSplitItems:       DefaultMaxSplitItems,
		SplitCandidateCap:   DefaultSplitCandidateCap,
		SplitToleranceMinor: DefaultSplitToleranceMinor,
		AutoAcceptScore:     DefaultAutoAcceptScore,
		MinSuggestionScore:  DefaultMinSuggestionScore,
		FeeKeywords:         []string{"fee", "charge", "commission", "service charge"},
	}
}
