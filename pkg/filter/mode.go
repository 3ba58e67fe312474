package filter

import "github.com/calebhs/mdrive/pkg/errors"

// Mode selects which destination layout(s) a rule feeds.
type Mode int

const (
	// ModeBoth includes a file in the organized and shuffled layouts
	ModeBoth Mode = iota

	// ModeOrganized includes a file in the organized layout only
	ModeOrganized

	// ModeShuffled includes a file in the shuffled layout only
	ModeShuffled
)

// Mode tokens as they appear in rule files
const (
	modeTokenBoth      = "both"
	modeTokenOrganized = "organized"
	modeTokenShuffled  = "shuffled"
)

// ParseMode converts a rule-file mode token into a Mode.
func ParseMode(s string) (Mode, error) {
	switch s {
	case modeTokenBoth:
		return ModeBoth, nil
	case modeTokenOrganized:
		return ModeOrganized, nil
	case modeTokenShuffled:
		return ModeShuffled, nil
	default:
		return 0, errors.Newf(errors.ErrConfigParse, "unrecognized mode %q", s)
	}
}

// Organized reports whether the mode includes the organized layout.
func (m Mode) Organized() bool {
	return m == ModeBoth || m == ModeOrganized
}

// Shuffled reports whether the mode includes the shuffled layout.
func (m Mode) Shuffled() bool {
	return m == ModeBoth || m == ModeShuffled
}

func (m Mode) String() string {
	switch m {
	case ModeOrganized:
		return modeTokenOrganized
	case ModeShuffled:
		return modeTokenShuffled
	default:
		return modeTokenBoth
	}
}
