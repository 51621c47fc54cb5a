package transcribe

import "fmt"

// Strategy selects how a file gets transcribed: by shelling out to the
// whisper executable or by loading a model in-process.
type Strategy string

const (
	StrategyCLI    Strategy = "cli"
	StrategyNative Strategy = "native"
)

func ParseStrategy(value string) (Strategy, error) {
	switch Strategy(value) {
	case StrategyCLI, StrategyNative:
		return Strategy(value), nil
	default:
		return "", fmt.Errorf("unknown engine %q (supported: cli, native)", value)
	}
}
