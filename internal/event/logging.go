package event

import "github.com/bfgengine/lanecore/internal/logging"

// logHandlerFailure records a recovered handler panic. Contained failures never
// stop the tick loop; they are surfaced here purely for operators.
func logHandlerFailure(err error) {
	logging.L().Error("event handler panicked", logging.Error(err))
	recordHandlerFailure()
}

// logEntryPointFailure records an EntryPoint error before it escalates.
func logEntryPointFailure(lane string, err error) {
	logging.L().Error("entry point failed", logging.String("lane", lane), logging.Error(err))
}

// logTypeMismatch records a dropped EventStorage tuple caused by a type change
// between the first and a later emit on the same channel.
func logTypeMismatch(channel Channel, expected, actual string) {
	logging.L().Warn("event storage detected type mismatch on emit",
		logging.String("channel", channel.String()),
		logging.String("expected_type", expected),
		logging.String("actual_type", actual),
	)
}
