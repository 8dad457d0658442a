package annotations

import "fmt"

// ConfigurationError reports a dataset-level configuration problem discovered
// while loading the annotation database, such as a video with no usable
// frame-rate.
type ConfigurationError struct {
	Field string
	Msg   string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("configuration error: %s: %s", e.Field, e.Msg)
}

// ValidationError reports a malformed annotation entry: a segment with
// missing or non-increasing bounds, or a label that a pre-supplied dictionary
// does not know about.
type ValidationError struct {
	VideoID string
	Msg     string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid annotation for video %s: %s", e.VideoID, e.Msg)
}
