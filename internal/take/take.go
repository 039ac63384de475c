// Package take manages the take catalog and its backing asset store.
package take

// WorkingName is the reserved catalog key for the working take.
const WorkingName = "curr"

// Metadata holds the persisted attributes of a take. Size is the byte
// length of the backing WAV file, Time its runtime in seconds.
type Metadata struct {
	Size int64   `yaml:"size" json:"size"`
	Time float64 `yaml:"time" json:"time"`
}
