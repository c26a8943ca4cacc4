package storage

// Flags mirrors the backend flag surface spec §4.2 asks the environment and
// transaction layer to expose. Only NoSync, NoMetaSync, MapAsync and
// ReadOnly change pebble's behavior (WAL, commit sync, read-only open); the
// rest are accepted and ignored, kept only so callers porting flag
// combinations from the spec's backend contract have somewhere to put them.
type Flags uint32

const (
	NoSync Flags = 1 << iota
	NoMetaSync
	WriteMap
	MapAsync
	NoLock
	NoTLS
	NoReadAhead
	NoMemInit
	FixedMap
	NoSubdir
	ReadOnly
)

func (f Flags) has(bit Flags) bool {
	return f&bit != 0
}
