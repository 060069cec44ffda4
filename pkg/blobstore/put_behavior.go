package blobstore

// PutBehavior selects the overwrite policy a backend should apply to
// a put. It is passed through the multiplex unmodified: the multiplex
// never inspects or acts on its value, it only forwards it to
// PutExplicit on every normal and write-mostly backend.
type PutBehavior int

const (
	// PutBehaviorDefault lets the backend apply its own default
	// policy. PutWithStatus always uses this behavior implicitly;
	// it is also the zero value so an unset PutBehavior behaves the
	// same way.
	PutBehaviorDefault PutBehavior = iota
	// PutBehaviorOverwrite always stores value, replacing any
	// existing blob under key.
	PutBehaviorOverwrite
	// PutBehaviorIfAbsent stores value only if key is not already
	// present, without reporting which case occurred.
	PutBehaviorIfAbsent
	// PutBehaviorIfAbsentChecked stores value only if key is not
	// already present, and reports via OverwriteStatus whether the
	// key was new.
	PutBehaviorIfAbsentChecked
)

// String renders the behavior for diagnostics.
func (b PutBehavior) String() string {
	switch b {
	case PutBehaviorOverwrite:
		return "Overwrite"
	case PutBehaviorIfAbsent:
		return "IfAbsent"
	case PutBehaviorIfAbsentChecked:
		return "IfAbsentChecked"
	default:
		return "Default"
	}
}

// OverwriteStatus reports what a put did to the target key. The
// multiplex can only report NotChecked on success: because it
// short-circuits as soon as a write quorum is reached, it has not
// heard back from every backend and cannot honestly claim to know the
// semantic outcome (spec.md §4.3, rationale).
type OverwriteStatus int

const (
	// OverwriteStatusNotChecked is returned by every multiplexed put
	// that succeeds: the multiplex does not know (and does not wait
	// to find out) whether any individual backend considered this a
	// new key, an overwrite, or a prevented overwrite.
	OverwriteStatusNotChecked OverwriteStatus = iota
	// OverwriteStatusNewKey reports that the key did not previously
	// exist at the backend that reported this status.
	OverwriteStatusNewKey
	// OverwriteStatusOverwrote reports that an existing blob was
	// replaced.
	OverwriteStatusOverwrote
	// OverwriteStatusPreventedOverwrite reports that an
	// IfAbsent/IfAbsentChecked put found an existing blob and left
	// it untouched.
	OverwriteStatusPreventedOverwrite
)

// String renders the status for diagnostics.
func (s OverwriteStatus) String() string {
	switch s {
	case OverwriteStatusNewKey:
		return "NewKey"
	case OverwriteStatusOverwrote:
		return "Overwrote"
	case OverwriteStatusPreventedOverwrite:
		return "PreventedOverwrite"
	default:
		return "NotChecked"
	}
}
