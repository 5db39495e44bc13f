package models

// ActivityLabel is a discrete classification of what the monitored child is
// doing at a given instant.
type ActivityLabel string

const (
	ActivityStudying   ActivityLabel = "studying"
	ActivityIdle       ActivityLabel = "idle"
	ActivityAway       ActivityLabel = "away"
	ActivityPlaying    ActivityLabel = "playing"
	ActivityDistracted ActivityLabel = "distracted"
	ActivityUnknown    ActivityLabel = "unknown"
)

// ValidActivityLabel reports whether the label is one the pipeline knows about.
func ValidActivityLabel(label ActivityLabel) bool {
	switch label {
	case ActivityStudying, ActivityIdle, ActivityAway, ActivityPlaying, ActivityDistracted, ActivityUnknown:
		return true
	}
	return false
}

type AlertKind string

const (
	AlertLeaveTooLong  AlertKind = "leave_too_long"
	AlertPlayWhileWork AlertKind = "play_while_work"
	AlertSessionStart  AlertKind = "session_start"
	AlertSessionEnd    AlertKind = "session_end"
)

// Point3D is a landmark in normalized image coordinates. X and Y grow
// rightward and downward; Z is depth, negative toward the camera.
type Point3D struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// PoseKeypoints carries the body landmarks the classifier needs. Fields are
// pointers so a device can omit landmarks it failed to resolve.
type PoseKeypoints struct {
	Nose          *Point3D `json:"nose"`
	LeftShoulder  *Point3D `json:"left_shoulder"`
	RightShoulder *Point3D `json:"right_shoulder"`
}

type HandObservation struct {
	Wrist    Point3D `json:"wrist"`
	IndexTip Point3D `json:"index_tip"`
	ThumbTip Point3D `json:"thumb_tip"`
}

// DetectionSnapshot is one per-instant observation from the on-device
// detector. It is immutable once received.
type DetectionSnapshot struct {
	PersonDetected bool              `json:"person_detected"`
	Pose           *PoseKeypoints    `json:"pose,omitempty"`
	Hands          []HandObservation `json:"hands,omitempty"`
}

type ClassificationResult struct {
	Label      ActivityLabel `json:"label"`
	Confidence float64       `json:"confidence"`
}

// StatusSnapshot is the smoothed view of a classification stream.
type StatusSnapshot struct {
	Status     ActivityLabel             `json:"status"`
	Ratios     map[ActivityLabel]float64 `json:"ratios"`
	Confidence float64                   `json:"confidence"`
}
